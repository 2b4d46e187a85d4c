package live

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/smartmark/smartmark"
)

var (
	ErrNoIdentity = errors.New("not signed in")
	ErrEmptyTitle = errors.New("title must not be empty")
	ErrEmptyURL   = errors.New("url must not be empty")
)

// Identity is the authenticated user principal for the current session.
type Identity struct {
	ID    string
	Email string
}

// Snapshot is a copy of the engine state, safe to read from any goroutine.
type Snapshot struct {
	Identity    *Identity
	Bookmarks   []smartmark.Bookmark
	Initialized bool
}

type eventKind int

const (
	authChanged eventKind = iota
	collectionLoaded
	rowInserted
	rowDeleted
)

type engineEvent struct {
	kind      eventKind
	session   *smartmark.Session
	bookmarks []smartmark.Bookmark
	row       smartmark.Event
	gen       uint64
}

// Engine keeps the in-memory bookmark collection of the current identity
// consistent with the data store. All state lives on a single loop
// goroutine; the bulk load, mutations and the change feed run outside it
// and report back as tagged events, so no locking is needed.
//
// Mutations are not applied optimistically: a local add or remove only
// changes the collection once its change event comes back from the feed.
// The collection therefore never contains a row the store rejected, and
// local and remote mutations share one code path.
type Engine struct {
	auth  AuthService
	store DataStore
	feed  ChangeFeed

	// OnChange, when set before Run, is invoked from the loop with a
	// snapshot after every state transition.
	OnChange func(Snapshot)

	logger *slog.Logger

	events    chan engineEvent
	snapshots chan chan Snapshot

	// owned by the loop goroutine
	identity    *Identity
	bookmarks   []smartmark.Bookmark
	initialized bool
	generation  uint64
	cancelFeed  context.CancelFunc
}

func New(auth AuthService, store DataStore, feed ChangeFeed, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		auth:      auth,
		store:     store,
		feed:      feed,
		logger:    logger,
		events:    make(chan engineEvent, 16),
		snapshots: make(chan chan Snapshot),
	}
}

// Run queries the existing session once, then consumes events until ctx
// is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	unsubscribe := e.auth.SubscribeToAuthChanges(func(session *smartmark.Session) {
		select {
		case e.events <- engineEvent{kind: authChanged, session: session}:
		case <-ctx.Done():
		}
	})
	defer unsubscribe()

	session, err := e.auth.GetCurrentSession(ctx)
	if err != nil {
		e.logger.Error(
			"failed to query current session",
			slog.String("error", err.Error()),
			slog.String("module", "live"),
		)
		session = nil
	}
	e.applyAuth(ctx, session)
	e.initialized = true
	e.notify()

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return ctx.Err()
		case resp := <-e.snapshots:
			resp <- e.snapshot()
		case event := <-e.events:
			e.dispatch(ctx, event)
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, event engineEvent) {
	switch event.kind {
	case authChanged:
		e.applyAuth(ctx, event.session)
	case collectionLoaded:
		if event.gen != e.generation {
			return
		}
		e.bookmarks = event.bookmarks
		e.notify()
	case rowInserted:
		if event.gen != e.generation || event.row.New == nil {
			return
		}
		e.bookmarks = append([]smartmark.Bookmark{*event.row.New}, e.bookmarks...)
		e.notify()
	case rowDeleted:
		if event.gen != e.generation {
			return
		}
		for i, bookmark := range e.bookmarks {
			if bookmark.ID == event.row.OldID {
				e.bookmarks = append(e.bookmarks[:i], e.bookmarks[i+1:]...)
				e.notify()
				break
			}
		}
	}
}

func (e *Engine) applyAuth(ctx context.Context, session *smartmark.Session) {
	if session == nil || session.User.ID == "" {
		if e.identity == nil {
			return
		}
		e.teardown()
		e.notify()
		return
	}

	identity := Identity{ID: session.User.ID, Email: session.User.Email}
	sameOwner := e.identity != nil && e.identity.ID == identity.ID

	e.closeFeed()
	if !sameOwner {
		e.bookmarks = nil
	}
	e.identity = &identity
	e.generation++

	feedCtx, cancel := context.WithCancel(ctx)
	e.cancelFeed = cancel
	go e.bootstrap(feedCtx, identity.ID, e.generation)
	e.notify()
}

func (e *Engine) teardown() {
	e.closeFeed()
	e.identity = nil
	e.bookmarks = nil
	e.generation++
}

func (e *Engine) closeFeed() {
	if e.cancelFeed != nil {
		e.cancelFeed()
		e.cancelFeed = nil
	}
}

// bootstrap does the bulk load and then pumps the change feed. It runs
// outside the loop; a stale generation means the identity moved on and
// its results are discarded.
func (e *Engine) bootstrap(ctx context.Context, ownerID string, gen uint64) {
	bookmarks, err := e.store.ListBookmarks(ctx, ownerID)
	if err != nil {
		// collection left as-is, no retry
		e.logger.Error(
			"bookmark load failed",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
			slog.String("module", "live"),
		)
	} else {
		e.post(ctx, engineEvent{kind: collectionLoaded, bookmarks: bookmarks, gen: gen})
	}

	events, err := e.feed.Subscribe(ctx, ownerID)
	if err != nil {
		e.logger.Error(
			"change feed unavailable",
			slog.String("owner", ownerID),
			slog.String("error", err.Error()),
			slog.String("module", "live"),
		)
		return
	}

	for event := range events {
		kind := rowInserted
		switch event.Type {
		case smartmark.EventTypeInsert:
		case smartmark.EventTypeDelete:
			kind = rowDeleted
		default:
			continue
		}
		e.post(ctx, engineEvent{kind: kind, row: event, gen: gen})
	}
}

func (e *Engine) post(ctx context.Context, event engineEvent) {
	select {
	case e.events <- event:
	case <-ctx.Done():
	}
}

func (e *Engine) snapshot() Snapshot {
	snap := Snapshot{Initialized: e.initialized}
	if e.identity != nil {
		identity := *e.identity
		snap.Identity = &identity
	}
	snap.Bookmarks = append([]smartmark.Bookmark(nil), e.bookmarks...)
	return snap
}

func (e *Engine) notify() {
	if e.OnChange != nil {
		e.OnChange(e.snapshot())
	}
}

// Snapshot returns a copy of the current state. It blocks until the loop
// serves the request or ctx is cancelled.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	resp := make(chan Snapshot, 1)
	select {
	case e.snapshots <- resp:
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snap := <-resp:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Add persists a bookmark for the current identity. The collection is
// not touched here; the row arrives through the change feed. On error
// the caller should keep its pending input so the user can retry.
func (e *Engine) Add(ctx context.Context, title string, url string) error {
	snap, err := e.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snap.Identity == nil {
		return ErrNoIdentity
	}
	if title == "" {
		return ErrEmptyTitle
	}
	if url == "" {
		return ErrEmptyURL
	}
	return e.store.InsertBookmark(ctx, title, url, snap.Identity.ID)
}

// Remove deletes a bookmark from the store. The local row disappears
// when the delete event arrives, not before.
func (e *Engine) Remove(ctx context.Context, id string) error {
	return e.store.DeleteBookmark(ctx, id)
}

// SignIn starts an OAuth login. The identity change, if any, arrives
// later through the auth subscription.
func (e *Engine) SignIn(ctx context.Context, provider string) error {
	return e.auth.SignInWithOAuth(ctx, provider)
}

// SignOut terminates the session; teardown happens when the auth
// subscription reports the transition.
func (e *Engine) SignOut(ctx context.Context) error {
	return e.auth.SignOut(ctx)
}
