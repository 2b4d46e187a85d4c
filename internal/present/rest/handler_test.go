package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/smartmark/smartmark"
	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/present/rest/middleware"
	"github.com/smartmark/smartmark/internal/service"
	"github.com/smartmark/smartmark/internal/usecase"
)

// --- mocks ---

type mockBookmarkRepo struct {
	bookmarks map[string]domain.Bookmark
	nextID    int
}

func newMockBookmarkRepo() *mockBookmarkRepo {
	return &mockBookmarkRepo{bookmarks: map[string]domain.Bookmark{}}
}

func (m *mockBookmarkRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	result := []domain.Bookmark{}
	for _, b := range m.bookmarks {
		if b.Owner == ownerID {
			result = append(result, b)
		}
	}
	return result, nil
}

func (m *mockBookmarkRepo) Create(ctx context.Context, bookmark domain.Bookmark) (domain.Bookmark, error) {
	m.nextID++
	bookmark.ID = fmt.Sprintf("b%d", m.nextID)
	bookmark.CreatedAt = time.Now()
	m.bookmarks[bookmark.ID] = bookmark
	return bookmark, nil
}

func (m *mockBookmarkRepo) Get(ctx context.Context, id string) (domain.Bookmark, error) {
	b, ok := m.bookmarks[id]
	if !ok {
		return domain.Bookmark{}, domain.NotFoundError{Resource: "bookmark"}
	}
	return b, nil
}

func (m *mockBookmarkRepo) Delete(ctx context.Context, id string) error {
	delete(m.bookmarks, id)
	return nil
}

type mockUserRepo struct {
	users map[string]domain.User
}

func (m *mockUserRepo) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	user.ID = "u-" + user.Subject
	m.users[user.ID] = user
	return user, nil
}

func (m *mockUserRepo) Get(ctx context.Context, id string) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

type mockPublisher struct {
	events []smartmark.Event
}

func (m *mockPublisher) Publish(ctx context.Context, ownerID string, event smartmark.Event) error {
	m.events = append(m.events, event)
	return nil
}

// --- helpers ---

type fixture struct {
	e     *echo.Echo
	auth  *service.AuthService
	pub   *mockPublisher
	users *mockUserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := &mockUserRepo{users: map[string]domain.User{}}
	pub := &mockPublisher{}

	bookmarkUC := usecase.NewBookmarkUsecase(newMockBookmarkRepo(), pub)
	userUC := usecase.NewUserUsecase(users)
	auth := service.NewAuthService("mark.example.com", "test-secret", userUC, nil)

	h := NewHandler(bookmarkUC, userUC, auth, nil)

	e := echo.New()
	e.Use(middleware.NewAuthMiddleware(auth).IdentifyIdentity)
	h.RegisterRoutes(e)

	return &fixture{e: e, auth: auth, pub: pub, users: users}
}

func (f *fixture) signIn(t *testing.T, subject string, email string) string {
	t.Helper()

	user, err := f.users.Upsert(context.Background(), domain.User{
		Email:    email,
		Provider: "google",
		Subject:  subject,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	token, _, err := f.auth.IssueToken(context.Background(), user.ID, user.Email)
	if err != nil {
		t.Fatalf("issue token failed: %v", err)
	}
	return token
}

func (f *fixture) request(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("authorization", "Bearer "+token)
	}
	res := httptest.NewRecorder()
	f.e.ServeHTTP(res, req)
	return res
}

// --- tests ---

func TestBookmarksRequireAuth(t *testing.T) {
	f := newFixture(t)

	res := f.request(http.MethodGet, "/api/v1/bookmarks", "", nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", res.Code)
	}
}

func TestSessionRoundtrip(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "sub-1", "one@example.com")

	res := f.request(http.MethodGet, "/api/v1/session", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	var session smartmark.Session
	if err := json.Unmarshal(res.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if session.User.Email != "one@example.com" {
		t.Fatalf("unexpected session user: %+v", session.User)
	}
}

func TestCreateListDeleteBookmark(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "sub-1", "one@example.com")

	body, _ := json.Marshal(smartmark.CreateBookmarkRequest{
		Title: "Site A",
		URL:   "https://a.test",
	})
	res := f.request(http.MethodPost, "/api/v1/bookmarks", token, body)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", res.Code, res.Body.String())
	}

	var created domain.Bookmark
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if created.Owner != "u-sub-1" {
		t.Fatalf("expected owner u-sub-1 got %s", created.Owner)
	}

	res = f.request(http.MethodGet, "/api/v1/bookmarks", token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var listed []domain.Bookmark
	if err := json.Unmarshal(res.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("unexpected list: %+v", listed)
	}

	res = f.request(http.MethodDelete, "/api/v1/bookmarks/"+created.ID, token, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}

	if len(f.pub.events) != 2 {
		t.Fatalf("expected insert+delete events got %d", len(f.pub.events))
	}
	if f.pub.events[1].Type != smartmark.EventTypeDelete || f.pub.events[1].OldID != created.ID {
		t.Fatalf("unexpected delete event: %+v", f.pub.events[1])
	}
}

func TestCreateBookmarkRejectsEmptyTitle(t *testing.T) {
	f := newFixture(t)
	token := f.signIn(t, "sub-1", "one@example.com")

	body, _ := json.Marshal(smartmark.CreateBookmarkRequest{URL: "https://a.test"})
	res := f.request(http.MethodPost, "/api/v1/bookmarks", token, body)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", res.Code)
	}
}

func TestDeleteForeignBookmarkForbidden(t *testing.T) {
	f := newFixture(t)
	owner := f.signIn(t, "sub-1", "one@example.com")
	other := f.signIn(t, "sub-2", "two@example.com")

	body, _ := json.Marshal(smartmark.CreateBookmarkRequest{
		Title: "Site A",
		URL:   "https://a.test",
	})
	res := f.request(http.MethodPost, "/api/v1/bookmarks", owner, body)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", res.Code)
	}
	var created domain.Bookmark
	if err := json.Unmarshal(res.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	res = f.request(http.MethodDelete, "/api/v1/bookmarks/"+created.ID, other, nil)
	if res.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", res.Code)
	}
}
