package usecase

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/smartmark/smartmark"
	"github.com/smartmark/smartmark/internal/domain"
)

// CreateBookmarkInput is the validated input for saving a bookmark.
type CreateBookmarkInput struct {
	Title string
	URL   string
	Owner string
}

type BookmarkUsecase struct {
	repo      BookmarkRepository
	publisher EventPublisher
}

func NewBookmarkUsecase(repo BookmarkRepository, publisher EventPublisher) *BookmarkUsecase {
	return &BookmarkUsecase{
		repo:      repo,
		publisher: publisher,
	}
}

func (uc *BookmarkUsecase) List(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	return uc.repo.ListByOwner(ctx, ownerID)
}

func (uc *BookmarkUsecase) Create(ctx context.Context, input CreateBookmarkInput) (domain.Bookmark, error) {
	if input.Title == "" {
		return domain.Bookmark{}, errors.New("title is required")
	}
	if input.URL == "" {
		return domain.Bookmark{}, errors.New("url is required")
	}
	if input.Owner == "" {
		return domain.Bookmark{}, errors.New("owner is required")
	}

	created, err := uc.repo.Create(ctx, domain.Bookmark{
		Title: input.Title,
		URL:   input.URL,
		Owner: input.Owner,
	})
	if err != nil {
		return domain.Bookmark{}, errors.Wrap(err, "failed to create bookmark")
	}

	uc.publish(ctx, created.Owner, smartmark.Event{
		Type:  smartmark.EventTypeInsert,
		Owner: created.Owner,
		New: &smartmark.Bookmark{
			ID:        created.ID,
			Title:     created.Title,
			URL:       created.URL,
			Owner:     created.Owner,
			CreatedAt: created.CreatedAt,
		},
	})

	return created, nil
}

func (uc *BookmarkUsecase) Delete(ctx context.Context, requesterID string, id string) error {
	bookmark, err := uc.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if bookmark.Owner != requesterID {
		return domain.ForbiddenError{Resource: "bookmark"}
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete bookmark")
	}

	uc.publish(ctx, bookmark.Owner, smartmark.Event{
		Type:  smartmark.EventTypeDelete,
		Owner: bookmark.Owner,
		OldID: bookmark.ID,
	})

	return nil
}

// publish failures are logged, not returned: the row change is already
// committed and the bulk load remains the source of truth.
func (uc *BookmarkUsecase) publish(ctx context.Context, ownerID string, event smartmark.Event) {
	if err := uc.publisher.Publish(ctx, ownerID, event); err != nil {
		slog.ErrorContext(
			ctx, "failed to publish change event",
			slog.String("error", err.Error()),
			slog.String("module", "bookmark"),
		)
	}
}
