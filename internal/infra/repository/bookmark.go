package repository

import (
	"context"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"

	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/infra/database/models"
)

type BookmarkRepository struct {
	db *gorm.DB
}

func NewBookmarkRepository(db *gorm.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bookmark, error) {
	var rows []models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("c_date desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	bookmarks := make([]domain.Bookmark, 0, len(rows))
	for _, row := range rows {
		bookmarks = append(bookmarks, toDomainBookmark(row))
	}
	return bookmarks, nil
}

func (r *BookmarkRepository) Create(ctx context.Context, bookmark domain.Bookmark) (domain.Bookmark, error) {
	row := models.Bookmark{
		ID:     xid.New().String(),
		Title:  bookmark.Title,
		URL:    bookmark.URL,
		UserID: bookmark.Owner,
		CDate:  time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return domain.Bookmark{}, err
	}

	return toDomainBookmark(row), nil
}

func (r *BookmarkRepository) Get(ctx context.Context, id string) (domain.Bookmark, error) {
	var row models.Bookmark
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Bookmark{}, domain.NotFoundError{Resource: "bookmark"}
		}
		return domain.Bookmark{}, err
	}

	return toDomainBookmark(row), nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Bookmark{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "bookmark"}
	}
	return nil
}

func toDomainBookmark(row models.Bookmark) domain.Bookmark {
	return domain.Bookmark{
		ID:        row.ID,
		Title:     row.Title,
		URL:       row.URL,
		Owner:     row.UserID,
		CreatedAt: row.CDate,
	}
}
