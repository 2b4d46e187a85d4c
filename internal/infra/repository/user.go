package repository

import (
	"context"
	"time"

	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartmark/smartmark/internal/domain"
	"github.com/smartmark/smartmark/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert keeps one row per provider+subject pair. The generated id of the
// existing row survives repeated sign-ins; only the email is refreshed.
func (r *UserRepository) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	row := models.User{
		ID:       xid.New().String(),
		Email:    user.Email,
		Provider: user.Provider,
		Subject:  user.Subject,
		CDate:    time.Now().UTC(),
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "subject"}},
		DoUpdates: clause.Assignments(map[string]any{"email": user.Email}),
	}).Create(&row).Error
	if err != nil {
		return domain.User{}, err
	}

	var stored models.User
	err = r.db.WithContext(ctx).
		Where("provider = ? AND subject = ?", user.Provider, user.Subject).
		Take(&stored).Error
	if err != nil {
		return domain.User{}, err
	}

	return toDomainUser(stored), nil
}

func (r *UserRepository) Get(ctx context.Context, id string) (domain.User, error) {
	var row models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, domain.NotFoundError{Resource: "user"}
		}
		return domain.User{}, err
	}

	return toDomainUser(row), nil
}

func toDomainUser(row models.User) domain.User {
	return domain.User{
		ID:        row.ID,
		Email:     row.Email,
		Provider:  row.Provider,
		Subject:   row.Subject,
		CreatedAt: row.CDate,
	}
}
