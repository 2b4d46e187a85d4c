package usecase

import (
	"context"

	"github.com/smartmark/smartmark/internal/domain"
)

type UserUsecase struct {
	repo UserRepository
}

func NewUserUsecase(repo UserRepository) *UserUsecase {
	return &UserUsecase{repo: repo}
}

// Upsert registers the user on first sign-in and refreshes the stored
// email on subsequent sign-ins.
func (uc *UserUsecase) Upsert(ctx context.Context, user domain.User) (domain.User, error) {
	return uc.repo.Upsert(ctx, user)
}

func (uc *UserUsecase) Get(ctx context.Context, id string) (domain.User, error) {
	return uc.repo.Get(ctx, id)
}
