package repository

import (
	"context"

	"minimarket/internal/domain/entity"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
	ExistsByPhone(ctx context.Context, phone string) (bool, error)
}
