package repository

import (
	"context"

	"minimarket/internal/domain/entity"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// ListAll returns every listing, newest first.
	ListAll(ctx context.Context) ([]*entity.Product, error)
	ListByOwner(ctx context.Context, userID string) ([]*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// Delete removes the listing together with wishlist and review rows that
	// reference it.
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}
