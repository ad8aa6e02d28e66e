package repository

import (
	"context"

	"minimarket/internal/domain/entity"
)

type WishlistRepository interface {
	Add(ctx context.Context, userID, productID string) (*entity.WishlistItem, error)
	Remove(ctx context.Context, userID, productID string) error

	GetByID(ctx context.Context, id string) (*entity.WishlistItem, error)
	DeleteByID(ctx context.Context, id string) error

	// ListProductIDs returns the ids of every product the user has saved.
	ListProductIDs(ctx context.Context, userID string) ([]string, error)

	// ListWithProducts joins each entry with its product, newest first. Product
	// is nil for entries whose product no longer exists.
	ListWithProducts(ctx context.Context, userID string) ([]entity.WishlistItemWithProduct, error)
}
