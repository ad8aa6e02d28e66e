package repository

import (
	"context"

	"minimarket/internal/domain/entity"
)

// ReviewRepository keeps the product's averageRating and reviewCount in step
// with every write.
type ReviewRepository interface {
	// ListByProduct returns reviews joined with the author's name, newest first.
	ListByProduct(ctx context.Context, productID string) ([]entity.ReviewWithAuthor, error)
	Create(ctx context.Context, review *entity.Review) error
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, review *entity.Review) error
}
