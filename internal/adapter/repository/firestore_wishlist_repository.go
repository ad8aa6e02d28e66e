package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

type firestoreWishlistRepository struct {
	client *firestore.Client
}

func NewFirestoreWishlistRepository(client *firestore.Client) repository.WishlistRepository {
	return &firestoreWishlistRepository{client: client}
}

// Add writes the entry under a pair-derived id so a repeated save is rejected
// by the store rather than duplicated.
func (r *firestoreWishlistRepository) Add(ctx context.Context, userID, productID string) (*entity.WishlistItem, error) {
	item := entity.WishlistItem{
		ID:        entity.WishlistItemID(userID, productID),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	}

	_, err := r.client.Collection(wishlistCollection).Doc(item.ID).Create(ctx, item)
	if err != nil {
		if isAlreadyExists(err) {
			return nil, errors.Conflict("Product already in wishlist")
		}
		return nil, errors.Backend("", err)
	}

	logger.Debug("added product %s to wishlist for user %s", productID, userID)
	return &item, nil
}

func (r *firestoreWishlistRepository) Remove(ctx context.Context, userID, productID string) error {
	return r.DeleteByID(ctx, entity.WishlistItemID(userID, productID))
}

func (r *firestoreWishlistRepository) GetByID(ctx context.Context, id string) (*entity.WishlistItem, error) {
	doc, err := r.client.Collection(wishlistCollection).Doc(id).Get(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, errors.NotFound("Wishlist item", err)
		}
		return nil, errors.Backend("", err)
	}

	var item entity.WishlistItem
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse wishlist item", err)
	}
	item.ID = doc.Ref.ID

	return &item, nil
}

func (r *firestoreWishlistRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.client.Collection(wishlistCollection).Doc(id).Delete(ctx)
	if err != nil {
		return errors.Backend("", err)
	}
	return nil
}

func (r *firestoreWishlistRepository) ListProductIDs(ctx context.Context, userID string) ([]string, error) {
	items, err := r.listItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	return ids, nil
}

func (r *firestoreWishlistRepository) ListWithProducts(ctx context.Context, userID string) ([]entity.WishlistItemWithProduct, error) {
	items, err := r.listItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []entity.WishlistItemWithProduct{}, nil
	}

	productIDs := make([]string, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}

	snaps, err := getAll(ctx, r.client, productsCollection, productIDs)
	if err != nil {
		return nil, errors.Backend("", err)
	}

	result := make([]entity.WishlistItemWithProduct, 0, len(items))
	for _, item := range items {
		joined := entity.WishlistItemWithProduct{
			ID:        item.ID,
			UserID:    item.UserID,
			ProductID: item.ProductID,
			CreatedAt: item.CreatedAt,
		}
		if snap, ok := snaps[item.ProductID]; ok {
			if product, err := toProduct(snap); err == nil {
				joined.Product = product
			}
		}
		result = append(result, joined)
	}

	return result, nil
}

func (r *firestoreWishlistRepository) listItems(ctx context.Context, userID string) ([]entity.WishlistItem, error) {
	iter := r.client.Collection(wishlistCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var items []entity.WishlistItem
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Backend("", err)
		}

		var item entity.WishlistItem
		if err := doc.DataTo(&item); err != nil {
			logger.Warn("skipping unreadable wishlist item %s: %v", doc.Ref.ID, err)
			continue
		}
		item.ID = doc.Ref.ID
		items = append(items, item)
	}

	return items, nil
}
