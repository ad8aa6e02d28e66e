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

const anonymousAuthor = "Anonymous"

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

func (r *firestoreReviewRepository) ListByProduct(ctx context.Context, productID string) ([]entity.ReviewWithAuthor, error) {
	iter := r.client.Collection(reviewsCollection).
		Where("productId", "==", productID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	var reviews []entity.Review
	authorIDs := []string{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Backend("", err)
		}

		var review entity.Review
		if err := doc.DataTo(&review); err != nil {
			logger.Warn("skipping unreadable review %s: %v", doc.Ref.ID, err)
			continue
		}
		review.ID = doc.Ref.ID
		reviews = append(reviews, review)
		authorIDs = append(authorIDs, review.UserID)
	}

	names := map[string]string{}
	if len(authorIDs) > 0 {
		snaps, err := getAll(ctx, r.client, profilesCollection, authorIDs)
		if err != nil {
			// Reviews still render without author names.
			logger.Warn("author lookup for product %s failed: %v", productID, err)
		}
		for id, snap := range snaps {
			if name, err := snap.DataAt("name"); err == nil {
				if s, ok := name.(string); ok && s != "" {
					names[id] = s
				}
			}
		}
	}

	result := make([]entity.ReviewWithAuthor, 0, len(reviews))
	for _, review := range reviews {
		author, ok := names[review.UserID]
		if !ok {
			author = anonymousAuthor
		}
		result = append(result, entity.ReviewWithAuthor{Review: review, AuthorName: author})
	}

	return result, nil
}

// Create inserts the review and folds its rating into the product aggregate in
// one transaction. A second review for the same pair is a conflict.
func (r *firestoreReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.ID = entity.ReviewID(review.ProductID, review.UserID)
	now := time.Now()
	review.CreatedAt = now
	review.UpdatedAt = now

	productRef := r.client.Collection(productsCollection).Doc(review.ProductID)
	reviewRef := r.client.Collection(reviewsCollection).Doc(review.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		productSnap, err := tx.Get(productRef)
		if err != nil {
			return err
		}
		product, err := toProduct(productSnap)
		if err != nil {
			return err
		}

		if err := tx.Create(reviewRef, review); err != nil {
			return err
		}

		average, count := foldRating(product.AverageRating, product.ReviewCount, 0, review.Rating)
		return tx.Update(productRef, []firestore.Update{
			{Path: "averageRating", Value: average},
			{Path: "reviewCount", Value: count},
		})
	})
	if err != nil {
		switch {
		case isAlreadyExists(err):
			return errors.Conflict("You have already reviewed this product")
		case IsNotFound(err):
			return errors.NotFound("Product", err)
		}
		return errors.Backend("", err)
	}

	return nil
}

// Update rewrites rating and comment and bumps the review to the top of the
// list. The aggregate count is unchanged.
func (r *firestoreReviewRepository) Update(ctx context.Context, review *entity.Review) error {
	reviewRef := r.client.Collection(reviewsCollection).Doc(review.ID)
	productRef := r.client.Collection(productsCollection).Doc(review.ProductID)
	now := time.Now()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		reviewSnap, err := tx.Get(reviewRef)
		if err != nil {
			if IsNotFound(err) {
				return errors.NotFound("Review", err)
			}
			return err
		}
		var existing entity.Review
		if err := reviewSnap.DataTo(&existing); err != nil {
			return err
		}

		productSnap, err := tx.Get(productRef)
		if err != nil {
			if IsNotFound(err) {
				return errors.NotFound("Product", err)
			}
			return err
		}
		product, err := toProduct(productSnap)
		if err != nil {
			return err
		}

		if err := tx.Update(reviewRef, []firestore.Update{
			{Path: "rating", Value: review.Rating},
			{Path: "comment", Value: review.Comment},
			{Path: "createdAt", Value: now},
			{Path: "updatedAt", Value: now},
		}); err != nil {
			return err
		}

		average, count := foldRating(product.AverageRating, product.ReviewCount, existing.Rating, review.Rating)
		return tx.Update(productRef, []firestore.Update{
			{Path: "averageRating", Value: average},
			{Path: "reviewCount", Value: count},
		})
	})
	if err != nil {
		return reviewTxError(err)
	}

	review.CreatedAt = now
	review.UpdatedAt = now
	return nil
}

func (r *firestoreReviewRepository) Delete(ctx context.Context, review *entity.Review) error {
	reviewRef := r.client.Collection(reviewsCollection).Doc(review.ID)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		reviewSnap, err := tx.Get(reviewRef)
		if err != nil {
			return err
		}
		var existing entity.Review
		if err := reviewSnap.DataTo(&existing); err != nil {
			return err
		}

		productRef := r.client.Collection(productsCollection).Doc(existing.ProductID)
		productSnap, err := tx.Get(productRef)
		if err != nil && !IsNotFound(err) {
			return err
		}

		if err := tx.Delete(reviewRef); err != nil {
			return err
		}

		if productSnap == nil || !productSnap.Exists() {
			return nil
		}
		product, err := toProduct(productSnap)
		if err != nil {
			return err
		}

		average, count := foldRating(product.AverageRating, product.ReviewCount, existing.Rating, 0)
		return tx.Update(productRef, []firestore.Update{
			{Path: "averageRating", Value: average},
			{Path: "reviewCount", Value: count},
		})
	})
	if err != nil {
		return reviewTxError(err)
	}

	return nil
}

// reviewTxError maps a failed review transaction. A not-found already
// classified inside the transaction is kept; any other not-found is the review.
func reviewTxError(err error) error {
	switch {
	case errors.Is(err, errors.CodeNotFound):
		return err
	case IsNotFound(err):
		return errors.NotFound("Review", err)
	}
	return errors.Backend("", err)
}

// foldRating applies one review change to a product's rating aggregate. A zero
// oldRating adds a review, a zero newRating removes one, and both set replace
// a rating in place. An aggregate that has drifted below zero reviews is
// clamped.
func foldRating(average float64, count, oldRating, newRating int) (float64, int) {
	total := average * float64(count)
	if oldRating != 0 && count > 0 {
		total -= float64(oldRating)
		count--
	}
	if newRating != 0 {
		total += float64(newRating)
		count++
	}
	if count <= 0 {
		return 0, 0
	}
	return total / float64(count), count
}
