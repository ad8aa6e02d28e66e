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

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = r.client.Collection(productsCollection).NewDoc().ID
	}

	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := r.client.Collection(productsCollection).Doc(product.ID).Create(ctx, product)
	if err != nil {
		return errors.Backend("", err)
	}

	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	doc, err := r.client.Collection(productsCollection).Doc(id).Get(ctx)
	if err != nil {
		if IsNotFound(err) {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Backend("", err)
	}

	product, err := toProduct(doc)
	if err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}

	return product, nil
}

func (r *firestoreProductRepository) ListAll(ctx context.Context) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).OrderBy("createdAt", firestore.Desc)
	return r.collect(query.Documents(ctx))
}

func (r *firestoreProductRepository) ListByOwner(ctx context.Context, userID string) ([]*entity.Product, error) {
	query := r.client.Collection(productsCollection).
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)
	return r.collect(query.Documents(ctx))
}

func (r *firestoreProductRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Product, error) {
	defer iter.Stop()

	products := []*entity.Product{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Backend("", err)
		}

		product, err := toProduct(doc)
		if err != nil {
			logger.Warn("skipping unreadable product %s: %v", doc.Ref.ID, err)
			continue
		}
		products = append(products, product)
	}

	return products, nil
}

func (r *firestoreProductRepository) Update(ctx context.Context, product *entity.Product) error {
	product.UpdatedAt = time.Now()

	_, err := r.client.Collection(productsCollection).Doc(product.ID).Update(ctx, []firestore.Update{
		{Path: "name", Value: product.Name},
		{Path: "price", Value: product.Price},
		{Path: "imageUrl", Value: product.ImageURL},
		{Path: "updatedAt", Value: product.UpdatedAt},
	})
	if err != nil {
		if IsNotFound(err) {
			return errors.NotFound("Product", err)
		}
		return errors.Backend("", err)
	}

	return nil
}

// Delete removes the product row, then fans out deletes of dependent wishlist
// and review rows through a BulkWriter.
func (r *firestoreProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(productsCollection).Doc(id).Delete(ctx)
	if err != nil {
		return errors.Backend("", err)
	}

	var refs []*firestore.DocumentRef
	for _, coll := range []string{wishlistCollection, reviewsCollection} {
		docs, err := r.client.Collection(coll).Where("productId", "==", id).Documents(ctx).GetAll()
		if err != nil {
			logger.Warn("cascade lookup in %s for product %s failed: %v", coll, id, err)
			continue
		}
		for _, doc := range docs {
			refs = append(refs, doc.Ref)
		}
	}

	if len(refs) == 0 {
		return nil
	}

	bw := r.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			logger.Warn("cascade delete of %s not queued: %v", ref.Path, err)
			continue
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			logger.Warn("cascade delete for product %s failed: %v", id, err)
		}
	}

	return nil
}

func (r *firestoreProductRepository) IncrementViews(ctx context.Context, id string) error {
	_, err := r.client.Collection(productsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "views", Value: firestore.Increment(1)},
	})
	if err != nil {
		if IsNotFound(err) {
			return errors.NotFound("Product", err)
		}
		return errors.Backend("", err)
	}

	return nil
}
