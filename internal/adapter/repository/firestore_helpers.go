package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"minimarket/internal/domain/entity"
)

const (
	profilesCollection = "profiles"
	productsCollection = "products"
	wishlistCollection = "wishlist"
	reviewsCollection  = "reviews"

	// Firestore caps GetAll batches of this size comfortably.
	getAllBatchSize = 30
)

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

func isAlreadyExists(err error) bool {
	return status.Code(err) == codes.AlreadyExists
}

// getAll reads refs in batches and returns the snapshots that exist, keyed by
// document id.
func getAll(ctx context.Context, client *firestore.Client, coll string, ids []string) (map[string]*firestore.DocumentSnapshot, error) {
	out := make(map[string]*firestore.DocumentSnapshot, len(ids))
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	for i := 0; i < len(unique); i += getAllBatchSize {
		end := i + getAllBatchSize
		if end > len(unique) {
			end = len(unique)
		}

		refs := make([]*firestore.DocumentRef, 0, end-i)
		for _, id := range unique[i:end] {
			refs = append(refs, client.Collection(coll).Doc(id))
		}

		snaps, err := client.GetAll(ctx, refs)
		if err != nil {
			return nil, err
		}
		for _, snap := range snaps {
			if snap == nil || !snap.Exists() {
				continue
			}
			out[snap.Ref.ID] = snap
		}
	}

	return out, nil
}

func toProduct(snap *firestore.DocumentSnapshot) (*entity.Product, error) {
	var product entity.Product
	if err := snap.DataTo(&product); err != nil {
		return nil, err
	}
	product.ID = snap.Ref.ID
	return &product, nil
}
