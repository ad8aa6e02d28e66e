package usecase

import (
	"context"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
)

const MsgWishlistRemoved = "Removed from wishlist"

type WishlistUseCase struct {
	wishlistRepo repository.WishlistRepository
	metrics      *metrics.MetricsManager
}

func NewWishlistUseCase(wishlistRepo repository.WishlistRepository, m *metrics.MetricsManager) *WishlistUseCase {
	return &WishlistUseCase{wishlistRepo: wishlistRepo, metrics: m}
}

func (uc *WishlistUseCase) Open(owner *entity.Identity) (*Wishlist, error) {
	if owner == nil {
		return nil, errors.LoginRequired("Please login to view your wishlist")
	}
	return &Wishlist{uc: uc, owner: owner}, nil
}

type Wishlist struct {
	uc      *WishlistUseCase
	owner   *entity.Identity
	entries []entity.WishlistItemWithProduct
}

// Load fetches the owner's saved products. Entries whose product was deleted
// are dropped here.
func (w *Wishlist) Load(ctx context.Context) error {
	items, err := w.uc.wishlistRepo.ListWithProducts(ctx, w.owner.ID)
	if err != nil {
		return err
	}

	entries := make([]entity.WishlistItemWithProduct, 0, len(items))
	for _, item := range items {
		if item.Product != nil {
			entries = append(entries, item)
		}
	}
	w.entries = entries
	return nil
}

func (w *Wishlist) Entries() []entity.WishlistItemWithProduct { return w.entries }

func (w *Wishlist) Remove(ctx context.Context, entryID string) error {
	item, err := w.uc.wishlistRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}
	if item.UserID != w.owner.ID {
		// Someone else's entry is indistinguishable from a missing one.
		return errors.NotFound("Wishlist entry", nil)
	}

	if err := w.uc.wishlistRepo.DeleteByID(ctx, entryID); err != nil {
		return err
	}
	w.uc.metrics.WishlistToggleTotal.WithLabelValues("removed").Inc()

	kept := w.entries[:0]
	for _, e := range w.entries {
		if e.ID != entryID {
			kept = append(kept, e)
		}
	}
	w.entries = kept
	return nil
}
