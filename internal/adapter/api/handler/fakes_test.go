package handler

import (
	"context"
	"io"
	"sort"

	"minimarket/internal/domain/entity"
	"minimarket/pkg/errors"
)

// In-memory stand-ins for the Firestore repositories.

type memProducts struct {
	rows map[string]*entity.Product
}

func newMemProducts(products ...*entity.Product) *memProducts {
	m := &memProducts{rows: map[string]*entity.Product{}}
	for _, p := range products {
		m.rows[p.ID] = p
	}
	return m
}

func (m *memProducts) Create(_ context.Context, p *entity.Product) error {
	p.ID = "new"
	m.rows[p.ID] = p
	return nil
}

func (m *memProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, errors.NotFound("Product", nil)
	}
	cp := *p
	return &cp, nil
}

func (m *memProducts) ListAll(_ context.Context) ([]*entity.Product, error) {
	out := make([]*entity.Product, 0, len(m.rows))
	for _, p := range m.rows {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memProducts) ListByOwner(ctx context.Context, userID string) ([]*entity.Product, error) {
	all, _ := m.ListAll(ctx)
	var out []*entity.Product
	for _, p := range all {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memProducts) Update(_ context.Context, p *entity.Product) error {
	m.rows[p.ID] = p
	return nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func (m *memProducts) IncrementViews(_ context.Context, id string) error {
	if p, ok := m.rows[id]; ok {
		p.Views++
	}
	return nil
}

type memProfiles struct {
	rows map[string]*entity.Profile
}

func (m *memProfiles) Create(_ context.Context, p *entity.Profile) error {
	m.rows[p.ID] = p
	return nil
}

func (m *memProfiles) GetByID(_ context.Context, id string) (*entity.Profile, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, errors.NotFound("Profile", nil)
	}
	return p, nil
}

func (m *memProfiles) ExistsByPhone(_ context.Context, phone string) (bool, error) {
	for _, p := range m.rows {
		if p.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

type memWishlist struct {
	rows     map[string]*entity.WishlistItem
	products *memProducts
}

func (m *memWishlist) Add(_ context.Context, userID, productID string) (*entity.WishlistItem, error) {
	id := entity.WishlistItemID(userID, productID)
	if _, ok := m.rows[id]; ok {
		return nil, errors.Conflict("Product already in wishlist")
	}
	item := &entity.WishlistItem{ID: id, UserID: userID, ProductID: productID}
	m.rows[id] = item
	return item, nil
}

func (m *memWishlist) Remove(ctx context.Context, userID, productID string) error {
	return m.DeleteByID(ctx, entity.WishlistItemID(userID, productID))
}

func (m *memWishlist) GetByID(_ context.Context, id string) (*entity.WishlistItem, error) {
	item, ok := m.rows[id]
	if !ok {
		return nil, errors.NotFound("Wishlist entry", nil)
	}
	return item, nil
}

func (m *memWishlist) DeleteByID(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

func (m *memWishlist) ListProductIDs(_ context.Context, userID string) ([]string, error) {
	var out []string
	for _, item := range m.rows {
		if item.UserID == userID {
			out = append(out, item.ProductID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memWishlist) ListWithProducts(ctx context.Context, userID string) ([]entity.WishlistItemWithProduct, error) {
	ids, _ := m.ListProductIDs(ctx, userID)
	out := make([]entity.WishlistItemWithProduct, 0, len(ids))
	for _, pid := range ids {
		entry := entity.WishlistItemWithProduct{ID: entity.WishlistItemID(userID, pid), UserID: userID, ProductID: pid}
		if p, ok := m.products.rows[pid]; ok {
			entry.Product = p
		}
		out = append(out, entry)
	}
	return out, nil
}

type memReviews struct {
	rows map[string]*entity.Review
}

func (m *memReviews) ListByProduct(_ context.Context, productID string) ([]entity.ReviewWithAuthor, error) {
	var out []entity.ReviewWithAuthor
	for _, r := range m.rows {
		if r.ProductID == productID {
			out = append(out, entity.ReviewWithAuthor{Review: *r, AuthorName: "Anonymous"})
		}
	}
	return out, nil
}

func (m *memReviews) Create(_ context.Context, r *entity.Review) error {
	r.ID = entity.ReviewID(r.ProductID, r.UserID)
	if _, ok := m.rows[r.ID]; ok {
		return errors.Conflict("You have already reviewed this product")
	}
	m.rows[r.ID] = r
	return nil
}

func (m *memReviews) Update(_ context.Context, r *entity.Review) error {
	m.rows[r.ID] = r
	return nil
}

func (m *memReviews) Delete(_ context.Context, r *entity.Review) error {
	delete(m.rows, r.ID)
	return nil
}

// staticSessions resolves fixed tokens to identities.
type staticSessions map[string]*entity.Identity

func (s staticSessions) CurrentSession(_ context.Context, token string) (*entity.Identity, error) {
	return s[token], nil
}

type nopStorage struct{}

func (nopStorage) Upload(context.Context, string, string, io.Reader) error { return nil }
func (nopStorage) PublicURL(key string) string { return "https://storage.test/" + key }
func (nopStorage) Remove(context.Context, ...string) error { return nil }
func (nopStorage) KeyFromURL(string) (string, bool) { return "", false }
func (nopStorage) Close() error { return nil }
