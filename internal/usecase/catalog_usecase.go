package usecase

import (
	"context"
	"sort"
	"strings"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/internal/domain/service"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortOldest    SortKey = "oldest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
)

func ParseSortKey(s string) (SortKey, bool) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNewest, SortOldest, SortPriceLow, SortPriceHigh:
		return k, true
	}
	return "", false
}

type CatalogState string

const (
	CatalogEmpty     CatalogState = "empty"
	CatalogNoResults CatalogState = "no_results"
	CatalogPopulated CatalogState = "populated"
)

// ProductCard is a product as rendered in a list for a given viewer.
type ProductCard struct {
	*entity.Product
	DisplayImageURL string `json:"display_image_url"`
	CanManage       bool   `json:"can_manage"`
	InWishlist      bool   `json:"in_wishlist"`
}

type CatalogUseCase struct {
	productRepo  repository.ProductRepository
	wishlistRepo repository.WishlistRepository
	deleter      *productDeleter
	metrics      *metrics.MetricsManager
	placeholder  string
}

func NewCatalogUseCase(
	productRepo repository.ProductRepository,
	wishlistRepo repository.WishlistRepository,
	storage service.ObjectStorage,
	m *metrics.MetricsManager,
	placeholderImage string,
) *CatalogUseCase {
	return &CatalogUseCase{
		productRepo:  productRepo,
		wishlistRepo: wishlistRepo,
		deleter:      newProductDeleter(productRepo, storage, m),
		metrics:      m,
		placeholder:  placeholderImage,
	}
}

// Open returns an empty catalog view for viewer, who may be nil.
func (uc *CatalogUseCase) Open(viewer *entity.Identity) *Catalog {
	return &Catalog{
		uc:       uc,
		viewer:   viewer,
		wishlist: map[string]bool{},
	}
}

// Catalog holds the authoritative product list and the displayed subset.
// Search always starts over from the full list; Sort reorders what is
// displayed.
type Catalog struct {
	uc        *CatalogUseCase
	viewer    *entity.Identity
	all       []*entity.Product
	displayed []*entity.Product
	wishlist  map[string]bool
}

func (c *Catalog) LoadAll(ctx context.Context) error {
	products, err := c.uc.productRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	c.all = products
	c.displayed = append([]*entity.Product(nil), products...)

	if err := c.LoadWishlist(ctx); err != nil {
		logger.Warn("wishlist membership for %s unavailable: %v", c.viewer.ID, err)
	}
	return nil
}

// LoadWishlist refreshes only the viewer's wishlist membership.
func (c *Catalog) LoadWishlist(ctx context.Context) error {
	c.wishlist = map[string]bool{}
	if c.viewer == nil {
		return nil
	}
	ids, err := c.uc.wishlistRepo.ListProductIDs(ctx, c.viewer.ID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		c.wishlist[id] = true
	}
	return nil
}

// Search shows every product whose name contains term, ignoring case. An
// empty term shows everything.
func (c *Catalog) Search(term string) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		c.displayed = append([]*entity.Product(nil), c.all...)
		return
	}

	matches := make([]*entity.Product, 0, len(c.all))
	for _, p := range c.all {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			matches = append(matches, p)
		}
	}
	c.displayed = matches
}

// Sort stably reorders the displayed list. Unknown keys leave it unchanged.
func (c *Catalog) Sort(key SortKey) {
	var less func(a, b *entity.Product) bool
	switch key {
	case SortNewest:
		less = func(a, b *entity.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		less = func(a, b *entity.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPriceLow:
		less = func(a, b *entity.Product) bool { return a.Price < b.Price }
	case SortPriceHigh:
		less = func(a, b *entity.Product) bool { return a.Price > b.Price }
	default:
		return
	}

	sort.SliceStable(c.displayed, func(i, j int) bool {
		return less(c.displayed[i], c.displayed[j])
	})
}

func (c *Catalog) Displayed() []*entity.Product {
	return c.displayed
}

func (c *Catalog) State() CatalogState {
	switch {
	case len(c.all) == 0:
		return CatalogEmpty
	case len(c.displayed) == 0:
		return CatalogNoResults
	}
	return CatalogPopulated
}

func (c *Catalog) InWishlist(productID string) bool {
	return c.wishlist[productID]
}

func (c *Catalog) Cards() []ProductCard {
	cards := make([]ProductCard, 0, len(c.displayed))
	for _, p := range c.displayed {
		cards = append(cards, c.uc.card(c.viewer, p, c.wishlist[p.ID]))
	}
	return cards
}

func (uc *CatalogUseCase) card(viewer *entity.Identity, p *entity.Product, inWishlist bool) ProductCard {
	image := p.ImageURL
	if image == "" {
		image = uc.placeholder
	}
	var viewerID string
	if viewer != nil {
		viewerID = viewer.ID
	}
	return ProductCard{
		Product:         p,
		DisplayImageURL: image,
		CanManage:       p.OwnedBy(viewerID),
		InWishlist:      inWishlist,
	}
}

// ToggleWishlist flips membership of productID and reports the new state. The
// local membership set is updated without re-fetching.
func (c *Catalog) ToggleWishlist(ctx context.Context, productID string) (bool, error) {
	if c.viewer == nil {
		return false, errors.LoginRequired("Please login to save products to wishlist")
	}

	if c.wishlist[productID] {
		if err := c.uc.wishlistRepo.Remove(ctx, c.viewer.ID, productID); err != nil {
			return true, err
		}
		delete(c.wishlist, productID)
		c.uc.metrics.WishlistToggleTotal.WithLabelValues("removed").Inc()
		return false, nil
	}

	if _, err := c.uc.wishlistRepo.Add(ctx, c.viewer.ID, productID); err != nil {
		if !errors.Is(err, errors.CodeConflict) {
			return false, err
		}
		// Saved from another view since this catalog was loaded.
	}
	c.wishlist[productID] = true
	c.uc.metrics.WishlistToggleTotal.WithLabelValues("added").Inc()
	return true, nil
}

// DeleteProduct removes one of the viewer's own listings and drops it from
// both local lists.
func (c *Catalog) DeleteProduct(ctx context.Context, productID string, confirmed bool) error {
	if !confirmed {
		return errDeleteNotConfirmed
	}

	product := findProduct(c.all, productID)
	if product == nil {
		var err error
		if product, err = c.uc.productRepo.GetByID(ctx, productID); err != nil {
			return err
		}
	}
	if err := authorizeManage(c.viewer, product, "delete"); err != nil {
		return err
	}

	if err := c.uc.deleter.Delete(ctx, product); err != nil {
		return err
	}

	c.all = withoutProduct(c.all, productID)
	c.displayed = withoutProduct(c.displayed, productID)
	delete(c.wishlist, productID)
	return nil
}

func findProduct(products []*entity.Product, id string) *entity.Product {
	for _, p := range products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func withoutProduct(products []*entity.Product, id string) []*entity.Product {
	out := make([]*entity.Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
