package usecase

import (
	"context"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/internal/domain/service"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
)

type ProfileStats struct {
	TotalProducts int `json:"total_products"`
	TotalViews    int `json:"total_views"`
}

func ComputeStats(products []*entity.Product) ProfileStats {
	stats := ProfileStats{TotalProducts: len(products)}
	for _, p := range products {
		stats.TotalViews += p.Views
	}
	return stats
}

type ProfileUseCase struct {
	profileRepo repository.ProfileRepository
	productRepo repository.ProductRepository
	deleter     *productDeleter
}

func NewProfileUseCase(
	profileRepo repository.ProfileRepository,
	productRepo repository.ProductRepository,
	storage service.ObjectStorage,
	m *metrics.MetricsManager,
) *ProfileUseCase {
	return &ProfileUseCase{
		profileRepo: profileRepo,
		productRepo: productRepo,
		deleter:     newProductDeleter(productRepo, storage, m),
	}
}

func (uc *ProfileUseCase) Open(owner *entity.Identity) (*ProfilePage, error) {
	if owner == nil {
		return nil, errors.LoginRequired("")
	}
	return &ProfilePage{uc: uc, owner: owner}, nil
}

// ProfilePage is the owner's profile row plus their own listings.
type ProfilePage struct {
	uc       *ProfileUseCase
	owner    *entity.Identity
	profile  *entity.Profile
	products []*entity.Product
	stats    ProfileStats
}

func (p *ProfilePage) Load(ctx context.Context) error {
	profile, err := p.uc.profileRepo.GetByID(ctx, p.owner.ID)
	if err != nil {
		return err
	}
	products, err := p.uc.productRepo.ListByOwner(ctx, p.owner.ID)
	if err != nil {
		return err
	}

	p.profile = profile
	p.products = products
	p.stats = ComputeStats(products)
	return nil
}

func (p *ProfilePage) Profile() *entity.Profile { return p.profile }

func (p *ProfilePage) Products() []*entity.Product { return p.products }

func (p *ProfilePage) Stats() ProfileStats { return p.stats }

func (p *ProfilePage) DeleteProduct(ctx context.Context, productID string, confirmed bool) error {
	if !confirmed {
		return errDeleteNotConfirmed
	}

	product := findProduct(p.products, productID)
	if product == nil {
		return errors.NotFound("Product", nil)
	}
	if err := authorizeManage(p.owner, product, "delete"); err != nil {
		return err
	}

	if err := p.uc.deleter.Delete(ctx, product); err != nil {
		return err
	}

	p.products = withoutProduct(p.products, productID)
	p.stats = ComputeStats(p.products)
	return nil
}
