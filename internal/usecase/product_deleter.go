package usecase

import (
	"context"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/internal/domain/service"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

const MsgProductDeleted = "Product deleted successfully!"

var errDeleteNotConfirmed = errors.Validation("Are you sure you want to delete this product? This action cannot be undone.")

// productDeleter is the two-step delete shared by Catalog and Profile: remove
// the stored image, then the record.
type productDeleter struct {
	productRepo repository.ProductRepository
	storage     service.ObjectStorage
	metrics     *metrics.MetricsManager
}

func newProductDeleter(productRepo repository.ProductRepository, storage service.ObjectStorage, m *metrics.MetricsManager) *productDeleter {
	return &productDeleter{productRepo: productRepo, storage: storage, metrics: m}
}

func authorizeManage(viewer *entity.Identity, product *entity.Product, action string) error {
	if viewer == nil {
		return errors.LoginRequired("")
	}
	if !product.OwnedBy(viewer.ID) {
		return errors.Forbidden("You can only "+action+" your own products!", nil)
	}
	return nil
}

// Delete never fails because of the image: a failed removal is logged and
// counted, then the record is deleted anyway.
func (d *productDeleter) Delete(ctx context.Context, product *entity.Product) error {
	removeImage(ctx, d.storage, d.metrics, product.ImageURL)

	if err := d.productRepo.Delete(ctx, product.ID); err != nil {
		return err
	}

	d.metrics.ProductsDeletedTotal.Inc()
	logger.Info("product %s deleted by owner %s", product.ID, product.UserID)
	return nil
}

func removeImage(ctx context.Context, storage service.ObjectStorage, m *metrics.MetricsManager, url string) {
	key, ok := storage.KeyFromURL(url)
	if !ok {
		return
	}
	if err := storage.Remove(ctx, key); err != nil {
		logger.Warn("image %s not removed: %v", key, err)
		m.CleanupFailuresTotal.WithLabelValues("image_remove").Inc()
	}
}
