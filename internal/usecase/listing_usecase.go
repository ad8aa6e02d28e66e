package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/internal/domain/service"
	"minimarket/internal/platform/metrics"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

const (
	MsgProductListed  = "Product listed successfully!"
	MsgProductUpdated = "Product updated successfully!"

	imageKeyPrefix = "products/"
	sniffBytes     = 3072
)

// ImageUpload is a picked file. Size is what the client declared; the reader
// is the only source of truth for the content.
type ImageUpload struct {
	Filename string
	Size     int64
	Data     io.Reader
}

type ListingInput struct {
	Name  string
	Price float64
	Image *ImageUpload
}

type ListingOptions struct {
	MaxImageBytes int64
	// CompensateUploads removes a freshly uploaded object when the record write
	// that should reference it fails.
	CompensateUploads bool
}

type ListingUseCase struct {
	productRepo repository.ProductRepository
	storage     service.ObjectStorage
	metrics     *metrics.MetricsManager
	opts        ListingOptions
}

func NewListingUseCase(productRepo repository.ProductRepository, storage service.ObjectStorage, m *metrics.MetricsManager, opts ListingOptions) *ListingUseCase {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = 5 << 20
	}
	return &ListingUseCase{
		productRepo: productRepo,
		storage:     storage,
		metrics:     m,
		opts:        opts,
	}
}

func (uc *ListingUseCase) validate(input ListingInput, imageRequired bool) error {
	if strings.TrimSpace(input.Name) == "" || (imageRequired && input.Image == nil) {
		return errors.Validation("Please fill all fields")
	}
	if math.IsNaN(input.Price) || math.IsInf(input.Price, 0) || input.Price <= 0 {
		return errors.Validation("Price must be greater than 0")
	}
	if input.Image != nil && input.Image.Size > uc.opts.MaxImageBytes {
		return uc.tooLarge()
	}
	return nil
}

func (uc *ListingUseCase) tooLarge() error {
	return errors.Validation(fmt.Sprintf("Image size should be less than %dMB", uc.opts.MaxImageBytes>>20))
}

// storedImage is an image that passed the size and type checks and is ready
// to be stored.
type storedImage struct {
	data     []byte
	mimeType string
	ext      string
}

// readImage reads and sniffs img without touching storage.
func (uc *ListingUseCase) readImage(img *ImageUpload) (*storedImage, error) {
	// One extra byte tells an oversized stream apart from one exactly at the limit.
	data, err := io.ReadAll(io.LimitReader(img.Data, uc.opts.MaxImageBytes+1))
	if err != nil {
		return nil, errors.BadRequest("Could not read image", err)
	}
	if int64(len(data)) > uc.opts.MaxImageBytes {
		return nil, uc.tooLarge()
	}

	head := data
	if len(head) > sniffBytes {
		head = head[:sniffBytes]
	}
	mt := mimetype.Detect(head)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, errors.Validation("Only image files are allowed")
	}

	return &storedImage{data: data, mimeType: mt.String(), ext: mt.Extension()}, nil
}

// store uploads img under a random key and returns the key and its public URL.
func (uc *ListingUseCase) store(ctx context.Context, img *storedImage) (string, string, error) {
	key := imageKeyPrefix + uuid.NewString() + img.ext
	if err := uc.storage.Upload(ctx, key, img.mimeType, bytes.NewReader(img.data)); err != nil {
		return "", "", err
	}
	return key, uc.storage.PublicURL(key), nil
}

// discard is the compensating step for an upload whose record write failed.
func (uc *ListingUseCase) discard(ctx context.Context, key string) {
	if !uc.opts.CompensateUploads {
		logger.Warn("uploaded image %s left without a listing", key)
		uc.metrics.UploadsTotal.WithLabelValues("orphaned").Inc()
		return
	}
	if err := uc.storage.Remove(ctx, key); err != nil {
		logger.Error("compensating removal of %s failed: %v", key, err)
		uc.metrics.UploadsTotal.WithLabelValues("orphaned").Inc()
		return
	}
	uc.metrics.UploadsTotal.WithLabelValues("compensated").Inc()
}

func (uc *ListingUseCase) Create(ctx context.Context, owner *entity.Identity, input ListingInput) (*entity.Product, error) {
	if owner == nil {
		return nil, errors.LoginRequired("Please login to list a product")
	}
	if err := uc.validate(input, true); err != nil {
		return nil, err
	}

	img, err := uc.readImage(input.Image)
	if err != nil {
		return nil, err
	}
	key, url, err := uc.store(ctx, img)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		Name:      strings.TrimSpace(input.Name),
		Price:     input.Price,
		ImageURL:  url,
		UserID:    owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.productRepo.Create(ctx, product); err != nil {
		uc.discard(ctx, key)
		return nil, err
	}

	uc.metrics.UploadsTotal.WithLabelValues("stored").Inc()
	uc.metrics.ProductsCreatedTotal.Inc()
	logger.Info("product %s listed by %s", product.ID, owner.ID)
	return product, nil
}

// LoadForEdit returns the product only to its owner.
func (uc *ListingUseCase) LoadForEdit(ctx context.Context, editor *entity.Identity, productID string) (*entity.Product, error) {
	if editor == nil {
		return nil, errors.LoginRequired("")
	}
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := authorizeManage(editor, product, "edit"); err != nil {
		return nil, err
	}
	return product, nil
}

// Update changes name and price and, when input.Image is set, replaces the
// stored image.
func (uc *ListingUseCase) Update(ctx context.Context, editor *entity.Identity, productID string, input ListingInput) (*entity.Product, error) {
	product, err := uc.LoadForEdit(ctx, editor, productID)
	if err != nil {
		return nil, err
	}
	if err := uc.validate(input, false); err != nil {
		return nil, err
	}

	product.Name = strings.TrimSpace(input.Name)
	product.Price = input.Price
	product.UpdatedAt = time.Now()

	if input.Image == nil {
		if err := uc.productRepo.Update(ctx, product); err != nil {
			return nil, err
		}
		return product, nil
	}

	img, err := uc.readImage(input.Image)
	if err != nil {
		return nil, err
	}

	oldURL := product.ImageURL
	if !uc.opts.CompensateUploads {
		removeImage(ctx, uc.storage, uc.metrics, oldURL)
	}

	key, url, err := uc.store(ctx, img)
	if err != nil {
		return nil, err
	}
	product.ImageURL = url

	if err := uc.productRepo.Update(ctx, product); err != nil {
		uc.discard(ctx, key)
		return nil, err
	}
	uc.metrics.UploadsTotal.WithLabelValues("stored").Inc()

	if uc.opts.CompensateUploads {
		removeImage(ctx, uc.storage, uc.metrics, oldURL)
	}

	logger.Info("product %s updated by %s", product.ID, editor.ID)
	return product, nil
}
