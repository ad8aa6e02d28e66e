package usecase

import (
	"context"
	"regexp"
	"time"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

const (
	fallbackSellerName = "Seller"
	phoneNotAvailable  = "Not available"
	phoneNotProvided   = "Not provided"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

type SellerContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	// CallURI and MessageURI are empty when there is no usable phone number.
	CallURI    string `json:"call_uri,omitempty"`
	MessageURI string `json:"message_uri,omitempty"`
}

type ProductDetail struct {
	Product         *entity.Product `json:"product"`
	DisplayImageURL string          `json:"display_image_url"`
	Seller          SellerContact   `json:"seller"`
	ListedAgo       string          `json:"listed_ago"`
	CanManage       bool            `json:"can_manage"`
	InWishlist      bool            `json:"in_wishlist"`
}

type ProductDetailUseCase struct {
	productRepo  repository.ProductRepository
	profileRepo  repository.ProfileRepository
	wishlistRepo repository.WishlistRepository
	countryCode  string
	placeholder  string
	now          func() time.Time
}

func NewProductDetailUseCase(
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	wishlistRepo repository.WishlistRepository,
	countryCode, placeholderImage string,
) *ProductDetailUseCase {
	return &ProductDetailUseCase{
		productRepo:  productRepo,
		profileRepo:  profileRepo,
		wishlistRepo: wishlistRepo,
		countryCode:  countryCode,
		placeholder:  placeholderImage,
		now:          time.Now,
	}
}

// Load resolves the product and its seller for viewer, who may be nil. Any
// failure to fetch the product is reported as not found.
func (uc *ProductDetailUseCase) Load(ctx context.Context, viewer *entity.Identity, productID string) (*ProductDetail, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, errors.NotFound("Product", err)
	}

	var viewerID string
	if viewer != nil {
		viewerID = viewer.ID
	}

	if !product.OwnedBy(viewerID) {
		if err := uc.productRepo.IncrementViews(ctx, product.ID); err != nil {
			logger.Warn("view count for %s not incremented: %v", product.ID, err)
		} else {
			product.Views++
		}
	}

	image := product.ImageURL
	if image == "" {
		image = uc.placeholder
	}

	return &ProductDetail{
		Product:         product,
		DisplayImageURL: image,
		Seller:          uc.seller(ctx, product.UserID),
		ListedAgo:       RelativeTime(product.CreatedAt, uc.now()),
		CanManage:       product.OwnedBy(viewerID),
		InWishlist:      uc.saved(ctx, viewerID, product.ID),
	}, nil
}

func (uc *ProductDetailUseCase) saved(ctx context.Context, viewerID, productID string) bool {
	if viewerID == "" {
		return false
	}
	ids, err := uc.wishlistRepo.ListProductIDs(ctx, viewerID)
	if err != nil {
		logger.Warn("wishlist membership for %s unavailable: %v", viewerID, err)
		return false
	}
	for _, id := range ids {
		if id == productID {
			return true
		}
	}
	return false
}

func (uc *ProductDetailUseCase) seller(ctx context.Context, ownerID string) SellerContact {
	profile, err := uc.profileRepo.GetByID(ctx, ownerID)
	if err != nil {
		logger.Debug("seller profile %s unavailable: %v", ownerID, err)
		return SellerContact{Name: fallbackSellerName, Phone: phoneNotAvailable}
	}

	contact := SellerContact{Name: profile.Name, Phone: profile.Phone}
	if contact.Name == "" {
		contact.Name = fallbackSellerName
	}
	if contact.Phone == "" {
		contact.Phone = phoneNotProvided
	}
	contact.CallURI, contact.MessageURI = ContactURIs(contact.Phone, uc.countryCode)
	return contact
}

// ContactURIs builds the telephone and WhatsApp links for phone. Both are
// empty for placeholder values.
func ContactURIs(phone, countryCode string) (call, message string) {
	if phone == "" || phone == phoneNotAvailable || phone == phoneNotProvided {
		return "", ""
	}
	digits := nonDigits.ReplaceAllString(phone, "")
	if digits == "" {
		return "", ""
	}
	return "tel:" + phone, "https://wa.me/" + countryCode + digits
}
