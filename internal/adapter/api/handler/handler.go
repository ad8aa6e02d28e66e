package handler

import (
	"minimarket/internal/usecase"
)

var (
	authHandler     *AuthHandler
	productHandler  *ProductHandler
	reviewHandler   *ReviewHandler
	wishlistHandler *WishlistHandler
	profileHandler  *ProfileHandler
)

func Setup(
	authUseCase *usecase.AuthUseCase,
	catalogUseCase *usecase.CatalogUseCase,
	listingUseCase *usecase.ListingUseCase,
	detailUseCase *usecase.ProductDetailUseCase,
	reviewUseCase *usecase.ReviewUseCase,
	wishlistUseCase *usecase.WishlistUseCase,
	profileUseCase *usecase.ProfileUseCase,
) {
	authHandler = NewAuthHandler(authUseCase)
	productHandler = NewProductHandler(catalogUseCase, listingUseCase, detailUseCase)
	reviewHandler = NewReviewHandler(reviewUseCase)
	wishlistHandler = NewWishlistHandler(wishlistUseCase)
	profileHandler = NewProfileHandler(profileUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func GetProductHandler() *ProductHandler {
	return productHandler
}

func GetReviewHandler() *ReviewHandler {
	return reviewHandler
}

func GetWishlistHandler() *WishlistHandler {
	return wishlistHandler
}

func GetProfileHandler() *ProfileHandler {
	return profileHandler
}
