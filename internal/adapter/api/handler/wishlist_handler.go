package handler

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/middleware"
	"minimarket/internal/usecase"
	"minimarket/pkg/response"
)

type WishlistHandler struct {
	wishlistUseCase *usecase.WishlistUseCase
}

func NewWishlistHandler(wishlistUseCase *usecase.WishlistUseCase) *WishlistHandler {
	return &WishlistHandler{
		wishlistUseCase: wishlistUseCase,
	}
}

func (h *WishlistHandler) GetWishlist(c echo.Context) error {
	wishlist, err := h.wishlistUseCase.Open(middleware.IdentityFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	if err := wishlist.Load(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"items": wishlist.Entries(),
		"count": len(wishlist.Entries()),
	})
}

func (h *WishlistHandler) RemoveFromWishlist(c echo.Context) error {
	wishlist, err := h.wishlistUseCase.Open(middleware.IdentityFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	if err := wishlist.Remove(c.Request().Context(), c.Param("entryId")); err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, usecase.MsgWishlistRemoved, nil)
}
