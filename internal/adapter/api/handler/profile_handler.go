package handler

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/middleware"
	"minimarket/internal/domain/entity"
	"minimarket/internal/usecase"
	"minimarket/pkg/response"
)

type ProfileHandler struct {
	profileUseCase *usecase.ProfileUseCase
}

func NewProfileHandler(profileUseCase *usecase.ProfileUseCase) *ProfileHandler {
	return &ProfileHandler{
		profileUseCase: profileUseCase,
	}
}

type profileResponse struct {
	Profile  *entity.Profile      `json:"profile"`
	Products []*entity.Product    `json:"products"`
	Stats    usecase.ProfileStats `json:"stats"`
}

func toProfileResponse(page *usecase.ProfilePage) profileResponse {
	products := page.Products()
	if products == nil {
		products = []*entity.Product{}
	}
	return profileResponse{
		Profile:  page.Profile(),
		Products: products,
		Stats:    page.Stats(),
	}
}

func (h *ProfileHandler) GetProfile(c echo.Context) error {
	page, err := h.profileUseCase.Open(middleware.IdentityFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	if err := page.Load(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, toProfileResponse(page))
}

// DeleteProduct removes one of the caller's listings and returns the
// recomputed profile.
func (h *ProfileHandler) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := h.profileUseCase.Open(middleware.IdentityFrom(c))
	if err != nil {
		return response.Error(c, err)
	}
	if err := page.Load(ctx); err != nil {
		return response.Error(c, err)
	}

	if err := page.DeleteProduct(ctx, c.Param("id"), confirmed(c)); err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, usecase.MsgProductDeleted, toProfileResponse(page))
}
