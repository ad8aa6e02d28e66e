package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/middleware"
	"minimarket/internal/usecase"
	"minimarket/pkg/errors"
	"minimarket/pkg/response"
)

type ProductHandler struct {
	catalogUseCase *usecase.CatalogUseCase
	listingUseCase *usecase.ListingUseCase
	detailUseCase  *usecase.ProductDetailUseCase
}

func NewProductHandler(
	catalogUseCase *usecase.CatalogUseCase,
	listingUseCase *usecase.ListingUseCase,
	detailUseCase *usecase.ProductDetailUseCase,
) *ProductHandler {
	return &ProductHandler{
		catalogUseCase: catalogUseCase,
		listingUseCase: listingUseCase,
		detailUseCase:  detailUseCase,
	}
}

type catalogResponse struct {
	State    usecase.CatalogState  `json:"state"`
	Products []usecase.ProductCard `json:"products"`
}

// ListProducts loads the catalog, then applies ?q= and ?sort= in that order.
func (h *ProductHandler) ListProducts(c echo.Context) error {
	catalog := h.catalogUseCase.Open(middleware.IdentityFrom(c))
	if err := catalog.LoadAll(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}

	if q := c.QueryParam("q"); q != "" {
		catalog.Search(q)
	}
	if raw := c.QueryParam("sort"); raw != "" {
		if key, ok := usecase.ParseSortKey(raw); ok {
			catalog.Sort(key)
		}
	}

	return response.Success(c, catalogResponse{
		State:    catalog.State(),
		Products: catalog.Cards(),
	})
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	detail, err := h.detailUseCase.Load(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, detail)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	input, closeImage, err := listingForm(c, true)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeImage()

	product, err := h.listingUseCase.Create(c.Request().Context(), middleware.IdentityFrom(c), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.CreatedMessage(c, usecase.MsgProductListed, product)
}

func (h *ProductHandler) GetProductForEdit(c echo.Context) error {
	product, err := h.listingUseCase.LoadForEdit(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, product)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	input, closeImage, err := listingForm(c, false)
	if err != nil {
		return response.Error(c, err)
	}
	defer closeImage()

	product, err := h.listingUseCase.Update(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"), input)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, usecase.MsgProductUpdated, product)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	catalog := h.catalogUseCase.Open(middleware.IdentityFrom(c))
	if err := catalog.DeleteProduct(c.Request().Context(), c.Param("id"), confirmed(c)); err != nil {
		return response.Error(c, err)
	}
	return response.SuccessMessage(c, usecase.MsgProductDeleted, nil)
}

// ToggleWishlist flips membership of one product for the caller.
func (h *ProductHandler) ToggleWishlist(c echo.Context) error {
	ctx := c.Request().Context()
	catalog := h.catalogUseCase.Open(middleware.IdentityFrom(c))
	if err := catalog.LoadWishlist(ctx); err != nil {
		return response.Error(c, err)
	}

	saved, err := catalog.ToggleWishlist(ctx, c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	msg := "Removed from wishlist"
	if saved {
		msg = "Added to wishlist"
	}
	return response.SuccessMessage(c, msg, map[string]bool{"in_wishlist": saved})
}

// listingForm reads the multipart listing fields. The returned func closes
// the image file, if any.
func listingForm(c echo.Context, imageRequired bool) (usecase.ListingInput, func(), error) {
	noop := func() {}
	input := usecase.ListingInput{Name: c.FormValue("name")}

	rawPrice := strings.TrimSpace(c.FormValue("price"))
	if rawPrice == "" {
		return input, noop, errors.Validation("Please fill all fields")
	}
	price, err := strconv.ParseFloat(rawPrice, 64)
	if err != nil {
		return input, noop, errors.Validation("Price must be a number")
	}
	input.Price = price

	fh, err := c.FormFile("image")
	switch {
	case err == http.ErrMissingFile:
		if imageRequired {
			return input, noop, errors.Validation("Please fill all fields")
		}
		return input, noop, nil
	case err != nil:
		return input, noop, errors.BadRequest("Invalid multipart form", err)
	}

	file, err := fh.Open()
	if err != nil {
		return input, noop, errors.BadRequest("Could not read image", err)
	}
	input.Image = &usecase.ImageUpload{Filename: fh.Filename, Size: fh.Size, Data: file}
	return input, func() { file.Close() }, nil
}

func confirmed(c echo.Context) bool {
	ok, _ := strconv.ParseBool(c.QueryParam("confirm"))
	return ok
}
