package handler

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/middleware"
	"minimarket/internal/domain/entity"
	"minimarket/internal/usecase"
	"minimarket/pkg/response"
)

type ReviewHandler struct {
	reviewUseCase *usecase.ReviewUseCase
}

func NewReviewHandler(reviewUseCase *usecase.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{
		reviewUseCase: reviewUseCase,
	}
}

type submitReviewRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment"`
}

type reviewsResponse struct {
	Reviews    []entity.ReviewWithAuthor `json:"reviews"`
	CountLabel string                    `json:"count_label"`
	Mine       *entity.Review            `json:"mine"`
	Form       usecase.FormState         `json:"form"`
	Draft      usecase.ReviewDraft       `json:"draft"`
}

func toReviewsResponse(s *usecase.ReviewSection) reviewsResponse {
	reviews := s.Reviews()
	if reviews == nil {
		reviews = []entity.ReviewWithAuthor{}
	}
	return reviewsResponse{
		Reviews:    reviews,
		CountLabel: s.CountLabel(),
		Mine:       s.Mine(),
		Form:       s.Form(),
		Draft:      s.Draft(),
	}
}

// ListReviews returns the product's reviews. With ?form=open the viewer's
// form is opened as create or edit.
func (h *ReviewHandler) ListReviews(c echo.Context) error {
	section := h.reviewUseCase.Open(c.Param("id"), middleware.IdentityFrom(c))
	if err := section.Load(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}

	if c.QueryParam("form") == "open" {
		if err := section.OpenForm(); err != nil {
			return response.Error(c, err)
		}
	}

	return response.Success(c, toReviewsResponse(section))
}

// SubmitReview creates the caller's review or updates the one they have.
func (h *ReviewHandler) SubmitReview(c echo.Context) error {
	var req submitReviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	ctx := c.Request().Context()
	section := h.reviewUseCase.Open(c.Param("id"), middleware.IdentityFrom(c))
	if err := section.Load(ctx); err != nil {
		return response.Error(c, err)
	}

	msg, err := section.Submit(ctx, req.Rating, req.Comment)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, msg, toReviewsResponse(section))
}

func (h *ReviewHandler) DeleteMyReview(c echo.Context) error {
	ctx := c.Request().Context()
	section := h.reviewUseCase.Open(c.Param("id"), middleware.IdentityFrom(c))
	if err := section.Load(ctx); err != nil {
		return response.Error(c, err)
	}

	msg, err := section.Remove(ctx, confirmed(c))
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, msg, toReviewsResponse(section))
}
