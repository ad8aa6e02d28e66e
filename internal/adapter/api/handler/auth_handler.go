package handler

import (
	"github.com/labstack/echo/v4"

	"minimarket/internal/adapter/api/middleware"
	"minimarket/internal/domain/entity"
	"minimarket/internal/usecase"
	"minimarket/pkg/errors"
	"minimarket/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type signUpRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type resetRequest struct {
	Email string `json:"email"`
}

type newPasswordRequest struct {
	Password string `json:"password"`
	Confirm  string `json:"confirm_password"`
	OOBCode  string `json:"oob_code,omitempty"`
}

type sessionResponse struct {
	Token        string           `json:"token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int64            `json:"expires_in"`
	User         *entity.Identity `json:"user"`
}

func toSessionResponse(s *entity.Session) sessionResponse {
	return sessionResponse{
		Token:        s.IDToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		User:         s.Identity,
	}
}

func bindError(err error) error {
	return errors.BadRequest("Invalid request body", err)
}

// SignUp never returns a session; the caller signs in afterwards.
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, bindError(err))
	}

	identity, err := h.authUseCase.SignUp(c.Request().Context(), usecase.SignUpInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.CreatedMessage(c, usecase.MsgSignUpSuccess, identity)
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req signInRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.authUseCase.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, toSessionResponse(session))
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, bindError(err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.authUseCase.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, toSessionResponse(session))
}

func (h *AuthHandler) SignOut(c echo.Context) error {
	if err := h.authUseCase.SignOut(c.Request().Context(), middleware.IdentityFrom(c)); err != nil {
		return response.Error(c, err)
	}
	return response.SuccessMessage(c, "Signed out", nil)
}

// Session reports the caller's identity, or null when anonymous.
func (h *AuthHandler) Session(c echo.Context) error {
	return response.Success(c, map[string]interface{}{
		"user": middleware.IdentityFrom(c),
	})
}

func (h *AuthHandler) RequestPasswordReset(c echo.Context) error {
	var req resetRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, bindError(err))
	}

	msg, err := h.authUseCase.RequestPasswordReset(c.Request().Context(), req.Email)
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, msg, nil)
}

func (h *AuthHandler) CommitNewPassword(c echo.Context) error {
	var req newPasswordRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, bindError(err))
	}

	err := h.authUseCase.CommitNewPassword(c.Request().Context(), middleware.IdentityFrom(c), usecase.NewPasswordInput{
		Password: req.Password,
		Confirm:  req.Confirm,
		OOBCode:  req.OOBCode,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.SuccessMessage(c, usecase.MsgPasswordUpdated, nil)
}
