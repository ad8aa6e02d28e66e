package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker/v2"

	"minimarket/pkg/logger"
)

// ToolkitError is an error reported by the Identity Toolkit or Secure Token
// APIs. Message is the API's own code, e.g. EMAIL_NOT_FOUND.
type ToolkitError struct {
	Status  int
	Message string
}

func (e *ToolkitError) Error() string {
	return e.Message
}

type ToolkitConfig struct {
	APIKey         string
	IdentityURL    string
	SecureTokenURL string
	Timeout        time.Duration
}

type SignInResult struct {
	LocalID      string `json:"localId"`
	Email        string `json:"email"`
	DisplayName  string `json:"displayName"`
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
}

type RefreshResult struct {
	UserID       string `json:"user_id"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
}

// IdentityToolkit calls the end-user REST endpoints that the Admin SDK does not
// cover. Every call passes through one circuit breaker; API rejections do not
// count as failures.
type IdentityToolkit struct {
	cfg     ToolkitConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[[]byte]
}

func NewIdentityToolkit(cfg ToolkitConfig) *IdentityToolkit {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "identity-toolkit",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		IsSuccessful: func(err error) bool {
			var apiErr *ToolkitError
			if errors.As(err, &apiErr) {
				return apiErr.Status < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &IdentityToolkit{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[[]byte](settings),
	}
}

func (t *IdentityToolkit) SignInWithPassword(ctx context.Context, email, password string) (*SignInResult, error) {
	payload := map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}

	var result SignInResult
	if err := t.postJSON(ctx, t.cfg.IdentityURL+"/accounts:signInWithPassword", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendPasswordReset mails a reset link whose continue URL is redirectURL.
func (t *IdentityToolkit) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	payload := map[string]interface{}{
		"requestType": "PASSWORD_RESET",
		"email":       email,
		"continueUrl": redirectURL,
	}
	return t.postJSON(ctx, t.cfg.IdentityURL+"/accounts:sendOobCode", payload, nil)
}

// ConfirmPasswordReset applies newPassword using the code from a reset link and
// returns the account's email.
func (t *IdentityToolkit) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) (string, error) {
	payload := map[string]interface{}{
		"oobCode":     oobCode,
		"newPassword": newPassword,
	}

	var result struct {
		Email string `json:"email"`
	}
	if err := t.postJSON(ctx, t.cfg.IdentityURL+"/accounts:resetPassword", payload, &result); err != nil {
		return "", err
	}
	return result.Email, nil
}

func (t *IdentityToolkit) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	body, err := t.do(ctx, t.cfg.SecureTokenURL+"/token", "application/x-www-form-urlencoded", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	var result RefreshResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	return &result, nil
}

func (t *IdentityToolkit) postJSON(ctx context.Context, endpoint string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	body, err := t.do(ctx, endpoint, "application/json", data)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (t *IdentityToolkit) do(ctx context.Context, endpoint, contentType string, data []byte) ([]byte, error) {
	return t.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(t.cfg.APIKey), bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", contentType)

		resp, err := t.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &ToolkitError{Status: resp.StatusCode, Message: apiMessage(body, resp.StatusCode)}
		}
		return body, nil
	})
}

// apiMessage extracts error.message from either API's error payload.
func apiMessage(body []byte, status int) string {
	var payload struct {
		Error json.RawMessage `json:"error"`
		// Secure Token API sometimes reports a flat error string.
		Description string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(payload.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		var flat string
		if json.Unmarshal(payload.Error, &flat) == nil && flat != "" {
			return flat
		}
		if payload.Description != "" {
			return payload.Description
		}
	}
	return "HTTP " + strconv.Itoa(status)
}

func parseExpiresIn(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
