package firebase

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"firebase.google.com/go/v4/auth"

	"minimarket/internal/domain/entity"
	"minimarket/internal/usecase"
	"minimarket/pkg/errors"
)

const (
	claimName  = "name"
	claimPhone = "phone"
)

// FirebaseAuthClient combines the Admin SDK with the Identity Toolkit REST
// API to provide the end-user auth contract.
type FirebaseAuthClient struct {
	client  *auth.Client
	toolkit *IdentityToolkit
}

func NewFirebaseAuthClient(client *auth.Client, toolkit *IdentityToolkit) *FirebaseAuthClient {
	return &FirebaseAuthClient{
		client:  client,
		toolkit: toolkit,
	}
}

var _ usecase.AuthProvider = (*FirebaseAuthClient)(nil)

func (f *FirebaseAuthClient) SignUp(ctx context.Context, email, password string, meta usecase.AccountMetadata) (*entity.Identity, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(meta.Name)

	user, err := f.client.CreateUser(ctx, params)
	if err != nil {
		return nil, errors.Backend("", err)
	}

	claims := map[string]interface{}{claimName: meta.Name, claimPhone: meta.Phone}
	if err := f.client.SetCustomUserClaims(ctx, user.UID, claims); err != nil {
		_ = f.client.DeleteUser(ctx, user.UID)
		return nil, errors.Backend("", err)
	}

	createdAt := time.Now()
	if user.UserMetadata != nil && user.UserMetadata.CreationTimestamp > 0 {
		createdAt = time.UnixMilli(user.UserMetadata.CreationTimestamp)
	}

	return &entity.Identity{
		ID:        user.UID,
		Email:     user.Email,
		Name:      meta.Name,
		Phone:     meta.Phone,
		CreatedAt: createdAt,
	}, nil
}

func (f *FirebaseAuthClient) DeleteIdentity(ctx context.Context, uid string) error {
	if err := f.client.DeleteUser(ctx, uid); err != nil {
		return errors.Backend("", err)
	}
	return nil
}

func (f *FirebaseAuthClient) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	result, err := f.toolkit.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, signInError(err)
	}

	identity, err := f.VerifySession(ctx, result.IDToken)
	if err != nil {
		return nil, err
	}

	return &entity.Session{
		Identity:     identity,
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    parseExpiresIn(result.ExpiresIn),
	}, nil
}

// signInError reports a 4xx toolkit answer as a credential rejection. Timeouts,
// 5xx answers and an open breaker stay backend failures.
func signInError(err error) error {
	var apiErr *ToolkitError
	if stderrors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return errors.Unauthorized(apiErr.Message, err)
	}
	return errors.Backend("", err)
}

func (f *FirebaseAuthClient) RefreshSession(ctx context.Context, refreshToken string) (*entity.Session, error) {
	result, err := f.toolkit.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, errors.Unauthorized("Session expired, please login again", err)
	}

	identity, err := f.VerifySession(ctx, result.IDToken)
	if err != nil {
		return nil, err
	}

	return &entity.Session{
		Identity:     identity,
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
		ExpiresIn:    parseExpiresIn(result.ExpiresIn),
	}, nil
}

func (f *FirebaseAuthClient) VerifySession(ctx context.Context, idToken string) (*entity.Identity, error) {
	token, err := f.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return nil, errors.Unauthorized("Invalid or expired session", err)
	}

	return identityFromClaims(token), nil
}

func identityFromClaims(token *auth.Token) *entity.Identity {
	identity := &entity.Identity{ID: token.UID}
	if v, ok := token.Claims["email"].(string); ok {
		identity.Email = v
	}
	if v, ok := token.Claims[claimName].(string); ok {
		identity.Name = v
	}
	if v, ok := token.Claims[claimPhone].(string); ok {
		identity.Phone = v
	}
	return identity
}

func (f *FirebaseAuthClient) RevokeSessions(ctx context.Context, uid string) error {
	if err := f.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return errors.Backend("", err)
	}
	return nil
}

func (f *FirebaseAuthClient) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	if err := f.toolkit.SendPasswordReset(ctx, email, redirectURL); err != nil {
		return errors.Backend("", err)
	}
	return nil
}

func (f *FirebaseAuthClient) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	params := (&auth.UserToUpdate{}).
		Password(newPassword)

	if _, err := f.client.UpdateUser(ctx, uid, params); err != nil {
		return errors.Backend("", err)
	}
	return nil
}

func (f *FirebaseAuthClient) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) (string, error) {
	email, err := f.toolkit.ConfirmPasswordReset(ctx, oobCode, newPassword)
	if err != nil {
		return "", errors.Backend("", err)
	}
	return email, nil
}
