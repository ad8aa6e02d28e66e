package usecase

import (
	"context"

	"minimarket/internal/domain/entity"
)

// AccountMetadata is stored with the auth identity at sign-up.
type AccountMetadata struct {
	Name  string
	Phone string
}

// AuthProvider is the authentication half of the backend. Errors carry the
// backend's own message text.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, meta AccountMetadata) (*entity.Identity, error)
	DeleteIdentity(ctx context.Context, uid string) error
	SignIn(ctx context.Context, email, password string) (*entity.Session, error)
	RefreshSession(ctx context.Context, refreshToken string) (*entity.Session, error)
	// VerifySession resolves an ID token, rejecting revoked sessions.
	VerifySession(ctx context.Context, idToken string) (*entity.Identity, error)
	RevokeSessions(ctx context.Context, uid string) error
	SendPasswordReset(ctx context.Context, email, redirectURL string) error
	UpdatePassword(ctx context.Context, uid, newPassword string) error
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) (string, error)
}

// SessionPublisher receives auth state changes.
type SessionPublisher interface {
	Publish(event entity.AuthEvent)
}
