package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"minimarket/internal/domain/entity"
	"minimarket/internal/domain/repository"
	"minimarket/pkg/errors"
	"minimarket/pkg/logger"
)

const (
	MinNameLength     = 2
	MinPasswordLength = 6

	MsgSignUpSuccess      = "Account created successfully! Please login."
	MsgPasswordResetSent  = "Password reset link sent! Check your email inbox."
	MsgPasswordUpdated    = "Password updated successfully! Redirecting to login..."
	msgPhoneTaken         = "This phone number is already registered. Please use a different number."
	msgEmailTaken         = "This email is already registered. Please login or use a different email."
	msgInvalidCredentials = "Invalid credentials"
)

var (
	phonePattern           = regexp.MustCompile(`^[6-9]\d{9}$`)
	tenDigitsPattern       = regexp.MustCompile(`^\d{10}$`)
	credentialRejectionHit = []string{"INVALID_LOGIN_CREDENTIALS", "INVALID_PASSWORD", "EMAIL_NOT_FOUND", "USER_DISABLED", "INVALID_EMAIL"}
	duplicateEmailHit      = []string{"already registered", "already been registered", "EMAIL_EXISTS", "already exists"}
)

type AuthUseCase struct {
	profileRepo   repository.ProfileRepository
	auth          AuthProvider
	publisher     SessionPublisher
	resetRedirect string
}

func NewAuthUseCase(profileRepo repository.ProfileRepository, auth AuthProvider, publisher SessionPublisher, resetRedirect string) *AuthUseCase {
	return &AuthUseCase{
		profileRepo:   profileRepo,
		auth:          auth,
		publisher:     publisher,
		resetRedirect: resetRedirect,
	}
}

type SignUpInput struct {
	Name     string
	Phone    string
	Email    string
	Password string
}

// ValidatePhone returns the user-facing problem with phone, or "" if it is a
// valid 10-digit number starting with 6-9.
func ValidatePhone(phone string) string {
	if !tenDigitsPattern.MatchString(phone) {
		return "Phone number must be exactly 10 digits"
	}
	if !phonePattern.MatchString(phone) {
		return "Phone number must start with 6, 7, 8, or 9"
	}
	return ""
}

func validateSignUp(input SignUpInput) error {
	if len([]rune(strings.TrimSpace(input.Name))) < MinNameLength {
		return errors.Validation("Name must be at least 2 characters")
	}
	if msg := ValidatePhone(input.Phone); msg != "" {
		return errors.Validation(msg)
	}
	if strings.TrimSpace(input.Email) == "" {
		return errors.Validation("Please enter your email address")
	}
	if len(input.Password) < MinPasswordLength {
		return errors.Validation("Password must be at least 6 characters")
	}
	return nil
}

// isCredentialRejection tells a refused email/password pair apart from a
// backend that could not answer.
func isCredentialRejection(err error) bool {
	if errors.Is(err, errors.CodeUnauthorized) {
		return true
	}
	msg := errors.Message(err)
	for _, hit := range credentialRejectionHit {
		if strings.Contains(msg, hit) {
			return true
		}
	}
	return false
}

func isDuplicateEmail(err error) bool {
	msg := errors.Message(err)
	for _, hit := range duplicateEmailHit {
		if strings.Contains(msg, hit) {
			return true
		}
	}
	return false
}

// SignUp provisions an identity and its profile row. It never signs the caller
// in; the returned identity is informational.
func (uc *AuthUseCase) SignUp(ctx context.Context, input SignUpInput) (*entity.Identity, error) {
	if err := validateSignUp(input); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)

	// Best effort: two concurrent sign-ups with the same phone can both pass.
	taken, err := uc.profileRepo.ExistsByPhone(ctx, input.Phone)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, errors.Conflict(msgPhoneTaken)
	}

	identity, err := uc.auth.SignUp(ctx, email, input.Password, AccountMetadata{Name: name, Phone: input.Phone})
	if err != nil {
		if isDuplicateEmail(err) {
			return nil, errors.Conflict(msgEmailTaken)
		}
		return nil, err
	}

	profile := &entity.Profile{
		ID:        identity.ID,
		Name:      name,
		Phone:     input.Phone,
		Email:     identity.Email,
		CreatedAt: identity.CreatedAt,
	}
	if err := uc.profileRepo.Create(ctx, profile); err != nil {
		if delErr := uc.auth.DeleteIdentity(ctx, identity.ID); delErr != nil {
			logger.Error("sign-up rollback for %s failed: %v", identity.ID, delErr)
		}
		return nil, err
	}

	logger.Info("account created: %s", identity.ID)
	return identity, nil
}

func (uc *AuthUseCase) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, errors.Validation("Email and password are required")
	}

	session, err := uc.auth.SignIn(ctx, strings.TrimSpace(email), password)
	if err != nil {
		if isCredentialRejection(err) {
			return nil, errors.Unauthorized(msgInvalidCredentials, err)
		}
		return nil, err
	}

	uc.publish(entity.AuthSignedIn, session.Identity.ID)
	return session, nil
}

func (uc *AuthUseCase) Refresh(ctx context.Context, refreshToken string) (*entity.Session, error) {
	if refreshToken == "" {
		return nil, errors.Validation("Refresh token is required")
	}

	session, err := uc.auth.RefreshSession(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	uc.publish(entity.AuthTokenRefreshed, session.Identity.ID)
	return session, nil
}

// SignOut ends every session of identity.
func (uc *AuthUseCase) SignOut(ctx context.Context, identity *entity.Identity) error {
	if identity == nil {
		return nil
	}
	if err := uc.auth.RevokeSessions(ctx, identity.ID); err != nil {
		return err
	}

	uc.publish(entity.AuthSignedOut, identity.ID)
	return nil
}

// CurrentSession resolves an ID token. An empty or invalid token is "no
// session", not an error.
func (uc *AuthUseCase) CurrentSession(ctx context.Context, idToken string) (*entity.Identity, error) {
	if idToken == "" {
		return nil, nil
	}

	identity, err := uc.auth.VerifySession(ctx, idToken)
	if err != nil {
		if errors.Is(err, errors.CodeUnauthorized) {
			return nil, nil
		}
		return nil, err
	}
	return identity, nil
}

// RequestPasswordReset reports the same outcome whether or not email belongs
// to an account.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.Validation("Please enter your email address")
	}

	if err := uc.auth.SendPasswordReset(ctx, email, uc.resetRedirect); err != nil {
		if strings.Contains(errors.Message(err), "EMAIL_NOT_FOUND") {
			logger.Debug("password reset requested for unknown email")
			return MsgPasswordResetSent, nil
		}
		return "", err
	}

	return MsgPasswordResetSent, nil
}

type NewPasswordInput struct {
	Password string
	Confirm  string
	// OOBCode is the recovery code from a reset link. It is used when there is
	// no authenticated identity.
	OOBCode string
}

func (uc *AuthUseCase) CommitNewPassword(ctx context.Context, identity *entity.Identity, input NewPasswordInput) error {
	if input.Password != input.Confirm {
		return errors.Validation("Passwords do not match")
	}
	if len(input.Password) < MinPasswordLength {
		return errors.Validation("Password must be at least 6 characters")
	}

	switch {
	case identity != nil:
		if err := uc.auth.UpdatePassword(ctx, identity.ID, input.Password); err != nil {
			return err
		}
		uc.publish(entity.AuthPasswordUpdated, identity.ID)
	case input.OOBCode != "":
		if _, err := uc.auth.ConfirmPasswordReset(ctx, input.OOBCode, input.Password); err != nil {
			return err
		}
	default:
		return errors.LoginRequired("Open the reset link from your email to set a new password")
	}

	return nil
}

func (uc *AuthUseCase) publish(t entity.AuthEventType, userID string) {
	if uc.publisher == nil {
		return
	}
	uc.publisher.Publish(entity.AuthEvent{Type: t, UserID: userID, OccurredAt: time.Now()})
}
