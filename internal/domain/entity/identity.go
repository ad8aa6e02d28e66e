package entity

import (
	"time"
)

// Identity is an authenticated account plus its public profile fields.
type Identity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

type Session struct {
	Identity     *Identity `json:"identity"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
}

// Profile is the publicly readable row stored next to every auth identity.
type Profile struct {
	ID        string    `json:"id" firestore:"id"`
	Name      string    `json:"name" firestore:"name"`
	Phone     string    `json:"phone" firestore:"phone"`
	Email     string    `json:"email,omitempty" firestore:"email"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

type AuthEventType string

const (
	AuthSignedIn        AuthEventType = "signed_in"
	AuthSignedOut       AuthEventType = "signed_out"
	AuthTokenRefreshed  AuthEventType = "token_refreshed"
	AuthPasswordUpdated AuthEventType = "password_updated"
)

type AuthEvent struct {
	Type       AuthEventType `json:"type"`
	UserID     string        `json:"user_id"`
	OccurredAt time.Time     `json:"occurred_at"`
}
