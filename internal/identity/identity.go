// Package identity connects the application to an external identity
// provider and manages the signed session tokens issued after sign-in.
package identity

import (
	"context"
	"errors"
)

var (
	// ErrInvalidCredentials is returned when the provider rejects an
	// email/password pair.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrEmailTaken is returned when registration hits an existing account.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUnauthenticated is returned when no valid session is present.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Session is the provider-issued result of a successful sign-in or sign-up.
type Session struct {
	AccessToken string
	Email       string
	FullName    string
}

// Provider abstracts the external identity service.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, fullName string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error
	SendPasswordReset(ctx context.Context, email string) error
	Health(ctx context.Context) error
}
