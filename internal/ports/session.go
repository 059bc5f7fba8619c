package ports

import (
	"context"
	"ratlogger/internal/domain"
)

// Port: persistent client-side key-value storage for the session.
// Implementations keep the token and the user profile under fixed keys.
type SessionStore interface {
	// Return the persisted session. A missing token yields an empty session.
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, s domain.Session) error
	Clear(ctx context.Context) error
}

// Handle passed explicitly to every workflow that needs credentials.
type SessionHandle interface {
	// Return the current bearer token, or false when signed out.
	Token() (string, bool)
}

// Login surface the client is sent to when authentication is lost.
type Navigator interface {
	ToLogin(reason string)
}
