package ports

import (
	"context"
	"ratlogger/internal/domain"
)

// Result of a successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	// Partial profile returned with the token; may be nil.
	User *domain.User
}

type RegisterRequest struct {
	Username        string
	Password        string
	PasswordConfirm string
}

// Contract for the unauthenticated auth endpoints.
type AuthAPI interface {
	// Exchange credentials for an access token.
	Login(ctx context.Context, username, password string) (LoginResult, error)
	// Create an account.
	Register(ctx context.Context, req RegisterRequest) error
	// Check a stored token is still valid. Returns domain.ErrUnauthorized when it is not.
	Verify(ctx context.Context, token string) error
}

// Read access to the backend's sightings.
type SightingLister interface {
	// Return all sightings visible to the session.
	ListSightings(ctx context.Context, token string) ([]domain.Sighting, error)
}

// Write access to the backend's sightings.
type SightingCreator interface {
	CreateSighting(ctx context.Context, token string, s domain.NewSighting) (domain.Sighting, error)
}

type SightingAPI interface {
	SightingLister
	SightingCreator
	// Return sightings reported by the session's user.
	ListMySightings(ctx context.Context, token string) ([]domain.Sighting, error)
	// Return sightings within the backend's fixed radius of center.
	ListNearbySightings(ctx context.Context, token string, center domain.Coordinates) ([]domain.Sighting, error)
	Stats(ctx context.Context, token string) (domain.Stats, error)
}

// Profile and gamification endpoints.
type ProfileAPI interface {
	Me(ctx context.Context, token string) (domain.User, error)
	Leaderboard(ctx context.Context, token string) ([]domain.LeaderboardEntry, error)
	Achievements(ctx context.Context, token string) (domain.AchievementSummary, error)
}

// Full backend contract.
type Backend interface {
	AuthAPI
	SightingAPI
	ProfileAPI
}
