// Package sessionstore persists the client session (token and profile)
// under two fixed keys in a namespaced key-value space.
package sessionstore

import (
	"context"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"

	json "github.com/goccy/go-json"
)

const (
	keyToken = "token"
	keyUser  = "user"
)

func encodeUser(u *domain.User) (string, error) {
	b, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	return string(b), nil
}

// decodeSession rebuilds a session from the stored values. A user without
// a token is discarded, and an unreadable user leaves only the token.
func decodeSession(ctx context.Context, token, userJSON string) domain.Session {
	if token == "" {
		return domain.Session{}
	}
	if userJSON == "" {
		return domain.Session{Token: token}
	}

	var u domain.User
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("discarding unreadable stored user")
		return domain.Session{Token: token}
	}
	return domain.Session{Token: token, User: &u}
}
