package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
	"ratlogger/internal/ports"
	"strings"
)

func (c *Client) Login(ctx context.Context, username, password string) (_ ports.LoginResult, err error) {
	defer obs.Time(ctx, "backend.Login")(&err)

	var resp loginResponse
	if err := c.postJSON(ctx, "/api/auth/login/", "", loginRequest{Username: username, Password: password}, &resp); err != nil {
		return ports.LoginResult{}, fmt.Errorf("login %q: %w", username, err)
	}

	if strings.TrimSpace(resp.Access) == "" {
		return ports.LoginResult{}, fmt.Errorf("login %q: no access token: %w", username, domain.ErrMalformedResponse)
	}

	return ports.LoginResult{
		AccessToken:  resp.Access,
		RefreshToken: resp.Refresh,
		User:         resp.User,
	}, nil
}

func (c *Client) Register(ctx context.Context, r ports.RegisterRequest) (err error) {
	defer obs.Time(ctx, "backend.Register")(&err)

	payload := registerRequest{
		Username:        r.Username,
		Password:        r.Password,
		PasswordConfirm: r.PasswordConfirm,
	}
	if err := c.postJSON(ctx, "/api/auth/register/", "", payload, nil); err != nil {
		return fmt.Errorf("register %q: %w", r.Username, err)
	}
	return nil
}

// Verify checks token with the backend. Invalid and expired tokens are
// reported as domain.ErrUnauthorized.
func (c *Client) Verify(ctx context.Context, token string) (err error) {
	defer obs.Time(ctx, "backend.Verify")(&err)

	err = c.postJSON(ctx, "/api/auth/verify/", "", verifyRequest{Token: token}, nil)
	if err == nil {
		return nil
	}

	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusBadRequest {
		return fmt.Errorf("verify token: %v: %w", se, domain.ErrUnauthorized)
	}
	return fmt.Errorf("verify token: %w", err)
}
