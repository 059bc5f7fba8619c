package services

import (
	"context"
	"errors"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/logging"
	"ratlogger/internal/ports"
	"strings"
	"sync"
	"time"
)

// Backend calls the session manager depends on.
type SessionBackend interface {
	ports.AuthAPI
	Me(ctx context.Context, token string) (domain.User, error)
}

// SessionManager owns the client session and is handed to every workflow
// as its ports.SessionHandle.
type SessionManager struct {
	store         ports.SessionStore
	api           SessionBackend
	nav           ports.Navigator
	verifyTimeout time.Duration

	mu   sync.RWMutex
	sess domain.Session
}

func NewSessionManager(store ports.SessionStore, api SessionBackend, nav ports.Navigator, verifyTimeout time.Duration) *SessionManager {
	if verifyTimeout <= 0 {
		verifyTimeout = 5 * time.Second
	}
	return &SessionManager{store: store, api: api, nav: nav, verifyTimeout: verifyTimeout}
}

func (m *SessionManager) Token() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sess.Token, m.sess.Token != ""
}

func (m *SessionManager) Current() domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.sess
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (m *SessionManager) set(s domain.Session) {
	m.mu.Lock()
	m.sess = s
	m.mu.Unlock()
}

// Restore loads the persisted session and re-validates its token.
// A rejected token logs the user out. When the backend cannot be reached
// the token is kept without a profile.
func (m *SessionManager) Restore(ctx context.Context) (domain.Session, error) {
	stored, err := m.store.Load(ctx)
	if err != nil {
		return domain.Session{}, fmt.Errorf("restore session: %w", err)
	}
	if !stored.Authenticated() {
		m.set(domain.Session{})
		return domain.Session{}, nil
	}

	m.set(stored.WithoutUser())

	vctx, cancel := context.WithTimeout(ctx, m.verifyTimeout)
	err = m.api.Verify(vctx, stored.Token)
	cancel()
	if errors.Is(err, domain.ErrUnauthorized) {
		m.ForceLogout(ctx, "session expired")
		return domain.Session{}, nil
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("could not verify stored token, keeping it")
		return m.Current(), nil
	}

	if _, err := m.RefreshProfile(ctx); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.Session{}, nil
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("could not load profile")
	}
	return m.Current(), nil
}

// Login exchanges credentials for a token and loads the full profile.
func (m *SessionManager) Login(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, errors.New("login: username and password are required")
	}

	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		return domain.User{}, err
	}

	m.set(domain.Session{Token: res.AccessToken})

	user, err := m.api.Me(ctx, res.AccessToken)
	if err != nil {
		if res.User == nil {
			m.set(domain.Session{})
			return domain.User{}, fmt.Errorf("login: load profile: %w", err)
		}
		logging.Ctx(ctx).Warn().Err(err).Msg("using profile from login response")
		user = *res.User
	}

	sess := domain.Session{Token: res.AccessToken, User: &user}
	m.set(sess)
	if err := m.store.Save(ctx, sess); err != nil {
		return user, fmt.Errorf("login: persist session: %w", err)
	}

	logging.Ctx(ctx).Info().Str("user", user.Username).Msg("logged in")
	return user, nil
}

// Register creates an account. Mismatched passwords are rejected locally.
func (m *SessionManager) Register(ctx context.Context, req ports.RegisterRequest) error {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return errors.New("register: username and password are required")
	}
	if req.Password != req.PasswordConfirm {
		return domain.ErrPasswordMismatch
	}
	return m.api.Register(ctx, req)
}

func (m *SessionManager) Logout(ctx context.Context) error {
	m.set(domain.Session{})
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// RefreshProfile reloads the user behind the current token.
func (m *SessionManager) RefreshProfile(ctx context.Context) (domain.User, error) {
	token, ok := m.Token()
	if !ok {
		return domain.User{}, domain.ErrUnauthenticated
	}

	user, err := m.api.Me(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			m.ForceLogout(ctx, "session expired")
		}
		return domain.User{}, fmt.Errorf("refresh profile: %w", err)
	}

	m.mu.Lock()
	if m.sess.Token != token {
		m.mu.Unlock()
		return user, nil
	}
	m.sess.User = &user
	sess := m.sess
	m.mu.Unlock()

	if err := m.store.Save(ctx, sess); err != nil {
		return user, fmt.Errorf("refresh profile: persist: %w", err)
	}
	return user, nil
}

// ForceLogout drops token and user together and sends the client to the
// login surface. Repeated calls navigate once.
func (m *SessionManager) ForceLogout(ctx context.Context, reason string) {
	m.mu.Lock()
	had := m.sess.Token != ""
	m.sess = domain.Session{}
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("clear persisted session")
	}
	if !had {
		return
	}

	logging.Ctx(ctx).Warn().Str("reason", reason).Msg("forced logout")
	if m.nav != nil {
		m.nav.ToLogin(reason)
	}
}
