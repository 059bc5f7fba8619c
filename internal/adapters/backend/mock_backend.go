package backend

import (
	"context"
	"fmt"
	"net/http"
	"ratlogger/internal/domain"
	"ratlogger/internal/ports"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Radius the backend applies to nearby queries.
const NearbyRadiusMeters = 5000

type mockAccount struct {
	password string
	user     domain.User
}

// MockBackend is an in-memory ports.Backend for tests and demos.
// Unknown tokens answer like the real API does: a 401 StatusError.
type MockBackend struct {
	mu        sync.Mutex
	accounts  map[string]*mockAccount
	tokens    map[string]string
	sightings []domain.Sighting
	nextID    int

	listCalls   int
	createCalls int

	// Overrides ListSightings; call counts from 1.
	ListFunc  func(ctx context.Context, call int, current []domain.Sighting) ([]domain.Sighting, error)
	CreateErr error
	Now       func() time.Time
	// Mirrors Client's unauthorized hook.
	OnUnauthorized func(ctx context.Context)
}

func NewMockBackend() *MockBackend {
	return &MockBackend{
		accounts: make(map[string]*mockAccount),
		tokens:   make(map[string]string),
		nextID:   1,
		Now:      time.Now,
	}
}

func (m *MockBackend) AddUser(password string, u domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[u.Username] = &mockAccount{password: password, user: u}
}

// IssueToken returns a valid token for username.
func (m *MockBackend) IssueToken(username string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	tok := uuid.NewString()
	m.tokens[tok] = username
	return tok
}

func (m *MockBackend) RevokeToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
}

func (m *MockBackend) SetSightings(s ...domain.Sighting) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sightings = slices.Clone(s)
}

func (m *MockBackend) Sightings() []domain.Sighting {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.sightings)
}

func (m *MockBackend) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

func (m *MockBackend) CreateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createCalls
}

func (m *MockBackend) Login(ctx context.Context, username, password string) (ports.LoginResult, error) {
	m.mu.Lock()
	acc, ok := m.accounts[username]
	m.mu.Unlock()
	if !ok || acc.password != password {
		return ports.LoginResult{}, &StatusError{Code: http.StatusUnauthorized, Body: "No active account found with the given credentials"}
	}

	u := acc.user
	return ports.LoginResult{
		AccessToken:  m.IssueToken(username),
		RefreshToken: uuid.NewString(),
		User:         &u,
	}, nil
}

func (m *MockBackend) Register(ctx context.Context, r ports.RegisterRequest) error {
	if r.Password != r.PasswordConfirm {
		return &StatusError{Code: http.StatusBadRequest, Body: `{"password":["Password fields didn't match."]}`}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[r.Username]; ok {
		return &StatusError{Code: http.StatusBadRequest, Body: `{"username":["A user with that username already exists."]}`}
	}
	m.accounts[r.Username] = &mockAccount{
		password: r.Password,
		user:     domain.User{ID: int64(len(m.accounts) + 1), Username: r.Username, Rank: domain.RankNovice},
	}
	return nil
}

func (m *MockBackend) Verify(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[token]; !ok {
		return fmt.Errorf("verify token: %w", domain.ErrUnauthorized)
	}
	return nil
}

// authorize resolves token to its account, firing the hook on failure.
func (m *MockBackend) authorize(ctx context.Context, token string) (*mockAccount, error) {
	m.mu.Lock()
	name, ok := m.tokens[token]
	acc := m.accounts[name]
	m.mu.Unlock()

	if !ok || acc == nil {
		if m.OnUnauthorized != nil && token != "" {
			m.OnUnauthorized(ctx)
		}
		return nil, &StatusError{Code: http.StatusUnauthorized, Body: "token_not_valid"}
	}
	return acc, nil
}

func (m *MockBackend) ListSightings(ctx context.Context, token string) ([]domain.Sighting, error) {
	if _, err := m.authorize(ctx, token); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.listCalls++
	call := m.listCalls
	current := slices.Clone(m.sightings)
	fn := m.ListFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, call, current)
	}
	return current, nil
}

func (m *MockBackend) CreateSighting(ctx context.Context, token string, s domain.NewSighting) (domain.Sighting, error) {
	acc, err := m.authorize(ctx, token)
	if err != nil {
		return domain.Sighting{}, err
	}
	if err := s.Coordinates.Validate(); err != nil {
		return domain.Sighting{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.CreateErr != nil {
		return domain.Sighting{}, m.CreateErr
	}

	created := domain.Sighting{
		ID:          strconv.Itoa(m.nextID),
		Coordinates: s.Coordinates,
		Description: s.Description,
		CreatedAt:   m.Now(),
	}
	m.nextID++
	m.sightings = append([]domain.Sighting{created}, m.sightings...)

	acc.user.Points += 10
	if s.Photo != nil {
		acc.user.Points += 5
	}
	acc.user.ReportsCount++

	return created, nil
}

// ListMySightings returns every sighting; the mock does not track ownership.
func (m *MockBackend) ListMySightings(ctx context.Context, token string) ([]domain.Sighting, error) {
	if _, err := m.authorize(ctx, token); err != nil {
		return nil, err
	}
	return m.Sightings(), nil
}

func (m *MockBackend) ListNearbySightings(ctx context.Context, token string, center domain.Coordinates) ([]domain.Sighting, error) {
	if _, err := m.authorize(ctx, token); err != nil {
		return nil, err
	}

	var out []domain.Sighting
	for _, s := range m.Sightings() {
		if center.Within(s.Coordinates, NearbyRadiusMeters) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MockBackend) Stats(ctx context.Context, token string) (domain.Stats, error) {
	if _, err := m.authorize(ctx, token); err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{TotalReports: len(m.Sightings())}, nil
}

func (m *MockBackend) Me(ctx context.Context, token string) (domain.User, error) {
	acc, err := m.authorize(ctx, token)
	if err != nil {
		return domain.User{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return acc.user, nil
}

func (m *MockBackend) Leaderboard(ctx context.Context, token string) ([]domain.LeaderboardEntry, error) {
	if _, err := m.authorize(ctx, token); err != nil {
		return nil, err
	}

	m.mu.Lock()
	out := make([]domain.LeaderboardEntry, 0, len(m.accounts))
	for _, acc := range m.accounts {
		out = append(out, domain.LeaderboardEntry{
			Username:     acc.user.Username,
			Points:       acc.user.Points,
			Rank:         acc.user.Rank,
			ReportsCount: acc.user.ReportsCount,
		})
	}
	m.mu.Unlock()

	slices.SortFunc(out, func(a, b domain.LeaderboardEntry) int {
		if a.Points != b.Points {
			return b.Points - a.Points
		}
		if a.Username < b.Username {
			return -1
		}
		return 1
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out, nil
}

func (m *MockBackend) Achievements(ctx context.Context, token string) (domain.AchievementSummary, error) {
	acc, err := m.authorize(ctx, token)
	if err != nil {
		return domain.AchievementSummary{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.AchievementSummary{
		Achievements: []domain.Achievement{},
		UserStats: domain.UserStats{
			Points:       acc.user.Points,
			Rank:         acc.user.Rank,
			ReportsCount: acc.user.ReportsCount,
		},
	}, nil
}

var (
	_ ports.Backend = (*MockBackend)(nil)
	_ ports.Backend = (*Client)(nil)
)
