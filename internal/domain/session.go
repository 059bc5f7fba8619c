package domain

type Rank string

const (
	RankNovice Rank = "NOVICE"
	RankScout  Rank = "SCOUT"
	RankHunter Rank = "HUNTER"
	RankMaster Rank = "MASTER"
)

// Profile of the signed-in reporter.
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Points       int    `json:"points"`
	Rank         Rank   `json:"rank"`
	ReportsCount int    `json:"reports_count"`
}

// Client authentication state.
// User is only set once Token has been validated against the backend;
// dropping the token always drops the user.
type Session struct {
	Token string
	User  *User
}

func (s Session) Authenticated() bool { return s.Token != "" }

// Report whether the session respects the token/user invariant.
func (s Session) Consistent() bool {
	return s.User == nil || s.Token != ""
}

// Return the session with the user removed, keeping the token.
func (s Session) WithoutUser() Session {
	return Session{Token: s.Token}
}
