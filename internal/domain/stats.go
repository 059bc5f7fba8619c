package domain

import "time"

type AreaCount struct {
	Area  string `json:"area"`
	Count int    `json:"count"`
}

// Aggregate statistics computed by the backend.
type Stats struct {
	TotalReports int         `json:"totalReports"`
	TopAreas     []AreaCount `json:"topAreas"`
}

type LeaderboardEntry struct {
	Username     string `json:"username"`
	Points       int    `json:"points"`
	Rank         Rank   `json:"rank"`
	ReportsCount int    `json:"reports_count"`
}

// An achievement is earned when EarnedAt is set.
type Achievement struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Points      int        `json:"points"`
	Icon        string     `json:"icon"`
	EarnedAt    *time.Time `json:"earned_at,omitempty"`
}

type UserStats struct {
	Points             int  `json:"points"`
	Rank               Rank `json:"rank"`
	ReportsCount       int  `json:"reports_count"`
	AchievementsEarned int  `json:"achievements_earned"`
}

type AchievementSummary struct {
	Achievements []Achievement `json:"achievements"`
	UserStats    UserStats     `json:"user_stats"`
}

// Count achievements with an earned date.
func (a AchievementSummary) Earned() int {
	n := 0
	for _, ach := range a.Achievements {
		if ach.EarnedAt != nil {
			n++
		}
	}
	return n
}
