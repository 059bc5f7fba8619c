package backend

import (
	"context"
	"fmt"
	"ratlogger/internal/domain"
	"ratlogger/internal/platform/obs"
)

func (c *Client) Me(ctx context.Context, token string) (_ domain.User, err error) {
	defer obs.Time(ctx, "backend.Me")(&err)

	var u domain.User
	if err := c.getJSON(ctx, "/api/users/me/", token, &u); err != nil {
		return domain.User{}, fmt.Errorf("get profile: %w", err)
	}
	if u.Username == "" {
		return domain.User{}, fmt.Errorf("get profile: empty username: %w", domain.ErrMalformedResponse)
	}
	return u, nil
}

// Leaderboard returns the backend's top ten, best first.
func (c *Client) Leaderboard(ctx context.Context, token string) (_ []domain.LeaderboardEntry, err error) {
	defer obs.Time(ctx, "backend.Leaderboard")(&err)

	var entries []domain.LeaderboardEntry
	if err := c.getJSON(ctx, "/api/leaderboard/", token, &entries); err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	return entries, nil
}

func (c *Client) Achievements(ctx context.Context, token string) (_ domain.AchievementSummary, err error) {
	defer obs.Time(ctx, "backend.Achievements")(&err)

	var summary domain.AchievementSummary
	if err := c.getJSON(ctx, "/api/users/achievements/", token, &summary); err != nil {
		return domain.AchievementSummary{}, fmt.Errorf("get achievements: %w", err)
	}
	return summary, nil
}
