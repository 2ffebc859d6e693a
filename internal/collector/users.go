package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/host"
)

// Session describes one logged-in user session.
type Session struct {
	User    string
	Host    string
	Started time.Time
}

// UsersCollector counts logged-in user sessions. It also exposes the session
// details so informational logging can list who is logged in.
type UsersCollector struct{}

// NewUsersCollector creates a UsersCollector.
func NewUsersCollector() *UsersCollector {
	return &UsersCollector{}
}

func (c *UsersCollector) Name() string {
	return "Logged In User Count"
}

func (c *UsersCollector) Available() error {
	if _, err := host.Users(); err != nil {
		return fmt.Errorf("user sessions: %w", err)
	}
	return nil
}

func (c *UsersCollector) Collect(ctx context.Context) (float64, error) {
	sessions, err := c.Sessions(ctx)
	if err != nil {
		return 0, err
	}
	return float64(len(sessions)), nil
}

// Sessions returns the current user sessions.
func (c *UsersCollector) Sessions(ctx context.Context) ([]Session, error) {
	users, err := host.UsersWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading user sessions: %w", err)
	}
	sessions := make([]Session, 0, len(users))
	for _, u := range users {
		sessions = append(sessions, Session{
			User:    u.User,
			Host:    u.Host,
			Started: time.Unix(int64(u.Started), 0),
		})
	}
	return sessions, nil
}
