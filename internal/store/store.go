package store

import (
	"context"
	"errors"
	"time"

	"github.com/mbecker/study/internal/models"
)

// ErrNotFound marks lookups for records that do not exist.
var ErrNotFound = errors.New("not found")

// SessionFilter specifies filters for listing sessions. Zero times are
// unbounded; From is inclusive, To exclusive.
type SessionFilter struct {
	Topic string
	From  time.Time
	To    time.Time
	Limit int
}

// Store defines the persistence interface for study sessions.
type Store interface {
	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	ListSessions(ctx context.Context, filter SessionFilter) ([]*models.Session, error)
	UpdateSession(ctx context.Context, s *models.Session) error
	DeleteSession(ctx context.Context, id string) error

	// Analysis context
	CountSessionsForTopic(ctx context.Context, topic string, before time.Time) (int, error)
	ActiveDays(ctx context.Context, from, to time.Time) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
