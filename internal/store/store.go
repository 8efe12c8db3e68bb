package store

import (
	"context"
	"errors"
	"time"

	"github.com/prepwise/interview-coach/internal/model"
	"github.com/prepwise/interview-coach/internal/speech"
)

var (
	ErrNotFound        = errors.New("session snapshot not found")
	ErrVersionConflict = errors.New("session snapshot version conflict")
)

// Snapshot is the serializable state of one interview session. It is
// written through after every mutation so state queries never touch the
// live session goroutine, and it expires with the store's TTL - there
// is deliberately no durable interview history.
type Snapshot struct {
	ID             string                 `json:"id"`
	Context        model.SessionContext   `json:"context"`
	Phase          model.Phase            `json:"phase"`
	Transcript     []model.Turn           `json:"transcript"`
	Scores         []int                  `json:"scores"`
	QuestionsAsked int                    `json:"questions_asked"`
	AIMessage      string                 `json:"ai_message,omitempty"`
	Speech         speech.State           `json:"speech"`
	Result         *model.InterviewResult `json:"result,omitempty"`
	LastError      string                 `json:"last_error,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
	Version        int64                  `json:"version"`
}

// Store persists session snapshots with optimistic locking.
type Store interface {
	// Create stores a new snapshot with Version set to 1.
	Create(ctx context.Context, snap *Snapshot) error

	// Get retrieves a snapshot by session ID.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Snapshot, error)

	// Update persists an existing snapshot. The stored Version must
	// match snap.Version; on success the version is incremented and
	// UpdatedAt refreshed. Returns ErrVersionConflict on a stale
	// version and ErrNotFound for an unknown session.
	Update(ctx context.Context, snap *Snapshot) error

	// Delete removes a snapshot by session ID.
	Delete(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}
