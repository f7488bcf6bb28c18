package domain

import (
	"time"

	"github.com/google/uuid"
)

// HintRecord is one entry of the append-only chain of hints for a user and problem
type HintRecord struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ProblemID  string
	Branch     HintBranch
	SnapshotID uuid.UUID
	Text       string
	CreatedAt  time.Time
}
