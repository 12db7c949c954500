package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Action string

const (
	ActionAppend Action = "append"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed" // retryable
	StatusDead       = "dead"   // out of attempts, needs a manual retry
)

const DefaultMaxAttempts = 8

// Job mirrors one highlight change onto its Notion page.
type Job struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	UserID      uint64    `gorm:"index;not null" json:"user_id"`
	HighlightID uuid.UUID `gorm:"type:uuid;index;not null" json:"highlight_id"`
	PageID      string    `gorm:"type:text;not null" json:"page_id"`

	Action  Action          `gorm:"type:text;not null" json:"action"`
	Payload json.RawMessage `gorm:"type:jsonb;not null;default:'{}'::jsonb" json:"payload"`

	RunAt  time.Time `gorm:"index;not null" json:"run_at"`
	Status string    `gorm:"index;not null;default:'pending'" json:"status"`

	Attempts    int `gorm:"not null;default:0" json:"attempts"`
	MaxAttempts int `gorm:"not null;default:8" json:"max_attempts"`

	LockedBy *string    `gorm:"type:text" json:"-"`
	LockedAt *time.Time `gorm:"type:timestamptz" json:"-"`

	LastError *string `gorm:"type:text" json:"last_error,omitempty"`
	Note      *string `gorm:"type:text" json:"note,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Job) TableName() string { return "sync_jobs" }

// Payload carries the highlight content the job needs. Old* hold what the
// page is expected to contain now, for update and delete.
type Payload struct {
	Text    string  `json:"text,omitempty"`
	HTML    *string `json:"html,omitempty"`
	OldText string  `json:"old_text,omitempty"`
	OldHTML *string `json:"old_html,omitempty"`
}

// NewSyncJob builds a pending job due now. Callers insert it inside the
// transaction that changed the highlight.
func NewSyncJob(userID uint64, highlightID uuid.UUID, pageID string, action Action, p Payload, maxAttempts int) (Job, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return Job{}, err
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return Job{
		UserID:      userID,
		HighlightID: highlightID,
		PageID:      pageID,
		Action:      action,
		Payload:     b,
		RunAt:       time.Now(),
		Status:      StatusPending,
		MaxAttempts: maxAttempts,
	}, nil
}
