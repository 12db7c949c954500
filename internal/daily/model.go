package daily

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Rating is the reviewer's verdict on one assignment. A nil *Rating means
// the assignment has not been reviewed yet.
type Rating string

const (
	RatingLow  Rating = "low"
	RatingMed  Rating = "med"
	RatingHigh Rating = "high"
)

func (r Rating) Valid() bool {
	switch r {
	case RatingLow, RatingMed, RatingHigh:
		return true
	}
	return false
}

// DailySummary is the per-date bucket. It only exists while at least one
// highlight is assigned to its date.
type DailySummary struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uq_daily_summaries_user_date" json:"user_id"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:uq_daily_summaries_user_date" json:"date"` // YYYY-MM-DD
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (s *DailySummary) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DailySummaryHighlight links one highlight to one day.
type DailySummaryHighlight struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DailySummaryID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_dsh_summary_highlight" json:"daily_summary_id"`
	HighlightID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_dsh_summary_highlight;index" json:"highlight_id"`
	Rating         *Rating   `gorm:"type:text" json:"rating"`
	CreatedAt      time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (a *DailySummaryHighlight) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ReviewedMark excludes a highlight from scheduling for one month ("YYYY-MM").
type ReviewedMark struct {
	HighlightID uuid.UUID `gorm:"type:uuid;primaryKey" json:"highlight_id"`
	Month       string    `gorm:"type:varchar(7);primaryKey" json:"month"`
	UserID      uint64    `gorm:"index;not null" json:"user_id"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

// Highlight is the scheduler's view of a stored highlight.
type Highlight struct {
	ID       uuid.UUID
	Text     string
	HTML     *string
	Archived bool
}
