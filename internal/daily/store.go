package daily

import (
	"context"

	"github.com/google/uuid"
)

type HighlightStore interface {
	ListHighlights(ctx context.Context, owner uint64, includeArchived bool) ([]Highlight, error)
}

// SummaryStore persists day buckets and their assignments. Dates are
// YYYY-MM-DD and ranges are inclusive.
type SummaryStore interface {
	ListOwners(ctx context.Context) ([]uint64, error)
	ListSummaries(ctx context.Context, owner uint64, from, to string) ([]DailySummary, error)
	ListAssignments(ctx context.Context, summaryIDs []uuid.UUID) ([]DailySummaryHighlight, error)
	CreateSummary(ctx context.Context, owner uint64, date string) (DailySummary, error)
	// UpsertAssignments ignores pairs that already exist.
	UpsertAssignments(ctx context.Context, summaryID uuid.UUID, highlightIDs []uuid.UUID) error
	DeleteAssignments(ctx context.Context, ids []uuid.UUID) error
	DeleteSummaries(ctx context.Context, ids []uuid.UUID) error
	// GetAssignment returns ErrNotFound unless the assignment belongs to owner.
	GetAssignment(ctx context.Context, owner uint64, id uuid.UUID) (DailySummaryHighlight, DailySummary, error)
	SetRating(ctx context.Context, id uuid.UUID, rating Rating) error
}

type MarkStore interface {
	ListMarked(ctx context.Context, owner uint64, month string) ([]uuid.UUID, error)
	CreateMarks(ctx context.Context, owner uint64, month string, highlightIDs []uuid.UUID) error
	DeleteMarks(ctx context.Context, owner uint64, month string) error
}

type Store interface {
	HighlightStore
	SummaryStore
	MarkStore
}
