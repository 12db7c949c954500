package daily

import (
	"context"

	"github.com/google/uuid"
)

// Reset tears down an owner's month: every assignment, every bucket and
// every reviewed mark. Callers run Assign afterwards to start over.
func (r *Reconciler) Reset(ctx context.Context, owner uint64, p Period) (res *Result, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	defer func() { r.finish("reset", owner, res, err) }()

	sums, err := r.Store.ListSummaries(ctx, owner, p.First(), p.Last())
	if err != nil {
		return nil, persistErr("list daily summaries", err)
	}
	ids := make([]uuid.UUID, 0, len(sums))
	for _, s := range sums {
		ids = append(ids, s.ID)
	}

	rows, err := r.Store.ListAssignments(ctx, ids)
	if err != nil {
		return nil, persistErr("list assignments", err)
	}
	rowIDs := make([]uuid.UUID, 0, len(rows))
	for _, a := range rows {
		rowIDs = append(rowIDs, a.ID)
	}

	if err := r.Store.DeleteAssignments(ctx, rowIDs); err != nil {
		return nil, persistErr("delete assignments", err)
	}
	if err := r.Store.DeleteSummaries(ctx, ids); err != nil {
		return nil, persistErr("delete daily summaries", err)
	}
	if err := r.Store.DeleteMarks(ctx, owner, p.Token()); err != nil {
		return nil, persistErr("delete reviewed marks", err)
	}

	return &Result{Period: p, Removed: len(rowIDs), Days: []DayLoad{}}, nil
}
