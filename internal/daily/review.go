package daily

import (
	"context"

	"github.com/google/uuid"
)

// Rate records a rating and marks the highlight reviewed for the bucket's month.
func (r *Reconciler) Rate(ctx context.Context, owner uint64, assignmentID uuid.UUID, rating Rating) error {
	if !rating.Valid() {
		return &ValidationError{Field: "rating", Reason: "must be low, med or high"}
	}

	a, sum, err := r.Store.GetAssignment(ctx, owner, assignmentID)
	if err != nil {
		return persistErr("get assignment", err)
	}
	p, err := PeriodOf(sum.Date)
	if err != nil {
		return err
	}

	if err := r.Store.SetRating(ctx, a.ID, rating); err != nil {
		return persistErr("set rating", err)
	}
	if err := r.Store.CreateMarks(ctx, owner, p.Token(), []uuid.UUID{a.HighlightID}); err != nil {
		return persistErr("mark reviewed", err)
	}
	return nil
}

// BackfillMarks writes the reviewed mark for every rated assignment in the
// month that is missing one. Returns how many highlights it covered.
func (r *Reconciler) BackfillMarks(ctx context.Context, owner uint64, p Period) (int, error) {
	if err := p.Validate(); err != nil {
		return 0, err
	}
	st, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return 0, err
	}
	marked, err := r.marked(ctx, owner, p)
	if err != nil {
		return 0, err
	}

	var missing []uuid.UUID
	for id := range st.rated {
		if !marked[id] {
			missing = append(missing, id)
		}
	}
	if err := r.Store.CreateMarks(ctx, owner, p.Token(), missing); err != nil {
		return 0, persistErr("backfill reviewed marks", err)
	}
	return len(missing), nil
}

type DayEntry struct {
	AssignmentID uuid.UUID `json:"assignment_id"`
	HighlightID  uuid.UUID `json:"highlight_id"`
	Text         string    `json:"text"`
	HTML         *string   `json:"html,omitempty"`
	Rating       *Rating   `json:"rating"`
	Weight       int       `json:"weight"`
}

type DayView struct {
	Date       string     `json:"date"`
	Completed  bool       `json:"completed"`
	Highlights []DayEntry `json:"highlights"`
}

type MonthView struct {
	Period
	Days []DayView `json:"days"`
}

// Month is the read model the review UI renders.
func (r *Reconciler) Month(ctx context.Context, owner uint64, p Period) (*MonthView, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	cat, _, err := r.catalog(ctx, owner)
	if err != nil {
		return nil, err
	}
	st, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}

	out := &MonthView{Period: p, Days: []DayView{}}
	for day := 1; day <= p.Days(); day++ {
		date := p.Date(day)
		rows := st.byDate[date]
		if len(rows) == 0 {
			continue
		}
		dv := DayView{Date: date, Completed: st.completed(date), Highlights: make([]DayEntry, 0, len(rows))}
		for _, a := range rows {
			h := cat[a.HighlightID]
			dv.Highlights = append(dv.Highlights, DayEntry{
				AssignmentID: a.ID,
				HighlightID:  a.HighlightID,
				Text:         h.Text,
				HTML:         h.HTML,
				Rating:       a.Rating,
				Weight:       cat.weight(a.HighlightID),
			})
		}
		out.Days = append(out.Days, dv)
	}
	return out, nil
}
