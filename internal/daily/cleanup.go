package daily

import (
	"context"

	"reread/internal/schedule"

	"github.com/google/uuid"
)

// Cleanup withdraws every unrated assignment from date and re-places those
// highlights on the remaining non-completed days after today. Rated
// assignments on date are left alone. Highlights already linked elsewhere
// this month, or no longer schedulable, are not re-placed.
func (r *Reconciler) Cleanup(ctx context.Context, owner uint64, clock Clock, date string) (res *Result, err error) {
	p := clock.Period()
	q, day, err := splitDate(date)
	if err != nil {
		return nil, err
	}
	if q != p {
		return nil, &ValidationError{Field: "date", Reason: "must be within " + p.Token()}
	}
	defer func() { r.finish("cleanup", owner, res, err) }()

	cat, _, err := r.catalog(ctx, owner)
	if err != nil {
		return nil, err
	}
	marked, err := r.marked(ctx, owner, p)
	if err != nil {
		return nil, err
	}
	st, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}

	sum, ok := st.summaries[date]
	if !ok {
		return nil, persistErr("cleanup "+date, ErrNotFound)
	}

	var withdraw, released []uuid.UUID
	rated := 0
	for _, a := range st.byDate[date] {
		if a.Rating != nil {
			rated++
			continue
		}
		withdraw = append(withdraw, a.ID)
		released = append(released, a.HighlightID)
	}

	res = &Result{Period: p, Preserved: rated, Days: []DayLoad{}}
	if len(withdraw) == 0 {
		res.Days = append(res.Days, st.load(date, cat))
		return res, nil
	}

	if err := r.Store.DeleteAssignments(ctx, withdraw); err != nil {
		return nil, persistErr("withdraw assignments from "+date, err)
	}
	res.Removed = len(withdraw)
	if rated == 0 {
		if err := r.Store.DeleteSummaries(ctx, []uuid.UUID{sum.ID}); err != nil {
			return nil, persistErr("delete empty daily summary "+date, err)
		}
	}

	st, err = r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}

	var toPlace []uuid.UUID
	for _, id := range dedupe(released) {
		h, ok := cat[id]
		if !ok || !schedulable(h, marked, st, true) {
			continue
		}
		if _, elsewhere := st.assigned[id]; elsewhere {
			continue
		}
		toPlace = append(toPlace, id)
	}

	bins := st.openBins(clock.Day+1, cat, date)
	if len(bins) == 0 {
		res.Unplaced = len(toPlace)
		if res.Unplaced > 0 {
			r.log().Warn("cleanup: no open day left", "owner", owner, "date", date, "unplaced", res.Unplaced)
		}
		res.Days = append(res.Days, st.load(date, cat))
		return res, nil
	}

	bins = schedule.Balance(items(toPlace, cat), bins, schedule.Options{
		Seed:     schedule.DaySeed(p.Year, p.Month, day),
		TieBreak: true,
	})
	touched, err := r.place(ctx, owner, st, bins)
	if err != nil {
		return nil, err
	}
	res.Redistributed = len(toPlace)

	after, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}
	res.Days = append(res.Days, after.load(date, cat))
	for _, d := range touched {
		res.Days = append(res.Days, after.load(d, cat))
	}
	return res, nil
}
