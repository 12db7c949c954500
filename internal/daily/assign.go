package daily

import (
	"context"

	"reread/internal/schedule"

	"github.com/google/uuid"
)

// Assign lays out a whole month for owner. Completed days, and today when it
// already has content, are kept verbatim. On every other day rated
// assignments stay and unrated ones are withdrawn; the withdrawn highlights
// and all unplaced eligible highlights are then balanced across those days.
// A final coverage pass places anything still missing.
func (r *Reconciler) Assign(ctx context.Context, owner uint64, p Period, clock Clock) (res *Result, err error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	defer func() { r.finish("assign", owner, res, err) }()

	cat, all, err := r.catalog(ctx, owner)
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

	today := ""
	if clock.Period() == p {
		today = clock.Today()
	}

	res = &Result{Period: p}
	locked := map[string]bool{}
	placed := map[uuid.UUID]bool{}

	for day := 1; day <= p.Days(); day++ {
		date := p.Date(day)
		rows := st.byDate[date]
		if st.completed(date) || (date == today && len(rows) > 0) {
			locked[date] = true
			res.Preserved += len(rows)
			for _, a := range rows {
				placed[a.HighlightID] = true
			}
			continue
		}
		for _, a := range rows {
			if a.Rating != nil {
				res.Preserved++
				placed[a.HighlightID] = true
			}
		}
	}

	var withdraw []uuid.UUID
	previously := map[uuid.UUID]bool{}
	var bins []schedule.Bin
	kept := map[string]int{}
	for day := 1; day <= p.Days(); day++ {
		date := p.Date(day)
		if locked[date] {
			continue
		}
		bin := schedule.Bin{Key: date}
		for _, a := range st.byDate[date] {
			if a.Rating != nil {
				bin.Weight += cat.weight(a.HighlightID)
				kept[date]++
				continue
			}
			withdraw = append(withdraw, a.ID)
			previously[a.HighlightID] = true
		}
		bins = append(bins, bin)
	}

	if err := r.Store.DeleteAssignments(ctx, withdraw); err != nil {
		return nil, persistErr("withdraw assignments", err)
	}
	res.Removed = len(withdraw)

	var toPlace []uuid.UUID
	for _, h := range all {
		if placed[h.ID] || !schedulable(h, marked, st, false) {
			continue
		}
		toPlace = append(toPlace, h.ID)
		if previously[h.ID] {
			res.Redistributed++
		} else {
			res.Assigned++
		}
	}

	if len(bins) == 0 && len(toPlace) > 0 {
		// every day is locked: the last day is the only place left
		last := p.Last()
		bins = []schedule.Bin{{Key: last, Weight: st.weight(last, cat)}}
	}

	bins = schedule.Balance(items(toPlace, cat), bins, schedule.Options{Seed: p.Seed(), TieBreak: true})
	if _, err := r.place(ctx, owner, st, bins); err != nil {
		return nil, err
	}

	// buckets never outlive their content
	var empty []uuid.UUID
	for _, b := range bins {
		sum, ok := st.summaries[b.Key]
		if ok && !locked[b.Key] && len(b.Items) == 0 && kept[b.Key] == 0 {
			empty = append(empty, sum.ID)
		}
	}
	if err := r.Store.DeleteSummaries(ctx, empty); err != nil {
		return nil, persistErr("delete empty daily summaries", err)
	}

	final, err := r.ensureCoverage(ctx, owner, p, cat, all, marked, locked)
	if err != nil {
		return nil, err
	}
	res.Days = final.loads(cat)
	return res, nil
}

// ensureCoverage re-reads the month and places any eligible highlight that
// ended up without a day, e.g. after a concurrent delete.
func (r *Reconciler) ensureCoverage(ctx context.Context, owner uint64, p Period, cat catalog, all []Highlight, marked map[uuid.UUID]bool, locked map[string]bool) (*monthState, error) {
	st, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}

	var missing []uuid.UUID
	for _, h := range all {
		if _, ok := st.assigned[h.ID]; ok {
			continue
		}
		if schedulable(h, marked, st, false) {
			missing = append(missing, h.ID)
		}
	}
	if len(missing) == 0 {
		return st, nil
	}

	var bins []schedule.Bin
	for day := 1; day <= p.Days(); day++ {
		date := p.Date(day)
		if locked[date] {
			continue
		}
		bins = append(bins, schedule.Bin{Key: date, Weight: st.weight(date, cat)})
	}
	if len(bins) == 0 {
		last := p.Last()
		bins = []schedule.Bin{{Key: last, Weight: st.weight(last, cat)}}
	}

	r.log().Warn("daily coverage gap", "owner", owner, "period", p.Token(), "missing", len(missing))
	bins = schedule.Balance(items(missing, cat), bins, schedule.Options{Seed: p.Seed(), TieBreak: true})
	if _, err := r.place(ctx, owner, st, bins); err != nil {
		return nil, err
	}
	return r.loadMonth(ctx, owner, p)
}
