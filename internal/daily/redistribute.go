package daily

import (
	"context"
	"sort"

	"reread/internal/schedule"

	"github.com/google/uuid"
)

// Redistribute adds newly created highlights to the rest of the current
// month (tomorrow onwards), balanced against the load those days already
// carry. It only ever adds links. On the last day of the month highlights
// with no assignment at all this month are swept in as well. Later months
// that are already provisioned receive the new highlights too.
func (r *Reconciler) Redistribute(ctx context.Context, owner uint64, clock Clock, newIDs []uuid.UUID) (res *Result, err error) {
	p := clock.Period()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	newIDs = dedupe(newIDs)
	if len(newIDs) == 0 && !clock.IsLastDay() {
		return &Result{Period: p, Days: []DayLoad{}}, nil
	}
	defer func() { r.finish("redistribute", owner, res, err) }()

	cat, all, err := r.catalog(ctx, owner)
	if err != nil {
		return nil, err
	}

	want := newIDs
	if clock.IsLastDay() {
		seen := make(map[uuid.UUID]bool, len(want))
		for _, id := range want {
			seen[id] = true
		}
		st, err := r.loadMonth(ctx, owner, p)
		if err != nil {
			return nil, err
		}
		for _, h := range all {
			if _, ok := st.assigned[h.ID]; !ok && !seen[h.ID] {
				want = append(want, h.ID)
			}
		}
	}

	res, err = r.addToMonth(ctx, owner, p, clock.Day+1, want, cat)
	if err != nil {
		return nil, err
	}
	if len(newIDs) == 0 {
		return res, nil
	}

	later, err := r.provisionedAfter(ctx, owner, p)
	if err != nil {
		return nil, err
	}
	for _, q := range later {
		sub, err := r.addToMonth(ctx, owner, q, 1, newIDs, cat)
		if err != nil {
			return nil, err
		}
		res.Cascaded = append(res.Cascaded, sub)
	}
	return res, nil
}

// addToMonth links each schedulable, not-yet-assigned highlight of ids to a
// non-completed day in [firstDay, end of month]. Existing links are never
// moved. When no such day exists everything goes to the last day.
func (r *Reconciler) addToMonth(ctx context.Context, owner uint64, p Period, firstDay int, ids []uuid.UUID, cat catalog) (*Result, error) {
	marked, err := r.marked(ctx, owner, p)
	if err != nil {
		return nil, err
	}
	st, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}

	res := &Result{Period: p, Days: []DayLoad{}}
	var toPlace []uuid.UUID
	for _, id := range ids {
		h, ok := cat[id]
		if !ok {
			r.log().Warn("redistribute: unknown highlight", "owner", owner, "highlight", id)
			continue
		}
		if _, done := st.assigned[id]; done || !schedulable(h, marked, st, true) {
			continue
		}
		toPlace = append(toPlace, id)
	}
	if len(toPlace) == 0 {
		return res, nil
	}

	bins := st.openBins(firstDay, cat, "")
	if len(bins) == 0 {
		last := p.Last()
		bins = []schedule.Bin{{Key: last, Weight: st.weight(last, cat)}}
	}

	bins = schedule.Balance(items(toPlace, cat), bins, schedule.Options{Seed: p.Seed(), TieBreak: true})
	touched, err := r.place(ctx, owner, st, bins)
	if err != nil {
		return nil, err
	}
	res.Assigned = len(toPlace)

	after, err := r.loadMonth(ctx, owner, p)
	if err != nil {
		return nil, err
	}
	for _, date := range touched {
		res.Days = append(res.Days, after.load(date, cat))
	}
	return res, nil
}

// provisionedAfter lists months after p that already have at least one bucket.
func (r *Reconciler) provisionedAfter(ctx context.Context, owner uint64, p Period) ([]Period, error) {
	sums, err := r.Store.ListSummaries(ctx, owner, p.Next().First(), "9999-12-31")
	if err != nil {
		return nil, persistErr("list provisioned months", err)
	}

	seen := map[Period]bool{}
	var out []Period
	for _, s := range sums {
		q, err := PeriodOf(s.Date)
		if err != nil || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Token() < out[j].Token()
	})
	return out, nil
}
