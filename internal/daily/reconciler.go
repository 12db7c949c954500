package daily

import (
	"context"
	"log/slog"
	"sort"

	"reread/internal/metrics"
	"reread/internal/schedule"

	"github.com/google/uuid"
)

// Reconciler keeps each owner's month of day buckets in balance. Completed
// days (every assignment rated) and today are never rewritten; everything
// else may be rebuilt, added to, or cleaned up.
type Reconciler struct {
	Store   Store
	Log     *slog.Logger
	Metrics *metrics.Metrics
}

// DayLoad summarizes one bucket after an operation.
type DayLoad struct {
	Date           string `json:"date"`
	HighlightCount int    `json:"highlight_count"`
	TotalWeight    int    `json:"total_weight"`
}

// Result is what every reconciler operation reports.
type Result struct {
	Period
	Preserved     int       `json:"preserved"`
	Redistributed int       `json:"redistributed"`
	Assigned      int       `json:"newly_assigned"`
	Removed       int       `json:"removed"`
	Unplaced      int       `json:"unplaced,omitempty"`
	Days          []DayLoad `json:"days"`
	Cascaded      []*Result `json:"cascaded,omitempty"`
}

func (r *Reconciler) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}

func (r *Reconciler) finish(op string, owner uint64, res *Result, err error) {
	r.Metrics.Operation(op, err)
	if err != nil {
		r.log().Error("daily reconcile failed", "op", op, "owner", owner, "err", err)
		return
	}
	r.Metrics.Placed(op, res.Assigned+res.Redistributed)
	r.Metrics.Removed(op, res.Removed)
	r.log().Info("daily reconcile",
		"op", op,
		"owner", owner,
		"period", res.Token(),
		"preserved", res.Preserved,
		"redistributed", res.Redistributed,
		"assigned", res.Assigned,
		"removed", res.Removed,
	)
}

// catalog indexes every highlight of an owner, archived included, so
// weights of already-placed content are always known.
type catalog map[uuid.UUID]Highlight

func (r *Reconciler) catalog(ctx context.Context, owner uint64) (catalog, []Highlight, error) {
	hs, err := r.Store.ListHighlights(ctx, owner, true)
	if err != nil {
		return nil, nil, persistErr("list highlights", err)
	}
	c := make(catalog, len(hs))
	for _, h := range hs {
		c[h.ID] = h
	}
	return c, hs, nil
}

func (c catalog) weight(id uuid.UUID) int {
	h, ok := c[id]
	if !ok {
		return 0
	}
	return schedule.Score(h.Text, h.HTML)
}

func (r *Reconciler) marked(ctx context.Context, owner uint64, p Period) (map[uuid.UUID]bool, error) {
	ids, err := r.Store.ListMarked(ctx, owner, p.Token())
	if err != nil {
		return nil, persistErr("list reviewed marks", err)
	}
	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// monthState is the persisted picture of one owner's month.
type monthState struct {
	period    Period
	summaries map[string]DailySummary
	byDate    map[string][]DailySummaryHighlight
	assigned  map[uuid.UUID]string
	rated     map[uuid.UUID]bool
}

func (r *Reconciler) loadMonth(ctx context.Context, owner uint64, p Period) (*monthState, error) {
	sums, err := r.Store.ListSummaries(ctx, owner, p.First(), p.Last())
	if err != nil {
		return nil, persistErr("list daily summaries", err)
	}

	st := &monthState{
		period:    p,
		summaries: make(map[string]DailySummary, len(sums)),
		byDate:    make(map[string][]DailySummaryHighlight, len(sums)),
		assigned:  map[uuid.UUID]string{},
		rated:     map[uuid.UUID]bool{},
	}
	if len(sums) == 0 {
		return st, nil
	}

	dateByID := make(map[uuid.UUID]string, len(sums))
	ids := make([]uuid.UUID, 0, len(sums))
	for _, s := range sums {
		st.summaries[s.Date] = s
		dateByID[s.ID] = s.Date
		ids = append(ids, s.ID)
	}

	rows, err := r.Store.ListAssignments(ctx, ids)
	if err != nil {
		return nil, persistErr("list assignments", err)
	}
	for _, a := range rows {
		date, ok := dateByID[a.DailySummaryID]
		if !ok {
			continue
		}
		st.byDate[date] = append(st.byDate[date], a)
		if _, seen := st.assigned[a.HighlightID]; !seen {
			st.assigned[a.HighlightID] = date
		}
		if a.Rating != nil {
			st.rated[a.HighlightID] = true
		}
	}
	return st, nil
}

// completed reports whether a day has content and all of it is rated.
func (st *monthState) completed(date string) bool {
	rows := st.byDate[date]
	if len(rows) == 0 {
		return false
	}
	for _, a := range rows {
		if a.Rating == nil {
			return false
		}
	}
	return true
}

func (st *monthState) weight(date string, c catalog) int {
	w := 0
	for _, a := range st.byDate[date] {
		w += c.weight(a.HighlightID)
	}
	return w
}

func (st *monthState) load(date string, c catalog) DayLoad {
	return DayLoad{Date: date, HighlightCount: len(st.byDate[date]), TotalWeight: st.weight(date, c)}
}

// loads reports every day of the month that holds content.
func (st *monthState) loads(c catalog) []DayLoad {
	out := []DayLoad{}
	for day := 1; day <= st.period.Days(); day++ {
		date := st.period.Date(day)
		if len(st.byDate[date]) > 0 {
			out = append(out, st.load(date, c))
		}
	}
	return out
}

// schedulable: not archived, not reviewed this month. With strict, a rating
// anywhere in the month also excludes it even if no mark was written yet.
func schedulable(h Highlight, marked map[uuid.UUID]bool, st *monthState, strict bool) bool {
	if h.Archived || marked[h.ID] {
		return false
	}
	if strict && st.rated[h.ID] {
		return false
	}
	return true
}

// openBins returns a bin for every non-completed day from firstDay to the
// end of the month, seeded with the day's current weight.
func (st *monthState) openBins(firstDay int, c catalog, skip string) []schedule.Bin {
	var bins []schedule.Bin
	for day := max(firstDay, 1); day <= st.period.Days(); day++ {
		date := st.period.Date(day)
		if date == skip || st.completed(date) {
			continue
		}
		bins = append(bins, schedule.Bin{Key: date, Weight: st.weight(date, c)})
	}
	return bins
}

func items(ids []uuid.UUID, c catalog) []schedule.Item {
	out := make([]schedule.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, schedule.Item{ID: id.String(), Weight: c.weight(id)})
	}
	return out
}

// place persists balanced bins: creates missing buckets lazily and links
// their new items. Returns the dates that received items, sorted.
func (r *Reconciler) place(ctx context.Context, owner uint64, st *monthState, bins []schedule.Bin) ([]string, error) {
	var touched []string
	for _, b := range bins {
		if len(b.Items) == 0 {
			continue
		}

		sum, ok := st.summaries[b.Key]
		if !ok {
			created, err := r.Store.CreateSummary(ctx, owner, b.Key)
			if err != nil {
				return touched, persistErr("create daily summary "+b.Key, err)
			}
			sum = created
			st.summaries[b.Key] = sum
		}

		ids := make([]uuid.UUID, 0, len(b.Items))
		for _, it := range b.Items {
			id, err := uuid.Parse(it.ID)
			if err != nil {
				return touched, err
			}
			ids = append(ids, id)
		}
		if err := r.Store.UpsertAssignments(ctx, sum.ID, ids); err != nil {
			return touched, persistErr("link highlights to "+b.Key, err)
		}
		touched = append(touched, b.Key)
	}
	sort.Strings(touched)
	return touched, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
