package daily

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type markKey struct {
	owner uint64
	month string
}

// memStore is an in-memory Store with the same uniqueness rules as the
// Postgres schema, plus failure injection and a write counter.
type memStore struct {
	mu sync.Mutex

	owners     []uint64
	highlights map[uint64][]Highlight
	summaries  []DailySummary
	rows       []DailySummaryHighlight
	marks      map[markKey]map[uuid.UUID]bool

	failOp    map[string]error
	failOwner map[uint64]error
	writes    int
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		highlights: map[uint64][]Highlight{},
		marks:      map[markKey]map[uuid.UUID]bool{},
		failOp:     map[string]error{},
		failOwner:  map[uint64]error{},
	}
}

func hid(owner uint64, i int) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%d/%d", owner, i)))
}

// addHighlights creates highlights whose weights are the given lengths.
func (m *memStore) addHighlights(owner uint64, lengths ...int) []uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.highlights[owner]; !ok {
		m.owners = append(m.owners, owner)
	}
	var ids []uuid.UUID
	for _, n := range lengths {
		id := hid(owner, len(m.highlights[owner]))
		m.highlights[owner] = append(m.highlights[owner], Highlight{ID: id, Text: strings.Repeat("x", n)})
		ids = append(ids, id)
	}
	return ids
}

func (m *memStore) setArchived(owner uint64, id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, h := range m.highlights[owner] {
		if h.ID == id {
			m.highlights[owner][i].Archived = true
		}
	}
}

// link seeds an assignment directly, bypassing the reconciler.
func (m *memStore) link(owner uint64, date string, id uuid.UUID, rating *Rating) DailySummaryHighlight {
	sum, _ := m.CreateSummary(context.Background(), owner, date)
	m.mu.Lock()
	defer m.mu.Unlock()
	row := DailySummaryHighlight{ID: uuid.New(), DailySummaryID: sum.ID, HighlightID: id, Rating: rating}
	m.rows = append(m.rows, row)
	return row
}

func (m *memStore) mark(owner uint64, month string, id uuid.UUID) {
	_ = m.CreateMarks(context.Background(), owner, month, []uuid.UUID{id})
}

func (m *memStore) resetWrites() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = 0
}

func (m *memStore) fail(op string) error {
	return m.failOp[op]
}

// dayRows returns "highlight:rating:assignmentID" lines for a date, sorted.
func (m *memStore) dayRows(owner uint64, date string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.summaries {
		if s.UserID != owner || s.Date != date {
			continue
		}
		for _, a := range m.rows {
			if a.DailySummaryID != s.ID {
				continue
			}
			r := "-"
			if a.Rating != nil {
				r = string(*a.Rating)
			}
			out = append(out, fmt.Sprintf("%s:%s:%s", a.HighlightID, r, a.ID))
		}
	}
	sort.Strings(out)
	return out
}

// placements maps highlight -> dates it is linked to within the month.
func (m *memStore) placements(owner uint64, p Period) map[uuid.UUID][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID][]string{}
	for _, s := range m.summaries {
		if s.UserID != owner || !p.Contains(s.Date) {
			continue
		}
		for _, a := range m.rows {
			if a.DailySummaryID == s.ID {
				out[a.HighlightID] = append(out[a.HighlightID], s.Date)
			}
		}
	}
	return out
}

func (m *memStore) summaryDates(owner uint64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.summaries {
		if s.UserID == owner {
			out = append(out, s.Date)
		}
	}
	sort.Strings(out)
	return out
}

func (m *memStore) countRows(summaryID uuid.UUID) int {
	n := 0
	for _, a := range m.rows {
		if a.DailySummaryID == summaryID {
			n++
		}
	}
	return n
}

func (m *memStore) ListHighlights(_ context.Context, owner uint64, includeArchived bool) ([]Highlight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListHighlights"); err != nil {
		return nil, err
	}
	if err := m.failOwner[owner]; err != nil {
		return nil, err
	}
	var out []Highlight
	for _, h := range m.highlights[owner] {
		if h.Archived && !includeArchived {
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

func (m *memStore) ListOwners(context.Context) ([]uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListOwners"); err != nil {
		return nil, err
	}
	return append([]uint64(nil), m.owners...), nil
}

func (m *memStore) ListSummaries(_ context.Context, owner uint64, from, to string) ([]DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListSummaries"); err != nil {
		return nil, err
	}
	var out []DailySummary
	for _, s := range m.summaries {
		if s.UserID == owner && s.Date >= from && s.Date <= to {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (m *memStore) ListAssignments(_ context.Context, summaryIDs []uuid.UUID) ([]DailySummaryHighlight, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListAssignments"); err != nil {
		return nil, err
	}
	want := map[uuid.UUID]bool{}
	for _, id := range summaryIDs {
		want[id] = true
	}
	var out []DailySummaryHighlight
	for _, a := range m.rows {
		if want[a.DailySummaryID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) CreateSummary(_ context.Context, owner uint64, date string) (DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateSummary"); err != nil {
		return DailySummary{}, err
	}
	for _, s := range m.summaries {
		if s.UserID == owner && s.Date == date {
			return s, nil
		}
	}
	m.writes++
	s := DailySummary{ID: uuid.New(), UserID: owner, Date: date}
	m.summaries = append(m.summaries, s)
	return s, nil
}

func (m *memStore) UpsertAssignments(_ context.Context, summaryID uuid.UUID, highlightIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("UpsertAssignments"); err != nil {
		return err
	}
	for _, h := range highlightIDs {
		dup := false
		for _, a := range m.rows {
			if a.DailySummaryID == summaryID && a.HighlightID == h {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		m.writes++
		m.rows = append(m.rows, DailySummaryHighlight{ID: uuid.New(), DailySummaryID: summaryID, HighlightID: h})
	}
	return nil
}

func (m *memStore) DeleteAssignments(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteAssignments"); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	drop := map[uuid.UUID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.rows[:0]
	for _, a := range m.rows {
		if drop[a.ID] {
			m.writes++
			continue
		}
		kept = append(kept, a)
	}
	m.rows = kept
	return nil
}

func (m *memStore) DeleteSummaries(_ context.Context, ids []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteSummaries"); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	drop := map[uuid.UUID]bool{}
	for _, id := range ids {
		drop[id] = true
	}
	rows := m.rows[:0]
	for _, a := range m.rows {
		if !drop[a.DailySummaryID] {
			rows = append(rows, a)
		}
	}
	m.rows = rows
	sums := m.summaries[:0]
	for _, s := range m.summaries {
		if drop[s.ID] {
			m.writes++
			continue
		}
		sums = append(sums, s)
	}
	m.summaries = sums
	return nil
}

func (m *memStore) GetAssignment(_ context.Context, owner uint64, id uuid.UUID) (DailySummaryHighlight, DailySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.rows {
		if a.ID != id {
			continue
		}
		for _, s := range m.summaries {
			if s.ID == a.DailySummaryID && s.UserID == owner {
				return a, s, nil
			}
		}
	}
	return DailySummaryHighlight{}, DailySummary{}, ErrNotFound
}

func (m *memStore) SetRating(_ context.Context, id uuid.UUID, rating Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].ID == id {
			m.writes++
			m.rows[i].Rating = &rating
			return nil
		}
	}
	return ErrNotFound
}

func (m *memStore) ListMarked(_ context.Context, owner uint64, month string) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("ListMarked"); err != nil {
		return nil, err
	}
	var out []uuid.UUID
	for id := range m.marks[markKey{owner, month}] {
		out = append(out, id)
	}
	return out, nil
}

func (m *memStore) CreateMarks(_ context.Context, owner uint64, month string, highlightIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("CreateMarks"); err != nil {
		return err
	}
	k := markKey{owner, month}
	if m.marks[k] == nil {
		m.marks[k] = map[uuid.UUID]bool{}
	}
	for _, id := range highlightIDs {
		if !m.marks[k][id] {
			m.writes++
			m.marks[k][id] = true
		}
	}
	return nil
}

func (m *memStore) DeleteMarks(_ context.Context, owner uint64, month string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("DeleteMarks"); err != nil {
		return err
	}
	m.writes += len(m.marks[markKey{owner, month}])
	delete(m.marks, markKey{owner, month})
	return nil
}
