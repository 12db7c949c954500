package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"reread/internal/metrics"
	"reread/internal/notion"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 5 * time.Minute},
		{1, 5 * time.Minute},
		{2, 15 * time.Minute},
		{3, 45 * time.Minute},
		{4, 2 * time.Hour},
		{5, 6 * time.Hour},
		{6, 12 * time.Hour},
		{7, 24 * time.Hour},
		{9, 96 * time.Hour},
		{10, 7 * 24 * time.Hour},
		{50, 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, RetryDelay(tt.attempt), "attempt %d", tt.attempt)
	}
}

type call struct {
	op       string
	id       uint64
	attempts int
	runAt    time.Time
	msg      string
}

type fakeQueue struct {
	jobs  []*Job
	calls []call
}

func (q *fakeQueue) Claim(context.Context, string, time.Duration) (*Job, error) {
	if len(q.jobs) == 0 {
		return nil, nil
	}
	j := q.jobs[0]
	q.jobs = q.jobs[1:]
	return j, nil
}

func (q *fakeQueue) MarkDone(_ context.Context, id uint64, note string) error {
	q.calls = append(q.calls, call{op: "done", id: id, msg: note})
	return nil
}

func (q *fakeQueue) MarkDead(_ context.Context, id uint64, attempts int, errMsg string) error {
	q.calls = append(q.calls, call{op: "dead", id: id, attempts: attempts, msg: errMsg})
	return nil
}

func (q *fakeQueue) RetryLater(_ context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error {
	q.calls = append(q.calls, call{op: "retry", id: id, attempts: attempts, runAt: runAt, msg: errMsg})
	return nil
}

// fakeBlocks serves a fixed page and can fail every write.
type fakeBlocks struct {
	page     []notion.Block
	writeErr error
	appended []notion.Block
}

func (f *fakeBlocks) ListBlocks(context.Context, string) ([]notion.Block, error) {
	return f.page, nil
}

func (f *fakeBlocks) UpdateBlock(context.Context, notion.Block) error { return f.writeErr }

func (f *fakeBlocks) DeleteBlock(context.Context, string) error { return f.writeErr }

func (f *fakeBlocks) AppendBlocks(_ context.Context, _ string, blocks []notion.Block, _ string) ([]notion.Block, error) {
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	f.appended = append(f.appended, blocks...)
	return blocks, nil
}

var fixedNow = time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC)

func newWorker(q Queue, blocks notion.BlockClient, m *metrics.Metrics) *Worker {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Worker{
		ID:      "w1",
		Queue:   q,
		Syncer:  &notion.Syncer{Client: blocks, Log: log},
		Log:     log,
		Metrics: m,
		now:     func() time.Time { return fixedNow },
	}
}

func job(t *testing.T, id uint64, action Action, p Payload, attempts int) *Job {
	t.Helper()
	j, err := NewSyncJob(1, uuid.New(), "page", action, p, 3)
	require.NoError(t, err)
	j.ID = id
	j.Attempts = attempts
	return &j
}

func TestWorkerHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("append succeeds", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		q := &fakeQueue{}
		blocks := &fakeBlocks{}

		newWorker(q, blocks, m).handle(ctx, job(t, 1, ActionAppend, Payload{Text: "Hello"}, 0))

		require.Equal(t, []call{{op: "done", id: 1}}, q.calls)
		require.Len(t, blocks.appended, 2)
		n, err := testutil.GatherAndCount(reg, "reread_sync_jobs_total")
		require.NoError(t, err)
		require.Equal(t, 1, n)
	})

	t.Run("missing highlight is done with a note", func(t *testing.T) {
		q := &fakeQueue{}
		blocks := &fakeBlocks{page: []notion.Block{{ID: "a", Type: notion.Paragraph, Text: "Do the work every day"}}}

		newWorker(q, blocks, nil).handle(ctx, job(t, 2, ActionDelete, Payload{OldText: "Do the work"}, 0))

		require.Len(t, q.calls, 1)
		require.Equal(t, "done", q.calls[0].op)
		require.Equal(t, "highlight not found on page", q.calls[0].msg)
	})

	t.Run("failures back off", func(t *testing.T) {
		q := &fakeQueue{}
		blocks := &fakeBlocks{
			page:     []notion.Block{{ID: "a", Type: notion.Paragraph, Text: "Old"}},
			writeErr: errors.New("503"),
		}

		newWorker(q, blocks, nil).handle(ctx, job(t, 3, ActionUpdate, Payload{OldText: "Old", Text: "New"}, 1))

		require.Len(t, q.calls, 1)
		require.Equal(t, "retry", q.calls[0].op)
		require.Equal(t, 2, q.calls[0].attempts)
		require.Equal(t, fixedNow.Add(15*time.Minute), q.calls[0].runAt)
		require.Contains(t, q.calls[0].msg, "503")
	})

	t.Run("last attempt goes dead", func(t *testing.T) {
		q := &fakeQueue{}
		blocks := &fakeBlocks{writeErr: errors.New("503")}

		newWorker(q, blocks, nil).handle(ctx, job(t, 4, ActionAppend, Payload{Text: "x"}, 2))

		require.Equal(t, "dead", q.calls[0].op)
		require.Equal(t, 3, q.calls[0].attempts)
	})

	t.Run("bad payload and unknown action go dead at once", func(t *testing.T) {
		q := &fakeQueue{}
		bad := job(t, 5, ActionAppend, Payload{}, 0)
		bad.Payload = json.RawMessage(`{`)
		odd := job(t, 6, Action("move"), Payload{}, 0)

		w := newWorker(q, &fakeBlocks{}, nil)
		w.handle(ctx, bad)
		w.handle(ctx, odd)

		require.Equal(t, "dead", q.calls[0].op)
		require.Equal(t, "dead", q.calls[1].op)
		require.Contains(t, q.calls[1].msg, "move")
	})
}

func TestWorkerRunDrainsQueue(t *testing.T) {
	q := &fakeQueue{}
	for i := uint64(1); i <= 3; i++ {
		q.jobs = append(q.jobs, job(t, i, ActionAppend, Payload{Text: "x"}, 0))
	}
	w := newWorker(q, &fakeBlocks{}, nil)
	w.Poll = 5 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	w.Run(ctx)

	require.Len(t, q.calls, 3)
	for _, c := range q.calls {
		require.Equal(t, "done", c.op)
	}
}
