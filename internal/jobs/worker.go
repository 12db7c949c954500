package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"reread/internal/metrics"
	"reread/internal/notion"
)

// Queue is the part of Repo the worker drives.
type Queue interface {
	Claim(ctx context.Context, workerID string, staleAfter time.Duration) (*Job, error)
	MarkDone(ctx context.Context, id uint64, note string) error
	MarkDead(ctx context.Context, id uint64, attempts int, errMsg string) error
	RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error
}

var _ Queue = (*Repo)(nil)

type Worker struct {
	ID         string
	Queue      Queue
	Syncer     *notion.Syncer
	Log        *slog.Logger
	Metrics    *metrics.Metrics
	Poll       time.Duration
	StaleAfter time.Duration

	now func() time.Time
}

func (w *Worker) log() *slog.Logger {
	if w.Log == nil {
		return slog.Default()
	}
	return w.Log
}

func (w *Worker) clock() time.Time {
	if w.now != nil {
		return w.now()
	}
	return time.Now()
}

func (w *Worker) Run(ctx context.Context) {
	poll := w.Poll
	if poll <= 0 {
		poll = 2 * time.Second
	}
	stale := w.StaleAfter
	if stale <= 0 {
		stale = 10 * time.Minute
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	w.log().Info("sync worker started", "worker", w.ID, "poll", poll.String())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// drain whatever is due before waiting again
			for ctx.Err() == nil {
				job, err := w.Queue.Claim(ctx, w.ID, stale)
				if err != nil {
					w.log().Error("sync claim failed", "worker", w.ID, "err", err)
					break
				}
				if job == nil {
					break
				}
				w.handle(ctx, job)
			}
		}
	}
}

func (w *Worker) handle(ctx context.Context, job *Job) {
	var p Payload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		w.dead(ctx, job, job.Attempts, "bad payload: "+err.Error())
		return
	}

	var (
		out notion.Outcome
		err error
	)
	switch job.Action {
	case ActionAppend:
		out, err = w.Syncer.Append(ctx, job.PageID, p.Text, p.HTML)
	case ActionUpdate:
		out, err = w.Syncer.Update(ctx, job.PageID, p.OldText, p.OldHTML, p.Text, p.HTML)
	case ActionDelete:
		out, err = w.Syncer.Delete(ctx, job.PageID, p.OldText, p.OldHTML)
	default:
		w.dead(ctx, job, job.Attempts, fmt.Sprintf("unknown action %q", job.Action))
		return
	}
	if err != nil {
		w.retry(ctx, job, err.Error())
		return
	}

	note := ""
	outcome := "done"
	if !out.Found {
		note = "highlight not found on page"
		outcome = "not_found"
	}
	if err := w.Queue.MarkDone(ctx, job.ID, note); err != nil {
		w.log().Error("sync mark done failed", "job", job.ID, "err", err)
	}
	w.Metrics.SyncJob(string(job.Action), outcome)
	w.log().Info("sync job done",
		"job", job.ID,
		"action", job.Action,
		"highlight", job.HighlightID,
		"found", out.Found,
		"updated", out.Updated,
		"created", out.Created,
		"deleted", out.Deleted,
	)
}

func (w *Worker) retry(ctx context.Context, job *Job, errMsg string) {
	attempts := job.Attempts + 1
	if attempts >= job.MaxAttempts {
		w.dead(ctx, job, attempts, errMsg)
		return
	}

	next := w.clock().Add(RetryDelay(attempts))
	if err := w.Queue.RetryLater(ctx, job.ID, attempts, next, errMsg); err != nil {
		w.log().Error("sync retry schedule failed", "job", job.ID, "err", err)
	}
	w.Metrics.SyncJob(string(job.Action), "retry")
	w.log().Warn("sync job failed, will retry", "job", job.ID, "attempts", attempts, "run_at", next, "err", errMsg)
}

func (w *Worker) dead(ctx context.Context, job *Job, attempts int, errMsg string) {
	if err := w.Queue.MarkDead(ctx, job.ID, attempts, errMsg); err != nil {
		w.log().Error("sync mark dead failed", "job", job.ID, "err", err)
	}
	w.Metrics.SyncJob(string(job.Action), "dead")
	w.log().Error("sync job gave up", "job", job.ID, "attempts", attempts, "err", errMsg)
}
