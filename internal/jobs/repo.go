package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("not found")

var claimable = pq.Array([]string{StatusPending, StatusFailed})

type Repo struct {
	DB *gorm.DB
}

// Claim takes one due job atomically using SKIP LOCKED. Processing jobs whose
// lock is older than staleAfter are put back first, so a crashed worker's
// jobs are picked up again.
func (r *Repo) Claim(ctx context.Context, workerID string, staleAfter time.Duration) (*Job, error) {
	var job Job
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`
update sync_jobs
set status=?, locked_by=null, locked_at=null, updated_at=now()
where status=? and locked_at is not null and locked_at < ?
`, StatusPending, StatusProcessing, time.Now().Add(-staleAfter)).Error; err != nil {
			return err
		}

		return tx.Raw(`
with cte as (
  select id
  from sync_jobs
  where status = any(?) and run_at <= now()
  order by run_at asc, id asc
  for update skip locked
  limit 1
)
update sync_jobs
set status=?, locked_by=?, locked_at=now(), updated_at=now()
where id in (select id from cte)
returning *;
`, claimable, StatusProcessing, workerID).Scan(&job).Error
	})
	if err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, nil
	}
	return &job, nil
}

func (r *Repo) MarkDone(ctx context.Context, id uint64, note string) error {
	var n *string
	if note != "" {
		n = &note
	}
	return r.DB.WithContext(ctx).Exec(`
update sync_jobs
set status=?, note=?, last_error=null, locked_by=null, locked_at=null, updated_at=now()
where id=?`, StatusDone, n, id).Error
}

func (r *Repo) MarkDead(ctx context.Context, id uint64, attempts int, errMsg string) error {
	return r.DB.WithContext(ctx).Exec(`
update sync_jobs
set status=?, attempts=?, last_error=?, locked_by=null, locked_at=null, updated_at=now()
where id=?`, StatusDead, attempts, errMsg, id).Error
}

func (r *Repo) RetryLater(ctx context.Context, id uint64, attempts int, runAt time.Time, errMsg string) error {
	return r.DB.WithContext(ctx).Exec(`
update sync_jobs
set status=?,
    attempts=?,
    run_at=?,
    locked_by=null,
    locked_at=null,
    last_error=?,
    updated_at=now()
where id=?`, StatusFailed, attempts, runAt, errMsg, id).Error
}

// ListFailed returns a user's jobs that ran out of attempts, newest first.
func (r *Repo) ListFailed(ctx context.Context, userID uint64, limit int) ([]Job, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []Job
	err := r.DB.WithContext(ctx).
		Where("user_id=? AND status=?", userID, StatusDead).
		Order("updated_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Requeue gives a dead job a fresh set of attempts.
func (r *Repo) Requeue(ctx context.Context, userID, id uint64) error {
	res := r.DB.WithContext(ctx).Exec(`
update sync_jobs
set status=?, attempts=0, run_at=now(), last_error=null, updated_at=now()
where id=? and user_id=? and status=?`, StatusPending, id, userID, StatusDead)
	if res.Error != nil {
		return fmt.Errorf("requeue sync job %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
