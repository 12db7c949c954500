package db

import (
	"fmt"

	"reread/internal/auth"
	"reread/internal/daily"
	"reread/internal/highlight"
	"reread/internal/jobs"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&auth.User{},
		&highlight.Highlight{},
		&daily.DailySummary{},
		&daily.DailySummaryHighlight{},
		&daily.ReviewedMark{},
		&jobs.Job{},
	); err != nil {
		return err
	}

	stmts := []string{
		// tag filter (GIN for text[])
		`create index if not exists idx_highlights_tags on highlights using gin (tags);`,
		`create index if not exists idx_highlights_user_created on highlights(user_id, created_at desc);`,
		`create index if not exists idx_reviewed_marks_user_month on reviewed_marks(user_id, month);`,
		`create index if not exists idx_sync_jobs_due on sync_jobs(status, run_at);`,
		`create index if not exists idx_sync_jobs_lock on sync_jobs(status, locked_at);`,
		`create index if not exists idx_sync_jobs_user_status on sync_jobs(user_id, status, updated_at desc);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	// rating is free text in the model; keep the column honest
	if err := gdb.Exec(`
do $$
begin
  if not exists (select 1 from pg_constraint where conname = 'ck_dsh_rating') then
    alter table daily_summary_highlights
      add constraint ck_dsh_rating check (rating is null or rating in ('low','med','high'));
  end if;
end $$;
`).Error; err != nil {
		return fmt.Errorf("rating constraint: %w", err)
	}

	return nil
}
