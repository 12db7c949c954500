package daily

import (
	"context"
	"errors"
	"time"

	"reread/internal/highlight"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the Postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

var _ Store = (*GormStore)(nil)

func (s *GormStore) ListHighlights(ctx context.Context, owner uint64, includeArchived bool) ([]Highlight, error) {
	q := s.DB.WithContext(ctx).Model(&highlight.Highlight{}).Where("user_id = ?", owner)
	if !includeArchived {
		q = q.Where("archived = false")
	}

	var rows []highlight.Highlight
	if err := q.Order("created_at asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Highlight, 0, len(rows))
	for _, h := range rows {
		out = append(out, Highlight{ID: h.ID, Text: h.Text, HTML: h.HTML, Archived: h.Archived})
	}
	return out, nil
}

func (s *GormStore) ListOwners(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := s.DB.WithContext(ctx).Table("users").Order("id asc").Pluck("id", &ids).Error
	return ids, err
}

func (s *GormStore) ListSummaries(ctx context.Context, owner uint64, from, to string) ([]DailySummary, error) {
	var out []DailySummary
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date <= ?", owner, from, to).
		Order("date asc").
		Find(&out).Error
	return out, err
}

func (s *GormStore) ListAssignments(ctx context.Context, summaryIDs []uuid.UUID) ([]DailySummaryHighlight, error) {
	if len(summaryIDs) == 0 {
		return nil, nil
	}
	var out []DailySummaryHighlight
	err := s.DB.WithContext(ctx).
		Where("daily_summary_id IN ?", summaryIDs).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (s *GormStore) CreateSummary(ctx context.Context, owner uint64, date string) (DailySummary, error) {
	db := s.DB.WithContext(ctx)

	row := DailySummary{UserID: owner, Date: date}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoNothing: true,
	}).Create(&row).Error; err != nil {
		return DailySummary{}, err
	}

	// on conflict the existing row wins
	var out DailySummary
	if err := db.Where("user_id = ? AND date = ?", owner, date).First(&out).Error; err != nil {
		return DailySummary{}, err
	}
	return out, nil
}

func (s *GormStore) UpsertAssignments(ctx context.Context, summaryID uuid.UUID, highlightIDs []uuid.UUID) error {
	if len(highlightIDs) == 0 {
		return nil
	}
	rows := make([]DailySummaryHighlight, 0, len(highlightIDs))
	for _, id := range highlightIDs {
		rows = append(rows, DailySummaryHighlight{DailySummaryID: summaryID, HighlightID: id})
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "daily_summary_id"}, {Name: "highlight_id"}},
		DoNothing: true,
	}).Create(&rows).Error
}

func (s *GormStore) DeleteAssignments(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Where("id IN ?", ids).Delete(&DailySummaryHighlight{}).Error
}

func (s *GormStore) DeleteSummaries(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("daily_summary_id IN ?", ids).Delete(&DailySummaryHighlight{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&DailySummary{}).Error
	})
}

func (s *GormStore) GetAssignment(ctx context.Context, owner uint64, id uuid.UUID) (DailySummaryHighlight, DailySummary, error) {
	db := s.DB.WithContext(ctx)

	var a DailySummaryHighlight
	if err := db.Where("id = ?", id).First(&a).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a, DailySummary{}, ErrNotFound
		}
		return a, DailySummary{}, err
	}

	var sum DailySummary
	if err := db.Where("id = ? AND user_id = ?", a.DailySummaryID, owner).First(&sum).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return a, sum, ErrNotFound
		}
		return a, sum, err
	}
	return a, sum, nil
}

func (s *GormStore) SetRating(ctx context.Context, id uuid.UUID, rating Rating) error {
	res := s.DB.WithContext(ctx).Model(&DailySummaryHighlight{}).
		Where("id = ?", id).
		Updates(map[string]any{"rating": rating, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) ListMarked(ctx context.Context, owner uint64, month string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.DB.WithContext(ctx).Model(&ReviewedMark{}).
		Where("user_id = ? AND month = ?", owner, month).
		Pluck("highlight_id", &ids).Error
	return ids, err
}

func (s *GormStore) CreateMarks(ctx context.Context, owner uint64, month string, highlightIDs []uuid.UUID) error {
	if len(highlightIDs) == 0 {
		return nil
	}
	rows := make([]ReviewedMark, 0, len(highlightIDs))
	for _, id := range highlightIDs {
		rows = append(rows, ReviewedMark{HighlightID: id, Month: month, UserID: owner})
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func (s *GormStore) DeleteMarks(ctx context.Context, owner uint64, month string) error {
	return s.DB.WithContext(ctx).
		Where("user_id = ? AND month = ?", owner, month).
		Delete(&ReviewedMark{}).Error
}
