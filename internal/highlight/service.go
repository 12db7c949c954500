package highlight

import (
	"context"
	"errors"
	"strings"
	"time"

	"reread/internal/jobs"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNotFound = errors.New("not found")
var ErrInvalid = errors.New("invalid highlight")

type Service struct {
	DB *gorm.DB
	// MaxSyncAttempts bounds retries of the sync jobs this service enqueues.
	MaxSyncAttempts int
}

type CreateInput struct {
	Text         string
	HTML         *string
	Source       string
	Tags         []string
	NotionPageID *string
}

// UpdateInput changes only the fields that are set.
type UpdateInput struct {
	Text   *string
	HTML   *string
	Source *string
	Tags   []string
}

type ListFilter struct {
	Archived *bool
	Tag      string
	Query    string
	Limit    int
	Offset   int
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// stored HTML is rendered by clients; keep structure, drop scripts and handlers
var htmlPolicy = bluemonday.UGCPolicy()

func cleanHTML(h *string) *string {
	if h == nil {
		return nil
	}
	out := strings.TrimSpace(htmlPolicy.Sanitize(*h))
	if out == "" {
		return nil
	}
	return &out
}

func cleanPage(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func (s *Service) Create(ctx context.Context, userID uint64, in CreateInput) (*Highlight, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, ErrInvalid
	}

	h := Highlight{
		UserID:       userID,
		Text:         in.Text,
		HTML:         cleanHTML(in.HTML),
		Source:       strings.TrimSpace(in.Source),
		NotionPageID: cleanPage(in.NotionPageID),
		Tags:         pq.StringArray(NormalizeTags(in.Tags, in.Text)),
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&h).Error; err != nil {
			return err
		}
		return s.enqueue(tx, &h, jobs.ActionAppend, jobs.Payload{Text: h.Text, HTML: h.HTML})
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *Service) Get(ctx context.Context, userID uint64, id uuid.UUID) (*Highlight, error) {
	var h Highlight
	if err := s.DB.WithContext(ctx).Where("id=? AND user_id=?", id, userID).First(&h).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (s *Service) List(ctx context.Context, userID uint64, f ListFilter) ([]Highlight, error) {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	q := s.DB.WithContext(ctx).Where("user_id=?", userID)
	if f.Archived != nil {
		q = q.Where("archived=?", *f.Archived)
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		q = q.Where("tags @> ?", pq.StringArray{tag})
	}
	if text := strings.TrimSpace(f.Query); text != "" {
		q = q.Where("text ILIKE ?", "%"+text+"%")
	}

	var out []Highlight
	err := q.Order("created_at desc, id desc").Limit(f.Limit).Offset(f.Offset).Find(&out).Error
	return out, err
}

// Tags counts tags over live highlights, optionally filtered by prefix.
func (s *Service) Tags(ctx context.Context, userID uint64, prefix string, limit int) ([]TagCount, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	out := []TagCount{}
	err := s.DB.WithContext(ctx).Raw(`
		select tag, count(*) as count
		from (
			select unnest(tags) as tag
			from highlights
			where user_id = ? and archived = false
		) t
		where (? = '' or tag like ? || '%')
		group by tag
		order by count desc, tag asc
		limit ?
	`, userID, prefix, prefix, limit).Scan(&out).Error
	return out, err
}

func (s *Service) Update(ctx context.Context, userID uint64, id uuid.UUID, in UpdateInput) (*Highlight, error) {
	if in.Text != nil && strings.TrimSpace(*in.Text) == "" {
		return nil, ErrInvalid
	}

	var h Highlight
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lock(tx, userID, id, &h); err != nil {
			return err
		}
		old := jobs.Payload{OldText: h.Text, OldHTML: h.HTML}

		contentChanged := false
		if in.Text != nil && *in.Text != h.Text {
			h.Text = *in.Text
			contentChanged = true
		}
		if in.HTML != nil {
			next := cleanHTML(in.HTML)
			if !sameHTML(next, h.HTML) {
				h.HTML = next
				contentChanged = true
			}
		}
		if in.Source != nil {
			h.Source = strings.TrimSpace(*in.Source)
		}
		if in.Tags != nil || contentChanged {
			tags := in.Tags
			if tags == nil {
				tags = h.Tags
			}
			h.Tags = pq.StringArray(NormalizeTags(tags, h.Text))
		}
		h.UpdatedAt = time.Now()

		if err := tx.Save(&h).Error; err != nil {
			return err
		}
		if !contentChanged {
			return nil
		}
		old.Text, old.HTML = h.Text, h.HTML
		return s.enqueue(tx, &h, jobs.ActionUpdate, old)
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// SetArchived archives or restores. Archived highlights are skipped by the
// scheduler but keep their existing assignments.
func (s *Service) SetArchived(ctx context.Context, userID uint64, id uuid.UUID, archived bool) (*Highlight, error) {
	var h Highlight
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.lock(tx, userID, id, &h); err != nil {
			return err
		}
		if h.Archived == archived {
			return nil
		}
		h.Archived = archived
		h.UpdatedAt = time.Now()
		return tx.Save(&h).Error
	})
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Delete removes the highlight with its assignments and reviewed marks, and
// drops day buckets left empty. Nothing is rescheduled.
func (s *Service) Delete(ctx context.Context, userID uint64, id uuid.UUID) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var h Highlight
		if err := s.lock(tx, userID, id, &h); err != nil {
			return err
		}

		stmts := []string{
			`delete from daily_summary_highlights where highlight_id = ?`,
			`delete from reviewed_marks where highlight_id = ?`,
		}
		for _, q := range stmts {
			if err := tx.Exec(q, id).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(`
delete from daily_summaries ds
where ds.user_id = ?
  and not exists (select 1 from daily_summary_highlights dsh where dsh.daily_summary_id = ds.id)
`, userID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&Highlight{}, "id = ?", id).Error; err != nil {
			return err
		}
		return s.enqueue(tx, &h, jobs.ActionDelete, jobs.Payload{OldText: h.Text, OldHTML: h.HTML})
	})
}

func (s *Service) lock(tx *gorm.DB, userID uint64, id uuid.UUID, h *Highlight) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id=? AND user_id=?", id, userID).
		First(h).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// enqueue records a sync job in the same transaction as the change.
func (s *Service) enqueue(tx *gorm.DB, h *Highlight, action jobs.Action, p jobs.Payload) error {
	if h.NotionPageID == nil {
		return nil
	}
	j, err := jobs.NewSyncJob(h.UserID, h.ID, *h.NotionPageID, action, p, s.MaxSyncAttempts)
	if err != nil {
		return err
	}
	return tx.Create(&j).Error
}

func sameHTML(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
