package highlight

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Highlight is a saved excerpt. HTML, when set, is the canonical content and
// Text its plain rendering.
type Highlight struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uint64    `gorm:"index;not null"`

	Text   string  `gorm:"type:text;not null;default:''"`
	HTML   *string `gorm:"type:text"`
	Source string  `gorm:"type:text;not null;default:''"`

	// Notion page the highlight is mirrored to; nil when not synced.
	NotionPageID *string `gorm:"type:text"`

	Tags     pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	Archived bool           `gorm:"index;not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"index;not null;default:now()"`
}

func (h *Highlight) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
