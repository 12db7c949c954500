package notion

import (
	"errors"
	"fmt"
	"strings"
)

type BlockType string

const (
	Paragraph BlockType = "paragraph"
	Bulleted  BlockType = "bulleted_list_item"
	Numbered  BlockType = "numbered_list_item"
	Heading1  BlockType = "heading_1"
	Heading2  BlockType = "heading_2"
	Heading3  BlockType = "heading_3"
	Quote     BlockType = "quote"
	Code      BlockType = "code"
	Divider   BlockType = "divider"
)

func (t BlockType) IsList() bool { return t == Bulleted || t == Numbered }

// HasText reports whether the type carries rich text we know how to read and write.
func (t BlockType) HasText() bool {
	switch t {
	case Paragraph, Bulleted, Numbered, Heading1, Heading2, Heading3, Quote, Code:
		return true
	}
	return false
}

// Block is one remote content block reduced to what matching needs.
type Block struct {
	ID   string    `json:"id,omitempty"`
	Type BlockType `json:"type"`
	Text string    `json:"text"`
}

func (b Block) isBlank() bool {
	return b.Type == Paragraph && Normalize(b.Text) == ""
}

var ErrBlockNotFound = errors.New("notion: block not found")

// PartialApplyError reports an update or delete where some block operations
// failed. The others were still attempted.
type PartialApplyError struct {
	Failed int
	Total  int
	Errs   []error
}

func (e *PartialApplyError) Error() string {
	msgs := make([]string, 0, len(e.Errs))
	for _, err := range e.Errs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("notion: %d of %d block operations failed: %s", e.Failed, e.Total, strings.Join(msgs, "; "))
}

func (e *PartialApplyError) Unwrap() []error { return e.Errs }
