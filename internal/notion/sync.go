package notion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// BlockClient is the slice of the Notion API the syncer needs.
type BlockClient interface {
	ListBlocks(ctx context.Context, pageID string) ([]Block, error)
	UpdateBlock(ctx context.Context, b Block) error
	DeleteBlock(ctx context.Context, blockID string) error
	// AppendBlocks inserts after the given block, or at the end of the
	// page when after is empty, and returns the created blocks.
	AppendBlocks(ctx context.Context, pageID string, blocks []Block, after string) ([]Block, error)
}

// Outcome describes what one sync call did to a page. Found is false when the
// highlight could not be located; that is a normal result, not an error.
type Outcome struct {
	Found   bool `json:"found"`
	Updated int  `json:"updated"`
	Created int  `json:"created"`
	Deleted int  `json:"deleted"`
}

type Syncer struct {
	Client BlockClient
	Log    *slog.Logger
}

func (s *Syncer) log() *slog.Logger {
	if s.Log == nil {
		return slog.Default()
	}
	return s.Log
}

// applier runs block operations best-effort and collects failures.
type applier struct {
	total int
	errs  []error
}

func (a *applier) try(what string, err error) bool {
	a.total++
	if err != nil {
		a.errs = append(a.errs, fmt.Errorf("%s: %w", what, err))
		return false
	}
	return true
}

func (a *applier) err() error {
	if len(a.errs) == 0 {
		return nil
	}
	return &PartialApplyError{Failed: len(a.errs), Total: a.total, Errs: a.errs}
}

// Append adds a highlight at the end of a page followed by a blank
// paragraph, which keeps it a separate group for later matching.
func (s *Syncer) Append(ctx context.Context, pageID, text string, richHTML *string) (Outcome, error) {
	blocks := Render(text, richHTML)
	if len(blocks) == 0 {
		return Outcome{}, nil
	}
	blocks = append(blocks, Block{Type: Paragraph})
	created, err := s.Client.AppendBlocks(ctx, pageID, blocks, "")
	if err != nil {
		return Outcome{}, fmt.Errorf("append to page %s: %w", pageID, err)
	}
	return Outcome{Found: true, Created: len(created)}, nil
}

// Update finds the old content on the page and rewrites it as the new
// content, block by block.
func (s *Syncer) Update(ctx context.Context, pageID, oldText string, oldHTML *string, newText string, newHTML *string) (Outcome, error) {
	blocks, err := s.Client.ListBlocks(ctx, pageID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list page %s: %w", pageID, err)
	}
	m, ok := FindMatch(blocks, oldText, oldHTML)
	if !ok {
		s.log().Info("notion: highlight not found on page", "page", pageID, "op", "update")
		return Outcome{}, nil
	}

	next := Render(newText, newHTML)
	out := Outcome{Found: true}
	var a applier
	last := m.Blocks[len(m.Blocks)-1].ID

	for i, old := range m.Blocks {
		if i >= len(next) {
			if a.try("delete "+old.ID, s.deleteBlock(ctx, old.ID)) {
				out.Deleted++
			}
			continue
		}
		want := next[i]
		if old.Type == want.Type {
			want.ID = old.ID
			if a.try("update "+old.ID, s.Client.UpdateBlock(ctx, want)) {
				out.Updated++
			}
			last = old.ID
			continue
		}

		created, err := s.Client.AppendBlocks(ctx, pageID, []Block{want}, old.ID)
		if !a.try("replace "+old.ID, err) || len(created) == 0 {
			last = old.ID
			continue
		}
		out.Created++
		last = created[0].ID
		if a.try("delete "+old.ID, s.deleteBlock(ctx, old.ID)) {
			out.Deleted++
		}
	}

	if len(next) > len(m.Blocks) {
		created, err := s.Client.AppendBlocks(ctx, pageID, next[len(m.Blocks):], last)
		if a.try("append after "+last, err) {
			out.Created += len(created)
		}
	}

	if err := a.err(); err != nil {
		s.log().Warn("notion: partial update", "page", pageID, "err", err)
		return out, err
	}
	return out, nil
}

// Delete removes the highlight's blocks and the blank separator that
// follows them.
func (s *Syncer) Delete(ctx context.Context, pageID, text string, richHTML *string) (Outcome, error) {
	blocks, err := s.Client.ListBlocks(ctx, pageID)
	if err != nil {
		return Outcome{}, fmt.Errorf("list page %s: %w", pageID, err)
	}
	m, ok := FindMatch(blocks, text, richHTML)
	if !ok {
		s.log().Info("notion: highlight not found on page", "page", pageID, "op", "delete")
		return Outcome{}, nil
	}

	doomed := m.Blocks
	if m.End < len(blocks) && blocks[m.End].isBlank() {
		doomed = blocks[m.Start : m.End+1]
	}

	out := Outcome{Found: true}
	var a applier
	for _, b := range doomed {
		if a.try("delete "+b.ID, s.deleteBlock(ctx, b.ID)) {
			out.Deleted++
		}
	}
	return out, a.err()
}

// deleteBlock treats an already missing block as deleted.
func (s *Syncer) deleteBlock(ctx context.Context, id string) error {
	err := s.Client.DeleteBlock(ctx, id)
	if errors.Is(err, ErrBlockNotFound) {
		return nil
	}
	return err
}
