package notion

// Span is a half-open range [Start, End) of a page's block list.
type Span struct {
	Start int
	End   int
}

// Match is a whole highlight group whose text equals a highlight.
type Match struct {
	Span
	Blocks []Block
}

// Groups splits a page into candidate highlight groups. Blank paragraphs,
// dividers and blocks without text end a group, as does a change between
// list and non-list blocks, except a paragraph followed by list items.
func Groups(blocks []Block) []Span {
	var out []Span
	start := -1
	closeAt := func(i int) {
		if start >= 0 {
			out = append(out, Span{Start: start, End: i})
		}
		start = -1
	}
	for i, b := range blocks {
		if !b.Type.HasText() || b.isBlank() {
			closeAt(i)
			continue
		}
		if start >= 0 {
			prev := blocks[i-1].Type
			if prev.IsList() != b.Type.IsList() && !(prev == Paragraph && b.Type.IsList()) {
				closeAt(i)
			}
		}
		if start < 0 {
			start = i
		}
	}
	closeAt(len(blocks))
	return out
}

// targets are the normalized forms a highlight may take remotely: its
// rendered block sequence and its raw plain text.
func targets(text string, richHTML *string) []string {
	var out []string
	add := func(s string) {
		if s == "" {
			return
		}
		for _, t := range out {
			if t == s {
				return
			}
		}
		out = append(out, s)
	}
	add(joinText(Render(text, richHTML)))
	add(joinText(RenderPlain(text)))
	add(Normalize(text))
	return out
}

// FindMatch locates a highlight in a page. A whole group must equal the
// highlight exactly; substring, prefix and sub-run overlaps never match, and
// a page without such a group reports not found.
func FindMatch(blocks []Block, text string, richHTML *string) (Match, bool) {
	want := targets(text, richHTML)
	if len(want) == 0 {
		return Match{}, false
	}
	for _, g := range Groups(blocks) {
		got := joinText(blocks[g.Start:g.End])
		for _, w := range want {
			if got == w {
				return Match{Span: g, Blocks: blocks[g.Start:g.End]}, true
			}
		}
	}
	return Match{}, false
}
