package notion

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"whitespace", "  Hello\n\t world  ", "hello world"},
		{"dashes", "a — b – c", "a - b - c"},
		{"quotes", "“Quoted” and ‘single’", `"quoted" and 'single'`},
		{"bullets and nbsp", "• item", "item"},
		{"markup", "<p>Do <b>the</b> work</p>", "do the work"},
		{"entities", "fish &amp; chips", "fish & chips"},
		{"composed", "café", "café"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRender(t *testing.T) {
	t.Run("html keeps authoring order", func(t *testing.T) {
		got, err := RenderHTML(`<p>Intro <em>line</em></p><ul><li>one</li><li>two<ul><li>deep</li></ul></li></ul><ol><li>first</li></ol><h2>Title</h2><blockquote>said</blockquote>`)
		require.NoError(t, err)
		require.Equal(t, []Block{
			{Type: Paragraph, Text: "Intro line"},
			{Type: Bulleted, Text: "one"},
			{Type: Bulleted, Text: "two"},
			{Type: Bulleted, Text: "deep"},
			{Type: Numbered, Text: "first"},
			{Type: Heading2, Text: "Title"},
			{Type: Quote, Text: "said"},
		}, got)
	})

	t.Run("loose inline html becomes a paragraph", func(t *testing.T) {
		got, err := RenderHTML(`Just <b>bold</b> text`)
		require.NoError(t, err)
		require.Equal(t, []Block{{Type: Paragraph, Text: "Just bold text"}}, got)
	})

	t.Run("plain text", func(t *testing.T) {
		got := RenderPlain("First para\ncontinues\n\nList:\n- a\n• b\n2. c\n\nEnd")
		require.Equal(t, []Block{
			{Type: Paragraph, Text: "First para\ncontinues"},
			{Type: Paragraph, Text: "List:"},
			{Type: Bulleted, Text: "a"},
			{Type: Bulleted, Text: "b"},
			{Type: Numbered, Text: "c"},
			{Type: Paragraph, Text: "End"},
		}, got)
	})

	t.Run("empty html falls back to text", func(t *testing.T) {
		require.Equal(t, []Block{{Type: Paragraph, Text: "plain"}}, Render("plain", strp("  ")))
	})
}

func page(pairs ...any) []Block {
	var out []Block
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Block{ID: string(rune('a' + i/2)), Type: pairs[i].(BlockType), Text: pairs[i+1].(string)})
	}
	return out
}

func TestGroups(t *testing.T) {
	blocks := page(
		Paragraph, "Intro",
		Bulleted, "one",
		Bulleted, "two",
		Paragraph, "After list",
		Paragraph, "",
		Heading2, "Head",
		Bulleted, "x",
		Divider, "",
		Paragraph, "Tail",
	)
	require.Equal(t, []Span{
		{Start: 0, End: 3},
		{Start: 3, End: 4},
		{Start: 5, End: 6},
		{Start: 6, End: 7},
		{Start: 8, End: 9},
	}, Groups(blocks))
}

func TestFindMatch(t *testing.T) {
	t.Run("superset is not a match", func(t *testing.T) {
		blocks := page(Paragraph, "Do the work every day", Paragraph, "")
		_, ok := FindMatch(blocks, "Do the work", nil)
		require.False(t, ok)

		blocks = page(Paragraph, "Do the work", Paragraph, "every day", Paragraph, "")
		_, ok = FindMatch(blocks, "Do the work", nil)
		require.False(t, ok)
	})

	t.Run("prefix group is not a match", func(t *testing.T) {
		blocks := page(Paragraph, "Do the work", Paragraph, "every day")
		_, ok := FindMatch(blocks, "Do the work every", nil)
		require.False(t, ok)
	})

	t.Run("whole group with bullets", func(t *testing.T) {
		blocks := page(
			Paragraph, "Other",
			Paragraph, "",
			Paragraph, "Rules:",
			Bulleted, "Show up",
			Bulleted, "Do the work",
			Paragraph, "",
		)
		m, ok := FindMatch(blocks, "", strp("<p>Rules:</p><ul><li>Show up</li><li>Do the  work</li></ul>"))
		require.True(t, ok)
		require.Equal(t, Span{Start: 2, End: 5}, m.Span)
	})

	t.Run("typography differences are folded", func(t *testing.T) {
		blocks := page(Paragraph, "It’s a “test” — really")
		m, ok := FindMatch(blocks, `It's a "test" - really`, nil)
		require.True(t, ok)
		require.Equal(t, "a", m.Blocks[0].ID)
	})

	t.Run("run inside a larger group is not a match", func(t *testing.T) {
		blocks := page(Paragraph, "First highlight", Paragraph, "Second highlight")
		_, ok := FindMatch(blocks, "Second highlight", nil)
		require.False(t, ok)
	})

	t.Run("empty highlight never matches", func(t *testing.T) {
		_, ok := FindMatch(page(Paragraph, ""), " ", nil)
		require.False(t, ok)
	})
}
