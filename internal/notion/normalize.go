package notion

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"
)

var stripTags = bluemonday.StrictPolicy()

var fold = strings.NewReplacer(
	"—", "-", "–", "-", "‒", "-", "‐", "-", "‑", "-", "−", "-",
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"‘", "'", "’", "'", "‚", "'", "′", "'",
	"•", " ", "◦", " ", "‣", " ", "⁃", " ", "·", " ",
	" ", " ", " ", " ", " ", " ", "​", "",
)

// Normalize is applied identically to local and remote text before
// comparing: markup stripped, punctuation variants folded, whitespace
// collapsed, lowercased.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = html.UnescapeString(stripTags.Sanitize(s))
	s = fold.Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func joinText(blocks []Block) string {
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		parts = append(parts, b.Text)
	}
	return Normalize(strings.Join(parts, " "))
}
