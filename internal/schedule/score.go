package schedule

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// literal keeps ampersands in plain text from being read as entities.
var literal = strings.NewReplacer("&", "&amp;")

// Score is the visible character count of a highlight: rich content when
// present, otherwise plain text, with all markup removed. Entities are
// decoded only in rich content; in plain text "&amp;" is five characters.
func Score(text string, richHTML *string) int {
	src := literal.Replace(text)
	if richHTML != nil && *richHTML != "" {
		src = *richHTML
	}
	if src == "" {
		return 0
	}
	// StrictPolicy escapes entities on output; count what a reader sees.
	visible := html.UnescapeString(stripPolicy.Sanitize(src))
	return utf8.RuneCountInString(visible)
}
