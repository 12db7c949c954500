package highlight

import (
	"regexp"
	"strings"
)

var (
	hashtagRe = regexp.MustCompile(`#([a-zA-Z0-9_]{1,32})`)
	tagRe     = regexp.MustCompile(`^[a-z0-9_-]{1,32}$`)
)

const maxTags = 20

// NormalizeTags merges explicit tags with #hashtags found in text: lowercased,
// stripped of a leading '#', deduplicated, first-seen order, capped at 20.
// Explicit tags that are not simple words are dropped.
func NormalizeTags(explicit []string, text string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(explicit))

	add := func(t string) {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if !tagRe.MatchString(t) {
			return
		}
		if _, ok := seen[t]; ok || len(out) >= maxTags {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	for _, t := range explicit {
		add(t)
	}
	for _, m := range hashtagRe.FindAllStringSubmatch(text, -1) {
		if len(m) >= 2 {
			add(m[1])
		}
	}
	return out
}
