package content

import (
	"strings"
	"unicode/utf8"
)

// Result is the packed text of one category plus its diagnostics.
type Result struct {
	Text           string `json:"text"`
	ItemsUsed      int    `json:"items_used"`
	ItemsAvailable int    `json:"items_available"`
	CharCount      int    `json:"char_count"`
	CharLimit      int    `json:"char_limit"`
	Truncated      bool   `json:"truncated"`
}

// Pack appends candidate texts in order while they fit within limit runes, counting
// the separator between items and the trailing suffix. Packing stops at the first
// candidate that does not fit. Candidates with blank text are skipped.
func Pack(items []Candidate, limit int, separator, suffix string) Result {
	res := Result{CharLimit: limit}
	sepLen := utf8.RuneCountInString(separator)
	suffixLen := utf8.RuneCountInString(suffix)

	var (
		parts   []string
		current int
	)
	for _, item := range items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		res.ItemsAvailable++
		if res.Truncated {
			continue
		}
		need := utf8.RuneCountInString(text)
		if len(parts) > 0 {
			need += sepLen
		}
		if current+need+suffixLen > limit {
			res.Truncated = true
			continue
		}
		parts = append(parts, text)
		current += need
	}

	if len(parts) == 0 {
		return res
	}
	res.Text = strings.Join(parts, separator) + suffix
	res.ItemsUsed = len(parts)
	res.CharCount = utf8.RuneCountInString(res.Text)
	return res
}
