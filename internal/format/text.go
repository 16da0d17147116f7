package format

import "unicode/utf8"

// Cond returns yes when cond holds and no otherwise.
func Cond[T any](cond bool, yes, no T) T {
	if cond {
		return yes
	}
	return no
}

// ExplainComment renders an edit summary clause.
func ExplainComment(comment string) string {
	if comment == "" {
		return "without summary"
	}
	return "with summary: " + comment
}

// TruncRunes returns s truncated to at most n runes.
// It appends an ellipsis "…" when truncated.
func TruncRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	cut := 0
	for i, r := range s {
		count++
		if count == n {
			cut = i + utf8.RuneLen(r)
			continue
		}
		if count > n {
			if cut <= 0 {
				cut = i
			}
			return s[:cut] + "…"
		}
	}
	return s
}
