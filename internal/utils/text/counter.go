// Package text holds small string helpers shared by the pipeline and search.
package text

import "unicode/utf8"

// CountRunes counts characters, not bytes, so "Zürich" is 6 and an emoji is 1.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}
