package task

import (
	"strings"

	"golang.org/x/text/cases"
)

// SearchSeparator joins the values of the folded search columns. Needles
// never contain it, so a substring match cannot span two values.
const SearchSeparator = "\x1f"

// Fold returns the case-folded form of s used by the search columns.
// cases.Caser is stateful, so a fresh one is used per call.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// Needle folds s for matching against a search column and drops the
// separator.
func Needle(s string) string {
	return strings.ReplaceAll(Fold(strings.TrimSpace(s)), SearchSeparator, "")
}

// RefreshSearchColumns recomputes the folded copies of the searchable
// fields. Writes that skip hooks must call it themselves.
func (t *Task) RefreshSearchColumns() {
	tags := make([]string, len(t.Tags))
	for i, tag := range t.Tags {
		tags[i] = Fold(tag)
	}
	t.CategoryText = Fold(t.Category)
	t.TagText = strings.Join(tags, SearchSeparator)
	t.SearchText = strings.Join([]string{Fold(t.Title), Fold(t.Description), t.CategoryText, t.TagText}, SearchSeparator)
}
