package task

import "fmt"

// View selects which rows of the task table an operation sees.
type View string

const (
	// ViewActive excludes tombstoned rows. It is the default.
	ViewActive View = "active"
	// ViewFull includes tombstoned rows.
	ViewFull View = "full"
	// ViewDeleted contains only tombstoned rows.
	ViewDeleted View = "deleted"
)

// ParseView converts a string into a View. The empty string means ViewActive.
func ParseView(s string) (View, error) {
	switch View(s) {
	case "", ViewActive:
		return ViewActive, nil
	case ViewFull:
		return ViewFull, nil
	case ViewDeleted:
		return ViewDeleted, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Contains reports whether a task in the given tombstone state belongs to the view.
func (v View) Contains(t *Task) bool {
	switch v {
	case ViewFull:
		return true
	case ViewDeleted:
		return t.IsDeleted
	default:
		return !t.IsDeleted
	}
}
