package task

import (
	"strings"
	"time"

	domain "github.com/example/taskflow/domain/task"
	"gorm.io/gorm"
)

// priorityRank orders priorities by business meaning rather than alphabetically.
const priorityRank = "CASE tasks.priority WHEN 'LOW' THEN 1 WHEN 'MEDIUM' THEN 2 WHEN 'HIGH' THEN 3 WHEN 'URGENT' THEN 4 ELSE 0 END"

// visibleTo restricts rows to those the principal owns or is assigned to.
// An unauthenticated principal matches nothing.
func visibleTo(p domain.Principal) domain.Scope {
	return func(db *gorm.DB) *gorm.DB {
		if !p.IsAuthenticated() {
			return db.Where("1 = 0")
		}
		return db.Where("(tasks.owner_id = ? OR tasks.assigned_to = ?)", p.ID, p.ID)
	}
}

// composeScopes turns a filter into scopes. Each filter category is ANDed
// with the others and the visibility rule is always appended last.
func composeScopes(p domain.Principal, f domain.Filter, now time.Time) []domain.Scope {
	now = now.UTC()
	var scopes []domain.Scope
	add := func(query string, args ...any) {
		scopes = append(scopes, func(db *gorm.DB) *gorm.DB {
			return db.Where(query, args...)
		})
	}

	if len(f.Statuses) > 0 {
		add("tasks.status IN ?", f.Statuses)
	}
	if len(f.Priorities) > 0 {
		add("tasks.priority IN ?", f.Priorities)
	}
	if c := domain.Needle(f.Category); c != "" {
		add(`tasks.category_text LIKE ? ESCAPE '\'`, containsPattern(c))
	}
	if a := strings.TrimSpace(f.AssignedTo); a != "" {
		add("tasks.assigned_to = ?", a)
	}
	if o := strings.TrimSpace(f.OwnerID); o != "" {
		add("tasks.owner_id = ?", o)
	}
	if f.IsAssigned != nil {
		if *f.IsAssigned {
			add("(tasks.assigned_to IS NOT NULL AND tasks.assigned_to <> '')")
		} else {
			add("(tasks.assigned_to IS NULL OR tasks.assigned_to = '')")
		}
	}
	if f.IsOverdue != nil {
		if *f.IsOverdue {
			add("(tasks.due_date IS NOT NULL AND tasks.due_date < ? AND tasks.status IN ?)", now, domain.OpenStatuses)
		} else {
			add("(tasks.due_date IS NULL OR tasks.due_date >= ? OR tasks.status NOT IN ?)", now, domain.OpenStatuses)
		}
	}
	if f.DueSoonDays != nil {
		until := now.AddDate(0, 0, *f.DueSoonDays)
		add("(tasks.due_date IS NOT NULL AND tasks.due_date >= ? AND tasks.due_date <= ? AND tasks.status IN ?)",
			now, until, domain.OpenStatuses)
	}

	addRange := func(column string, from, to *time.Time) {
		if from != nil {
			add(column+" >= ?", from.UTC())
		}
		if to != nil {
			add(column+" <= ?", to.UTC())
		}
	}
	addRange("tasks.created_at", f.CreatedFrom, f.CreatedTo)
	addRange("tasks.due_date", f.DueFrom, f.DueTo)
	addRange("tasks.start_date", f.StartFrom, f.StartTo)

	if f.ProgressMin != nil {
		add("tasks.progress >= ?", *f.ProgressMin)
	}
	if f.ProgressMax != nil {
		add("tasks.progress <= ?", *f.ProgressMax)
	}

	if q := domain.Needle(f.Search); q != "" {
		add(`tasks.search_text LIKE ? ESCAPE '\'`, containsPattern(q))
	}
	// A label matches any tag containing it. Needles carry no separator, so
	// a match never spans two tags.
	if tags := f.TagList(); len(tags) > 0 {
		clauses := make([]string, 0, len(tags))
		args := make([]any, 0, len(tags))
		for _, tag := range tags {
			needle := domain.Needle(tag)
			if needle == "" {
				continue
			}
			clauses = append(clauses, `tasks.tag_text LIKE ? ESCAPE '\'`)
			args = append(args, containsPattern(needle))
		}
		if len(clauses) > 0 {
			add("("+strings.Join(clauses, " OR ")+")", args...)
		}
	}

	return append(scopes, visibleTo(p))
}

// orderClause builds the ORDER BY expression of a filter. Ties are broken by
// id so pages are stable.
func orderClause(f domain.Filter) string {
	column, desc := f.OrderColumn()
	dir := " ASC"
	if desc {
		dir = " DESC"
	}
	expr := "tasks." + column
	if column == "priority" {
		expr = priorityRank
	}
	return expr + dir + ", tasks.id ASC"
}

// containsPattern folds s and escapes LIKE wildcards in it.
func containsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(domain.Fold(s)) + "%"
}
