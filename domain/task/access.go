package task

// Action is something a principal attempts to do with a task.
type Action string

const (
	ActionRead       Action = "read"
	ActionEdit       Action = "edit"
	ActionSoftDelete Action = "soft_delete"
	ActionRestore    Action = "restore"
	ActionPurge      Action = "purge"
)

// CanRead reports whether p may see t: p must be authenticated and be the
// owner or the assignee.
func CanRead(p Principal, t *Task) bool {
	if !p.IsAuthenticated() || t == nil {
		return false
	}
	return t.IsOwner(p.ID) || t.IsAssignee(p.ID)
}

// Authorize checks whether p may perform action on t.
//
// A task p cannot read is reported as ErrNotFound so its existence is not
// leaked. A readable task on which the action is not allowed is ErrForbidden.
func Authorize(p Principal, t *Task, action Action) error {
	if !CanRead(p, t) {
		return ErrNotFound
	}
	switch action {
	case ActionRead, ActionEdit, ActionSoftDelete:
		return nil
	case ActionRestore, ActionPurge:
		if t.IsOwner(p.ID) {
			return nil
		}
	}
	return ErrForbidden
}
