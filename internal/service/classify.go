package service

import "github.com/mtlprog/tasktrail/internal/domain"

// MutationKind is the operation that produced a change.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationFieldUpdate
	MutationAssign
	MutationUnassign
	MutationComment
	MutationDelete
)

// String returns the operation name used in logs and metrics.
func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationFieldUpdate:
		return "update"
	case MutationAssign:
		return "assign"
	case MutationUnassign:
		return "unassign"
	case MutationComment:
		return "comment"
	case MutationDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Classify maps a mutation and its diff to an audit action. The second
// result is false for a no-op: a field update whose diff is empty.
func Classify(kind MutationKind, changes domain.Changes) (domain.ActionType, bool) {
	switch kind {
	case MutationCreate:
		return domain.ActionCreated, true
	case MutationFieldUpdate:
		if changes.IsEmpty() {
			return "", false
		}
		fields := changes.Fields()
		if len(fields) == 1 && fields[0] == domain.FieldStatus {
			return domain.ActionStatusChange, true
		}
		return domain.ActionUpdate, true
	case MutationAssign, MutationUnassign:
		// Direction is recovered from the assignee sets on read.
		return domain.ActionAssigned, true
	case MutationComment:
		return domain.ActionComment, true
	case MutationDelete:
		return domain.ActionDelete, true
	default:
		return "", false
	}
}
