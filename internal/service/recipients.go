package service

import "github.com/mtlprog/tasktrail/internal/domain"

// ResolveRecipients returns who must learn about a mutation. The actor is
// never included and the result has no duplicates.
//
// Assign and unassign only reach the affected user. Create reaches the
// initial assignees. Delete reaches nobody since the task is gone.
func ResolveRecipients(kind MutationKind, task *domain.Task, actorID, affectedID string) []string {
	var candidates []string
	switch kind {
	case MutationAssign, MutationUnassign:
		candidates = []string{affectedID}
	case MutationCreate:
		candidates = task.AssigneeIDs
	case MutationFieldUpdate, MutationComment:
		candidates = append([]string{task.CreatorID}, task.AssigneeIDs...)
	default:
		return nil
	}

	recipients := make([]string, 0, len(candidates))
	for _, id := range domain.NormalizeAssignees(candidates) {
		if id != actorID {
			recipients = append(recipients, id)
		}
	}
	return recipients
}
