package service

import (
	"fmt"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// CanRead checks that the user may see a task's comments and history: only
// the creator and current assignees may. It is evaluated against the task as
// loaded for each call, never cached.
func CanRead(task *domain.Task, userID string) error {
	if !task.IsParticipant(userID) {
		return fmt.Errorf("%w: user %s is neither creator nor assignee of task %s",
			domain.ErrUnauthorized, userID, task.ID)
	}
	return nil
}
