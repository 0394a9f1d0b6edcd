package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/tasktrail/internal/domain"
)

func baseTask() *domain.Task {
	return &domain.Task{
		ID:          "t1",
		Title:       "Title",
		Description: "Desc",
		Priority:    domain.TaskPriorityLow,
		Status:      domain.TaskStatusTodo,
		CreatorID:   "a",
		AssigneeIDs: []string{"b", "c"},
		Deadline:    time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC),
	}
}

func strPtr(s string) *string { return &s }

func TestDiff(t *testing.T) {
	deadline := time.Date(2026, 10, 21, 9, 0, 0, 0, time.UTC)
	sameDeadline := time.Date(2026, 10, 20, 11, 0, 0, 0, time.FixedZone("UTC+2", 2*60*60))
	status := domain.TaskStatusDone
	sameStatus := domain.TaskStatusTodo
	priority := domain.TaskPriorityUrgent
	reordered := []string{"c", "b"}
	grown := []string{"b", "c", "d"}

	tests := []struct {
		name    string
		fields  TaskFields
		wantOld domain.FieldValues
		wantNew domain.FieldValues
	}{
		{
			name:    "empty proposal",
			fields:  TaskFields{},
			wantOld: domain.FieldValues{},
			wantNew: domain.FieldValues{},
		},
		{
			name:    "identical values",
			fields:  TaskFields{Title: strPtr("Title"), Status: &sameStatus, Deadline: &sameDeadline},
			wantOld: domain.FieldValues{},
			wantNew: domain.FieldValues{},
		},
		{
			name:    "assignees compared as a set",
			fields:  TaskFields{AssigneeIDs: &reordered},
			wantOld: domain.FieldValues{},
			wantNew: domain.FieldValues{},
		},
		{
			name:    "status only",
			fields:  TaskFields{Status: &status},
			wantOld: domain.FieldValues{domain.FieldStatus: "TODO"},
			wantNew: domain.FieldValues{domain.FieldStatus: "DONE"},
		},
		{
			name:   "several fields",
			fields: TaskFields{Title: strPtr("New"), Description: strPtr("Desc"), Priority: &priority, Deadline: &deadline},
			wantOld: domain.FieldValues{
				domain.FieldTitle:    "Title",
				domain.FieldPriority: "LOW",
				domain.FieldDeadline: "2026-10-20T09:00:00Z",
			},
			wantNew: domain.FieldValues{
				domain.FieldTitle:    "New",
				domain.FieldPriority: "URGENT",
				domain.FieldDeadline: "2026-10-21T09:00:00Z",
			},
		},
		{
			name:    "assignees grown",
			fields:  TaskFields{AssigneeIDs: &grown},
			wantOld: domain.FieldValues{domain.FieldAssignees: []string{"b", "c"}},
			wantNew: domain.FieldValues{domain.FieldAssignees: []string{"b", "c", "d"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(baseTask(), tt.fields)
			assert.Equal(t, tt.wantOld, got.Old)
			assert.Equal(t, tt.wantNew, got.New)
		})
	}
}

func TestDiff_DoesNotMutatePrior(t *testing.T) {
	prior := baseTask()
	status := domain.TaskStatusDone
	Diff(prior, TaskFields{Title: strPtr("x"), Status: &status})
	assert.Equal(t, baseTask(), prior)
}

func TestTaskFields_Apply(t *testing.T) {
	task := baseTask()
	status := domain.TaskStatusReview
	assignees := []string{" d ", "d", ""}

	TaskFields{Title: strPtr("Renamed"), Status: &status, AssigneeIDs: &assignees}.Apply(task)

	assert.Equal(t, "Renamed", task.Title)
	assert.Equal(t, domain.TaskStatusReview, task.Status)
	assert.Equal(t, []string{"d"}, task.AssigneeIDs)
	assert.Equal(t, "Desc", task.Description)
}

func TestTaskFields_Validate(t *testing.T) {
	bad := domain.TaskPriority("CRITICAL")
	assert.ErrorIs(t, TaskFields{Priority: &bad}.Validate(), domain.ErrInvalidPriority)

	badStatus := domain.TaskStatus("STUCK")
	assert.ErrorIs(t, TaskFields{Status: &badStatus}.Validate(), domain.ErrInvalidStatus)

	assert.NoError(t, TaskFields{}.Validate())
}
