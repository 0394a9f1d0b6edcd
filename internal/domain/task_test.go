package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatus_Label(t *testing.T) {
	want := map[TaskStatus]string{
		TaskStatusTodo:       "To Do",
		TaskStatusInProgress: "In Progress",
		TaskStatusReview:     "In Review",
		TaskStatusDone:       "Done",
	}
	for _, status := range TaskStatuses() {
		label, ok := status.Label()
		assert.True(t, ok, status)
		assert.Equal(t, want[status], label)
		assert.True(t, status.IsValid())
	}

	_, ok := TaskStatus("BLOCKED").Label()
	assert.False(t, ok)
	assert.False(t, TaskPriority("").IsValid())
}

func TestNormalizeAssignees(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeAssignees([]string{" a", "b", "", "a"}))
	assert.Equal(t, []string{}, NormalizeAssignees(nil))
}

func TestSplitJoinAssignees(t *testing.T) {
	ids := []string{"u1", "u2"}
	assert.Equal(t, "u1,u2", JoinAssignees(ids))
	assert.Equal(t, ids, SplitAssignees("u1,u2"))
	assert.Equal(t, []string{}, SplitAssignees(""))
	assert.Equal(t, []string{"u1"}, SplitAssignees("u1,,u1"))
}

func TestSameAssignees(t *testing.T) {
	assert.True(t, SameAssignees([]string{"a", "b"}, []string{"b", "a"}))
	assert.True(t, SameAssignees(nil, []string{}))
	assert.True(t, SameAssignees([]string{"a", "a"}, []string{"a"}))
	assert.False(t, SameAssignees([]string{"a"}, []string{"a", "b"}))
	assert.False(t, SameAssignees([]string{"a"}, []string{"b"}))
}

func TestTask_Participants(t *testing.T) {
	task := &Task{CreatorID: "a", AssigneeIDs: []string{"b"}}
	assert.True(t, task.IsParticipant("a"))
	assert.True(t, task.IsParticipant("b"))
	assert.False(t, task.IsParticipant("c"))

	clone := task.Clone()
	clone.AssigneeIDs[0] = "z"
	assert.Equal(t, "b", task.AssigneeIDs[0])
}

func TestSnapshot(t *testing.T) {
	created := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	snap := Snapshot(&Task{
		ID:        "t1",
		Title:     "Title",
		Priority:  TaskPriorityHigh,
		Status:    TaskStatusReview,
		CreatorID: "a",
		CreatedAt: created,
	})

	assert.Equal(t, "t1", snap[FieldID])
	assert.Equal(t, "HIGH", snap[FieldPriority])
	assert.Equal(t, "REVIEW", snap[FieldStatus])
	assert.Equal(t, []string{}, snap[FieldAssignees])
	assert.Equal(t, "2026-10-01T08:30:00Z", snap[FieldCreatedAt])

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"assignees":[]`)
}

func TestSnapshot_CopiesAssignees(t *testing.T) {
	task := &Task{ID: "t1", AssigneeIDs: []string{"b"}}
	snap := Snapshot(task)
	task.AssigneeIDs[0] = "c"

	assert.Equal(t, []string{"b"}, snap[FieldAssignees])
}

func TestSnapshotForEvent(t *testing.T) {
	snap := SnapshotForEvent(&Task{ID: "t1", Title: "Title", Status: TaskStatusTodo})
	assert.Equal(t, []string{}, snap.AssigneeIDs)

	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"assigneeIds":[]`)

	task := &Task{ID: "t2", AssigneeIDs: []string{"b", "c"}}
	snap = SnapshotForEvent(task)
	task.AssigneeIDs[0] = "x"
	assert.Equal(t, []string{"b", "c"}, snap.AssigneeIDs)
}

func TestChanges(t *testing.T) {
	assert.True(t, NewChanges().IsEmpty())
	assert.True(t, Changes{}.IsEmpty())

	c := Changes{
		Old: FieldValues{FieldTitle: "a", FieldStatus: "TODO"},
		New: FieldValues{FieldTitle: "b", FieldContent: "hi"},
	}
	assert.False(t, c.IsEmpty())
	assert.ElementsMatch(t, []string{FieldTitle, FieldStatus, FieldContent}, c.Fields())
}

func TestEventName_IsValid(t *testing.T) {
	assert.True(t, EventTaskComment.IsValid())
	assert.False(t, EventName("task.deleted").IsValid())
}
