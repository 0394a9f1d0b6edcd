package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mtlprog/tasktrail/internal/domain"
)

func TestRenderMessage(t *testing.T) {
	event := domain.NotificationEvent{
		Task: domain.TaskSnapshot{ID: "t1", Title: "Fix login", Status: "REVIEW"},
	}
	long := strings.Repeat("я", 40)
	withComment := event
	withComment.Comment = &domain.CommentExcerpt{AuthorID: "c", Content: long}

	assert.Equal(t, "you were assigned to: Fix login", RenderMessage(domain.ActionAssigned, event))
	assert.Equal(t, "Fix login changed status to In Review", RenderMessage(domain.ActionStatusChange, event))
	assert.Equal(t, "Fix login was updated", RenderMessage(domain.ActionUpdate, event))
	assert.Equal(t, "Fix login was created", RenderMessage(domain.ActionCreated, event))
	assert.Equal(t, "in Fix login: "+strings.Repeat("я", 30)+"…", RenderMessage(domain.ActionComment, withComment))

	unknown := event
	unknown.Task.Status = "ARCHIVED"
	assert.Equal(t, "Fix login changed status to ARCHIVED", RenderMessage(domain.ActionStatusChange, unknown))
}

func TestRenderEvent(t *testing.T) {
	event := domain.NotificationEvent{
		Task:   domain.TaskSnapshot{Title: "Fix login", Status: "DONE"},
		Action: domain.ActionStatusChange,
	}

	title, content := RenderEvent(domain.EventTaskUpdated, event)
	assert.Equal(t, "Update", title)
	assert.Equal(t, "Fix login changed status to Done", content)

	event.Action = domain.ActionAssigned
	title, content = RenderEvent(domain.EventTaskUpdated, event)
	assert.Equal(t, "Update", title)
	assert.Equal(t, "Fix login was updated", content)

	title, content = RenderEvent(domain.EventTaskAssigned, event)
	assert.Equal(t, "New assignment", title)
	assert.Equal(t, "you were assigned to: Fix login", content)

	title, _ = RenderEvent(domain.EventTaskCreated, event)
	assert.Equal(t, "New task", title)
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", Excerpt("short", 30))
	assert.Equal(t, "ab", Excerpt("abc", 2))
	assert.Equal(t, "привет", Excerpt("привет, мир", 6))
}

func TestDescribeRecord(t *testing.T) {
	tests := []struct {
		name   string
		record domain.AuditRecord
		want   string
	}{
		{
			name: "status change",
			record: domain.AuditRecord{Action: domain.ActionStatusChange, Changes: domain.Changes{
				New: domain.FieldValues{domain.FieldStatus: "IN_PROGRESS"},
			}},
			want: "changed status to In Progress",
		},
		{
			name: "status change with unknown value",
			record: domain.AuditRecord{Action: domain.ActionStatusChange, Changes: domain.Changes{
				New: domain.FieldValues{domain.FieldStatus: "ARCHIVED"},
			}},
			want: "changed status to unknown",
		},
		{
			name: "assignment added from decoded JSON",
			record: domain.AuditRecord{Action: domain.ActionAssigned, Changes: domain.Changes{
				Old: domain.FieldValues{domain.FieldAssignees: []any{"b"}},
				New: domain.FieldValues{domain.FieldAssignees: []any{"b", "c"}},
			}},
			want: "added c",
		},
		{
			name: "assignment removed",
			record: domain.AuditRecord{Action: domain.ActionAssigned, Changes: domain.Changes{
				Old: domain.FieldValues{domain.FieldAssignees: []string{"b", "c"}},
				New: domain.FieldValues{domain.FieldAssignees: []string{}},
			}},
			want: "removed 2",
		},
		{
			name: "assignment from bare string",
			record: domain.AuditRecord{Action: domain.ActionAssigned, Changes: domain.Changes{
				Old: domain.FieldValues{domain.FieldAssignees: ""},
				New: domain.FieldValues{domain.FieldAssignees: "d"},
			}},
			want: "added d",
		},
		{
			name: "assignment swapped",
			record: domain.AuditRecord{Action: domain.ActionAssigned, Changes: domain.Changes{
				Old: domain.FieldValues{domain.FieldAssignees: []string{"b"}},
				New: domain.FieldValues{domain.FieldAssignees: []string{"c"}},
			}},
			want: "added c; removed b",
		},
		{
			name:   "assignment without diff",
			record: domain.AuditRecord{Action: domain.ActionAssigned},
			want:   "changed assignments",
		},
		{
			name:   "update",
			record: domain.AuditRecord{Action: domain.ActionUpdate},
			want:   "updated the task",
		},
		{
			name: "created",
			record: domain.AuditRecord{Action: domain.ActionCreated, Changes: domain.Changes{
				New: domain.FieldValues{domain.FieldTitle: "Fix login"},
			}},
			want: "created the task: Fix login",
		},
		{
			name:   "comment",
			record: domain.AuditRecord{Action: domain.ActionComment},
			want:   "added a comment",
		},
		{
			name:   "delete",
			record: domain.AuditRecord{Action: domain.ActionDelete},
			want:   "deleted the task",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeRecord(&tt.record))
		})
	}
}
