package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// excerptLength is how many characters of a comment a notification quotes.
const excerptLength = 30

// Notification titles per event.
const (
	titleAssigned = "New assignment"
	titleUpdated  = "Update"
	titleCreated  = "New task"
	titleComment  = "New comment"
)

// RenderMessage renders the short notification text for an action.
func RenderMessage(action domain.ActionType, event domain.NotificationEvent) string {
	title := event.Task.Title
	switch action {
	case domain.ActionAssigned:
		return "you were assigned to: " + title
	case domain.ActionStatusChange:
		return fmt.Sprintf("%s changed status to %s", title, statusLabel(event.Task.Status, event.Task.Status))
	case domain.ActionComment:
		content := ""
		if event.Comment != nil {
			content = Excerpt(event.Comment.Content, excerptLength)
		}
		return fmt.Sprintf("in %s: %s…", title, content)
	case domain.ActionCreated:
		return title + " was created"
	case domain.ActionDelete:
		return title + " was deleted"
	default:
		return title + " was updated"
	}
}

// RenderEvent renders the durable notification title and text for an event
// taken off the channel. task.updated carries both field updates and
// unassignments, so only STATUS_CHANGE gets the status text there.
func RenderEvent(name domain.EventName, event domain.NotificationEvent) (title, content string) {
	switch name {
	case domain.EventTaskAssigned:
		return titleAssigned, RenderMessage(domain.ActionAssigned, event)
	case domain.EventTaskCreated:
		return titleCreated, RenderMessage(domain.ActionCreated, event)
	case domain.EventTaskComment:
		return titleComment, RenderMessage(domain.ActionComment, event)
	default:
		if event.Action == domain.ActionStatusChange {
			return titleUpdated, RenderMessage(domain.ActionStatusChange, event)
		}
		return titleUpdated, RenderMessage(domain.ActionUpdate, event)
	}
}

// Excerpt returns the first n characters of s.
func Excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// DescribeRecord reconstructs prose for a stored audit record from its diff
// alone. It never consults the live task, so old and fresh records read the
// same.
func DescribeRecord(record *domain.AuditRecord) string {
	oldValues, newValues := record.Changes.Old, record.Changes.New

	switch record.Action {
	case domain.ActionAssigned:
		return describeAssignment(stringList(oldValues[domain.FieldAssignees]), stringList(newValues[domain.FieldAssignees]))
	case domain.ActionStatusChange:
		status, _ := newValues[domain.FieldStatus].(string)
		return "changed status to " + statusLabel(status, "unknown")
	case domain.ActionUpdate:
		return "updated the task"
	case domain.ActionCreated:
		if title, _ := newValues[domain.FieldTitle].(string); title != "" {
			return "created the task: " + title
		}
		return "created the task"
	case domain.ActionComment:
		return "added a comment"
	case domain.ActionDelete:
		return "deleted the task"
	default:
		return "changed the task"
	}
}

func describeAssignment(oldIDs, newIDs []string) string {
	added := difference(newIDs, oldIDs)
	removed := difference(oldIDs, newIDs)

	var parts []string
	if len(added) > 0 {
		parts = append(parts, countPhrase("added", added))
	}
	if len(removed) > 0 {
		parts = append(parts, countPhrase("removed", removed))
	}
	if len(parts) == 0 {
		return "changed assignments"
	}
	return strings.Join(parts, "; ")
}

func countPhrase(verb string, ids []string) string {
	if len(ids) == 1 {
		return verb + " " + ids[0]
	}
	return fmt.Sprintf("%s %d", verb, len(ids))
}

// difference returns the members of a that are not in b, in a's order.
func difference(a, b []string) []string {
	exclude := make(map[string]struct{}, len(b))
	for _, id := range b {
		exclude[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := exclude[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// stringList decodes an assignee value that went through JSON: a list of
// strings, a list of anything, or a single bare string.
func stringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	default:
		return nil
	}
}

func statusLabel(status, fallback string) string {
	if label, ok := domain.TaskStatus(status).Label(); ok {
		return label
	}
	return fallback
}
