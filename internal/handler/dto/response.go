package dto

import (
	"time"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/service"
)

// TaskResponse represents a task.
type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatorID   string    `json:"creatorId"`
	Assignees   []string  `json:"assignees"`
	Deadline    time.Time `json:"deadline"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskDetailResponse represents a task with its comments, newest first.
type TaskDetailResponse struct {
	TaskResponse
	Comments []CommentResponse `json:"comments"`
}

// CommentResponse represents a comment.
type CommentResponse struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// HistoryEntryResponse represents one reconstructed history entry.
type HistoryEntryResponse struct {
	AuthorID   string         `json:"authorId"`
	Action     string         `json:"action"`
	Content    string         `json:"content"`
	ChangedAt  time.Time      `json:"changedAt"`
	RawChanges domain.Changes `json:"rawChanges"`
}

// NotificationResponse represents a stored notification.
type NotificationResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// PageMeta describes a page of a listing.
type PageMeta struct {
	TotalItems   int `json:"totalItems"`
	ItemCount    int `json:"itemCount"`
	ItemsPerPage int `json:"itemsPerPage"`
	TotalPages   int `json:"totalPages"`
	CurrentPage  int `json:"currentPage"`
}

// PaginatedResponse wraps one page of items with its metadata.
type PaginatedResponse[T any] struct {
	Items []T      `json:"items"`
	Data  PageMeta `json:"data"`
}

// ToPaginated converts a service page, mapping every item with convert.
func ToPaginated[S, T any](page service.Page[S], convert func(S) T) PaginatedResponse[T] {
	items := make([]T, len(page.Items))
	for i, item := range page.Items {
		items[i] = convert(item)
	}
	return PaginatedResponse[T]{
		Items: items,
		Data: PageMeta{
			TotalItems:   page.TotalItems,
			ItemCount:    page.ItemCount(),
			ItemsPerPage: page.PageSize,
			TotalPages:   page.TotalPages(),
			CurrentPage:  page.CurrentPage,
		},
	}
}

// ToTaskResponse converts domain.Task to TaskResponse.
func ToTaskResponse(task *domain.Task) TaskResponse {
	assignees := task.AssigneeIDs
	if assignees == nil {
		assignees = []string{}
	}
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Priority:    string(task.Priority),
		Status:      string(task.Status),
		CreatorID:   task.CreatorID,
		Assignees:   assignees,
		Deadline:    task.Deadline,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}

// ToTaskDetailResponse converts a task and its comments.
func ToTaskDetailResponse(task *domain.Task, comments []*domain.Comment) TaskDetailResponse {
	return TaskDetailResponse{
		TaskResponse: ToTaskResponse(task),
		Comments:     ToCommentResponses(comments),
	}
}

// ToCommentResponse converts domain.Comment to CommentResponse.
func ToCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		TaskID:    c.TaskID,
		AuthorID:  c.AuthorID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
}

// ToCommentResponses converts a list of comments.
func ToCommentResponses(comments []*domain.Comment) []CommentResponse {
	out := make([]CommentResponse, len(comments))
	for i, c := range comments {
		out[i] = ToCommentResponse(c)
	}
	return out
}

// ToHistoryEntryResponse converts a reconstructed history entry.
func ToHistoryEntryResponse(e service.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		AuthorID:   e.AuthorID,
		Action:     string(e.Action),
		Content:    e.Content,
		ChangedAt:  e.ChangedAt,
		RawChanges: e.RawChanges,
	}
}

// ToNotificationResponse converts domain.Notification to NotificationResponse.
func ToNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Content:   n.Content,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
