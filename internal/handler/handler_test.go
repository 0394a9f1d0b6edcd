package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/handler"
	"github.com/mtlprog/tasktrail/internal/handler/dto"
	"github.com/mtlprog/tasktrail/internal/live"
	"github.com/mtlprog/tasktrail/internal/service"
	"github.com/mtlprog/tasktrail/internal/testutil"
)

type HandlerTestSuite struct {
	suite.Suite

	tasks         *testutil.TaskStore
	audits        *testutil.AuditStore
	comments      *testutil.CommentStore
	channel       *testutil.Channel
	notifications *testutil.NotificationStore
	healthErr     error
	mux           *http.ServeMux

	// Test fixtures
	alice    *domain.User
	bob      *domain.User
	carol    *domain.User
	inactive *domain.User
}

func (s *HandlerTestSuite) SetupTest() {
	s.tasks = testutil.NewTaskStore()
	s.audits = testutil.NewAuditStore()
	s.comments = testutil.NewCommentStore()
	s.channel = &testutil.Channel{}
	s.notifications = testutil.NewNotificationStore()
	s.healthErr = nil

	s.alice = &domain.User{ID: uuid.NewString(), Name: "alice", Token: "token-alice", IsActive: true}
	s.bob = &domain.User{ID: uuid.NewString(), Name: "bob", Token: "token-bob", IsActive: true}
	s.carol = &domain.User{ID: uuid.NewString(), Name: "carol", Token: "token-carol", IsActive: true}
	s.inactive = &domain.User{ID: uuid.NewString(), Name: "gone", Token: "token-gone", IsActive: false}

	h := handler.New(handler.Deps{
		Tasks:         service.NewTaskService(&testutil.Tx{}, s.tasks, s.audits, s.comments, s.channel, nil),
		Reads:         service.NewReadService(s.tasks, s.audits, s.comments, 10),
		Notifications: s.notifications,
		Users:         testutil.NewUserStore(s.alice, s.bob, s.carol, s.inactive),
		Hub:           live.NewHub(),
		Health:        func(context.Context) error { return s.healthErr },
		PageSize:      10,
	})
	s.mux = http.NewServeMux()
	h.RegisterRoutes(s.mux)
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

// Helper to make authenticated request
func (s *HandlerTestSuite) makeRequest(method, path, token string, body any) *httptest.ResponseRecorder {
	bodyReader := bytes.NewReader(nil)
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		s.Require().NoError(err)
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func (s *HandlerTestSuite) decode(w *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(w.Body).Decode(v))
}

func (s *HandlerTestSuite) seedTask(creator *domain.User, assignees ...string) *domain.Task {
	return s.tasks.Put(&domain.Task{
		Title:       "Write report",
		Description: "Quarterly numbers",
		Priority:    domain.TaskPriorityMedium,
		Status:      domain.TaskStatusTodo,
		CreatorID:   creator.ID,
		AssigneeIDs: assignees,
		Deadline:    time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
	})
}

func createBody() map[string]any {
	return map[string]any{
		"title":       "Write report",
		"description": "Quarterly numbers",
		"priority":    "HIGH",
		"deadline":    "2026-12-01T00:00:00Z",
	}
}

func (s *HandlerTestSuite) TestHealthz() {
	w := s.makeRequest(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusOK, w.Code)

	s.healthErr = errors.New("connection refused")
	w = s.makeRequest(http.MethodGet, "/healthz", "", nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlerTestSuite) TestCreateTask_Unauthorized() {
	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", "", createBody())
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks", "unknown", createBody())
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks", s.inactive.Token, createBody())
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlerTestSuite) TestCreateTask_ValidationError() {
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{name: "short title", mutate: func(b map[string]any) { b["title"] = "ab" }},
		{name: "missing description", mutate: func(b map[string]any) { delete(b, "description") }},
		{name: "unknown priority", mutate: func(b map[string]any) { b["priority"] = "SOMEDAY" }},
		{name: "missing deadline", mutate: func(b map[string]any) { delete(b, "deadline") }},
		{name: "unknown status", mutate: func(b map[string]any) { b["status"] = "ARCHIVED" }},
		{name: "non-uuid assignee", mutate: func(b map[string]any) { b["assignees"] = []string{"bob"} }},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			body := createBody()
			tt.mutate(body)

			w := s.makeRequest(http.MethodPost, "/api/v1/tasks", s.alice.Token, body)
			s.Equal(http.StatusUnprocessableEntity, w.Code)

			var errResp dto.ErrorResponse
			s.decode(w, &errResp)
			s.Equal("VALIDATION_ERROR", errResp.Error.Code)
		})
	}
	s.Empty(s.channel.Events())
}

func (s *HandlerTestSuite) TestCreateTask_InvalidJSON() {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/tasks", bytes.NewReader([]byte("{")))
	req.Header.Set("Authorization", "Bearer "+s.alice.Token)
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)

	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerTestSuite) TestCreateTask_Success() {
	body := createBody()
	body["assignees"] = []string{s.bob.ID}

	w := s.makeRequest(http.MethodPost, "/api/v1/tasks", s.alice.Token, body)
	s.Require().Equal(http.StatusCreated, w.Code)

	var task dto.TaskResponse
	s.decode(w, &task)
	s.NotEmpty(task.ID)
	s.Equal("HIGH", task.Priority)
	s.Equal("TODO", task.Status)
	s.Equal(s.alice.ID, task.CreatorID)
	s.Equal([]string{s.bob.ID}, task.Assignees)

	events := s.channel.Events()
	s.Require().Len(events, 1)
	s.Equal(domain.EventTaskCreated, events[0].Name)
	s.Equal([]string{s.bob.ID}, events[0].Event.Recipients)
}

func (s *HandlerTestSuite) TestGetTask() {
	task := s.seedTask(s.alice, s.bob.ID)

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID, s.bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var detail dto.TaskDetailResponse
	s.decode(w, &detail)
	s.Equal(task.ID, detail.ID)
	s.Empty(detail.Comments)
}

func (s *HandlerTestSuite) TestGetTask_NonParticipantForbidden() {
	task := s.seedTask(s.alice, s.bob.ID)

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID, s.carol.Token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	var errResp dto.ErrorResponse
	s.decode(w, &errResp)
	s.Equal("INSUFFICIENT_ACCESS", errResp.Error.Code)
}

func (s *HandlerTestSuite) TestGetTask_BadID() {
	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/not-a-uuid", s.alice.Token, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks/"+uuid.NewString(), s.alice.Token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerTestSuite) TestListTasks_OnlyParticipating() {
	s.seedTask(s.alice)
	s.seedTask(s.bob, s.alice.ID)
	s.seedTask(s.bob)

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks?page=1&limit=1", s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.PaginatedResponse[dto.TaskResponse]
	s.decode(w, &resp)
	s.Len(resp.Items, 1)
	s.Equal(dto.PageMeta{
		TotalItems:   2,
		ItemCount:    1,
		ItemsPerPage: 1,
		TotalPages:   2,
		CurrentPage:  1,
	}, resp.Data)
}

func (s *HandlerTestSuite) TestListTasks_NewestFirst() {
	for _, title := range []string{"First task", "Second task"} {
		body := createBody()
		body["title"] = title
		w := s.makeRequest(http.MethodPost, "/api/v1/tasks", s.alice.Token, body)
		s.Require().Equal(http.StatusCreated, w.Code)
	}

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks", s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.PaginatedResponse[dto.TaskResponse]
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 2)
	s.Equal("Second task", resp.Items[0].Title)
	s.Equal("First task", resp.Items[1].Title)
}

func (s *HandlerTestSuite) TestListTasks_HugePageIsEmpty() {
	s.seedTask(s.alice)

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks?page=184467440737095516&limit=100", s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.PaginatedResponse[dto.TaskResponse]
	s.decode(w, &resp)
	s.Empty(resp.Items)
	s.Equal(1, resp.Data.TotalItems)
	s.Equal(service.MaxPage, resp.Data.CurrentPage)
}

func (s *HandlerTestSuite) TestUpdateTask() {
	task := s.seedTask(s.alice, s.bob.ID)

	w := s.makeRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID, s.alice.Token, map[string]any{
		"status": "IN_PROGRESS",
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var updated dto.TaskResponse
	s.decode(w, &updated)
	s.Equal("IN_PROGRESS", updated.Status)
	s.Equal(task.Title, updated.Title)

	records := s.audits.Records(task.ID)
	s.Require().Len(records, 1)
	s.Equal(domain.ActionStatusChange, records[0].Action)

	events := s.channel.Events()
	s.Require().Len(events, 1)
	s.Equal(domain.EventTaskUpdated, events[0].Name)
}

func (s *HandlerTestSuite) TestUpdateTask_InvalidStatus() {
	task := s.seedTask(s.alice)

	w := s.makeRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID, s.alice.Token, map[string]any{
		"status": "ARCHIVED",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Empty(s.audits.Records(task.ID))
}

func (s *HandlerTestSuite) TestAssignAndUnassign() {
	task := s.seedTask(s.alice)

	w := s.makeRequest(http.MethodPost, "/api/v1/tasks/"+task.ID+"/assign", s.alice.Token, map[string]any{
		"assigneeId": s.bob.ID,
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var assigned dto.TaskResponse
	s.decode(w, &assigned)
	s.Equal([]string{s.bob.ID}, assigned.Assignees)

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks/"+task.ID+"/unassign", s.alice.Token, map[string]any{
		"assigneeId": s.bob.ID,
	})
	s.Require().Equal(http.StatusOK, w.Code)

	var unassigned dto.TaskResponse
	s.decode(w, &unassigned)
	s.Empty(unassigned.Assignees)

	events := s.channel.Events()
	s.Require().Len(events, 2)
	s.Equal(domain.EventTaskAssigned, events[0].Name)
	s.Equal(domain.EventTaskUpdated, events[1].Name)
}

func (s *HandlerTestSuite) TestAssign_MissingAssignee() {
	task := s.seedTask(s.alice)

	w := s.makeRequest(http.MethodPost, "/api/v1/tasks/"+task.ID+"/assign", s.alice.Token, map[string]any{})
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlerTestSuite) TestComments() {
	task := s.seedTask(s.alice, s.bob.ID)

	w := s.makeRequest(http.MethodPost, "/api/v1/tasks/"+task.ID+"/comments", s.bob.Token, map[string]any{
		"content": "hi",
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/tasks/"+task.ID+"/comments", s.bob.Token, map[string]any{
		"content": "Draft is ready",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	var comment dto.CommentResponse
	s.decode(w, &comment)
	s.Equal(s.bob.ID, comment.AuthorID)
	s.Equal(task.ID, comment.TaskID)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID+"/comments", s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var list []dto.CommentResponse
	s.decode(w, &list)
	s.Require().Len(list, 1)
	s.Equal("Draft is ready", list[0].Content)

	events := s.channel.Events()
	s.Require().Len(events, 1)
	s.Equal(domain.EventTaskComment, events[0].Name)
	s.Equal([]string{s.alice.ID}, events[0].Event.Recipients)
}

func (s *HandlerTestSuite) TestListHistory() {
	task := s.seedTask(s.alice)

	for _, status := range []string{"IN_PROGRESS", "REVIEW", "DONE"} {
		w := s.makeRequest(http.MethodPatch, "/api/v1/tasks/"+task.ID, s.alice.Token, map[string]any{
			"status": status,
		})
		s.Require().Equal(http.StatusOK, w.Code)
	}

	w := s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID+"/history?page=1&limit=2", s.alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.PaginatedResponse[dto.HistoryEntryResponse]
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 2)
	s.Equal(3, resp.Data.TotalItems)
	s.Equal(2, resp.Data.TotalPages)
	s.Equal(string(domain.ActionStatusChange), resp.Items[0].Action)
	s.Equal(s.alice.ID, resp.Items[0].AuthorID)
	s.NotEmpty(resp.Items[0].Content)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID+"/history", s.carol.Token, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *HandlerTestSuite) TestDeleteTask() {
	task := s.seedTask(s.alice)

	w := s.makeRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID, s.alice.Token, nil)
	s.Require().Equal(http.StatusNoContent, w.Code)

	w = s.makeRequest(http.MethodGet, "/api/v1/tasks/"+task.ID, s.alice.Token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	records := s.audits.Records(task.ID)
	s.Require().Len(records, 1)
	s.Equal(domain.ActionDelete, records[0].Action)
}

func (s *HandlerTestSuite) TestNotifications() {
	ctx := context.Background()
	first, err := s.notifications.Save(ctx, &domain.Notification{UserID: s.bob.ID, Title: "New task", Content: "one"})
	s.Require().NoError(err)
	_, err = s.notifications.Save(ctx, &domain.Notification{UserID: s.bob.ID, Title: "Update", Content: "two"})
	s.Require().NoError(err)
	_, err = s.notifications.Save(ctx, &domain.Notification{UserID: s.alice.ID, Title: "Update", Content: "other"})
	s.Require().NoError(err)

	w := s.makeRequest(http.MethodGet, "/api/v1/notifications", s.bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp dto.PaginatedResponse[dto.NotificationResponse]
	s.decode(w, &resp)
	s.Require().Len(resp.Items, 2)
	s.Equal("two", resp.Items[0].Content)
	s.Equal(2, resp.Data.TotalItems)

	w = s.makeRequest(http.MethodPatch, "/api/v1/notifications/"+first.ID+"/read", s.alice.Token, nil)
	s.Equal(http.StatusNotFound, w.Code)

	w = s.makeRequest(http.MethodPatch, "/api/v1/notifications/"+first.ID+"/read", s.bob.Token, nil)
	s.Require().Equal(http.StatusNoContent, w.Code)

	for _, n := range s.notifications.All() {
		s.Equal(n.ID == first.ID, n.Read)
	}
}
