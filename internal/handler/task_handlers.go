package handler

import (
	"context"
	"net/http"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/handler/dto"
)

// handleCreateTask creates a new task.
func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req dto.CreateTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.CreateTask(r.Context(), req.Params(user.ID))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// handleListTasks lists the tasks the caller created or is assigned to.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := h.reads.ListTasks(r.Context(), user.ID, h.pageRequest(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToPaginated(page, dto.ToTaskResponse))
}

// handleGetTask returns a task with its comments.
func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	task, comments, err := h.reads.GetTask(r.Context(), taskID, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskDetailResponse(task, comments))
}

// handleUpdateTask applies a partial update.
func (h *Handler) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := h.tasks.UpdateTask(r.Context(), taskID, user.ID, req.Fields())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleDeleteTask deletes a task. Its history is kept.
func (h *Handler) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	if err := h.tasks.DeleteTask(r.Context(), taskID, user.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAssignTask adds an assignee.
func (h *Handler) handleAssignTask(w http.ResponseWriter, r *http.Request) {
	h.handleAssignment(w, r, h.tasks.AssignUser)
}

// handleUnassignTask removes an assignee.
func (h *Handler) handleUnassignTask(w http.ResponseWriter, r *http.Request) {
	h.handleAssignment(w, r, h.tasks.UnassignUser)
}

type assignmentFunc func(ctx context.Context, taskID, assigneeID, actorID string) (*domain.Task, error)

func (h *Handler) handleAssignment(w http.ResponseWriter, r *http.Request, change assignmentFunc) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.AssignRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	task, err := change(r.Context(), taskID, req.AssigneeID, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// handleCommentTask adds a comment.
func (h *Handler) handleCommentTask(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	var req dto.CommentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	comment, err := h.tasks.CommentTask(r.Context(), taskID, user.ID, req.Content)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.ToCommentResponse(comment))
}

// handleListComments lists a task's comments, newest first.
func (h *Handler) handleListComments(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	comments, err := h.reads.ListComments(r.Context(), taskID, user.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToCommentResponses(comments))
}

// handleListHistory returns one page of a task's history.
func (h *Handler) handleListHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID, ok := extractID(w, r, "task")
	if !ok {
		return
	}

	page, err := h.reads.ListHistory(r.Context(), taskID, user.ID, h.pageRequest(r))
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToPaginated(page, dto.ToHistoryEntryResponse))
}
