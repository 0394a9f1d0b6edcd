package handler

import (
	"net/http"

	"github.com/mtlprog/tasktrail/internal/handler/dto"
	"github.com/mtlprog/tasktrail/internal/service"
)

// handleListNotifications lists the caller's notifications, newest first.
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	req := h.pageRequest(r)
	items, total, err := h.notifications.ListByUser(r.Context(), user.ID, req.Page, req.PageSize)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.ToPaginated(service.NewPage(items, total, req), dto.ToNotificationResponse))
}

// handleMarkNotificationRead marks one of the caller's notifications as read.
func (h *Handler) handleMarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	notificationID, ok := extractID(w, r, "notification")
	if !ok {
		return
	}

	if err := h.notifications.MarkRead(r.Context(), notificationID, user.ID); err != nil {
		respondDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
