package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/handler/dto"
	"github.com/mtlprog/tasktrail/internal/live"
	"github.com/mtlprog/tasktrail/internal/middleware"
	"github.com/mtlprog/tasktrail/internal/service"
)

// NotificationReader serves the recipient's notification inbox.
type NotificationReader interface {
	ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*domain.Notification, int, error)
	MarkRead(ctx context.Context, notificationID, userID string) error
}

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Tasks         *service.TaskService
	Reads         *service.ReadService
	Notifications NotificationReader
	Users         middleware.UserLookup
	Hub           *live.Hub
	// Health reports whether the backing stores are reachable.
	Health func(ctx context.Context) error
	// Metrics serves the Prometheus scrape endpoint. Optional.
	Metrics http.Handler
	// PageSize is the default page size for listings.
	PageSize int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	tasks          *service.TaskService
	reads          *service.ReadService
	notifications  NotificationReader
	hub            *live.Hub
	health         func(ctx context.Context) error
	metrics        http.Handler
	pageSize       int
	validator      *dto.Validator
	authMiddleware *middleware.AuthMiddleware
}

// New creates a new Handler instance with all dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		tasks:          deps.Tasks,
		reads:          deps.Reads,
		notifications:  deps.Notifications,
		hub:            deps.Hub,
		health:         deps.Health,
		metrics:        deps.Metrics,
		pageSize:       deps.PageSize,
		validator:      dto.NewValidator(),
		authMiddleware: middleware.NewAuthMiddleware(deps.Users),
	}
}

// RegisterRoutes registers all HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealthz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	auth := func(fn http.HandlerFunc) http.Handler {
		return h.authMiddleware.Authenticate(fn)
	}

	// Tasks
	mux.Handle("GET /api/v1/tasks", auth(h.handleListTasks))
	mux.Handle("POST /api/v1/tasks", auth(h.handleCreateTask))
	mux.Handle("GET /api/v1/tasks/{id}", auth(h.handleGetTask))
	mux.Handle("PATCH /api/v1/tasks/{id}", auth(h.handleUpdateTask))
	mux.Handle("DELETE /api/v1/tasks/{id}", auth(h.handleDeleteTask))
	mux.Handle("POST /api/v1/tasks/{id}/assign", auth(h.handleAssignTask))
	mux.Handle("POST /api/v1/tasks/{id}/unassign", auth(h.handleUnassignTask))
	mux.Handle("GET /api/v1/tasks/{id}/comments", auth(h.handleListComments))
	mux.Handle("POST /api/v1/tasks/{id}/comments", auth(h.handleCommentTask))
	mux.Handle("GET /api/v1/tasks/{id}/history", auth(h.handleListHistory))

	// Notifications
	mux.Handle("GET /api/v1/notifications", auth(h.handleListNotifications))
	mux.Handle("PATCH /api/v1/notifications/{id}/read", auth(h.handleMarkNotificationRead))
	mux.Handle("GET /ws", auth(h.handleWebSocket))
}

// handleHealthz returns 200 OK if the backing stores are reachable.
func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}

	w.WriteHeader(http.StatusOK)
}

// handleWebSocket upgrades the connection and subscribes it to the caller's
// live notifications.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, user.ID)
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes a standard error response.
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, dto.NewErrorResponse(code, message))
}

// respondDomainError maps err to its HTTP status and writes it.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code, message := dto.MapDomainError(err)
	respondError(w, status, code, message)
}

// currentUser returns the authenticated user, answering 401 when missing.
func currentUser(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, err := middleware.GetUserFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "INVALID_TOKEN", "Authentication required")
		return nil, false
	}
	return user, true
}

// extractID extracts and validates a UUID path parameter.
// Returns (id, true) if valid, ("", false) if invalid (error already sent to client).
func extractID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := r.PathValue("id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+" id is required")
		return "", false
	}

	if _, err := uuid.Parse(id); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_REQUEST", name+"_id must be a valid UUID")
		return "", false
	}

	return id, true
}

// decodeAndValidate parses the JSON body into req and checks its tags.
// Returns false when a response has already been sent.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return false
	}
	if err := h.validator.Validate(req); err != nil {
		respondDomainError(w, err)
		return false
	}
	return true
}

// pageRequest reads ?page= and ?limit=. Invalid values fall back to defaults.
func (h *Handler) pageRequest(r *http.Request) service.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return service.PageRequest{Page: page, PageSize: limit}.Normalize(h.pageSize)
}
