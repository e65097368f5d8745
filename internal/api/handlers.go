// Package api exposes HTTP handlers for the activities service.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"example.com/mergington/internal/domain"
)

const landingPage = "/static/index.html"

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	logger    *slog.Logger
	staticDir string
}

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used for unexpected errors.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithStaticDir serves the front-end from dir under /static/.
func WithStaticDir(dir string) Option {
	return func(h *Handler) {
		h.staticDir = dir
	}
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, opts ...Option) *Handler {
	h := &Handler{service: service, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", root)
	mux.HandleFunc("GET /healthz", healthz)
	mux.HandleFunc("GET /activities", h.listActivities)
	mux.HandleFunc("POST /activities/{activity_name}/signup", h.signup)
	mux.HandleFunc("DELETE /activities/{activity_name}/unregister", h.unregister)
	if h.staticDir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(h.staticDir))))
	}
}

func root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, landingPage, http.StatusTemporaryRedirect)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	activities, err := h.service.ListActivities(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	resp := make(ActivitiesResponse, len(activities))
	for name, activity := range activities {
		resp[name] = toActivityView(activity)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	activityName := r.PathValue("activity_name")
	email := r.URL.Query().Get("email")

	if err := h.service.Enroll(r.Context(), activityName, email); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Signed up %s for %s", email, activityName),
	})
}

func (h *Handler) unregister(w http.ResponseWriter, r *http.Request) {
	activityName := r.PathValue("activity_name")
	email := r.URL.Query().Get("email")

	if err := h.service.Unenroll(r.Context(), activityName, email); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Unregistered %s from %s", email, activityName),
	})
}

// ActivityView is the public representation of one activity.
type ActivityView struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

// ActivitiesResponse is keyed by activity name.
type ActivitiesResponse map[string]ActivityView

// MessageResponse acknowledges a successful roster change.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse carries a human-readable failure reason.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// errorTable maps domain errors onto HTTP responses. Order matters only for
// errors that wrap more than one sentinel.
var errorTable = []struct {
	err    error
	status int
	detail string
}{
	{domain.ErrActivityNotFound, http.StatusNotFound, "Activity not found"},
	{domain.ErrAlreadyEnrolled, http.StatusBadRequest, "Student is already signed up"},
	{domain.ErrNotEnrolled, http.StatusBadRequest, "Student is not signed up for this activity"},
	{domain.ErrInvalidInput, http.StatusUnprocessableEntity, "email query parameter is required"},
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, entry := range errorTable {
		if errors.Is(err, entry.err) {
			writeError(w, entry.status, entry.detail)
			return
		}
	}
	h.logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	participants := activity.Participants
	if participants == nil {
		participants = []string{}
	}
	return ActivityView{
		Description:     activity.Description,
		Schedule:        activity.Schedule,
		MaxParticipants: activity.MaxParticipants,
		Participants:    participants,
	}
}
