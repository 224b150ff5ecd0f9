package attendance

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsboard/opsboard/internal/platform/httpx"
	"github.com/opsboard/opsboard/internal/rbac"
	"github.com/opsboard/opsboard/internal/shared"
)

// Handler wires HTTP endpoints for attendance.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler constructs attendance handler.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers attendance routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermAttendanceClock))
		r.Post("/clock-in", h.clockIn)
		r.Post("/clock-out", h.clockOut)
		r.Get("/status", h.status)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(rbac.PermAttendanceView))
		r.Get("/", h.list)
	})
}

type clockInRequest struct {
	Note string `json:"note"`
}

func (h *Handler) clockIn(w http.ResponseWriter, r *http.Request) {
	var req clockInRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid request body")
			return
		}
	}
	rec, err := h.service.ClockIn(r.Context(), actorID(r), req.Note)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"record": rec})
}

func (h *Handler) clockOut(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.ClockOut(r.Context(), actorID(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Status(r.Context(), actorID(r))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSON(w, http.StatusOK, map[string]any{"on_duty": false})
			return
		}
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"on_duty": true, "record": rec})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{}
	filter.EmployeeID, _ = strconv.ParseInt(q.Get("employee_id"), 10, 64)
	if v := q.Get("from"); v != "" {
		filter.From, _ = time.Parse("2006-01-02", v)
	}
	if v := q.Get("to"); v != "" {
		filter.To, _ = time.Parse("2006-01-02", v)
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	items, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list attendance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"records":    items,
		"pagination": shared.NewPagination(filter.Page, filter.PerPage, total),
	})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlreadyClockedIn):
		httpx.Problem(w, http.StatusConflict, "Conflict", "shift already open")
	case errors.Is(err, ErrNotClockedIn):
		httpx.Problem(w, http.StatusConflict, "Conflict", "no open shift")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not found")
	default:
		h.logger.Error("attendance request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func actorID(r *http.Request) int64 {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0
	}
	id, _ := strconv.ParseInt(sess.User(), 10, 64)
	return id
}
