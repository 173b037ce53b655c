// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/group-rooming/internal/allocation"
	"github.com/Shivanand-hulikatti/group-rooming/internal/inventory"
	"github.com/Shivanand-hulikatti/group-rooming/internal/model"
	"github.com/Shivanand-hulikatti/group-rooming/internal/service"
	"github.com/Shivanand-hulikatti/group-rooming/internal/session"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RoomingHandler holds all HTTP handlers for the room assignment API.
type RoomingHandler struct {
	svc    *service.RoomingService
	logger *zap.Logger
}

// NewRoomingHandler constructs a RoomingHandler.
func NewRoomingHandler(svc *service.RoomingService, logger *zap.Logger) *RoomingHandler {
	return &RoomingHandler{svc: svc, logger: logger}
}

// Routes mounts the session API on r.
func (h *RoomingHandler) Routes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.OpenSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.CloseSession)
			r.Post("/placements", h.Place)
			r.Delete("/placements/{guestID}", h.Remove)
			r.Post("/autofill", h.AutoFill)
			r.Patch("/groups/{groupID}", h.RenameGroup)
			r.Post("/clear", h.Clear)
			r.Get("/violations", h.Violations)
			r.Get("/rooming-list.xlsx", h.Export)
		})
	})
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// fail maps a service error to an HTTP status.
func (h *RoomingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, inventory.ErrNotFound),
		errors.Is(err, allocation.ErrUnknownGuest),
		errors.Is(err, allocation.ErrUnknownAllocation),
		errors.Is(err, allocation.ErrUnknownGroup):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, allocation.ErrCapacityExceeded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, allocation.ErrInvalidParty),
		errors.Is(err, allocation.ErrInvariantViolation):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// OpenSession handles POST /sessions
// Loads the head guest's party and returns the new session's snapshot.
func (h *RoomingHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req model.OpenSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	snap, err := h.svc.Open(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}

// GetSession handles GET /sessions/{id}
func (h *RoomingHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// CloseSession handles DELETE /sessions/{id}
func (h *RoomingHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Place handles POST /sessions/{id}/placements
// Moves a guest into an allocation, creating its room group when empty.
func (h *RoomingHandler) Place(w http.ResponseWriter, r *http.Request) {
	var req model.PlaceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	group, err := h.svc.Place(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Remove handles DELETE /sessions/{id}/placements/{guestID}
func (h *RoomingHandler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Remove(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "guestID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AutoFill handles POST /sessions/{id}/autofill
// An empty body places every unassigned guest across every allocation.
// Guests that do not fit come back in "unplaced" with a warning.
func (h *RoomingHandler) AutoFill(w http.ResponseWriter, r *http.Request) {
	var req model.AutoFillRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := h.svc.AutoFill(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// RenameGroup handles PATCH /sessions/{id}/groups/{groupID}
func (h *RoomingHandler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	var req model.RenameGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	group, err := h.svc.Rename(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "groupID"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Clear handles POST /sessions/{id}/clear
func (h *RoomingHandler) Clear(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Clear(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// Violations handles GET /sessions/{id}/violations
// Returns an empty array when the grouping is consistent.
func (h *RoomingHandler) Violations(w http.ResponseWriter, r *http.Request) {
	violations, err := h.svc.Validate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, violations)
}

// Export handles GET /sessions/{id}/rooming-list.xlsx
func (h *RoomingHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Export(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="rooming-list.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
