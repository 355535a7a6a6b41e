// Package api exposes the recorder to the sign-in kiosk over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"muster/pkg/attendance"
	"muster/pkg/grid"
)

// Recorder is the part of attendance.Recorder the handlers use.
type Recorder interface {
	Mark(ctx context.Context, identity string) (attendance.Entry, error)
	SetGridID(ctx context.Context, id string) error
	GridID() string
}

// SettingsStore persists the grid id chosen on the settings screen.
type SettingsStore interface {
	SetGridID(id string) error
}

type Handler struct {
	recorder Recorder
	settings SettingsStore
	timeout  time.Duration
}

// NewHandler wires the handlers. settings may be nil, in which case grid
// changes last until restart. timeout bounds each request's grid calls.
func NewHandler(recorder Recorder, settings SettingsStore, timeout time.Duration) *Handler {
	return &Handler{
		recorder: recorder,
		settings: settings,
		timeout:  timeout,
	}
}

func (h *Handler) getHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) postMark(w http.ResponseWriter, r *http.Request) {
	var req MarkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, codeBadInput, "request body is not valid JSON")
		return
	}
	identity := strings.TrimSpace(req.Identity)
	if !ValidIdentity(identity) {
		sendError(w, http.StatusBadRequest, codeBadInput,
			fmt.Sprintf("looks like %q isn't formatted correctly", identity))
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	entry, err := h.recorder.Mark(ctx, identity)
	if err != nil {
		status, code := classify(err)
		log.WithField("identity", identity).WithError(err).Error("mark request failed")
		sendError(w, status, code,
			fmt.Sprintf("%s could not be signed in, the attendance sheet is acting up", identity))
		return
	}

	sendJSON(w, http.StatusOK, MarkResponse{
		Identity: entry.Identity,
		Name:     DisplayName(entry.Identity),
		Date:     entry.Date,
		Time:     entry.Time,
		Cell:     entry.Cell,
	})
}

func (h *Handler) getGrid(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, GridSettings{GridID: h.recorder.GridID()})
}

func (h *Handler) putGrid(w http.ResponseWriter, r *http.Request) {
	var req GridSettings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, codeBadInput, "request body is not valid JSON")
		return
	}
	id := strings.TrimSpace(req.GridID)
	if id == "" {
		sendError(w, http.StatusBadRequest, codeBadInput, "gridId is required")
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	if err := h.recorder.SetGridID(ctx, id); err != nil {
		status, code := classify(err)
		log.WithField("grid", id).WithError(err).Error("switching grid failed")
		sendError(w, status, code, fmt.Sprintf("could not open grid %q", id))
		return
	}
	if h.settings != nil {
		if err := h.settings.SetGridID(id); err != nil {
			log.WithField("grid", id).WithError(err).Error("saving settings failed")
			sendError(w, http.StatusInternalServerError, codeInternal, "grid selected but settings could not be saved")
			return
		}
	}
	sendJSON(w, http.StatusOK, GridSettings{GridID: id})
}

func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), h.timeout)
}

// classify maps a core error onto an HTTP status and error code. Bad input
// is told apart from service trouble, and the service errors from each other.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, attendance.ErrInvalidIdentity):
		return http.StatusBadRequest, codeBadInput
	case errors.Is(err, attendance.ErrNoGrid):
		return http.StatusConflict, codeNoGrid
	case errors.Is(err, grid.ErrCapacityExceeded):
		return http.StatusInsufficientStorage, codeCapacityExceeded
	case errors.Is(err, grid.ErrMalformedGridState):
		return http.StatusInternalServerError, codeMalformedGrid
	case errors.Is(err, grid.ErrRemoteUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeServiceUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

func sendError(w http.ResponseWriter, status int, code, message string) {
	sendJSON(w, status, ErrorResponse{Code: code, Message: message})
}

func sendJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Error("encoding response")
		status = http.StatusInternalServerError
		body = []byte(`{"code":"internal","message":"encoding response"}`)
	}
	sendResponse(w, status, body)
}

func sendResponse(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
