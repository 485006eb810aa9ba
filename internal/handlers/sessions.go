// Package handlers wires the session service to the HTTP surface.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"pitchstat-backend/internal/auth"
	"pitchstat-backend/internal/repository"
	"pitchstat-backend/internal/service/session"
	"pitchstat-backend/pkg/api"
	appErrors "pitchstat-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadBytes bounds an upload body; tracker archives stay well under this.
const maxUploadBytes = 64 << 20

// SessionHandler serves the upload, listing and detail endpoints.
type SessionHandler struct {
	service session.Service
	logger  *zap.Logger
}

// NewSessionHandler creates the handler set for session routes.
func NewSessionHandler(service session.Service, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

// Routes mounts the session endpoints on a router.
func (h *SessionHandler) Routes(r chi.Router) {
	r.Get("/sessions", h.List)
	r.Post("/sessions", h.Upload)
	r.Get("/sessions/{sessionId}", h.Detail)
}

// Upload ingests a JSON or zipped session upload.
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	principal := auth.FromContext(r.Context())

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		api.Error(w, http.StatusBadRequest, "failed to read upload body")
		return
	}

	result, err := h.service.IngestUpload(r.Context(), principal.UserID, body, r.Header.Get("Content-Type"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	api.Success(w, http.StatusCreated, api.UploadResponse{
		SessionID:  result.SessionID,
		PitchCount: result.PitchCount,
	})
}

// List returns the caller's session summaries, newest first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	principal := auth.FromContext(r.Context())

	records, err := h.service.ListSessions(r.Context(), principal.UserID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	summaries := make([]api.SessionSummaryResponse, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, api.SessionSummaryResponse{
			SessionID:   record.SessionID,
			SessionKey:  record.SessionKey,
			CreatedAt:   record.CreatedAt,
			PitchCount:  record.PitchCount,
			SessionName: record.SessionName,
			StartedAt:   record.StartedAt,
		})
	}

	api.Success(w, http.StatusOK, api.SessionListResponse{Sessions: summaries})
}

// Detail returns one session with all of its pitches.
func (h *SessionHandler) Detail(w http.ResponseWriter, r *http.Request) {
	principal := auth.FromContext(r.Context())
	sessionID := chi.URLParam(r, "sessionId")

	record, pitches, err := h.service.GetSessionDetail(r.Context(), principal.UserID, sessionID)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	pitchCount := record.PitchCount
	if pitchCount == 0 {
		pitchCount = len(pitches)
	}

	var heatmap any
	if record.Heatmap != nil {
		if err := json.Unmarshal([]byte(*record.Heatmap), &heatmap); err != nil {
			h.logger.Warn("stored heatmap is not valid JSON",
				zap.String("sessionKey", record.SessionKey), zap.Error(err))
		}
	}

	pitchResponses := make([]api.PitchResponse, 0, len(pitches))
	for _, pitch := range pitches {
		pitchResponses = append(pitchResponses, toPitchResponse(pitch))
	}

	api.Success(w, http.StatusOK, api.SessionDetailResponse{
		Session: api.SessionBody{
			SessionID:   record.SessionID,
			SessionKey:  record.SessionKey,
			CreatedAt:   record.CreatedAt,
			PitchCount:  pitchCount,
			SessionName: record.SessionName,
			StartedAt:   record.StartedAt,
			Strikes:     record.Strikes,
			Balls:       record.Balls,
			Heatmap:     heatmap,
		},
		Pitches: pitchResponses,
	})
}

func toPitchResponse(pitch repository.PitchRecord) api.PitchResponse {
	return api.PitchResponse{
		PitchID:        pitch.PitchID,
		Speed:          pitch.Speed,
		Run:            pitch.Run,
		Rise:           pitch.Rise,
		Zone:           pitch.Zone,
		ZoneRow:        pitch.ZoneRow,
		ZoneCol:        pitch.ZoneCol,
		IsStrike:       pitch.IsStrike,
		RotationRPM:    pitch.RotationRPM,
		SpinAxis:       pitch.SpinAxis,
		SpinEfficiency: pitch.SpinEfficiency,
		Confidence:     pitch.Confidence,
		PlateX:         pitch.PlateX,
		PlateZ:         pitch.PlateZ,
		ReleaseHeight:  pitch.ReleaseHeight,
		ReleaseSide:    pitch.ReleaseSide,
		Extension:      pitch.Extension,
	}
}

// handleServiceError maps the error taxonomy onto HTTP statuses. Internal
// detail is logged, never echoed.
func (h *SessionHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case appErrors.IsValidation(err):
		if details := appErrors.Details(err); details != nil {
			api.ErrorWithDetails(w, http.StatusBadRequest, appErrors.Message(err), details)
			return
		}
		api.Error(w, http.StatusBadRequest, appErrors.Message(err))
	case appErrors.IsParse(err), appErrors.IsMissingSessionData(err), appErrors.IsUnsafeIdentifier(err):
		api.Error(w, http.StatusBadRequest, appErrors.Message(err))
	case appErrors.IsNotFound(err):
		api.Error(w, http.StatusNotFound, "Session not found")
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		api.Error(w, http.StatusInternalServerError, "An internal server error occurred")
	}
}
