package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/romariotrain/meeting-pipeline/internal/meeting/models"
	"github.com/romariotrain/meeting-pipeline/internal/meeting/service"
)

const DefaultMaxUploadBytes = 100 << 20

type MeetingService interface {
	Ingest(ctx context.Context, audio []byte, filenameHint string) (models.MeetingRecord, error)
	GetMeeting(ctx context.Context, id uuid.UUID) (models.MeetingRecord, error)
	ListMeetings(ctx context.Context) ([]models.MeetingRecord, error)
	DeleteMeeting(ctx context.Context, id uuid.UUID) error
}

type Handler struct {
	svc            MeetingService
	maxUploadBytes int64
	logger         zerolog.Logger
}

func New(svc MeetingService, maxUploadBytes int64, logger zerolog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateMeeting accepts a multipart upload in the "audio" field and runs the
// whole pipeline before answering.
func (h *Handler) CreateMeeting(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	defer r.Body.Close()

	file, hdr, err := r.FormFile("audio")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorJSON(w, http.StatusRequestEntityTooLarge, "audio file too large")
			return
		}
		writeErrorJSON(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "unreadable audio file")
		return
	}
	if len(audio) == 0 {
		writeErrorJSON(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	m, err := h.svc.Ingest(r.Context(), audio, hdr.Filename)
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMeetingResponse(m))
}

func (h *Handler) writeIngestError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: "internal error"}
	status := http.StatusInternalServerError

	var ie *service.IngestError
	if errors.As(err, &ie) {
		resp.Step = string(ie.Step)
		if ie.RecordID != uuid.Nil {
			id := ie.RecordID
			resp.MeetingID = &id
		}
	}

	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		status, resp.Error = http.StatusBadRequest, "invalid argument"
	case errors.Is(err, models.ErrUpstream):
		status, resp.Error = http.StatusBadGateway, "upstream processing failed"
	case errors.Is(err, models.ErrAudioStorage):
		resp.Error = "audio storage failed"
	case errors.Is(err, models.ErrPersistence):
		resp.Error = "persistence failed"
	}

	h.logger.Error().Err(err).Int("status", status).Msg("ingest request failed")
	writeJSON(w, status, resp)
}

func (h *Handler) ListMeetings(w http.ResponseWriter, r *http.Request) {
	all, err := h.svc.ListMeetings(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list meetings failed")
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := ListResponse{Meetings: make([]MeetingResponse, 0, len(all)), Count: len(all)}
	for _, m := range all {
		out.Meetings = append(out.Meetings, toMeetingResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	m, err := h.svc.GetMeeting(r.Context(), id)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMeetingResponse(m))
}

func (h *Handler) DeleteMeeting(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteMeeting(r.Context(), id); err != nil {
		h.writeLookupError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeErrorJSON(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrInvalidArgument):
		writeErrorJSON(w, http.StatusBadRequest, "invalid argument")
	default:
		h.logger.Error().Err(err).Msg("meeting lookup failed")
		writeErrorJSON(w, http.StatusInternalServerError, "internal error")
	}
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorJSON(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
