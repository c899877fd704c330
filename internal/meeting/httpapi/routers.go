package httpapi

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /api/v1/meetings", h.CreateMeeting)
	mux.HandleFunc("GET /api/v1/meetings", h.ListMeetings)
	mux.HandleFunc("GET /api/v1/meetings/{id}", h.GetMeeting)
	mux.HandleFunc("DELETE /api/v1/meetings/{id}", h.DeleteMeeting)

	return withRequestLog(h.logger, mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func withRequestLog(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request served")
	})
}
