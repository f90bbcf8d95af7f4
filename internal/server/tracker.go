package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"tekken-tracker/internal/constants"
	"tekken-tracker/internal/metrics"
	"tekken-tracker/internal/middleware"
	"tekken-tracker/internal/service"
	"tekken-tracker/internal/state"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

const defaultRecentMatches = 20

// TrackerServer exposes the tracker state and report previews as read-only JSON.
type TrackerServer struct {
	playerSvc *service.PlayerService
	reportSvc *service.ReportService
	metrics   http.Handler
	logger    zerolog.Logger
}

func NewTrackerServer(playerSvc *service.PlayerService, reportSvc *service.ReportService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{
		playerSvc: playerSvc,
		reportSvc: reportSvc,
		metrics:   metrics.NewMetricsHandler(),
		logger:    logger,
	}
}

// Handler returns the routes wrapped in CORS, panic recovery and request id middleware.
func (s *TrackerServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /players", s.listPlayers)
	mux.HandleFunc("GET /players/{name}", s.getPlayer)
	mux.HandleFunc("GET /players/{name}/rank-history", s.rankHistory)
	mux.HandleFunc("GET /reports/daily", s.dailyReport)
	mux.HandleFunc("GET /reports/weekly/preview", s.weeklyReport)
	mux.Handle("GET /metrics", s.metrics)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	handler := http.TimeoutHandler(mux, constants.RequestTimeout, "request timed out")
	return middleware.RequestID(s.logger)(middleware.Recover(c.Handler(handler)))
}

func (s *TrackerServer) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status":  "ok",
		"players": len(s.playerSvc.List()),
	})
}

func (s *TrackerServer) listPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.playerSvc.List())
}

func (s *TrackerServer) getPlayer(w http.ResponseWriter, r *http.Request) {
	recent, err := intParam(r, "recent", defaultRecentMatches)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	player, err := s.playerSvc.Get(r.PathValue("name"), recent)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, player)
}

func (s *TrackerServer) rankHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", constants.RankHistoryLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	changes, err := s.playerSvc.RankHistory(r.Context(), r.PathValue("name"), limit)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, changes)
}

func (s *TrackerServer) dailyReport(w http.ResponseWriter, r *http.Request) {
	daily, err := s.reportSvc.PreviewDaily(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, r, http.StatusOK, daily)
}

func (s *TrackerServer) weeklyReport(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.reportSvc.PreviewWeekly())
}

func statusFor(err error) int {
	if errors.Is(err, state.ErrUnknownPlayer) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func intParam(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + key + " parameter")
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	logger := zerolog.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("path", r.URL.Path).Msg("bad request")
	}
	writeJSON(w, r, status, map[string]string{"error": err.Error()})
}
