// Package api exposes the reservation system over HTTP: the slot calendar,
// range availability, price quotes and the reservation lifecycle.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tripledoble/internal/config"
	"tripledoble/internal/messaging"
	"tripledoble/internal/models"
	"tripledoble/internal/schedule"
	"tripledoble/internal/service"

	"github.com/rs/zerolog"
)

type HTTPServer struct {
	cfg          config.APIConfig
	reservations *service.ReservationService
	users        *service.UserService
	whatsapp     *messaging.Builder
	auth         *HTTPAuth
	server       *http.Server
	logger       zerolog.Logger
}

func NewHTTPServer(
	cfg config.APIConfig,
	reservations *service.ReservationService,
	users *service.UserService,
	whatsapp *messaging.Builder,
	logger zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:          cfg,
		reservations: reservations,
		users:        users,
		whatsapp:     whatsapp,
		auth:         NewHTTPAuth(cfg),
		logger:       logger.With().Str("component", "http").Logger(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/slots", srv.handleSlots)
	mux.HandleFunc("/api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("/api/v1/quote", srv.handleQuote)
	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationByID)

	handler := srv.loggingMiddleware(withRecovery(srv.auth.Wrap(mux), srv.logger))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Handler returns the full middleware chain, used directly in tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type slotView struct {
	Start         string              `json:"start"`
	End           string              `json:"end"`
	Available     bool                `json:"available"`
	BlockedCourts []string            `json:"blocked_courts,omitempty"`
	Reservation   *models.Reservation `json:"reservation,omitempty"`
}

// handleSlots returns the day grid for one court, or for all courts in the
// legacy any-court mode when court is omitted.
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	court := strings.TrimSpace(r.URL.Query().Get("court"))
	if court != "" && !models.ValidCourt(court) {
		writeError(w, http.StatusBadRequest, "unknown court")
		return
	}

	snap, err := s.reservations.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	grid := s.reservations.Grid()
	slots := make([]slotView, 0, len(grid))
	for _, slot := range grid {
		view := slotView{
			Start:     slot,
			End:       s.slotEnd(slot),
			Available: snap.SlotAvailable(date, slot, court),
		}
		if !view.Available {
			view.Reservation = snap.ReservationAt(date, slot, court)
		}
		blocked := snap.BlockedCourts(date, slot)
		for _, c := range models.Courts() {
			if blocked[c] {
				view.BlockedCourts = append(view.BlockedCourts, c)
			}
		}
		slots = append(slots, view)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":  date,
		"court": court,
		"slots": slots,
	})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	date := strings.TrimSpace(q.Get("date"))
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))
	court := strings.TrimSpace(q.Get("court"))

	if date == "" || start == "" {
		writeError(w, http.StatusBadRequest, "date and start are required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}
	if court != "" && !models.ValidCourt(court) {
		writeError(w, http.StatusBadRequest, "unknown court")
		return
	}
	if end == "" {
		end = s.slotEnd(start)
		if end == "" {
			writeError(w, http.StatusBadRequest, "start is not on the slot grid")
			return
		}
	}

	snap, err := s.reservations.Snapshot(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load availability")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"date":      date,
		"start":     start,
		"end":       end,
		"court":     court,
		"available": snap.RangeAvailable(date, start, end, court),
	})
}

func (s *HTTPServer) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	court := strings.TrimSpace(q.Get("court"))
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))
	if !models.ValidCourt(court) {
		writeError(w, http.StatusBadRequest, "unknown court")
		return
	}
	if start == "" {
		writeError(w, http.StatusBadRequest, "start is required")
		return
	}

	member := q.Get("member") == "true"
	if authID := strings.TrimSpace(q.Get("user_id")); authID != "" {
		member = s.users.IsMember(r.Context(), authID)
	}

	quote := s.reservations.Quote(r.Context(), court, start, end, member)
	writeJSON(w, http.StatusOK, quote)
}

func (s *HTTPServer) slotEnd(slot string) string {
	grid := s.reservations.Grid()
	if schedule.SlotIndex(grid, slot) == -1 {
		return ""
	}
	end, err := schedule.SlotEnd(slot, s.reservations.ScheduleConfig())
	if err != nil {
		return ""
	}
	return end
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
