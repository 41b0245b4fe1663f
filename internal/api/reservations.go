package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tripledoble/internal/database"
	"tripledoble/internal/models"
	"tripledoble/internal/service"
)

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createReservation(w, r)
	case http.MethodGet:
		s.listReservations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var draft models.ReservationDraft
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reservation, err := s.reservations.CreateReservation(r.Context(), &draft)
	if err != nil {
		s.writeReservationError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"reservation":  reservation,
		"whatsapp_url": s.whatsapp.BookingLink(reservation),
	})
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if status := strings.TrimSpace(q.Get("status")); status != "" {
		if status != models.StatusPending && status != models.StatusConfirmed && status != models.StatusRejected {
			writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		list, err := s.reservations.GetReservationsByStatus(r.Context(), status)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list reservations")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
		return
	}

	from := strings.TrimSpace(q.Get("from"))
	to := strings.TrimSpace(q.Get("to"))
	if date := strings.TrimSpace(q.Get("date")); date != "" {
		from, to = date, date
	}
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "date or from/to is required")
		return
	}
	for _, d := range []string{from, to} {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
			return
		}
	}

	list, err := s.reservations.GetReservationsByDateRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list reservations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": list})
}

// handleReservationByID dispatches /api/v1/reservations/{id} and the
// /confirm and /reject lifecycle actions under it.
func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/reservations/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.getReservation(w, r, id)
	case len(parts) == 1 && r.Method == http.MethodDelete:
		s.deleteReservation(w, r, id)
	case len(parts) == 2 && r.Method == http.MethodPost && parts[1] == "confirm":
		s.transitionReservation(w, r, id, models.StatusConfirmed)
	case len(parts) == 2 && r.Method == http.MethodPost && parts[1] == "reject":
		s.transitionReservation(w, r, id, models.StatusRejected)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, id int64) {
	reservation, err := s.reservations.GetReservation(r.Context(), id)
	if err != nil {
		s.writeReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *HTTPServer) deleteReservation(w http.ResponseWriter, r *http.Request, id int64) {
	requester := clientName(r.Context())
	if err := s.reservations.DeleteReservation(r.Context(), id, requester, true); err != nil {
		s.writeReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type transitionRequest struct {
	Version int64 `json:"version"`
}

func (s *HTTPServer) transitionReservation(w http.ResponseWriter, r *http.Request, id int64, status string) {
	var body transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.Version <= 0 {
		writeError(w, http.StatusBadRequest, "version is required")
		return
	}

	admin := clientName(r.Context())
	var err error
	if status == models.StatusConfirmed {
		err = s.reservations.ConfirmReservation(r.Context(), id, body.Version, admin)
	} else {
		err = s.reservations.RejectReservation(r.Context(), id, body.Version, admin)
	}
	if err != nil {
		s.writeReservationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) writeReservationError(w http.ResponseWriter, err error) {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeError(w, http.StatusBadRequest, vErr.Error())
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "reservation not found")
	case errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, service.ErrRangeUnavailable),
		errors.Is(err, service.ErrConfirmConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrConcurrentModification):
		writeError(w, http.StatusConflict, "reservation was modified concurrently")
	case errors.Is(err, service.ErrPastDate), errors.Is(err, service.ErrDateTooFar):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not allowed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
