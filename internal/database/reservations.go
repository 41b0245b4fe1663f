package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripledoble/internal/models"
)

const reservationColumns = `id, user_id, name, phone, email, national_id, date, start_time,
                 end_time, weekday, status, notes, court, sport, created_at, updated_at, version`

func scanReservation(row interface{ Scan(...interface{}) error }) (*models.Reservation, error) {
	r := &models.Reservation{}
	err := row.Scan(
		&r.ID, &r.UserID, &r.Name, &r.Phone, &r.Email, &r.NationalID,
		&r.Date, &r.StartTime, &r.EndTime, &r.Weekday, &r.Status, &r.Notes,
		&r.Court, &r.Sport, &r.CreatedAt, &r.UpdatedAt, &r.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reservation: %w", err)
	}
	return r, nil
}

func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	query := `INSERT INTO reservations (
				user_id, name, phone, email, national_id, date, start_time,
				end_time, weekday, status, notes, court, sport,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		r.UserID, r.Name, r.Phone, r.Email, r.NationalID,
		r.Date, r.StartTime, r.EndTime, r.Weekday, r.Status,
		r.Notes, r.Court, r.Sport, now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to create reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1
	return nil
}

// CreateReservationChecked inserts a reservation only if no blocking
// reservation already covers the requested interval, inside a single
// transaction. The court conflict check is conservative at this layer: any
// blocking reservation on the same date whose time span overlaps is a
// conflict when the courts block each other.
func (db *DB) CreateReservationChecked(ctx context.Context, r *models.Reservation) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE date = ? AND status != ?`
	rows, err := tx.QueryContext(ctx, query, r.Date, models.StatusRejected)
	if err != nil {
		return fmt.Errorf("failed to check conflicts in tx: %w", err)
	}
	existing, err := collectReservations(rows)
	if err != nil {
		return err
	}

	for _, other := range existing {
		if reservationsOverlap(r, other) {
			return ErrNotAvailable
		}
	}

	queryInsert := `INSERT INTO reservations (
				user_id, name, phone, email, national_id, date, start_time,
				end_time, weekday, status, notes, court, sport,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		r.UserID, r.Name, r.Phone, r.Email, r.NationalID,
		r.Date, r.StartTime, r.EndTime, r.Weekday, r.Status,
		r.Notes, r.Court, r.Sport, now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reservation in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	r.Version = 1

	return tx.Commit()
}

// reservationsOverlap reports whether two reservations compete for the same
// physical space at the same time. Single-slot records occupy one hour.
func reservationsOverlap(a *models.Reservation, b *models.Reservation) bool {
	courtA := a.Court
	if courtA == "" {
		courtA = models.CourtMain
	}
	courtB := b.Court
	if courtB == "" {
		courtB = models.CourtMain
	}
	if !models.CourtBlocks(courtB, courtA) {
		return false
	}

	startA, endA := spanMinutes(a.StartTime, a.EndTime)
	startB, endB := spanMinutes(b.StartTime, b.EndTime)
	return startA < endB && startB < endA
}

func spanMinutes(start, end string) (int, int) {
	from := clockMinutes(start)
	to := clockMinutes(end)
	if end == "" || to <= from {
		to = from + 60
	}
	return from, to
}

func clockMinutes(clock string) int {
	var h, m int
	if _, err := fmt.Sscanf(clock, "%d:%d", &h, &m); err != nil {
		return 0
	}
	return h*60 + m
}

func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?`
	return scanReservation(db.QueryRowContext(ctx, query, id))
}

func (db *DB) UpdateReservationStatus(ctx context.Context, id int64, status string) error {
	query := `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateReservationStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE reservations SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update reservation status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) UpdateReservationNotes(ctx context.Context, id int64, notes string) error {
	query := `UPDATE reservations SET notes = ?, updated_at = ? WHERE id = ?`
	_, err := db.ExecContext(ctx, query, notes, time.Now(), id)
	return err
}

func (db *DB) DeleteReservation(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reservation: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) GetReservationsByDate(ctx context.Context, date string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE date = ? ORDER BY start_time ASC, created_at ASC`
	rows, err := db.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by date: %w", err)
	}
	return collectReservations(rows)
}

func (db *DB) GetReservationsByDateRange(ctx context.Context, startDate, endDate string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE date >= ? AND date <= ? ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by date range: %w", err)
	}
	return collectReservations(rows)
}

func (db *DB) GetReservationsByStatus(ctx context.Context, status string) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE status = ? ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations by status: %w", err)
	}
	return collectReservations(rows)
}

func (db *DB) GetUserReservations(ctx context.Context, userID string) ([]*models.Reservation, error) {
	// Только последние две недели и будущие заявки
	twoWeeksAgo := time.Now().AddDate(0, 0, -14).Format("2006-01-02")
	query := `SELECT ` + reservationColumns + `
              FROM reservations WHERE user_id = ? AND date >= ? ORDER BY date DESC, start_time DESC`
	rows, err := db.QueryContext(ctx, query, userID, twoWeeksAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to get user reservations: %w", err)
	}
	return collectReservations(rows)
}

func (db *DB) GetAllReservations(ctx context.Context) ([]*models.Reservation, error) {
	query := `SELECT ` + reservationColumns + `
              FROM reservations ORDER BY date ASC, start_time ASC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservations: %w", err)
	}
	return collectReservations(rows)
}

// GetDailyReservations groups a date range by day for grid rendering.
func (db *DB) GetDailyReservations(ctx context.Context, startDate, endDate string) (map[string][]*models.Reservation, error) {
	reservations, err := db.GetReservationsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	daily := make(map[string][]*models.Reservation)
	for _, r := range reservations {
		daily[r.Date] = append(daily[r.Date], r)
	}
	return daily, nil
}

func collectReservations(rows *sql.Rows) ([]*models.Reservation, error) {
	defer rows.Close()

	var reservations []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reservations: %w", err)
	}
	return reservations, nil
}
