package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tripledoble/internal/models"
)

const userColumns = `id, auth_id, telegram_id, name, phone, email, role, is_member,
                 membership_expiry, last_activity, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	u := &models.User{}
	var expiry, activity sql.NullTime
	err := row.Scan(
		&u.ID, &u.AuthID, &u.TelegramID, &u.Name, &u.Phone, &u.Email,
		&u.Role, &u.IsMember, &expiry, &activity, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if expiry.Valid {
		u.MembershipExpiry = expiry.Time
	}
	if activity.Valid {
		u.LastActivity = activity.Time
	}
	return u, nil
}

// CreateOrUpdateUser upserts by auth_id when present, otherwise by
// telegram_id. A non-empty stored phone is kept when the update has none.
func (db *DB) CreateOrUpdateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	lastActivity := user.LastActivity
	if lastActivity.IsZero() {
		lastActivity = now
	}

	var expiry interface{}
	if !user.MembershipExpiry.IsZero() {
		expiry = user.MembershipExpiry
	}

	// Уникальность задана частичными индексами, поэтому цель ON CONFLICT
	// обязана повторять их предикат.
	conflictTarget := `(auth_id) WHERE auth_id != ''`
	if user.AuthID == "" {
		conflictTarget = `(telegram_id) WHERE telegram_id != 0`
	}
	query := fmt.Sprintf(`INSERT INTO users (
				auth_id, telegram_id, name, phone, email, role,
				is_member, membership_expiry, last_activity, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT%s DO UPDATE SET
                name = excluded.name,
                phone = CASE WHEN excluded.phone != '' THEN excluded.phone ELSE phone END,
                email = excluded.email,
                role = excluded.role,
                is_member = excluded.is_member,
                membership_expiry = excluded.membership_expiry,
                last_activity = excluded.last_activity,
                updated_at = excluded.updated_at`, conflictTarget)

	_, err := db.ExecContext(ctx, query,
		user.AuthID,
		user.TelegramID,
		user.Name,
		user.Phone,
		user.Email,
		user.Role,
		user.IsMember,
		expiry,
		lastActivity,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create or update user: %w", err)
	}
	return nil
}

func (db *DB) GetUserByAuthID(ctx context.Context, authID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE auth_id = ?`
	return scanUser(db.QueryRowContext(ctx, query, authID))
}

func (db *DB) GetUserByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = ?`
	return scanUser(db.QueryRowContext(ctx, query, telegramID))
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(db.QueryRowContext(ctx, query, id))
}

func (db *DB) UpdateUserRole(ctx context.Context, authID, role string) error {
	query := `UPDATE users SET role = ?, updated_at = ? WHERE auth_id = ?`
	result, err := db.ExecContext(ctx, query, role, time.Now(), authID)
	if err != nil {
		return fmt.Errorf("failed to update user role: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUserMembership(ctx context.Context, authID string, isMember bool, expiry time.Time) error {
	var exp interface{}
	if !expiry.IsZero() {
		exp = expiry
	}
	query := `UPDATE users SET is_member = ?, membership_expiry = ?, updated_at = ? WHERE auth_id = ?`
	result, err := db.ExecContext(ctx, query, isMember, exp, time.Now(), authID)
	if err != nil {
		return fmt.Errorf("failed to update user membership: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) UpdateUserActivity(ctx context.Context, authID string) error {
	query := `UPDATE users SET last_activity = ?, updated_at = ? WHERE auth_id = ?`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, now, now, authID)
	return err
}

func (db *DB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY last_activity DESC`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all users: %w", err)
	}
	return collectUsers(rows)
}

func (db *DB) GetUsersByRole(ctx context.Context, role string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = ? ORDER BY last_activity DESC`
	rows, err := db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to get users by role: %w", err)
	}
	return collectUsers(rows)
}

func (db *DB) GetActiveUsers(ctx context.Context, days int) ([]*models.User, error) {
	since := time.Now().AddDate(0, 0, -days)
	query := `SELECT ` + userColumns + ` FROM users WHERE last_activity >= ? ORDER BY last_activity DESC`
	rows, err := db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to get active users: %w", err)
	}
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*models.User, error) {
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}
	return users, nil
}
