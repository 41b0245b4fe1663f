package models

import "time"

// User mirrors the identity/membership profile kept by the auth collaborator.
type User struct {
	ID               int64     `json:"id"`
	AuthID           string    `json:"auth_id"` // opaque id from the identity provider
	TelegramID       int64     `json:"telegram_id,omitempty"`
	Name             string    `json:"name"`
	Email            string    `json:"email,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	Role             string    `json:"role"` // admin, user
	IsMember         bool      `json:"is_member"`
	MembershipExpiry time.Time `json:"membership_expiry,omitempty"`
	LastActivity     time.Time `json:"last_activity"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MembershipActive reports whether the user has a member discount at the
// given instant. A zero expiry on a member means no expiration date.
func (u *User) MembershipActive(now time.Time) bool {
	if !u.IsMember {
		return false
	}
	if u.MembershipExpiry.IsZero() {
		return true
	}
	return now.Before(u.MembershipExpiry)
}
