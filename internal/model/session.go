package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle state of an attendance session.
// The only transition is active -> expired, and it is one-way.
type SessionStatus string

const (
	SessionActive  SessionStatus = "active"
	SessionExpired SessionStatus = "expired"
)

// Session is a short-lived attendance window owned by a single teacher.
//
// Expiry is soft: a session past its ExpiresAt is excluded from code
// resolution but its stored Status stays "active" until the owner
// explicitly flips it. Listings return the stored status untouched.
type Session struct {
	ID        uuid.UUID     `json:"id"`
	TeacherID uuid.UUID     `json:"teacherId"`
	Code      string        `json:"code"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

// UpdateSessionStatusRequest is the payload for PATCHing a session's status.
type UpdateSessionStatusRequest struct {
	Status SessionStatus `json:"status" binding:"required,oneof=active expired"`
}
