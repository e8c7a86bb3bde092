package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Location is a geographic coordinate as exposed on the API.
//
// Storage order is the opposite: records persist a Postgres point holding
// (longitude, latitude), so conversion must flip the pair in both
// directions. No plausibility or boundary check is applied anywhere;
// the submitted value is recorded as-is.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ToPoint converts the location into its stored (longitude, latitude) form.
func (l Location) ToPoint() pgtype.Point {
	return pgtype.Point{
		P:     pgtype.Vec2{X: l.Longitude, Y: l.Latitude},
		Valid: true,
	}
}

// LocationFromPoint flips a stored point back into API (latitude, longitude) order.
func LocationFromPoint(p pgtype.Point) Location {
	return Location{
		Latitude:  p.P.Y,
		Longitude: p.P.X,
	}
}

// AttendanceRecord is the durable proof that a student marked presence
// for a session. At most one record exists per (student, session) pair.
type AttendanceRecord struct {
	ID        uuid.UUID `json:"id"`
	StudentID uuid.UUID `json:"studentId"`
	SessionID uuid.UUID `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Location  Location  `json:"location"`
}

// MarkAttendanceRequest is the payload for marking attendance.
// SessionID carries the 6-digit session code, not a session row ID.
type MarkAttendanceRequest struct {
	SessionID string    `json:"sessionId" binding:"required,len=6,numeric"`
	Location  *Location `json:"location" binding:"required"`
}

// HistoryEntry is an attendance record joined with its session, as
// returned by a student's history listing. The session replaces the
// bare sessionId field in the wire format.
type HistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	Session   Session   `json:"sessionId"`
	Timestamp time.Time `json:"timestamp"`
	Location  Location  `json:"location"`
}

// SessionAttendanceEntry is an attendance record joined with the
// submitting student's public profile, as returned to the owning teacher.
type SessionAttendanceEntry struct {
	ID        uuid.UUID     `json:"id"`
	SessionID uuid.UUID     `json:"sessionId"`
	Student   PublicProfile `json:"studentId"`
	Timestamp time.Time     `json:"timestamp"`
	Location  Location      `json:"location"`
}
