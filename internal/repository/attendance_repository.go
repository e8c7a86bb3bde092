package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classtrack/classtrack-backend/internal/model"
)

// ErrDuplicateRecord is returned when the (student, session) pair already
// has a record. The unique index raises this even when two marks race past
// the existence check concurrently.
var ErrDuplicateRecord = errors.New("attendance record already exists for this student and session")

// AttendanceRepository handles attendance record data access.
type AttendanceRepository struct {
	pool *pgxpool.Pool
}

// NewAttendanceRepository creates a new AttendanceRepository.
func NewAttendanceRepository(pool *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// Create inserts a new attendance record. The location is persisted as a
// point in (longitude, latitude) order.
func (r *AttendanceRepository) Create(ctx context.Context, rec *model.AttendanceRecord) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO attendance_records (id, student_id, session_id, location)
		 VALUES ($1, $2, $3, $4)
		 RETURNING marked_at`,
		rec.ID, rec.StudentID, rec.SessionID, rec.Location.ToPoint(),
	).Scan(&rec.Timestamp)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// Exists reports whether a record already exists for the pair.
func (r *AttendanceRepository) Exists(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM attendance_records WHERE student_id = $1 AND session_id = $2
		 )`, studentID, sessionID,
	).Scan(&exists)
	return exists, err
}

// ListByStudent retrieves a student's records joined with their sessions,
// newest mark first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]model.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.marked_at, a.location,
		        s.id, s.teacher_id, s.code, s.status, s.created_at, s.expires_at
		 FROM attendance_records a
		 JOIN attendance_sessions s ON s.id = a.session_id
		 WHERE a.student_id = $1
		 ORDER BY a.marked_at DESC`, studentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var p pgtype.Point
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &p,
			&e.Session.ID, &e.Session.TeacherID, &e.Session.Code,
			&e.Session.Status, &e.Session.CreatedAt, &e.Session.ExpiresAt,
		); err != nil {
			return nil, err
		}
		e.Location = model.LocationFromPoint(p)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListBySession retrieves a session's records joined with each submitting
// student's public profile, newest mark first. The inner join plus the
// role filter silently drops records whose student cannot be resolved to
// a student account, matching the dangling-reference behavior of the
// teacher-facing listing.
func (r *AttendanceRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.SessionAttendanceEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT a.id, a.session_id, a.marked_at, a.location,
		        u.id, u.username, COALESCE(u.email, '')
		 FROM attendance_records a
		 JOIN users u ON u.id = a.student_id AND u.role = $2
		 WHERE a.session_id = $1
		 ORDER BY a.marked_at DESC`, sessionID, model.RoleStudent,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.SessionAttendanceEntry
	for rows.Next() {
		var e model.SessionAttendanceEntry
		var p pgtype.Point
		if err := rows.Scan(
			&e.ID, &e.SessionID, &e.Timestamp, &p,
			&e.Student.ID, &e.Student.Username, &e.Student.Email,
		); err != nil {
			return nil, err
		}
		e.Location = model.LocationFromPoint(p)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
