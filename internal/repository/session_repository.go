package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classtrack/classtrack-backend/internal/model"
)

// ErrSessionNotFound is returned when a session does not exist or is not
// owned by the requesting teacher. The two cases are indistinguishable on
// purpose so callers cannot probe for other teachers' sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository handles attendance session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new session.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO attendance_sessions (id, teacher_id, code, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.TeacherID, s.Code, s.Status, s.CreatedAt, s.ExpiresAt,
	)
	return err
}

// ListByTeacher retrieves all sessions owned by a teacher, newest first.
// The stored status is returned untouched: a session past its expiresAt
// still reads "active" here until the owner flips it (soft expiry).
func (r *SessionRepository) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, teacher_id, code, status, created_at, expires_at
		 FROM attendance_sessions
		 WHERE teacher_id = $1
		 ORDER BY created_at DESC`, teacherID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		var s model.Session
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.Code, &s.Status, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// GetOwned retrieves a session by ID scoped to its owning teacher.
func (r *SessionRepository) GetOwned(ctx context.Context, sessionID, teacherID uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, code, status, created_at, expires_at
		 FROM attendance_sessions
		 WHERE id = $1 AND teacher_id = $2`, sessionID, teacherID,
	).Scan(&s.ID, &s.TeacherID, &s.Code, &s.Status, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// UpdateStatus sets a session's status, owner-scoped. When expireNow is
// true the expiresAt is force-set to the database's current time, which
// is how an explicit expiry closes the attendance window immediately.
func (r *SessionRepository) UpdateStatus(ctx context.Context, sessionID, teacherID uuid.UUID, status model.SessionStatus, expireNow bool) (*model.Session, error) {
	query := `UPDATE attendance_sessions SET status = $1 WHERE id = $2 AND teacher_id = $3
		 RETURNING id, teacher_id, code, status, created_at, expires_at`
	if expireNow {
		query = `UPDATE attendance_sessions SET status = $1, expires_at = now() WHERE id = $2 AND teacher_id = $3
		 RETURNING id, teacher_id, code, status, created_at, expires_at`
	}

	s := &model.Session{}
	err := r.pool.QueryRow(ctx, query, status, sessionID, teacherID).
		Scan(&s.ID, &s.TeacherID, &s.Code, &s.Status, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}

// FindActiveByCode resolves a session whose code matches, whose stored
// status is active, and whose expiry has not passed. Returns
// ErrSessionNotFound when nothing matches; the attendance service maps
// that to its invalid-or-expired-code error.
func (r *SessionRepository) FindActiveByCode(ctx context.Context, code string) (*model.Session, error) {
	s := &model.Session{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, teacher_id, code, status, created_at, expires_at
		 FROM attendance_sessions
		 WHERE code = $1 AND status = $2 AND expires_at > now()`,
		code, model.SessionActive,
	).Scan(&s.ID, &s.TeacherID, &s.Code, &s.Status, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s, nil
}
