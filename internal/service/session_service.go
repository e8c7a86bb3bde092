package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/classtrack/classtrack-backend/internal/metrics"
	"github.com/classtrack/classtrack-backend/internal/model"
	"github.com/classtrack/classtrack-backend/internal/repository"
)

// ErrTeacherOnly is returned when a non-teacher attempts a teacher-only
// operation such as creating a session.
var ErrTeacherOnly = errors.New("only teachers can create sessions")

// SessionService handles attendance session business logic.
type SessionService struct {
	sessionRepo *repository.SessionRepository
	ttl         time.Duration
}

// NewSessionService creates a new SessionService. ttl is the attendance
// window length applied to every new session.
func NewSessionService(sessionRepo *repository.SessionRepository, ttl time.Duration) *SessionService {
	return &SessionService{sessionRepo: sessionRepo, ttl: ttl}
}

// generateCode returns a random 6-digit decimal code (100000-999999).
// Codes are not checked for collisions against other active sessions;
// two live sessions may in principle share a code and resolution will
// pick one of them.
func generateCode() string {
	return fmt.Sprintf("%06d", 100000+rand.IntN(900000))
}

// newSession builds a session for a teacher at the given instant.
// expiresAt is pinned to createdAt + ttl and never moves again except
// through an explicit status flip to expired.
func newSession(teacherID uuid.UUID, now time.Time, ttl time.Duration) *model.Session {
	return &model.Session{
		ID:        uuid.New(),
		TeacherID: teacherID,
		Code:      generateCode(),
		Status:    model.SessionActive,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Create opens a new attendance session owned by the calling teacher.
func (s *SessionService) Create(ctx context.Context, caller *model.User) (*model.Session, error) {
	if caller.Role != model.RoleTeacher {
		return nil, ErrTeacherOnly
	}

	session := newSession(caller.ID, time.Now(), s.ttl)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	metrics.SessionsCreated.Inc()
	return session, nil
}

// ListByTeacher retrieves all sessions owned by a teacher, newest first.
func (s *SessionService) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]model.Session, error) {
	sessions, err := s.sessionRepo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	return sessions, nil
}

// GetOwned retrieves a session scoped to its owning teacher.
func (s *SessionService) GetOwned(ctx context.Context, sessionID, teacherID uuid.UUID) (*model.Session, error) {
	return s.sessionRepo.GetOwned(ctx, sessionID, teacherID)
}

// UpdateStatus flips a session's status, owner-scoped. Flipping to
// expired also closes the attendance window by forcing expiresAt to now.
func (s *SessionService) UpdateStatus(ctx context.Context, sessionID, teacherID uuid.UUID, status model.SessionStatus) (*model.Session, error) {
	expireNow := status == model.SessionExpired
	return s.sessionRepo.UpdateStatus(ctx, sessionID, teacherID, status, expireNow)
}

// ResolveActiveByCode finds the live session for a submitted code.
func (s *SessionService) ResolveActiveByCode(ctx context.Context, code string) (*model.Session, error) {
	return s.sessionRepo.FindActiveByCode(ctx, code)
}
