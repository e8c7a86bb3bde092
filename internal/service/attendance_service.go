package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/classtrack/classtrack-backend/internal/config"
	"github.com/classtrack/classtrack-backend/internal/metrics"
	"github.com/classtrack/classtrack-backend/internal/model"
	"github.com/classtrack/classtrack-backend/internal/repository"
)

// Attendance marking errors.
var (
	ErrInvalidOrExpiredCode = errors.New("invalid or expired session code")
	ErrAlreadyMarked        = errors.New("attendance already marked for this session")
)

// AttendanceService handles attendance marking and listing. Session
// lookups go through the SessionService so its resolution and ownership
// rules apply here unchanged.
type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
	sessions       *SessionService
	rdb            *redis.Client
	log            zerolog.Logger
}

// NewAttendanceService creates a new AttendanceService. rdb may be nil,
// in which case live-feed publishing is disabled.
func NewAttendanceService(
	attendanceRepo *repository.AttendanceRepository,
	sessions *SessionService,
	rdb *redis.Client,
	log zerolog.Logger,
) *AttendanceService {
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		sessions:       sessions,
		rdb:            rdb,
		log:            log.With().Str("component", "attendance_service").Logger(),
	}
}

// Mark records a student's presence against the session identified by
// code. The existence check gives the friendly already-marked answer;
// the unique index backstops it so two concurrent marks for the same
// pair cannot both land.
func (s *AttendanceService) Mark(ctx context.Context, studentID uuid.UUID, code string, loc model.Location) (*model.AttendanceRecord, error) {
	session, err := s.sessions.ResolveActiveByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			metrics.AttendanceRejected.WithLabelValues("invalid_code").Inc()
			return nil, ErrInvalidOrExpiredCode
		}
		return nil, err
	}

	exists, err := s.attendanceRepo.Exists(ctx, studentID, session.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		metrics.AttendanceRejected.WithLabelValues("already_marked").Inc()
		return nil, ErrAlreadyMarked
	}

	record := &model.AttendanceRecord{
		ID:        uuid.New(),
		StudentID: studentID,
		SessionID: session.ID,
		Location:  loc,
	}
	if err := s.attendanceRepo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			metrics.AttendanceRejected.WithLabelValues("already_marked").Inc()
			return nil, ErrAlreadyMarked
		}
		return nil, err
	}

	metrics.AttendanceMarked.Inc()
	s.publishMark(ctx, record)

	return record, nil
}

// publishMark pushes the new record onto the session's live feed.
// Feed delivery is best effort; a publish failure never fails the mark.
func (s *AttendanceService) publishMark(ctx context.Context, record *model.AttendanceRecord) {
	if s.rdb == nil {
		return
	}

	payload, err := json.Marshal(record)
	if err != nil {
		s.log.Error().Err(err).Msg("Marshal live feed payload failed")
		return
	}

	channel := config.SessionFeedChannel(record.SessionID)
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Str("channel", channel).Msg("Live feed publish failed")
	}
}

// History retrieves a student's attendance records joined with their
// sessions, newest first.
func (s *AttendanceService) History(ctx context.Context, studentID uuid.UUID) ([]model.HistoryEntry, error) {
	entries, err := s.attendanceRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return entries, nil
}

// ListForSession retrieves the records of a session the caller owns,
// joined with each student's public profile.
func (s *AttendanceService) ListForSession(ctx context.Context, teacherID, sessionID uuid.UUID) ([]model.SessionAttendanceEntry, error) {
	session, err := s.sessions.GetOwned(ctx, sessionID, teacherID)
	if err != nil {
		return nil, err
	}

	entries, err := s.attendanceRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.SessionAttendanceEntry{}
	}
	return entries, nil
}
