package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classtrack/classtrack-backend/internal/middleware"
	"github.com/classtrack/classtrack-backend/internal/model"
	"github.com/classtrack/classtrack-backend/internal/repository"
	"github.com/classtrack/classtrack-backend/internal/response"
	"github.com/classtrack/classtrack-backend/internal/service"
	"github.com/classtrack/classtrack-backend/internal/validator"
)

// SessionHandler handles teacher-facing attendance session endpoints.
type SessionHandler struct {
	sessionService    *service.SessionService
	attendanceService *service.AttendanceService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService, attendanceService *service.AttendanceService) *SessionHandler {
	return &SessionHandler{
		sessionService:    sessionService,
		attendanceService: attendanceService,
	}
}

// Create godoc
// POST /attendanceSession/sessions
// Opens a new attendance session for the calling teacher.
func (h *SessionHandler) Create(c *gin.Context) {
	user := middleware.CurrentUser(c)

	session, err := h.sessionService.Create(c.Request.Context(), user)
	if err != nil {
		if errors.Is(err, service.ErrTeacherOnly) {
			response.Fail(c, http.StatusForbidden, response.ErrTeacherOnly)
			return
		}
		response.Fail(c, http.StatusBadRequest, response.ErrValidation)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// List godoc
// GET /attendanceSession/sessions
// Lists the caller's sessions, newest first. Stored status is returned
// as-is; nothing is rewritten at read time.
func (h *SessionHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	sessions, err := h.sessionService.ListByTeacher(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// UpdateStatus godoc
// PATCH /attendanceSession/sessions/:id
// Flips a session's status. A session that is absent, not owned by the
// caller, or addressed by a malformed ID all answer 404.
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	user := middleware.CurrentUser(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	var req model.UpdateSessionStatusRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	session, err := h.sessionService.UpdateStatus(c.Request.Context(), sessionID, user.ID, req.Status)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, session)
}

// ListAttendance godoc
// GET /attendanceSession/sessions/:id/attendance
// Lists a session's attendance records for the owning teacher, each
// joined with the student's public profile and the location flattened
// back to latitude/longitude order.
func (h *SessionHandler) ListAttendance(c *gin.Context) {
	user := middleware.CurrentUser(c)

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	entries, err := h.attendanceService.ListForSession(c.Request.Context(), user.ID, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, entries)
}
