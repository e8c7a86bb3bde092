package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classtrack/classtrack-backend/internal/middleware"
	"github.com/classtrack/classtrack-backend/internal/model"
	"github.com/classtrack/classtrack-backend/internal/response"
	"github.com/classtrack/classtrack-backend/internal/service"
	"github.com/classtrack/classtrack-backend/internal/validator"
)

// AttendanceHandler handles student-facing attendance endpoints.
type AttendanceHandler struct {
	attendanceService *service.AttendanceService
}

// NewAttendanceHandler creates a new AttendanceHandler.
func NewAttendanceHandler(attendanceService *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: attendanceService}
}

// Mark godoc
// POST /attendance/mark
// Records the caller's presence against the session identified by the
// submitted 6-digit code. The location is captured as-is.
func (h *AttendanceHandler) Mark(c *gin.Context) {
	user := middleware.CurrentUser(c)

	var req model.MarkAttendanceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	_, err := h.attendanceService.Mark(c.Request.Context(), user.ID, req.SessionID, *req.Location)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidOrExpiredCode):
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidOrExpiredCode)
		case errors.Is(err, service.ErrAlreadyMarked):
			response.Fail(c, http.StatusBadRequest, response.ErrAlreadyMarked)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Attendance marked successfully"})
}

// History godoc
// GET /attendance/history
// Lists the caller's attendance records joined with their sessions,
// newest first.
func (h *AttendanceHandler) History(c *gin.Context) {
	user := middleware.CurrentUser(c)

	entries, err := h.attendanceService.History(c.Request.Context(), user.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.JSON(http.StatusOK, entries)
}
