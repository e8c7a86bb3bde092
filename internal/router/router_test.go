package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classtrack/classtrack-backend/internal/config"
	"github.com/classtrack/classtrack-backend/internal/handler"
	"github.com/classtrack/classtrack-backend/internal/logger"
	"github.com/classtrack/classtrack-backend/internal/model"
	"github.com/classtrack/classtrack-backend/internal/repository"
	"github.com/classtrack/classtrack-backend/internal/service"
	"github.com/classtrack/classtrack-backend/internal/validator"
)

func openTestDB(t *testing.T) *pgxpool.Pool {
	url := os.Getenv("CLASSTRACK_TEST_DB")
	if url == "" {
		url = os.Getenv("DATABASE_URL")
	}
	if url == "" {
		t.Skip("CLASSTRACK_TEST_DB or DATABASE_URL not set")
		return nil
	}
	pool, err := pgxpool.New(context.Background(), url)
	if err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	if err := pool.Ping(context.Background()); err != nil {
		t.Skipf("db unavailable: %v", err)
		return nil
	}
	return pool
}

func cleanTables(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()
	for _, table := range []string{"attendance_records", "attendance_sessions", "users"} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("cleanup %s: %v", table, err)
		}
	}
}

func newTestApp(t *testing.T, pool *pgxpool.Pool, ttl time.Duration) (*httptest.Server, *repository.SessionRepository) {
	cfg := &config.Config{
		GinMode:    "test",
		JWTSecret:  "test-secret",
		BcryptCost: 4,
		SessionTTL: ttl,
	}
	log := logger.Setup("error", "json")
	validator.Setup()

	userRepo := repository.NewUserRepository(pool)
	sessionRepo := repository.NewSessionRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)

	authService := service.NewAuthService(cfg, userRepo)
	userService := service.NewUserService(userRepo)
	sessionService := service.NewSessionService(sessionRepo, cfg.SessionTTL)
	attendanceService := service.NewAttendanceService(attendanceRepo, sessionService, nil, log)

	handlers := &Handlers{
		Auth:       handler.NewAuthHandler(authService, userService),
		Session:    handler.NewSessionHandler(sessionService, attendanceService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		Live:       handler.NewLiveHandler(nil, sessionService, log, nil),
	}

	app := httptest.NewServer(SetupRouter(authService, handlers, cfg, pool, nil))
	t.Cleanup(app.Close)
	return app, sessionRepo
}

func doJSON(t *testing.T, method, url, token string, body interface{}) (*http.Response, map[string]interface{}) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode error: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	defer resp.Body.Close()

	var decoded map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func doJSONList(t *testing.T, url, token string) (*http.Response, []map[string]interface{}) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("http error: %v", err)
	}
	defer resp.Body.Close()

	var decoded []map[string]interface{}
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func registerAndLogin(t *testing.T, baseURL, username, role string) string {
	resp, _ := doJSON(t, http.MethodPost, baseURL+"/auth/register", "", map[string]string{
		"username": username,
		"password": "dev-password",
		"role":     role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d", username, resp.StatusCode)
	}

	resp, body := doJSON(t, http.MethodPost, baseURL+"/auth/login", "", map[string]string{
		"username": username,
		"password": "dev-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d", username, resp.StatusCode)
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatalf("login %s: no token in response", username)
	}
	if body["role"] != role {
		t.Fatalf("login %s: expected role %s, got %v", username, role, body["role"])
	}
	return token
}

func TestAttendanceFlow(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	cleanTables(t, pool)

	app, _ := newTestApp(t, pool, 15*time.Minute)

	teacherToken := registerAndLogin(t, app.URL, "teacher1", "teacher")
	otherToken := registerAndLogin(t, app.URL, "teacher2", "teacher")
	studentToken := registerAndLogin(t, app.URL, "student1", "student")

	// Duplicate registration answers 400.
	resp, _ := doJSON(t, http.MethodPost, app.URL+"/auth/register", "", map[string]string{
		"username": "teacher1", "password": "dev-password", "role": "teacher",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register: expected 400, got %d", resp.StatusCode)
	}

	// Token validation echoes the identity.
	resp, body := doJSON(t, http.MethodGet, app.URL+"/auth/validate", studentToken, nil)
	if resp.StatusCode != http.StatusOK || body["userId"] == "" {
		t.Fatalf("validate: expected 200 with userId, got %d %v", resp.StatusCode, body)
	}

	// Students cannot open sessions.
	resp, _ = doJSON(t, http.MethodPost, app.URL+"/attendanceSession/sessions", studentToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("student create session: expected 403, got %d", resp.StatusCode)
	}

	// Teacher opens a session; code is a 6-digit numeric string and the
	// window is exactly 15 minutes.
	resp, session := doJSON(t, http.MethodPost, app.URL+"/attendanceSession/sessions", teacherToken, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d", resp.StatusCode)
	}
	code, _ := session["code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, session["createdAt"].(string))
	if err != nil {
		t.Fatalf("parse createdAt: %v", err)
	}
	expiresAt, err := time.Parse(time.RFC3339Nano, session["expiresAt"].(string))
	if err != nil {
		t.Fatalf("parse expiresAt: %v", err)
	}
	if got := expiresAt.Sub(createdAt); got != 15*time.Minute {
		t.Fatalf("expected 15m window, got %v", got)
	}
	sessionID := session["id"].(string)

	// Student marks attendance within the window.
	mark := map[string]interface{}{
		"sessionId": code,
		"location":  map[string]float64{"latitude": 48.7887, "longitude": 2.3638},
	}
	resp, _ = doJSON(t, http.MethodPost, app.URL+"/attendance/mark", studentToken, mark)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("mark: expected 201, got %d", resp.StatusCode)
	}

	// A second mark by the same student is rejected.
	resp, body = doJSON(t, http.MethodPost, app.URL+"/attendance/mark", studentToken, mark)
	if resp.StatusCode != http.StatusBadRequest || body["code"] != "ALREADY_MARKED" {
		t.Fatalf("duplicate mark: expected 400 ALREADY_MARKED, got %d %v", resp.StatusCode, body)
	}

	// History joins the session and flips the location back.
	resp, history := doJSONList(t, app.URL+"/attendance/history", studentToken)
	if resp.StatusCode != http.StatusOK || len(history) != 1 {
		t.Fatalf("history: expected 1 entry, got %d %v", resp.StatusCode, history)
	}

	// Teacher's attendance view resolves the student profile and the
	// submitted latitude/longitude order is preserved.
	resp, entries := doJSONList(t, app.URL+"/attendanceSession/sessions/"+sessionID+"/attendance", teacherToken)
	if resp.StatusCode != http.StatusOK || len(entries) != 1 {
		t.Fatalf("session attendance: expected 1 entry, got %d %v", resp.StatusCode, entries)
	}
	loc := entries[0]["location"].(map[string]interface{})
	if loc["latitude"] != 48.7887 || loc["longitude"] != 2.3638 {
		t.Fatalf("location flipped: %v", loc)
	}
	student := entries[0]["studentId"].(map[string]interface{})
	if student["username"] != "student1" {
		t.Fatalf("expected student1 profile, got %v", student)
	}

	// A different teacher cannot see or touch the session.
	resp, _ = doJSON(t, http.MethodPatch, app.URL+"/attendanceSession/sessions/"+sessionID, otherToken,
		map[string]string{"status": "expired"})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-teacher patch: expected 404, got %d", resp.StatusCode)
	}
	resp, _ = doJSON(t, http.MethodGet, app.URL+"/attendanceSession/sessions/"+sessionID+"/attendance", otherToken, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("cross-teacher listing: expected 404, got %d", resp.StatusCode)
	}

	// Owner expires the session; expiresAt is forced to the update time.
	resp, updated := doJSON(t, http.MethodPatch, app.URL+"/attendanceSession/sessions/"+sessionID, teacherToken,
		map[string]string{"status": "expired"})
	if resp.StatusCode != http.StatusOK || updated["status"] != "expired" {
		t.Fatalf("expire: expected 200 expired, got %d %v", resp.StatusCode, updated)
	}
	newExpiry, err := time.Parse(time.RFC3339Nano, updated["expiresAt"].(string))
	if err != nil {
		t.Fatalf("parse forced expiresAt: %v", err)
	}
	if newExpiry.After(time.Now().Add(time.Minute)) {
		t.Fatalf("expiresAt not forced to now: %v", newExpiry)
	}

	// Marking against the expired code now fails, even for a new student.
	lateToken := registerAndLogin(t, app.URL, "student2", "student")
	resp, body = doJSON(t, http.MethodPost, app.URL+"/attendance/mark", lateToken, mark)
	if resp.StatusCode != http.StatusBadRequest || body["code"] != "INVALID_OR_EXPIRED_CODE" {
		t.Fatalf("late mark: expected 400 INVALID_OR_EXPIRED_CODE, got %d %v", resp.StatusCode, body)
	}
}

func TestSoftExpiry(t *testing.T) {
	pool := openTestDB(t)
	if pool == nil {
		return
	}
	defer pool.Close()
	cleanTables(t, pool)

	app, sessionRepo := newTestApp(t, pool, 15*time.Minute)

	teacherToken := registerAndLogin(t, app.URL, "teacher1", "teacher")
	studentToken := registerAndLogin(t, app.URL, "student1", "student")

	// Fetch the teacher's ID through the validate endpoint.
	resp, body := doJSON(t, http.MethodGet, app.URL+"/auth/validate", teacherToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d", resp.StatusCode)
	}
	teacherID, err := uuid.Parse(body["userId"].(string))
	if err != nil {
		t.Fatalf("parse teacher id: %v", err)
	}

	// Plant a session whose window has already passed but whose stored
	// status was never flipped.
	stale := &model.Session{
		ID:        uuid.New(),
		TeacherID: teacherID,
		Code:      "123456",
		Status:    model.SessionActive,
		CreatedAt: time.Now().Add(-30 * time.Minute),
		ExpiresAt: time.Now().Add(-15 * time.Minute),
	}
	if err := sessionRepo.Create(context.Background(), stale); err != nil {
		t.Fatalf("insert stale session: %v", err)
	}

	// The plain list still reports the stored "active" status.
	resp, sessions := doJSONList(t, app.URL+"/attendanceSession/sessions", teacherToken)
	if resp.StatusCode != http.StatusOK || len(sessions) != 1 {
		t.Fatalf("list: expected 1 session, got %d %v", resp.StatusCode, sessions)
	}
	if sessions[0]["status"] != "active" {
		t.Fatalf("soft expiry violated: status rewritten to %v", sessions[0]["status"])
	}

	// But code resolution refuses the stale window.
	resp, body = doJSON(t, http.MethodPost, app.URL+"/attendance/mark", studentToken, map[string]interface{}{
		"sessionId": "123456",
		"location":  map[string]float64{"latitude": 1, "longitude": 2},
	})
	if resp.StatusCode != http.StatusBadRequest || body["code"] != "INVALID_OR_EXPIRED_CODE" {
		t.Fatalf("stale mark: expected 400 INVALID_OR_EXPIRED_CODE, got %d %v", resp.StatusCode, body)
	}
}
