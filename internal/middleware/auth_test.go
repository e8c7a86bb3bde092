package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classtrack/classtrack-backend/internal/config"
	"github.com/classtrack/classtrack-backend/internal/model"
	"github.com/classtrack/classtrack-backend/internal/service"
)

type fixedResolver struct {
	user *model.User
}

func (f *fixedResolver) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	if f.user != nil && f.user.ID == id {
		return f.user, nil
	}
	return nil, errors.New("no rows")
}

func newTestRouter(authService *service.AuthService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(authService), func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user in context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"username": user.Username})
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	teacher := &model.User{ID: uuid.New(), Username: "prof", Role: model.RoleTeacher}
	authService := service.NewAuthService(
		&config.Config{JWTSecret: "test-secret"},
		&fixedResolver{user: teacher},
	)
	r := newTestRouter(authService)

	token, err := authService.GenerateToken(teacher)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	// Missing token.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Garbage token.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}

	// Valid token in header.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Valid token via query fallback (WebSocket clients).
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/protected?token="+token, nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 via query token, got %d", w.Code)
	}
}

func TestRequireAuthUnknownUser(t *testing.T) {
	authService := service.NewAuthService(
		&config.Config{JWTSecret: "test-secret"},
		&fixedResolver{},
	)
	r := newTestRouter(authService)

	// Token signed correctly but subject no longer resolves.
	ghost := &model.User{ID: uuid.New(), Role: model.RoleStudent}
	token, err := authService.GenerateToken(ghost)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
