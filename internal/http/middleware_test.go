package http

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/picklesmaker/pickles/internal/config"
	"github.com/picklesmaker/pickles/internal/history"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/security"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func setupMiddlewareTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:middleware_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, errOpen := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open db: %v", errOpen)
	}
	if errMigrate := db.AutoMigrate(&models.Admin{}); errMigrate != nil {
		t.Fatalf("migrate db: %v", errMigrate)
	}
	return db
}

func runRequestWithMiddleware(t *testing.T, middleware gin.HandlerFunc, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware)
	var actor string
	router.GET("/*path", func(c *gin.Context) {
		actor = history.ActorFrom(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	responseRecorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v0/admin/brands", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(responseRecorder, req)

	return responseRecorder, actor
}

func TestAdminAuthMiddlewareRejectsMissingHeader(t *testing.T) {
	db := setupMiddlewareTestDB(t)

	responseRecorder, _ := runRequestWithMiddleware(t, AdminAuthMiddleware(db, config.JWTConfig{Secret: testSecret}), "")

	if responseRecorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", responseRecorder.Code)
	}
}

func TestAdminAuthMiddlewareRejectsBadScheme(t *testing.T) {
	db := setupMiddlewareTestDB(t)

	responseRecorder, _ := runRequestWithMiddleware(t, AdminAuthMiddleware(db, config.JWTConfig{Secret: testSecret}), "Basic abc")

	if responseRecorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", responseRecorder.Code)
	}
}

func TestAdminAuthMiddlewareAcceptsValidToken(t *testing.T) {
	db := setupMiddlewareTestDB(t)
	admin := models.Admin{Username: "editor", Password: "x", Active: true}
	if errCreate := db.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	token, errToken := security.GenerateAdminToken(testSecret, admin.ID, admin.Username, time.Hour)
	if errToken != nil {
		t.Fatalf("generate token: %v", errToken)
	}

	responseRecorder, actor := runRequestWithMiddleware(t, AdminAuthMiddleware(db, config.JWTConfig{Secret: testSecret}), "Bearer "+token)

	if responseRecorder.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", responseRecorder.Code)
	}
	if actor != "editor" {
		t.Fatalf("expected history actor editor, got %q", actor)
	}
}

func TestAdminAuthMiddlewareRejectsDisabledAdmin(t *testing.T) {
	db := setupMiddlewareTestDB(t)
	admin := models.Admin{Username: "former", Password: "x", Active: true}
	if errCreate := db.Create(&admin).Error; errCreate != nil {
		t.Fatalf("create admin: %v", errCreate)
	}
	if errUpdate := db.Model(&admin).Update("active", false).Error; errUpdate != nil {
		t.Fatalf("disable admin: %v", errUpdate)
	}
	token, _ := security.GenerateAdminToken(testSecret, admin.ID, admin.Username, time.Hour)

	responseRecorder, _ := runRequestWithMiddleware(t, AdminAuthMiddleware(db, config.JWTConfig{Secret: testSecret}), "Bearer "+token)

	if responseRecorder.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", responseRecorder.Code)
	}
}

func TestRequestIDMiddlewareAssignsID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestIDMiddleware(), RequestLogMiddleware())
	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })

	responseRecorder := httptest.NewRecorder()
	router.ServeHTTP(responseRecorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := responseRecorder.Header().Get(RequestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid request id, got %q", got)
	}

	responseRecorder = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	router.ServeHTTP(responseRecorder, req)
	if got := responseRecorder.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}
