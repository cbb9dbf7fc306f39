package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/config"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuthHandler issues admin API tokens to catalog editors.
type AuthHandler struct {
	db     *gorm.DB
	jwtCfg config.JWTConfig
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, jwtCfg config.JWTConfig) *AuthHandler {
	return &AuthHandler{db: db, jwtCfg: jwtCfg}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges editor credentials for a bearer token.
func (h *AuthHandler) Login(c *gin.Context) {
	var body loginRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	username, password := strings.TrimSpace(body.Username), strings.TrimSpace(body.Password)
	if username == "" || password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	admin, status := h.authenticate(c.Request.Context(), username, password)
	switch status {
	case http.StatusOK:
	case http.StatusForbidden:
		c.JSON(status, gin.H{"error": "admin account is disabled"})
		return
	default:
		c.JSON(status, gin.H{"error": "invalid credentials"})
		return
	}

	token, errToken := security.GenerateAdminToken(h.jwtCfg.Secret, admin.ID, admin.Username, h.jwtCfg.Expiry)
	if errToken != nil {
		log.WithError(errToken).Error("admin login: sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	loginAt := time.Now().UTC()
	if errUpdate := h.db.WithContext(c.Request.Context()).Model(admin).UpdateColumn("last_login_at", loginAt).Error; errUpdate != nil {
		log.WithError(errUpdate).WithField("admin", admin.Username).Warn("admin login: record last login")
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int64(h.jwtCfg.Expiry.Seconds()),
		"admin": gin.H{
			"id":            admin.ID,
			"username":      admin.Username,
			"last_login_at": loginAt,
		},
	})
}

// authenticate checks a username and password. Unknown users and wrong
// passwords both yield 401 so responses do not reveal which names exist.
func (h *AuthHandler) authenticate(ctx context.Context, username, password string) (*models.Admin, int) {
	var admin models.Admin
	if errFind := h.db.WithContext(ctx).Where("username = ?", username).First(&admin).Error; errFind != nil {
		return nil, http.StatusUnauthorized
	}
	if !security.CheckPassword(admin.Password, password) {
		return nil, http.StatusUnauthorized
	}
	if !admin.Active {
		return nil, http.StatusForbidden
	}
	return &admin, http.StatusOK
}

// Me returns the admin bound to the request token.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"id":       c.GetUint64("adminID"),
		"username": c.GetString("adminUsername"),
	})
}
