package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/config"
	"github.com/picklesmaker/pickles/internal/history"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/security"
	"gorm.io/gorm"
)

// AdminAuthMiddleware admits requests carrying a valid admin bearer token.
// It sets adminID and adminUsername on the gin context and makes the
// username the history actor for every catalog write in the request.
func AdminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		token, problem := bearerToken(c.GetHeader("Authorization"))
		if problem != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": problem})
			return
		}
		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errors.Is(errJWT, security.ErrExpiredToken) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			return
		}
		if errJWT != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		// The account may have been disabled or removed since the token was issued.
		var admin models.Admin
		errFind := db.WithContext(c.Request.Context()).
			Select("id", "username", "active").
			First(&admin, claims.AdminID).Error
		switch {
		case errFind != nil:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		case !admin.Active:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin account is disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Set("adminUsername", admin.Username)
		c.Request = c.Request.WithContext(history.WithActor(c.Request.Context(), admin.Username))
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header. A non-empty
// problem describes why the header was rejected.
func bearerToken(header string) (token string, problem string) {
	if header == "" {
		return "", "missing authorization header"
	}
	rest, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", "invalid authorization format"
	}
	if token = strings.TrimSpace(rest); token == "" {
		return "", "empty token"
	}
	return token, ""
}
