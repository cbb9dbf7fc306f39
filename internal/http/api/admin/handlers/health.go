package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/models"
	"gorm.io/gorm"
)

// HealthHandler reports whether the catalog database is reachable.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Healthz pings the database and reports catalog row counts so an empty
// catalog is visible before any maker request fails.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx := c.Request.Context()
	dialect := h.db.Dialector.Name()
	sqlDB, errDB := h.db.DB()
	if errDB == nil {
		errDB = sqlDB.PingContext(ctx)
	}
	if errDB != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": dialect})
		return
	}

	catalog := gin.H{}
	for name, model := range map[string]any{
		"brands": &models.Brand{},
		"rules":  &models.Rule{},
		"blurbs": &models.ContentItem{},
	} {
		var n int64
		if errCount := h.db.WithContext(ctx).Model(model).Count(&n).Error; errCount != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "database": dialect})
			return
		}
		catalog[name] = n
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "database": dialect, "catalog": catalog})
}
