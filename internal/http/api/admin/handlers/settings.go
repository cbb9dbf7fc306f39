package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/cache"
	"github.com/picklesmaker/pickles/internal/history"
	"github.com/picklesmaker/pickles/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SettingsHandler manages DB-backed runtime settings.
type SettingsHandler struct {
	db      *gorm.DB
	reports cache.ReportCache
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB, reports cache.ReportCache) *SettingsHandler {
	if reports == nil {
		reports = cache.Nop{}
	}
	return &SettingsHandler{db: db, reports: reports}
}

// List returns each stored setting with who changed it last, plus the
// accepted keys.
func (h *SettingsHandler) List(c *gin.Context) {
	rows, errRows := settings.Rows(c.Request.Context(), h.db)
	if errRows != nil {
		log.WithError(errRows).Error("settings: list failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list settings failed"})
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, row := range rows {
		out = append(out, gin.H{
			"key":        row.Key,
			"value":      json.RawMessage(row.Value),
			"updated_by": row.UpdatedBy,
			"updated_at": row.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"settings":   out,
		"keys":       settings.KnownKeys(),
		"updated_at": settings.DBConfigUpdatedAt(),
	})
}

type putSettingRequest struct {
	Value json.RawMessage `json:"value"`
}

// Put stores one setting. Numeric settings must be non-negative integers.
func (h *SettingsHandler) Put(c *gin.Context) {
	key, ok := settingKey(c)
	if !ok {
		return
	}
	var body putSettingRequest
	if !bindJSON(c, &body) {
		return
	}
	if len(body.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing value"})
		return
	}
	if !settings.ValidValue(key, body.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value for " + key})
		return
	}

	ctx := c.Request.Context()
	if errUpsert := settings.Upsert(ctx, h.db, key, body.Value, history.ActorFrom(ctx)); errUpsert != nil {
		log.WithError(errUpsert).WithField("key", key).Error("settings: upsert failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save setting failed"})
		return
	}
	h.invalidate(c)
	c.JSON(http.StatusOK, gin.H{"key": key, "value": body.Value})
}

// Delete removes a setting, restoring its default.
func (h *SettingsHandler) Delete(c *gin.Context) {
	key, ok := settingKey(c)
	if !ok {
		return
	}
	if errDelete := settings.Delete(c.Request.Context(), h.db, key); errDelete != nil {
		log.WithError(errDelete).WithField("key", key).Error("settings: delete failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete setting failed"})
		return
	}
	h.invalidate(c)
	c.Status(http.StatusNoContent)
}

func (h *SettingsHandler) invalidate(c *gin.Context) {
	if errInvalidate := h.reports.Invalidate(c.Request.Context()); errInvalidate != nil {
		log.WithError(errInvalidate).Warn("settings: invalidate report cache")
	}
}

// settingKey reads and checks the :key path parameter.
func settingKey(c *gin.Context) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(c.Param("key")))
	if !settings.IsKnownKey(key) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown setting"})
		return "", false
	}
	return key, true
}
