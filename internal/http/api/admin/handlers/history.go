package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/history"
	"gorm.io/gorm"
)

// HistoryHandler exposes the catalog change log.
type HistoryHandler struct {
	db *gorm.DB
}

// NewHistoryHandler constructs a HistoryHandler.
func NewHistoryHandler(db *gorm.DB) *HistoryHandler {
	return &HistoryHandler{db: db}
}

// List returns recent changes, optionally filtered by entity and entity_id.
func (h *HistoryHandler) List(c *gin.Context) {
	var (
		entity   = strings.TrimSpace(c.Query("entity"))
		idStr    = strings.TrimSpace(c.Query("entity_id"))
		limitStr = strings.TrimSpace(c.Query("limit"))
	)

	var entityID uint64
	if idStr != "" {
		id, errParse := strconv.ParseUint(idStr, 10, 64)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entity_id"})
			return
		}
		entityID = id
	}
	limit := 0
	if limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			limit = v
		}
	}

	rows, errList := history.List(c.Request.Context(), h.db, entity, entityID, limit)
	if errList != nil {
		respondError(c, "list history", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": rows})
}
