package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/bulk"
	"github.com/picklesmaker/pickles/internal/util"
	log "github.com/sirupsen/logrus"
)

// respondError maps bulk failures onto HTTP responses.
func respondError(c *gin.Context, op string, err error) {
	var bulkErr *bulk.Error
	if errors.As(err, &bulkErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(bulkErr, bulk.ErrInvalid):
			status = http.StatusBadRequest
		case errors.Is(bulkErr, bulk.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(bulkErr, bulk.ErrConflict):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": bulkErr.Message})
		return
	}
	log.WithError(err).WithField("op", op).Error("admin request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": op + " failed"})
}

// pathID parses the :id style path parameter name.
func pathID(c *gin.Context, name string) (uint64, bool) {
	id, errParse := util.ParseID(c.Param(name))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// queryID parses a required id query parameter.
func queryID(c *gin.Context, name string) (uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + name})
		return 0, false
	}
	id, errParse := util.ParseID(raw)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// optionalQueryID parses an optional id query parameter; "null" counts as absent.
func optionalQueryID(c *gin.Context, name string) (*uint64, bool) {
	id, errParse := util.ParseOptionalID(strings.ToLower(c.Query(name)))
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return nil, false
	}
	return id, true
}

// bindJSON decodes the request body, answering 400 on failure.
func bindJSON(c *gin.Context, dest any) bool {
	if errBind := c.ShouldBindJSON(dest); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return false
	}
	return true
}
