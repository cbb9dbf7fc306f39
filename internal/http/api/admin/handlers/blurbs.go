package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/bulk"
)

// BlurbHandler manages content items.
type BlurbHandler struct {
	svc *bulk.Service
}

// NewBlurbHandler constructs a BlurbHandler.
func NewBlurbHandler(svc *bulk.Service) *BlurbHandler {
	return &BlurbHandler{svc: svc}
}

// List returns a page of content items with usage counts.
func (h *BlurbHandler) List(c *gin.Context) {
	var (
		q         = strings.TrimSpace(c.Query("q"))
		limitStr  = strings.TrimSpace(c.Query("limit"))
		offsetStr = strings.TrimSpace(c.Query("offset"))
	)

	limit := 50
	if limitStr != "" {
		if v, err := strconv.Atoi(limitStr); err == nil && v > 0 {
			if v > 500 {
				v = 500
			}
			limit = v
		}
	}
	offset := 0
	if offsetStr != "" {
		if v, err := strconv.Atoi(offsetStr); err == nil && v > 0 {
			offset = v
		}
	}

	rows, total, errList := h.svc.ListContent(c.Request.Context(), q, offset, limit)
	if errList != nil {
		respondError(c, "list blurbs", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blurbs": rows, "total": total, "limit": limit, "offset": offset})
}

// Get returns one content item with the rules that place it.
func (h *BlurbHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, errGet := h.svc.Content(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, "get blurb", errGet)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Create adds a content item.
func (h *BlurbHandler) Create(c *gin.Context) {
	var body bulk.ContentInput
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateContent(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, "create blurb", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update replaces the text and group of a content item.
func (h *BlurbHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body bulk.ContentInput
	if !bindJSON(c, &body) {
		return
	}
	row, errUpdate := h.svc.UpdateContent(c.Request.Context(), id, body)
	if errUpdate != nil {
		respondError(c, "update blurb", errUpdate)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete removes a content item and its placements.
func (h *BlurbHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.DeleteContent(c.Request.Context(), id); errDelete != nil {
		respondError(c, "delete blurb", errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}

// GroupHandler manages content groups.
type GroupHandler struct {
	svc *bulk.Service
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(svc *bulk.Service) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// List returns all groups with member counts.
func (h *GroupHandler) List(c *gin.Context) {
	rows, errList := h.svc.Groups(c.Request.Context())
	if errList != nil {
		respondError(c, "list groups", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": rows})
}

// Create adds a group.
func (h *GroupHandler) Create(c *gin.Context) {
	var body bulk.GroupInput
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateGroup(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, "create group", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update changes a group.
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body bulk.GroupInput
	if !bindJSON(c, &body) {
		return
	}
	row, errUpdate := h.svc.UpdateGroup(c.Request.Context(), id, body)
	if errUpdate != nil {
		respondError(c, "update group", errUpdate)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete removes a group; its members become ungrouped.
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.DeleteGroup(c.Request.Context(), id); errDelete != nil {
		respondError(c, "delete group", errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}
