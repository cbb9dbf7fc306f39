package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/bulk"
)

// RuleHandler manages content rules.
type RuleHandler struct {
	svc *bulk.Service
}

// NewRuleHandler constructs a RuleHandler.
func NewRuleHandler(svc *bulk.Service) *RuleHandler {
	return &RuleHandler{svc: svc}
}

// List returns rules, optionally those of one brand.
func (h *RuleHandler) List(c *gin.Context) {
	brandID, ok := optionalQueryID(c, "brand_id")
	if !ok {
		return
	}
	rows, errList := h.svc.Rules(c.Request.Context(), brandID)
	if errList != nil {
		respondError(c, "list rules", errList)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rows})
}

// Get returns one rule with its items.
func (h *RuleHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	row, errGet := h.svc.Rule(c.Request.Context(), id)
	if errGet != nil {
		respondError(c, "get rule", errGet)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Create adds a rule with its items.
func (h *RuleHandler) Create(c *gin.Context) {
	var body bulk.RuleInput
	if !bindJSON(c, &body) {
		return
	}
	row, errCreate := h.svc.CreateRule(c.Request.Context(), body)
	if errCreate != nil {
		respondError(c, "create rule", errCreate)
		return
	}
	c.JSON(http.StatusCreated, row)
}

// Update replaces a rule's filter and items.
func (h *RuleHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var body bulk.RuleInput
	if !bindJSON(c, &body) {
		return
	}
	row, errUpdate := h.svc.UpdateRule(c.Request.Context(), id, body)
	if errUpdate != nil {
		respondError(c, "update rule", errUpdate)
		return
	}
	c.JSON(http.StatusOK, row)
}

// Delete removes a rule and its items.
func (h *RuleHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if errDelete := h.svc.DeleteRule(c.Request.Context(), id); errDelete != nil {
		respondError(c, "delete rule", errDelete)
		return
	}
	c.Status(http.StatusNoContent)
}
