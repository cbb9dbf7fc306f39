package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/resolver"
	"github.com/picklesmaker/pickles/internal/settings"
)

// ConfigHandler exposes the settings the configurator page needs.
type ConfigHandler struct {
	options        resolver.OptionsFunc
	blurbMaxLength int
}

// NewConfigHandler constructs a ConfigHandler.
func NewConfigHandler(options resolver.OptionsFunc, blurbMaxLength int) *ConfigHandler {
	if options == nil {
		options = content.DefaultOptions
	}
	return &ConfigHandler{options: options, blurbMaxLength: blurbMaxLength}
}

// Get returns the site name and the active character limits.
func (h *ConfigHandler) Get(c *gin.Context) {
	opts := h.options()
	limits := make(gin.H, len(content.Categories))
	for _, category := range content.Categories {
		limits[string(category)] = opts.Limit(category)
	}
	c.JSON(http.StatusOK, gin.H{
		"site_name":       settings.SiteName(),
		"limits":          limits,
		"separator":       opts.Separator,
		"suffix":          opts.Suffix,
		"blurb_max_chars": h.blurbMaxLength,
	})
}
