package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/cache"
	"github.com/picklesmaker/pickles/internal/catalog"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/resolver"
	"github.com/picklesmaker/pickles/internal/util"
	log "github.com/sirupsen/logrus"
)

// ContentHandler resolves selections into marketing copy.
type ContentHandler struct {
	store   catalog.Store
	reports cache.ReportCache
	options resolver.OptionsFunc
}

// NewContentHandler constructs a ContentHandler.
func NewContentHandler(store catalog.Store, reports cache.ReportCache, options resolver.OptionsFunc) *ContentHandler {
	if options == nil {
		options = content.DefaultOptions
	}
	return &ContentHandler{store: store, reports: reports, options: options}
}

// Content generates the four copy categories for the selected vehicle.
func (h *ContentHandler) Content(c *gin.Context) {
	var sel resolver.Selection
	fields := []struct {
		name string
		dest **uint64
	}{
		{"brand_id", &sel.BrandID},
		{"model_id", &sel.ModelID},
		{"year_id", &sel.YearID},
		{"package_id", &sel.PackageID},
	}
	for _, f := range fields {
		id, errParse := util.ParseOptionalID(c.Query(f.name))
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + f.name})
			return
		}
		*f.dest = id
	}

	ctx := c.Request.Context()
	opts := h.options()
	cached, rev, hit := h.reports.Get(ctx, sel, opts)
	if hit {
		c.JSON(http.StatusOK, cached)
		return
	}

	report, errResolve := resolver.New(h.store, func() content.Options { return opts }).Resolve(ctx, sel)
	if errResolve != nil {
		resolveError(c, errResolve)
		return
	}
	h.reports.Put(ctx, rev, sel, opts, report)
	c.JSON(http.StatusOK, report)
}

// Packages lists the packages available for a brand, model and year.
func (h *ContentHandler) Packages(c *gin.Context) {
	var ids [3]uint64
	for i, name := range []string{"brand_id", "model_id", "year_id"} {
		raw := c.Query(name)
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing required parameters: brand_id, model_id, year_id"})
			return
		}
		id, errParse := util.ParseID(raw)
		if errParse != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
			return
		}
		ids[i] = id
	}

	lookup, errLookup := resolver.New(h.store, h.options).Packages(c.Request.Context(), ids[0], ids[1], ids[2])
	if errLookup != nil {
		resolveError(c, errLookup)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

// resolveError maps resolver failures onto HTTP responses.
func resolveError(c *gin.Context, err error) {
	var notFound *resolver.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
		return
	}
	internalError(c, "resolve selection", err)
}

// internalError logs err and answers 500 without leaking details.
func internalError(c *gin.Context, op string, err error) {
	log.WithError(err).WithField("op", op).Error("maker request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
