package maker

import (
	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/cache"
	"github.com/picklesmaker/pickles/internal/catalog"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/http/api/maker/handlers"
	"github.com/picklesmaker/pickles/internal/resolver"
	"gorm.io/gorm"
)

// Options wires the shared services of the maker routes.
type Options struct {
	Reports        cache.ReportCache
	ContentOptions resolver.OptionsFunc
	BlurbMaxLength int
}

// RegisterMakerRoutes registers the public configurator routes.
func RegisterMakerRoutes(r *gin.Engine, db *gorm.DB, opts Options) {
	if r == nil || db == nil {
		return
	}
	if opts.Reports == nil {
		opts.Reports = cache.Nop{}
	}
	if opts.ContentOptions == nil {
		opts.ContentOptions = content.DefaultOptions
	}
	if opts.BlurbMaxLength <= 0 {
		opts.BlurbMaxLength = content.MaxContentLength
	}

	maker := r.Group("/v0/maker")

	catalogHandler := handlers.NewCatalogHandler(db)
	maker.GET("/brands", catalogHandler.Brands)
	maker.GET("/models", catalogHandler.Models)
	maker.GET("/years", catalogHandler.Years)

	contentHandler := handlers.NewContentHandler(catalog.NewGormStore(db), opts.Reports, opts.ContentOptions)
	maker.GET("/packages", contentHandler.Packages)
	maker.GET("/content", contentHandler.Content)

	configHandler := handlers.NewConfigHandler(opts.ContentOptions, opts.BlurbMaxLength)
	maker.GET("/config", configHandler.Get)
}
