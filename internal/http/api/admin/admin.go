package admin

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/bulk"
	"github.com/picklesmaker/pickles/internal/cache"
	"github.com/picklesmaker/pickles/internal/config"
	apphttp "github.com/picklesmaker/pickles/internal/http"
	"github.com/picklesmaker/pickles/internal/http/api/admin/handlers"
	"gorm.io/gorm"
)

// Options wires the shared services of the admin routes.
type Options struct {
	Reports        cache.ReportCache
	BlurbMaxLength int
}

// RegisterAdminRoutes registers the login, health and bulk-management routes.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, opts Options) {
	if r == nil || db == nil {
		return
	}
	if opts.Reports == nil {
		opts.Reports = cache.Nop{}
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	admin := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	admin.POST("/login", authHandler.Login)

	authed := admin.Group("")
	authed.Use(apphttp.AdminAuthMiddleware(db, jwtCfg))
	authed.GET("/me", authHandler.Me)
	authed.GET("/version", handlers.GetVersion)

	reports := opts.Reports
	svcOpts := []bulk.Option{bulk.WithChangeHook(func(ctx context.Context) error {
		return reports.Invalidate(ctx)
	})}
	if opts.BlurbMaxLength > 0 {
		svcOpts = append(svcOpts, bulk.WithMaxContentLength(opts.BlurbMaxLength))
	}
	svc := bulk.NewService(db, svcOpts...)

	speederHandler := handlers.NewSpeederHandler(svc)
	speeder := authed.Group("/speeder")
	speeder.GET("/brands", speederHandler.Brands)
	speeder.POST("/brands", speederHandler.CreateBrand)
	speeder.GET("/models", speederHandler.Models)
	speeder.POST("/models", speederHandler.CreateModel)
	speeder.GET("/series", speederHandler.Series)
	speeder.POST("/series", speederHandler.CreateSeries)
	speeder.GET("/years", speederHandler.Years)
	speeder.POST("/years", speederHandler.CreateYear)
	speeder.GET("/matrix", speederHandler.Matrix)
	speeder.POST("/associations", speederHandler.SaveAssociations)
	speeder.GET("/packages/search", speederHandler.SearchPackages)
	speeder.POST("/packages", speederHandler.CreatePackage)
	speeder.POST("/generations/:id/packages/:package_id", speederHandler.LinkPackage)
	speeder.DELETE("/generations/:id/packages/:package_id", speederHandler.UnlinkPackage)
	speeder.GET("/blurbs/search", speederHandler.SearchBlurbs)
	speeder.POST("/blurbs", speederHandler.CreateBlurb)

	blurbHandler := handlers.NewBlurbHandler(svc)
	authed.GET("/blurbs", blurbHandler.List)
	authed.GET("/blurbs/:id", blurbHandler.Get)
	authed.POST("/blurbs", blurbHandler.Create)
	authed.PUT("/blurbs/:id", blurbHandler.Update)
	authed.DELETE("/blurbs/:id", blurbHandler.Delete)

	groupHandler := handlers.NewGroupHandler(svc)
	authed.GET("/groups", groupHandler.List)
	authed.POST("/groups", groupHandler.Create)
	authed.PUT("/groups/:id", groupHandler.Update)
	authed.DELETE("/groups/:id", groupHandler.Delete)

	ruleHandler := handlers.NewRuleHandler(svc)
	authed.GET("/rules", ruleHandler.List)
	authed.GET("/rules/:id", ruleHandler.Get)
	authed.POST("/rules", ruleHandler.Create)
	authed.PUT("/rules/:id", ruleHandler.Update)
	authed.DELETE("/rules/:id", ruleHandler.Delete)

	settingsHandler := handlers.NewSettingsHandler(db, opts.Reports)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings/:key", settingsHandler.Put)
	authed.DELETE("/settings/:key", settingsHandler.Delete)

	historyHandler := handlers.NewHistoryHandler(db)
	authed.GET("/history", historyHandler.List)
}
