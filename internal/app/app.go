package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/picklesmaker/pickles/internal/backup"
	"github.com/picklesmaker/pickles/internal/buildinfo"
	"github.com/picklesmaker/pickles/internal/cache"
	"github.com/picklesmaker/pickles/internal/config"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/db"
	"github.com/picklesmaker/pickles/internal/history"
	apphttp "github.com/picklesmaker/pickles/internal/http"
	"github.com/picklesmaker/pickles/internal/http/api/admin"
	"github.com/picklesmaker/pickles/internal/http/api/maker"
	"github.com/picklesmaker/pickles/internal/logging"
	"github.com/picklesmaker/pickles/internal/models"
	"github.com/picklesmaker/pickles/internal/security"
	"github.com/picklesmaker/pickles/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// shutdownTimeout bounds how long in-flight requests may take after a stop signal.
const shutdownTimeout = 10 * time.Second

// ErrAdminExists is returned when creating an admin whose username is taken.
var ErrAdminExists = errors.New("admin already exists")

// Runtime is an opened configuration and database.
type Runtime struct {
	Config *config.Config
	DB     *gorm.DB

	logCloser io.Closer
}

// Open loads the configuration, configures logging, opens and migrates the
// database and loads the DB-backed settings.
func Open(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	loaded, errLoad := config.Load(configPath)
	if errLoad != nil {
		return nil, errLoad
	}
	logCloser, errLog := logging.Configure(loaded.Logging)
	if errLog != nil {
		return nil, errLog
	}

	gormLevel := logger.Warn
	if log.IsLevelEnabled(log.DebugLevel) {
		gormLevel = logger.Info
	}
	conn, errOpen := db.Open(loaded.Database.DSN,
		db.WithTimeZone(loaded.Database.TimeZone),
		db.WithSlowThreshold(loaded.Database.SlowThreshold),
		db.WithLogLevel(gormLevel),
	)
	if errOpen != nil {
		_ = logCloser.Close()
		return nil, errOpen
	}
	rt := &Runtime{Config: loaded, DB: conn, logCloser: logCloser}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		_ = rt.Close()
		return nil, errMigrate
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("load settings: %w", errRefresh)
	}
	return rt, nil
}

// Close releases the database and the log file.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.DB != nil {
		if sqlDB, errDB := r.DB.DB(); errDB == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if r.logCloser != nil {
		errs = append(errs, r.logCloser.Close())
	}
	return errors.Join(errs...)
}

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	rt, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	return rt.Close()
}

// RunServer serves the maker and admin APIs until ctx is cancelled.
func RunServer(ctx context.Context, cfg config.AppConfig) error {
	rt, err := Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := rt.Close(); errClose != nil {
			log.WithError(errClose).Warn("close runtime")
		}
	}()
	if errSecret := rt.Config.RequireJWTSecret(); errSecret != nil {
		return errSecret
	}

	reports := cache.New(rt.Config.Redis)
	defer func() { _ = reports.Close() }()

	history.NewRetentionCleaner(rt.DB).Start(ctx)

	srv := &http.Server{
		Addr:              rt.Config.Listen,
		Handler:           NewRouter(rt.DB, rt.Config, reports),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		log.Info("stopping http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if errShutdown := srv.Shutdown(shutdownCtx); errShutdown != nil {
			log.WithError(errShutdown).Warn("http server shutdown")
		}
	}()

	log.Infof("starting pickles %s on %s (config=%s)", buildinfo.Version, rt.Config.Listen, config.ResolveConfigPath(cfg.ConfigPath))
	if errServe := srv.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
		return errServe
	}
	return nil
}

// NewRouter builds the gin engine with the maker and admin routes.
func NewRouter(conn *gorm.DB, cfg *config.Config, reports cache.ReportCache) *gin.Engine {
	if !log.IsLevelEnabled(log.DebugLevel) {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), apphttp.RequestIDMiddleware())
	if cfg.Logging.RequestLogs {
		engine.Use(apphttp.RequestLogMiddleware())
	}

	base := cfg.ContentOptions()
	options := func() content.Options { return settings.ContentOptions(base) }

	maker.RegisterMakerRoutes(engine, conn, maker.Options{
		Reports:        reports,
		ContentOptions: options,
		BlurbMaxLength: cfg.Content.BlurbMaxLength,
	})
	admin.RegisterAdminRoutes(engine, conn, cfg.JWT, admin.Options{
		Reports:        reports,
		BlurbMaxLength: cfg.Content.BlurbMaxLength,
	})
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return engine
}

// BackupManager builds the backup manager described by the configuration,
// with an S3 uploader when a bucket is configured.
func BackupManager(ctx context.Context, rt *Runtime) (*backup.Manager, error) {
	opts := []backup.Option{
		backup.WithCompression(rt.Config.BackupCompress()),
		backup.WithAppVersion(buildinfo.Version),
	}
	if strings.TrimSpace(rt.Config.Backup.S3.Bucket) != "" {
		uploader, errUploader := backup.NewS3Uploader(ctx, rt.Config.Backup.S3)
		if errUploader != nil {
			return nil, errUploader
		}
		opts = append(opts, backup.WithUploader(uploader))
	}
	return backup.NewManager(rt.DB, rt.Config.Backup.Dir, opts...), nil
}

// CreateAdminParams holds inputs for admin creation.
type CreateAdminParams struct {
	Username string
	Password string
}

// CreateAdmin adds an active staff account.
func CreateAdmin(ctx context.Context, conn *gorm.DB, params CreateAdminParams) (*models.Admin, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, errors.New("missing username")
	}
	hash, errHash := security.HashPassword(params.Password)
	if errors.Is(errHash, security.ErrWeakPassword) {
		return nil, errHash
	}
	if errHash != nil {
		return nil, fmt.Errorf("hash password: %w", errHash)
	}

	admin := models.Admin{Username: username, Password: hash, Active: true}
	errTx := conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if errCount := tx.Model(&models.Admin{}).Where("username = ?", username).Count(&count).Error; errCount != nil {
			return errCount
		}
		if count > 0 {
			return fmt.Errorf("%w: %s", ErrAdminExists, username)
		}
		return tx.Create(&admin).Error
	})
	if errTx != nil {
		return nil, errTx
	}
	return &admin, nil
}
