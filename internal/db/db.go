package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/stdlib"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// tzConfig holds timezone configuration for database connections.
type tzConfig struct {
	dbTimeZone   string
	scanLocation *time.Location
}

// Option customizes how Open configures a connection.
type Option func(*openOptions)

// openOptions collects Option values.
type openOptions struct {
	timeZone      string
	slowThreshold time.Duration
	logLevel      logger.LogLevel
}

// WithTimeZone sets the session timezone used for PostgreSQL connections.
func WithTimeZone(name string) Option {
	return func(o *openOptions) { o.timeZone = strings.TrimSpace(name) }
}

// WithSlowThreshold logs queries slower than d as warnings.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *openOptions) { o.slowThreshold = d }
}

// WithLogLevel sets the GORM log level.
func WithLogLevel(level logger.LogLevel) Option {
	return func(o *openOptions) { o.logLevel = level }
}

// newGormLogger routes GORM messages through logrus.
func newGormLogger(o openOptions) logger.Interface {
	return logger.New(
		log.StandardLogger(),
		logger.Config{
			SlowThreshold:             o.slowThreshold,
			LogLevel:                  o.logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// Open connects to the catalog database named by dsn. PostgreSQL URLs and
// keyword DSNs go through pgx; anything else is treated as a SQLite file.
func Open(dsn string, opts ...Option) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}
	o := openOptions{slowThreshold: 200 * time.Millisecond, logLevel: logger.Warn}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var (
		dialector gorm.Dialector
		maxConns  int
		prepare   func(*sql.DB) error
		pgDB      *sql.DB
	)
	switch {
	case looksLikePostgres(dsn):
		var errPG error
		if pgDB, errPG = openPostgresSQLDB(dsn, resolveTimeZone(o.timeZone)); errPG != nil {
			return nil, errPG
		}
		dialector, maxConns = postgres.New(postgres.Config{Conn: pgDB}), 25
	case strings.Contains(dsn, "://") && !hasSQLiteScheme(dsn) && !strings.HasPrefix(strings.ToLower(dsn), "file:"):
		return nil, fmt.Errorf("db: unsupported dsn scheme in %q", dsn)
	default:
		target := parseSQLiteDSN(dsn)
		if errDir := target.ensureDir(); errDir != nil {
			return nil, errDir
		}
		dialector, maxConns = sqlite.Open(target.String()), 10
		if !target.inMemory() {
			prepare = enableWAL
		}
	}

	conn, errOpen := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(o)})
	if errOpen != nil {
		if pgDB != nil {
			_ = pgDB.Close()
		}
		return nil, fmt.Errorf("db: open %s: %w", dialector.Name(), errOpen)
	}
	sqlDB, errSQL := conn.DB()
	if errSQL != nil {
		return nil, fmt.Errorf("db: %s handle: %w", dialector.Name(), errSQL)
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if prepare != nil {
		if errPrepare := prepare(sqlDB); errPrepare != nil {
			_ = sqlDB.Close()
			return nil, errPrepare
		}
	}
	if errPing := sqlDB.PingContext(ctx); errPing != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping %s: %w", dialector.Name(), errPing)
	}
	return conn, nil
}

// looksLikePostgres matches postgres URLs and libpq keyword/value DSNs.
func looksLikePostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return true
	}
	for _, key := range []string{"host=", "user=", "dbname=", "sslmode="} {
		if strings.Contains(lower, key) {
			return true
		}
	}
	return false
}

func hasSQLiteScheme(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "sqlite://") || strings.HasPrefix(lower, "sqlite3://")
}

// openPostgresSQLDB opens a pgx-backed sql.DB whose session timezone and
// timestamp scan location follow tz.
func openPostgresSQLDB(dsn string, tz tzConfig) (*sql.DB, error) {
	cfg, errParse := pgx.ParseConfig(dsn)
	if errParse != nil {
		return nil, fmt.Errorf("db: parse dsn: %w", errParse)
	}
	if tz.dbTimeZone != "" {
		cfg.RuntimeParams["timezone"] = tz.dbTimeZone
	}
	if tz.scanLocation == nil {
		return stdlib.OpenDB(*cfg), nil
	}
	loc := tz.scanLocation
	afterConnect := stdlib.OptionAfterConnect(func(_ context.Context, conn *pgx.Conn) error {
		types := conn.TypeMap()
		types.RegisterType(&pgtype.Type{Name: "timestamp", OID: pgtype.TimestampOID, Codec: &pgtype.TimestampCodec{ScanLocation: loc}})
		types.RegisterType(&pgtype.Type{Name: "timestamptz", OID: pgtype.TimestamptzOID, Codec: &pgtype.TimestamptzCodec{ScanLocation: loc}})
		return nil
	})
	return stdlib.OpenDB(*cfg, afterConnect), nil
}

// sqlitePragmas run on every pooled connection through the driver's _pragma
// parameter. Journal mode is set once per file by enableWAL.
var sqlitePragmas = []struct{ name, value string }{
	{"busy_timeout", "5000"},
	{"foreign_keys", "1"},
	{"synchronous", "NORMAL"},
}

// sqliteTarget is a SQLite DSN split into file path and raw query parameters.
type sqliteTarget struct {
	path   string
	params []string
}

// parseSQLiteDSN accepts bare paths, file: URIs and sqlite:// URLs.
func parseSQLiteDSN(dsn string) sqliteTarget {
	rest := dsn
	if idx := strings.Index(rest, "://"); idx >= 0 && hasSQLiteScheme(rest) {
		rest = rest[idx+3:]
	} else if len(rest) >= 5 && strings.EqualFold(rest[:5], "file:") {
		rest = rest[5:]
	}
	var t sqliteTarget
	path, query, _ := strings.Cut(rest, "?")
	t.path = path
	for _, part := range strings.Split(query, "&") {
		if part != "" {
			t.params = append(t.params, part)
		}
	}
	for _, p := range sqlitePragmas {
		if !t.hasPragma(p.name) {
			t.params = append(t.params, "_pragma="+p.name+"("+p.value+")")
		}
	}
	return t
}

func (t sqliteTarget) hasPragma(name string) bool {
	prefix := "_pragma=" + name
	for _, p := range t.params {
		if strings.HasPrefix(strings.ToLower(p), prefix) {
			return true
		}
	}
	return false
}

func (t sqliteTarget) inMemory() bool {
	if t.path == "" || t.path == ":memory:" {
		return true
	}
	for _, p := range t.params {
		if strings.EqualFold(p, "mode=memory") {
			return true
		}
	}
	return false
}

// String renders the target as a file: URI for the driver.
func (t sqliteTarget) String() string {
	if len(t.params) == 0 {
		return "file:" + t.path
	}
	return "file:" + t.path + "?" + strings.Join(t.params, "&")
}

// ensureDir creates the directory holding an on-disk database.
func (t sqliteTarget) ensureDir() error {
	if t.inMemory() {
		return nil
	}
	dir := filepath.Dir(strings.TrimPrefix(t.path, "//"))
	if dir == "." || dir == "" {
		return nil
	}
	if errMkdir := os.MkdirAll(dir, 0o755); errMkdir != nil {
		return fmt.Errorf("db: create sqlite dir: %w", errMkdir)
	}
	return nil
}

// enableWAL switches an on-disk database to write-ahead logging.
func enableWAL(sqlDB *sql.DB) error {
	if _, errExec := sqlDB.Exec("PRAGMA journal_mode=WAL"); errExec != nil {
		return fmt.Errorf("db: sqlite journal mode: %w", errExec)
	}
	return nil
}

// resolveTimeZone maps a configured zone name, or the process local zone, to a
// session timezone and scan location.
func resolveTimeZone(name string) tzConfig {
	if name != "" {
		if loc, errLoad := time.LoadLocation(name); errLoad == nil {
			return tzConfig{dbTimeZone: name, scanLocation: loc}
		}
		log.Warnf("db: unknown timezone %q, falling back to local offset", name)
	}
	if local := time.Local.String(); local != "" && local != "Local" {
		if loc, errLoad := time.LoadLocation(local); errLoad == nil {
			return tzConfig{dbTimeZone: local, scanLocation: loc}
		}
	}
	_, offsetSeconds := time.Now().Zone()
	offsetName := formatUTCOffset(offsetSeconds)
	return tzConfig{
		dbTimeZone:   offsetName,
		scanLocation: time.FixedZone(offsetName, offsetSeconds),
	}
}

// formatUTCOffset formats a numeric offset into "+HH:MM" or "-HH:MM".
func formatUTCOffset(offsetSeconds int) string {
	sign := "+"
	if offsetSeconds < 0 {
		sign = "-"
		offsetSeconds = -offsetSeconds
	}

	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	return fmt.Sprintf("%s%02d:%02d", sign, hours, minutes)
}
