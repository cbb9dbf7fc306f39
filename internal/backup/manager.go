package backup

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	filePrefix    = "backup_"
	fileExt       = ".json"
	gzipExt       = ".gz"
	timestampForm = "20060102_150405"
)

// ErrBackupNotFound is returned when a named backup file does not exist.
var ErrBackupNotFound = errors.New("backup: file not found")

// Uploader copies a finished backup file off-site.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.Reader, size int64) (string, error)
}

// Info describes a backup file.
type Info struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Size       int64     `json:"size"`
	ModifiedAt time.Time `json:"modified_at"`
	Compressed bool      `json:"compressed"`
	Objects    int64     `json:"objects,omitempty"`
	RemoteURI  string    `json:"remote_uri,omitempty"`
}

// Manager creates, lists and restores backup files in one directory.
type Manager struct {
	db         *gorm.DB
	dir        string
	compress   bool
	appVersion string
	uploader   Uploader
	now        func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithCompression toggles gzip compression of new backups.
func WithCompression(enabled bool) Option {
	return func(m *Manager) { m.compress = enabled }
}

// WithUploader sends every new backup to u.
func WithUploader(u Uploader) Option {
	return func(m *Manager) { m.uploader = u }
}

// WithAppVersion stamps new backups with version.
func WithAppVersion(version string) Option {
	return func(m *Manager) { m.appVersion = version }
}

// NewManager constructs a Manager writing to dir. Compression is on by default.
func NewManager(db *gorm.DB, dir string, opts ...Option) *Manager {
	m := &Manager{
		db:         db,
		dir:        dir,
		compress:   true,
		appVersion: "dev",
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Dir returns the backup directory.
func (m *Manager) Dir() string {
	return m.dir
}

// Create writes a new backup file and uploads it when an uploader is configured.
func (m *Manager) Create(ctx context.Context) (*Info, error) {
	if errMkdir := os.MkdirAll(m.dir, 0o755); errMkdir != nil {
		return nil, fmt.Errorf("backup: create dir: %w", errMkdir)
	}
	now := m.now()
	snap, errCapture := Capture(ctx, m.db, m.appVersion, now)
	if errCapture != nil {
		return nil, errCapture
	}

	name := filePrefix + now.Format(timestampForm) + fileExt
	if m.compress {
		name += gzipExt
	}
	path := filepath.Join(m.dir, name)
	if errWrite := writeSnapshot(path, snap, m.compress); errWrite != nil {
		return nil, errWrite
	}

	info, errStat := stat(path)
	if errStat != nil {
		return nil, errStat
	}
	info.Objects = snap.Metadata.TotalObjects
	log.WithFields(log.Fields{"file": name, "objects": info.Objects, "size": info.Size}).Info("backup created")

	if m.uploader != nil {
		uri, errUpload := m.upload(ctx, path, info)
		if errUpload != nil {
			return info, errUpload
		}
		info.RemoteURI = uri
	}
	return info, nil
}

// upload streams the file at path to the configured uploader.
func (m *Manager) upload(ctx context.Context, path string, info *Info) (string, error) {
	f, errOpen := os.Open(path)
	if errOpen != nil {
		return "", fmt.Errorf("backup: open for upload: %w", errOpen)
	}
	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.WithError(errClose).Warn("backup: close file")
		}
	}()
	uri, errUpload := m.uploader.Upload(ctx, info.Name, f, info.Size)
	if errUpload != nil {
		return "", fmt.Errorf("backup: upload %s: %w", info.Name, errUpload)
	}
	log.WithField("uri", uri).Info("backup uploaded")
	return uri, nil
}

// Restore loads the named backup into the database.
func (m *Manager) Restore(ctx context.Context, name string, clear bool) (*RestoreResult, error) {
	path, errResolve := m.resolve(name)
	if errResolve != nil {
		return nil, errResolve
	}
	snap, errRead := readSnapshot(path)
	if errRead != nil {
		return nil, errRead
	}
	result, errApply := Apply(ctx, m.db, snap, clear)
	if errApply != nil {
		return nil, errApply
	}
	log.WithFields(log.Fields{
		"file":              filepath.Base(path),
		"cleared":           clear,
		"normalized_legacy": result.NormalizedLegacy,
	}).Info("backup restored")
	return result, nil
}

// List returns the backups in the directory, newest first.
func (m *Manager) List() ([]Info, error) {
	entries, errRead := os.ReadDir(m.dir)
	if errRead != nil {
		if errors.Is(errRead, os.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("backup: read dir: %w", errRead)
	}
	out := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsBackupName(entry.Name()) {
			continue
		}
		info, errStat := stat(filepath.Join(m.dir, entry.Name()))
		if errStat != nil {
			return nil, errStat
		}
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// IsBackupName reports whether name follows the backup file naming scheme.
func IsBackupName(name string) bool {
	return strings.HasPrefix(name, filePrefix) &&
		(strings.HasSuffix(name, fileExt) || strings.HasSuffix(name, fileExt+gzipExt))
}

// resolve maps a backup name or absolute path to an existing file.
func (m *Manager) resolve(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("backup: file name is required")
	}
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.dir, filepath.Clean(name))
	}
	if _, errStat := os.Stat(path); errStat != nil {
		if errors.Is(errStat, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrBackupNotFound, path)
		}
		return "", fmt.Errorf("backup: stat %s: %w", path, errStat)
	}
	return path, nil
}

// stat describes the file at path.
func stat(path string) (*Info, error) {
	fi, errStat := os.Stat(path)
	if errStat != nil {
		return nil, fmt.Errorf("backup: stat %s: %w", path, errStat)
	}
	return &Info{
		Name:       fi.Name(),
		Path:       path,
		Size:       fi.Size(),
		ModifiedAt: fi.ModTime(),
		Compressed: strings.HasSuffix(fi.Name(), gzipExt),
	}, nil
}

// writeSnapshot encodes snap to a new file at path.
func writeSnapshot(path string, snap *Snapshot, compress bool) (errOut error) {
	f, errCreate := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errCreate != nil {
		return fmt.Errorf("backup: create file: %w", errCreate)
	}
	defer func() {
		if errClose := f.Close(); errClose != nil && errOut == nil {
			errOut = fmt.Errorf("backup: close file: %w", errClose)
		}
	}()

	var w io.Writer = f
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(f)
		w = gz
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if errEncode := enc.Encode(snap); errEncode != nil {
		return fmt.Errorf("backup: encode: %w", errEncode)
	}
	if gz != nil {
		if errFlush := gz.Close(); errFlush != nil {
			return fmt.Errorf("backup: compress: %w", errFlush)
		}
	}
	return nil
}

// readSnapshot decodes the file at path, gunzipping files ending in .gz.
func readSnapshot(path string) (*Snapshot, error) {
	f, errOpen := os.Open(path)
	if errOpen != nil {
		return nil, fmt.Errorf("backup: open: %w", errOpen)
	}
	defer func() {
		_ = f.Close()
	}()

	var r io.Reader = f
	if strings.HasSuffix(path, gzipExt) {
		gz, errGzip := gzip.NewReader(f)
		if errGzip != nil {
			return nil, fmt.Errorf("backup: decompress: %w", errGzip)
		}
		defer func() {
			_ = gz.Close()
		}()
		r = gz
	}
	var snap Snapshot
	if errDecode := json.NewDecoder(r).Decode(&snap); errDecode != nil {
		return nil, fmt.Errorf("backup: decode: %w", errDecode)
	}
	return &snap, nil
}
