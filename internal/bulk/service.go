// Package bulk implements the catalog editing operations behind the admin API.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/history"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// searchLimit caps search results.
const searchLimit = 20

// Error kinds.
var (
	ErrInvalid  = errors.New("invalid input")
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// Error is a caller-facing failure with a message safe to return to clients.
type Error struct {
	Kind    error
	Message string
}

// Error implements error.
func (e *Error) Error() string { return e.Message }

// Unwrap exposes the kind to errors.Is.
func (e *Error) Unwrap() error { return e.Kind }

// invalidf builds an ErrInvalid error.
func invalidf(format string, args ...any) error {
	return &Error{Kind: ErrInvalid, Message: fmt.Sprintf(format, args...)}
}

// notFoundf builds an ErrNotFound error.
func notFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// conflictf builds an ErrConflict error.
func conflictf(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

// Option customizes a Service.
type Option func(*Service)

// WithChangeHook registers fn to run after every committed write.
func WithChangeHook(fn func(context.Context) error) Option {
	return func(s *Service) { s.onChange = fn }
}

// WithMaxContentLength overrides the content item text limit.
func WithMaxContentLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxContentLength = n
		}
	}
}

// Service edits the catalog. Every write runs in one transaction and is recorded in history.
type Service struct {
	db               *gorm.DB
	onChange         func(context.Context) error
	maxContentLength int
}

// NewService constructs a Service.
func NewService(db *gorm.DB, opts ...Option) *Service {
	s := &Service{db: db, maxContentLength: content.MaxContentLength}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// DB returns the underlying handle.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// write runs fn in a transaction and fires the change hook after commit.
func (s *Service) write(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if errTx := s.db.WithContext(ctx).Transaction(fn); errTx != nil {
		return errTx
	}
	if s.onChange != nil {
		if errHook := s.onChange(ctx); errHook != nil {
			log.WithError(errHook).Warn("bulk: change hook failed")
		}
	}
	return nil
}

// record writes a history entry inside tx.
func record(ctx context.Context, tx *gorm.DB, entity string, id uint64, action string, snapshot any) error {
	return history.Record(ctx, tx, entity, id, action, snapshot)
}

// exists reports whether a row of model with id exists.
func exists(tx *gorm.DB, model any, id uint64) (bool, error) {
	var count int64
	if errCount := tx.Model(model).Where("id = ?", id).Count(&count).Error; errCount != nil {
		return false, errCount
	}
	return count > 0, nil
}

// ParsePackageKey maps a package column key to a package id; "null" means all packages.
func ParsePackageKey(key string) (*uint64, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == "null" {
		return nil, nil
	}
	id, errParse := strconv.ParseUint(key, 10, 64)
	if errParse != nil || id == 0 {
		return nil, invalidf("invalid package key %q", key)
	}
	return &id, nil
}

// PackageKey is the inverse of ParsePackageKey.
func PackageKey(id *uint64) string {
	if id == nil {
		return "null"
	}
	return strconv.FormatUint(*id, 10)
}
