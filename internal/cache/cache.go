// Package cache stores resolved reports keyed by selection and catalog revision.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/picklesmaker/pickles/internal/config"
	"github.com/picklesmaker/pickles/internal/content"
	"github.com/picklesmaker/pickles/internal/resolver"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// keyPrefix namespaces every key written by this package.
const keyPrefix = "pickles:"

// NoRevision is returned by Get when the revision could not be read. Put
// ignores it.
const NoRevision int64 = -1

// ReportCache caches resolution reports.
type ReportCache interface {
	// Get returns a cached report for the selection and options, along with
	// the revision it looked under.
	Get(ctx context.Context, sel resolver.Selection, opts content.Options) (report *resolver.Report, rev int64, ok bool)
	// Put stores a report under rev, the revision returned by the Get that
	// missed. A report built before an Invalidate is never served after it.
	Put(ctx context.Context, rev int64, sel resolver.Selection, opts content.Options, report *resolver.Report)
	// Invalidate makes every cached report unreachable.
	Invalidate(ctx context.Context) error
	// Close releases the connection.
	Close() error
}

// New returns a Redis-backed cache when cfg.Addr is set, otherwise a no-op cache.
func New(cfg config.RedisConfig) ReportCache {
	if cfg.Addr == "" {
		return Nop{}
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return NewRedis(client, cfg.TTL)
}

// Redis is a ReportCache on top of a Redis client.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis wraps client. Entries expire after ttl.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// Get looks up a report under the current revision. Redis failures count as misses.
func (r *Redis) Get(ctx context.Context, sel resolver.Selection, opts content.Options) (*resolver.Report, int64, bool) {
	rev, errRev := r.revision(ctx)
	if errRev != nil {
		log.WithError(errRev).Debug("cache: read revision failed")
		return nil, NoRevision, false
	}
	data, errGet := r.client.Get(ctx, ReportKey(rev, sel, opts)).Bytes()
	if errGet != nil {
		if !errors.Is(errGet, redis.Nil) {
			log.WithError(errGet).Debug("cache: get failed")
		}
		return nil, rev, false
	}
	var report resolver.Report
	if errUnmarshal := json.Unmarshal(data, &report); errUnmarshal != nil {
		log.WithError(errUnmarshal).Warn("cache: drop undecodable report")
		return nil, rev, false
	}
	return &report, rev, true
}

// Put stores report under rev.
func (r *Redis) Put(ctx context.Context, rev int64, sel resolver.Selection, opts content.Options, report *resolver.Report) {
	if report == nil || rev < 0 {
		return
	}
	data, errMarshal := json.Marshal(report)
	if errMarshal != nil {
		log.WithError(errMarshal).Warn("cache: encode report failed")
		return
	}
	if errSet := r.client.Set(ctx, ReportKey(rev, sel, opts), data, r.ttl).Err(); errSet != nil {
		log.WithError(errSet).Debug("cache: set failed")
	}
}

// Invalidate bumps the revision counter so older keys are never read again.
func (r *Redis) Invalidate(ctx context.Context) error {
	if errIncr := r.client.Incr(ctx, revisionKey).Err(); errIncr != nil {
		return fmt.Errorf("cache: bump revision: %w", errIncr)
	}
	return nil
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// revisionKey holds the catalog revision counter.
const revisionKey = keyPrefix + "revision"

// revision reads the catalog revision, 0 when unset.
func (r *Redis) revision(ctx context.Context) (int64, error) {
	raw, errGet := r.client.Get(ctx, revisionKey).Result()
	if errors.Is(errGet, redis.Nil) {
		return 0, nil
	}
	if errGet != nil {
		return 0, errGet
	}
	return strconv.ParseInt(raw, 10, 64)
}

// ReportKey derives the cache key for a selection under a revision.
func ReportKey(rev int64, sel resolver.Selection, opts content.Options) string {
	payload, _ := json.Marshal(struct {
		Selection resolver.Selection       `json:"s"`
		Limits    map[content.Category]int `json:"l"`
		Separator string                   `json:"sep"`
		Suffix    string                   `json:"suf"`
	}{sel, opts.Limits, opts.Separator, opts.Suffix})
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%sreport:%d:%s", keyPrefix, rev, hex.EncodeToString(sum[:16]))
}

// Nop is a ReportCache that stores nothing.
type Nop struct{}

// Get always misses.
func (Nop) Get(context.Context, resolver.Selection, content.Options) (*resolver.Report, int64, bool) {
	return nil, NoRevision, false
}

// Put does nothing.
func (Nop) Put(context.Context, int64, resolver.Selection, content.Options, *resolver.Report) {}

// Invalidate does nothing.
func (Nop) Invalidate(context.Context) error { return nil }

// Close does nothing.
func (Nop) Close() error { return nil }
