package settings

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"
)

// snapshot is an immutable view of the DB-backed settings.
type snapshot struct {
	updatedAt time.Time
	values    map[string]json.RawMessage
}

// current holds the latest *snapshot.
var current atomic.Pointer[snapshot]

// init seeds an empty snapshot.
func init() {
	current.Store(&snapshot{values: map[string]json.RawMessage{}})
}

// StoreDBConfig replaces the in-memory snapshot of DB-backed settings.
func StoreDBConfig(updatedAt time.Time, values map[string]json.RawMessage) {
	next := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		next[key] = cloneRaw(v)
	}
	current.Store(&snapshot{updatedAt: updatedAt.UTC(), values: next})
}

// DBConfigUpdatedAt returns the newest update time in the snapshot.
func DBConfigUpdatedAt() time.Time {
	return current.Load().updatedAt
}

// DBConfigValue returns a copy of the raw value for key.
func DBConfigValue(key string) (json.RawMessage, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false
	}
	val, ok := current.Load().values[key]
	if !ok {
		return nil, false
	}
	return cloneRaw(val), true
}

// DBConfigValues returns a copy of every stored value.
func DBConfigValues() map[string]json.RawMessage {
	snap := current.Load()
	out := make(map[string]json.RawMessage, len(snap.values))
	for k, v := range snap.values {
		out[k] = cloneRaw(v)
	}
	return out
}

// cloneRaw copies a raw JSON value, keeping nil as nil.
func cloneRaw(v json.RawMessage) json.RawMessage {
	if v == nil {
		return nil
	}
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
