package settings

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/picklesmaker/pickles/internal/content"
)

// Int returns the integer stored under key, or def when it is absent or malformed.
func Int(key string, def int) int {
	raw, ok := DBConfigValue(key)
	if !ok {
		return def
	}
	if n, okParse := ParseInt(raw); okParse {
		return n
	}
	return def
}

// String returns the string stored under key, or def.
func String(key, def string) string {
	raw, ok := DBConfigValue(key)
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return def
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal != nil {
		return def
	}
	return s
}

// SiteName returns the configured site name.
func SiteName() string {
	if name := strings.TrimSpace(String(SiteNameKey, "")); name != "" {
		return name
	}
	return DefaultSiteName
}

// HistoryRetentionDays returns the retention period; negative values fall back to the default.
func HistoryRetentionDays() int {
	days := Int(HistoryRetentionDaysKey, DefaultHistoryRetentionDays)
	if days < 0 {
		return DefaultHistoryRetentionDays
	}
	return days
}

// ContentOptions layers DB-backed limits and separator on top of base.
func ContentOptions(base content.Options) content.Options {
	out := base
	for category, key := range contentLimitKeys {
		if limit := Int(key, -1); limit >= 0 {
			out = out.WithLimit(category, limit)
		}
	}
	if _, ok := DBConfigValue(ContentSeparatorKey); ok {
		out.Separator = String(ContentSeparatorKey, out.Separator)
	}
	return out
}

// ParseInt decodes an integer from a JSON number, an integral float, a numeric
// string or a {"value": ...} wrapper.
func ParseInt(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var n int
	if errUnmarshal := json.Unmarshal(raw, &n); errUnmarshal == nil {
		return n, true
	}
	var f float64
	if errUnmarshal := json.Unmarshal(raw, &f); errUnmarshal == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	var s string
	if errUnmarshal := json.Unmarshal(raw, &s); errUnmarshal == nil {
		parsed, errParse := strconv.Atoi(strings.TrimSpace(s))
		return parsed, errParse == nil
	}
	var wrapper struct {
		Value json.RawMessage `json:"value"`
	}
	if errUnmarshal := json.Unmarshal(raw, &wrapper); errUnmarshal == nil && len(wrapper.Value) > 0 {
		return ParseInt(wrapper.Value)
	}
	return 0, false
}

// ValidValue checks raw against the type key expects: a JSON string for the
// site name and separator, a non-negative integer for everything else.
func ValidValue(key string, raw json.RawMessage) bool {
	switch key {
	case SiteNameKey, ContentSeparatorKey:
		var s string
		return json.Unmarshal(raw, &s) == nil
	default:
		n, ok := ParseInt(raw)
		return ok && n >= 0
	}
}
