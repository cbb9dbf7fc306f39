package util

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrInvalidID is returned for ids that are not positive integers.
var ErrInvalidID = errors.New("invalid id")

// WritablePath returns the cleaned WRITABLE_PATH environment variable when it is set.
// It accepts both uppercase and lowercase variants.
func WritablePath() string {
	for _, key := range []string{"WRITABLE_PATH", "writable_path"} {
		if value, ok := os.LookupEnv(key); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return filepath.Clean(trimmed)
			}
		}
	}
	return ""
}

// ParseID parses a positive decimal id.
func ParseID(raw string) (uint64, error) {
	id, errParse := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if errParse != nil || id == 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// ParseOptionalID parses an id that may be absent. Empty input and "null" yield nil.
func ParseOptionalID(raw string) (*uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}
	id, errParse := ParseID(raw)
	if errParse != nil {
		return nil, errParse
	}
	return &id, nil
}

// sensitiveQueryMarkers flag query parameters whose values must not reach the request log.
var sensitiveQueryMarkers = []string{"token", "secret", "password", "key"}

// HideSecret keeps the edges of a secret and elides the middle.
func HideSecret(secret string) string {
	var keep int
	switch n := len(secret); {
	case n > 8:
		keep = 4
	case n > 4:
		keep = 2
	case n > 2:
		keep = 1
	default:
		return secret
	}
	return secret[:keep] + "..." + secret[len(secret)-keep:]
}

// MaskSensitiveQuery rewrites a raw query string with the values of token,
// secret, password and key parameters passed through HideSecret. Other
// parameters keep their original encoding and order.
func MaskSensitiveQuery(raw string) string {
	parts := strings.Split(raw, "&")
	for i, part := range parts {
		rawKey, rawValue, found := strings.Cut(part, "=")
		if !found || !isSensitiveQueryKey(rawKey) {
			continue
		}
		value, errUnescape := url.QueryUnescape(rawValue)
		if errUnescape != nil {
			value = rawValue
		}
		parts[i] = rawKey + "=" + url.QueryEscape(HideSecret(strings.TrimSpace(value)))
	}
	return strings.Join(parts, "&")
}

func isSensitiveQueryKey(rawKey string) bool {
	key, errUnescape := url.QueryUnescape(rawKey)
	if errUnescape != nil {
		key = rawKey
	}
	key = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(key)), "[]")
	if key == "" {
		return false
	}
	for _, marker := range sensitiveQueryMarkers {
		if strings.Contains(key, marker) {
			return true
		}
	}
	return false
}
