package settings

import "github.com/picklesmaker/pickles/internal/content"

// DB config keys and defaults for settings.
const (
	// SiteNameKey is the DB config key for the site name shown by clients.
	SiteNameKey = "SITE_NAME"
	// DefaultSiteName is the fallback site name.
	DefaultSiteName = "Pickles"

	// ContentLimitInteriorKey overrides the interior character budget.
	ContentLimitInteriorKey = "CONTENT_LIMIT_INTERIOR"
	// ContentLimitExteriorKey overrides the exterior character budget.
	ContentLimitExteriorKey = "CONTENT_LIMIT_EXTERIOR"
	// ContentLimitHighlightsKey overrides the highlights character budget.
	ContentLimitHighlightsKey = "CONTENT_LIMIT_HIGHLIGHTS"
	// ContentLimitOptionsKey overrides the options character budget.
	ContentLimitOptionsKey = "CONTENT_LIMIT_OPTIONS"
	// ContentSeparatorKey overrides the text placed between items.
	ContentSeparatorKey = "CONTENT_SEPARATOR"

	// HistoryRetentionDaysKey controls how long change history is kept; 0 keeps it forever.
	HistoryRetentionDaysKey = "HISTORY_RETENTION_DAYS"
	// DefaultHistoryRetentionDays is the fallback history retention.
	DefaultHistoryRetentionDays = 365
)

// contentLimitKeys maps categories to their limit keys.
var contentLimitKeys = map[content.Category]string{
	content.Interior:        ContentLimitInteriorKey,
	content.Exterior:        ContentLimitExteriorKey,
	content.Highlights:      ContentLimitHighlightsKey,
	content.OptionsCategory: ContentLimitOptionsKey,
}

// KnownKeys lists the keys accepted by the settings API.
func KnownKeys() []string {
	return []string{
		SiteNameKey,
		ContentLimitInteriorKey,
		ContentLimitExteriorKey,
		ContentLimitHighlightsKey,
		ContentLimitOptionsKey,
		ContentSeparatorKey,
		HistoryRetentionDaysKey,
	}
}

// IsKnownKey reports whether key is accepted by the settings API.
func IsKnownKey(key string) bool {
	for _, k := range KnownKeys() {
		if k == key {
			return true
		}
	}
	return false
}
