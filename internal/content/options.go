package content

// Default assembly settings.
const (
	DefaultSeparator = "\n\n"
	DefaultSuffix    = ""

	// MaxContentLength is the longest text accepted for a single content item.
	MaxContentLength = 35
)

// DefaultLimits are the per-category character budgets.
var DefaultLimits = map[Category]int{
	Interior:        500,
	Exterior:        500,
	Highlights:      600,
	OptionsCategory: 400,
}

// Options configures how categories are packed.
type Options struct {
	Limits    map[Category]int
	Separator string
	Suffix    string
}

// DefaultOptions returns the stock limits, separator and suffix.
func DefaultOptions() Options {
	limits := make(map[Category]int, len(DefaultLimits))
	for k, v := range DefaultLimits {
		limits[k] = v
	}
	return Options{Limits: limits, Separator: DefaultSeparator, Suffix: DefaultSuffix}
}

// Limit returns the character budget for a category, falling back to the default.
func (o Options) Limit(c Category) int {
	if v, ok := o.Limits[c]; ok && v >= 0 {
		return v
	}
	return DefaultLimits[c]
}

// WithLimit returns a copy of o with the category limit replaced.
func (o Options) WithLimit(c Category, limit int) Options {
	limits := make(map[Category]int, len(o.Limits)+1)
	for k, v := range o.Limits {
		limits[k] = v
	}
	limits[c] = limit
	o.Limits = limits
	return o
}
