package content

import "github.com/picklesmaker/pickles/internal/models"

// Category names one independently limited block of generated copy.
type Category string

// Output categories.
const (
	Interior        Category = "interior"
	Exterior        Category = "exterior"
	Highlights      Category = "highlights"
	OptionsCategory Category = "options"
)

// Categories lists every output category in display order.
var Categories = []Category{Interior, Exterior, Highlights, OptionsCategory}

// ParseCategory returns the category named s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Includes reports whether a rule item contributes to the category. Highlights and
// options are populated by flags rather than by placement.
func (c Category) Includes(item *models.RuleItem) bool {
	if item == nil {
		return false
	}
	switch c {
	case Interior:
		return item.Placement == models.PlacementInterior
	case Exterior:
		return item.Placement == models.PlacementExterior
	case Highlights:
		return item.IsHighlight
	case OptionsCategory:
		return item.IsOption
	default:
		return false
	}
}
