package listing

import "strings"

var standardColors = map[string]struct{}{
	"black": {}, "white": {}, "grey": {}, "gray": {}, "navy": {}, "blue": {},
	"red": {}, "pink": {}, "green": {}, "yellow": {}, "orange": {}, "purple": {},
	"brown": {}, "beige": {}, "tan": {}, "cream": {}, "gold": {}, "silver": {},
	"multicolor": {}, "unknown": {},
}

var standardCategories = map[string]struct{}{
	"tshirt": {}, "t-shirt": {}, "shirt": {}, "blouse": {}, "top": {}, "tank": {},
	"crop-top": {}, "sweater": {}, "sweatshirt": {}, "hoodie": {}, "cardigan": {},
	"pullover": {}, "jeans": {}, "pants": {}, "trousers": {}, "shorts": {},
	"skirt": {}, "leggings": {}, "jacket": {}, "coat": {}, "blazer": {}, "parka": {},
	"windbreaker": {}, "vest": {}, "dress": {}, "jumpsuit": {}, "romper": {},
	"suit": {}, "sneakers": {}, "boots": {}, "shoes": {}, "sandals": {}, "heels": {},
	"loafers": {}, "bag": {}, "backpack": {}, "handbag": {}, "wallet": {}, "belt": {},
	"hat": {}, "scarf": {}, "sunglasses": {}, "jewelry": {}, "watch": {},
	"other": {}, "unknown": {},
}

// rule maps any of its keywords to a canonical value. Order matters.
type rule struct {
	value    string
	keywords []string
}

var colorRules = []rule{
	{"black", []string{"black", "noir"}},
	{"white", []string{"white", "blanc"}},
	{"grey", []string{"grey", "gray"}},
	{"navy", []string{"navy"}},
	{"blue", []string{"blue", "bleu"}},
	{"red", []string{"red", "rouge"}},
	{"pink", []string{"pink", "rose"}},
	{"green", []string{"green", "vert"}},
	{"yellow", []string{"yellow", "jaune"}},
	{"orange", []string{"orange"}},
	{"purple", []string{"purple", "violet"}},
	{"brown", []string{"brown", "marron"}},
	{"beige", []string{"beige", "tan", "cream"}},
	{"gold", []string{"gold"}},
	{"silver", []string{"silver"}},
	{"multicolor", []string{"multi", "print"}},
}

var categoryRules = []rule{
	{"t-shirt", []string{"t-shirt", "tee"}},
	{"sweatshirt", []string{"sweatshirt"}},
	{"hoodie", []string{"hoodie", "hood"}},
	{"shirt", []string{"shirt"}},
	{"sweater", []string{"sweater", "pullover", "knit"}},
	{"jeans", []string{"jean", "denim"}},
	{"pants", []string{"pant", "trouser", "chino"}},
	{"shorts", []string{"short"}},
	{"jacket", []string{"jacket", "blouson"}},
	{"coat", []string{"coat", "parka"}},
	{"dress", []string{"dress"}},
	{"sneakers", []string{"sneaker", "trainer"}},
	{"boots", []string{"boot"}},
	{"shoes", []string{"shoe"}},
	{"bag", []string{"bag", "purse", "sac"}},
	{"skirt", []string{"skirt"}},
}

var conditionAliases = map[string]string{
	"new_with_tags":    "New",
	"new_with_tag":     "New",
	"new":              "New",
	"brand_new":        "New",
	"new_without_tags": "Like New",
	"new_without_tag":  "Like New",
	"like_new":         "Like New",
	"very_good":        "Good",
	"used_excellent":   "Good",
	"good":             "Good",
	"used_good":        "Good",
	"satisfactory":     "Fair",
	"used_fair":        "Fair",
	"fair":             "Fair",
	"gently_used":      "Good",
	"is_gently_used":   "Good",
	"is_used":          "Fair",
	"is_new":           "New",
}

// NormalizeColor maps a free-text color to a standard color or UnknownColor.
func NormalizeColor(s string) string {
	return normalize(s, standardColors, colorRules, UnknownColor)
}

// NormalizeCategory maps a free-text category to a standard category or OtherCategory.
func NormalizeCategory(s string) string {
	return normalize(s, standardCategories, categoryRules, OtherCategory)
}

// NormalizeCondition maps marketplace condition codes to New, Like New, Good or Fair.
// Unrecognized non-empty values are kept verbatim.
func NormalizeCondition(s string) string {
	v := strings.TrimSpace(s)
	if v == "" {
		return UnknownCondition
	}
	key := strings.ReplaceAll(strings.ToLower(v), " ", "_")
	if c, ok := conditionAliases[key]; ok {
		return c
	}
	return v
}

func normalize(s string, standard map[string]struct{}, rules []rule, fallback string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if v == "" {
		return fallback
	}
	if _, ok := standard[v]; ok {
		return v
	}
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(v, kw) {
				return r.value
			}
		}
	}
	return fallback
}
