package listing

import (
	"regexp"
	"strings"
	"unicode"
)

// knownBrands is matched in order, so longer names precede their prefixes.
var knownBrands = []struct{ keyword, name string }{
	{"louis vuitton", "Louis Vuitton"}, {"lv", "Louis Vuitton"},
	{"gucci", "Gucci"}, {"prada", "Prada"}, {"chanel", "Chanel"}, {"burberry", "Burberry"},
	{"balenciaga", "Balenciaga"}, {"saint laurent", "Saint Laurent"}, {"ysl", "Saint Laurent"},
	{"givenchy", "Givenchy"}, {"dior", "Dior"}, {"celine", "Celine"},
	{"bottega veneta", "Bottega Veneta"}, {"loewe", "Loewe"},
	{"acne studios", "Acne Studios"}, {"ami paris", "AMI Paris"}, {"a.p.c.", "A.P.C."}, {"apc", "A.P.C."},
	{"comme des garcons", "Comme des Garcons"}, {"cdg", "Comme des Garcons"},
	{"rick owens", "Rick Owens"}, {"maison margiela", "Maison Margiela"}, {"margiela", "Maison Margiela"},
	{"yohji yamamoto", "Yohji Yamamoto"}, {"issey miyake", "Issey Miyake"},
	{"jil sander", "Jil Sander"}, {"helmut lang", "Helmut Lang"}, {"raf simons", "Raf Simons"},
	{"undercover", "Undercover"},
	{"supreme", "Supreme"}, {"palace", "Palace"}, {"bape", "BAPE"}, {"off-white", "Off-White"},
	{"fear of god", "Fear of God"}, {"fog", "Fear of God"}, {"stussy", "Stussy"},
	{"carhartt wip", "Carhartt WIP"}, {"carhartt", "Carhartt"},
	{"stone island", "Stone Island"}, {"cp company", "CP Company"},
	{"nike", "Nike"}, {"adidas", "Adidas"}, {"jordan", "Jordan"}, {"puma", "Puma"},
	{"reebok", "Reebok"}, {"new balance", "New Balance"}, {"vans", "Vans"},
	{"converse", "Converse"}, {"champion", "Champion"}, {"under armour", "Under Armour"},
	{"asics", "Asics"}, {"saucony", "Saucony"},
	{"arc'teryx", "Arc'teryx"}, {"arcteryx", "Arc'teryx"}, {"patagonia", "Patagonia"},
	{"the north face", "The North Face"}, {"north face", "The North Face"},
	{"columbia", "Columbia"}, {"fjallraven", "Fjallraven"}, {"ll bean", "LL Bean"},
	{"ralph lauren", "Ralph Lauren"}, {"tommy hilfiger", "Tommy Hilfiger"},
	{"calvin klein", "Calvin Klein"}, {"lacoste", "Lacoste"},
	{"levi's", "Levi's"}, {"levis", "Levi's"}, {"wrangler", "Wrangler"}, {"lee", "Lee"},
	{"diesel", "Diesel"}, {"allsaints", "AllSaints"}, {"uniqlo", "Uniqlo"}, {"muji", "Muji"},
	{"everlane", "Everlane"}, {"madewell", "Madewell"},
}

// colorKeywords maps shade names to standard colors. The longest matching
// keyword wins, so "navy blue" resolves to navy.
var colorKeywords = []rule{
	{"black", []string{"black", "noir", "onyx", "ebony", "jet black", "matte black"}},
	{"white", []string{"white", "ivory", "blanc", "eggshell", "pearl", "snow"}},
	{"cream", []string{"cream", "off white"}},
	{"grey", []string{"grey", "gray", "charcoal", "heather", "gris", "slate", "ash", "gunmetal"}},
	{"silver", []string{"silver"}},
	{"navy", []string{"navy", "navy blue", "marine", "midnight blue", "dark blue"}},
	{"blue", []string{"blue", "cobalt", "royal blue", "sky blue", "bleu", "azure", "cerulean", "teal", "turquoise", "cyan"}},
	{"red", []string{"red", "burgundy", "maroon", "crimson", "rouge", "scarlet", "cherry", "wine"}},
	{"pink", []string{"pink", "rose", "blush", "fuchsia", "magenta", "hot pink", "salmon", "coral"}},
	{"green", []string{"green", "olive", "forest green", "sage", "vert", "lime", "emerald", "jade", "hunter green"}},
	{"yellow", []string{"yellow", "mustard", "jaune", "lemon", "butter"}},
	{"gold", []string{"gold", "golden"}},
	{"orange", []string{"orange", "rust", "burnt orange", "amber", "copper", "peach"}},
	{"purple", []string{"purple", "violet", "lavender", "plum", "mauve", "lilac", "grape"}},
	{"brown", []string{"brown", "chocolate", "marron", "coffee", "mocha", "chestnut", "cognac"}},
	{"beige", []string{"beige", "tan", "khaki", "camel", "sand", "taupe", "nude", "wheat", "oatmeal", "ecru"}},
	{"multicolor", []string{"multi", "multicolor", "multicolour", "rainbow", "tie dye", "tie-dye", "camo", "camouflage", "floral"}},
}

// conditionKeywords is matched in order; the first hit wins.
var conditionKeywords = []rule{
	{"New", []string{"new with tags", "nwt", "brand new", "deadstock"}},
	{"Like New", []string{"new without tags", "nwot", "like new"}},
	{"Good", []string{"excellent", "mint condition", "good"}},
	{"Fair", []string{"fair", "poor", "damaged", "well worn"}},
}

var (
	labeledSize = regexp.MustCompile(`(?i)\bsize[:\s]+(\d{1,2}(?:\.5)?|[2-4]?x{0,3}[sml]|xxs|os)\b`)
	waistInseam = regexp.MustCompile(`(?i)\b(\d{2})\s?x\s?(\d{2})\b`)
	waistOnly   = regexp.MustCompile(`(?i)\b(w\d{2}|\d{2}w)\b`)
	letterSize  = regexp.MustCompile(`(?:^|[\s(/,])(XXS|XS|S|M|L|XL|XXL|XXXL|[2-4]XL)(?:$|[\s)/,.])`)
)

// ExtractBrand finds a well-known brand name in text. It returns "" when none
// is mentioned.
func ExtractBrand(text string) string {
	t := strings.ToLower(text)
	for _, b := range knownBrands {
		if containsWord(t, b.keyword) {
			return b.name
		}
	}
	return ""
}

// ExtractColor returns the standard color of the most specific shade named in
// text, or "".
func ExtractColor(text string) string {
	t := strings.ToLower(text)
	best, bestLen := "", 0
	for _, r := range colorKeywords {
		for _, kw := range r.keywords {
			if len(kw) > bestLen && containsWord(t, kw) {
				best, bestLen = r.value, len(kw)
			}
		}
	}
	return best
}

// ExtractSize reads a size from text: an explicit "size X" label first, then
// waist/inseam, waist, and finally a standalone upper-case letter size.
func ExtractSize(text string) string {
	if m := labeledSize.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := waistInseam.FindStringSubmatch(text); m != nil {
		return m[1] + "x" + m[2]
	}
	if m := waistOnly.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := letterSize.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractCondition maps condition phrases in text onto New, Like New, Good or
// Fair. It returns "" when text says nothing about condition.
func ExtractCondition(text string) string {
	t := strings.ToLower(text)
	for _, r := range conditionKeywords {
		for _, kw := range r.keywords {
			if containsWord(t, kw) {
				return r.value
			}
		}
	}
	return ""
}

// InferFromText fills metadata the marketplace left unresolved from the title
// and description. Category is read from the title only, since descriptions
// mention garments the listing is not ("pairs well with jeans").
func (l *Listing) InferFromText() {
	text := l.Title + " " + l.Description
	if l.Brand == "" || strings.EqualFold(l.Brand, UnknownBrand) {
		l.Brand = ExtractBrand(text)
	}
	if (l.Category == "" || l.Category == OtherCategory) && l.Title != "" {
		l.Category = NormalizeCategory(l.Title)
	}
	if l.Color == "" || l.Color == UnknownColor {
		l.Color = ExtractColor(text)
	}
	if l.Size == "" || strings.EqualFold(l.Size, UnknownSize) {
		l.Size = ExtractSize(text)
	}
	if l.Condition == "" || l.Condition == UnknownCondition {
		l.Condition = ExtractCondition(text)
	}
}

// containsWord reports whether phrase occurs in text delimited by
// non-alphanumeric runes. Both must already be lower case.
func containsWord(text, phrase string) bool {
	for from := 0; ; {
		i := strings.Index(text[from:], phrase)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(phrase)
		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		from = start + 1
	}
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r := rune(s[i-1])
	return r >= 0x80 || !(unicode.IsLetter(r) || unicode.IsDigit(r))
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r := rune(s[i])
	return r >= 0x80 || !(unicode.IsLetter(r) || unicode.IsDigit(r))
}
