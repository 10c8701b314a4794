package search

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// lexiconEntry maps a canonical term to the spellings and colloquialisms
// users actually type. Entries are matched in order, first hit wins.
type lexiconEntry struct {
	canonical string
	variants  []string
}

// Da Nang district lexicon.
var districtLexicon = []lexiconEntry{
	{"hải châu", []string{"hải châu", "hai chau", "trung tâm", "downtown", "quận hải châu"}},
	{"thanh khê", []string{"thanh khê", "thanh khe", "quận thanh khê", "khu công nghệ"}},
	{"sơn trà", []string{"sơn trà", "son tra", "quận sơn trà", "bán đảo sơn trà", "linh ung"}},
	{"ngũ hành sơn", []string{"ngũ hành sơn", "ngu hanh son", "quận ngũ hành sơn", "marble mountains"}},
	{"cẩm lệ", []string{"cẩm lệ", "cam le", "quận cẩm lệ", "khu công nghiệp"}},
	{"liên chiểu", []string{"liên chiểu", "lien chieu", "quận liên chiểu"}},
	{"hòa vang", []string{"hòa vang", "hoa vang", "huyện hòa vang"}},
}

var propertyTypeLexicon = []lexiconEntry{
	{"căn hộ", []string{"căn hộ", "can ho", "apartment", "chung cư", "condo"}},
	{"nhà riêng", []string{"nhà riêng", "nha rieng", "nhà phố", "nha pho", "townhouse", "house"}},
	{"biệt thự", []string{"biệt thự", "biet thu", "villa", "nhà vườn"}},
	{"đất nền", []string{"đất nền", "dat nen", "đất", "dat", "land", "lô đất"}},
	{"shophouse", []string{"shophouse", "shop house", "nhà mặt tiền", "mặt tiền"}},
	{"văn phòng", []string{"văn phòng", "van phong", "office", "officetel"}},
}

type priceBand struct {
	keyword  string
	min, max float64
	label    string
}

var priceBands = []priceBand{
	{keyword: "rẻ", max: 2_000_000_000, label: "Giá rẻ (dưới 2 tỷ)"},
	{keyword: "bình dân", max: 3_000_000_000, label: "Bình dân (dưới 3 tỷ)"},
	{keyword: "trung bình", min: 2_000_000_000, max: 5_000_000_000, label: "Trung bình (2-5 tỷ)"},
	{keyword: "cao cấp", min: 5_000_000_000, max: 10_000_000_000, label: "Cao cấp (5-10 tỷ)"},
	{keyword: "sang trọng", min: 10_000_000_000, label: "Sang trọng (trên 10 tỷ)"},
}

var nearbyDistricts = map[string][]string{
	"hải châu":     {"thanh khê", "sơn trà"},
	"thanh khê":    {"hải châu", "cẩm lệ"},
	"sơn trà":      {"hải châu", "ngũ hành sơn"},
	"ngũ hành sơn": {"sơn trà", "hòa vang"},
	"cẩm lệ":       {"thanh khê", "liên chiểu"},
	"liên chiểu":   {"cẩm lệ", "hòa vang"},
}

var similarPropertyTypes = map[string][]string{
	"căn hộ":    {"nhà riêng", "shophouse"},
	"nhà riêng": {"căn hộ", "biệt thự"},
	"biệt thự":  {"nhà riêng", "đất nền"},
	"đất nền":   {"biệt thự", "shophouse"},
	"shophouse": {"nhà riêng", "văn phòng"},
	"văn phòng": {"shophouse", "căn hộ"},
}

var (
	foldChain    = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	nonWordRe    = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// Fold lowercases a string and strips Vietnamese diacritics so lexicon
// matching works regardless of how the user typed the accents.
func Fold(s string) string {
	lower := strings.ToLower(s)
	folded, _, err := transform.String(foldChain, lower)
	if err != nil {
		folded = lower
	}
	folded = strings.ReplaceAll(folded, "đ", "d")
	folded = nonWordRe.ReplaceAllString(folded, " ")
	folded = multiSpaceRe.ReplaceAllString(folded, " ")
	return strings.TrimSpace(folded)
}

// matchLexicon scans a folded query against a lexicon. It returns the
// canonical name of the first matched entry plus that entry's unmatched
// variants, folding both sides before comparing.
func matchLexicon(foldedQuery string, lexicon []lexiconEntry) (string, []string) {
	for _, entry := range lexicon {
		for _, variant := range entry.variants {
			if strings.Contains(foldedQuery, Fold(variant)) {
				var alternatives []string
				for _, v := range entry.variants {
					if v != variant {
						alternatives = append(alternatives, v)
					}
				}
				return entry.canonical, alternatives
			}
		}
	}
	return "", nil
}
