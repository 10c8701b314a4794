package search

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Params are the arguments handed to the search tool. Kept as a plain map
// because the tool schema is dynamic.
type Params map[string]interface{}

// RangeSuggestion is a price or area band offered back to the user.
type RangeSuggestion struct {
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
	Label string  `json:"label"`
}

// Suggestions carries the refinement hints derived from a query.
type Suggestions struct {
	LocationVariants []string          `json:"locationVariants"`
	PriceRanges      []RangeSuggestion `json:"priceRanges"`
	PropertyTypes    []string          `json:"propertyTypes"`
	AreaRanges       []RangeSuggestion `json:"areaRanges"`
}

// Strategy groups the parameter sets for the escalating search passes.
type Strategy struct {
	Exact    Params
	Flexible Params
	Fallback Params
}

// Analysis is everything extracted from one natural language query.
type Analysis struct {
	OriginalQuery string
	Primary       Params
	Alternatives  []Params
	Related       []Params
	Strategy      Strategy
	Suggestions   Suggestions
}

type priceRange struct {
	min, max float64
}

type areaRange struct {
	min, max float64
}

var (
	priceValueRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(tỷ|ty|triệu|tr)`)
	areaValueRe  = regexp.MustCompile(`(\d+)\s*(?:m2|m²|mét vuông|met vuong)`)
	bedroomsRe   = regexp.MustCompile(`(\d+)\s*(?:phòng ngủ|phong ngu|pn|bedroom)`)
)

// Analyze extracts structured search parameters from a query and builds
// the escalation strategy around them.
func Analyze(query string) Analysis {
	folded := Fold(query)
	lower := strings.ToLower(query)

	district, districtAlts := matchLexicon(folded, districtLexicon)
	propertyType, typeAlts := matchLexicon(folded, propertyTypeLexicon)
	price := extractPrice(lower)
	area := extractArea(lower, folded)
	bedrooms := extractBedrooms(folded)

	primary := Params{}
	if district != "" {
		primary["location"] = district
	}
	if propertyType != "" {
		primary["propertyType"] = propertyType
	}
	if price.min > 0 {
		primary["minPrice"] = price.min
	}
	if price.max > 0 {
		primary["maxPrice"] = price.max
	}
	if area.min > 0 {
		primary["minArea"] = area.min
	}
	if area.max > 0 {
		primary["maxArea"] = area.max
	}
	if bedrooms > 0 {
		primary["bedrooms"] = bedrooms
	}

	return Analysis{
		OriginalQuery: query,
		Primary:       primary,
		Alternatives:  buildAlternatives(primary, districtAlts, typeAlts, price),
		Related:       buildRelated(district, propertyType),
		Strategy: Strategy{
			Exact:    primary,
			Flexible: flexibleParams(primary),
			Fallback: fallbackParams(primary),
		},
		Suggestions: Suggestions{
			LocationVariants: head(districtAlts, 5),
			PriceRanges:      priceRangeSuggestions(price),
			PropertyTypes:    head(typeAlts, 5),
			AreaRanges:       areaRangeSuggestions(area),
		},
	}
}

func extractPrice(lower string) priceRange {
	var r priceRange

	matches := priceValueRe.FindAllStringSubmatch(lower, -1)
	if len(matches) > 0 {
		values := make([]float64, 0, len(matches))
		for _, m := range matches {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				continue
			}
			if m[2] == "tỷ" || m[2] == "ty" {
				v *= 1_000_000_000
			} else {
				v *= 1_000_000
			}
			values = append(values, v)
		}
		if len(values) > 0 {
			lo, hi := minMax(values)
			switch {
			case strings.Contains(lower, "dưới") || strings.Contains(lower, "tối đa"):
				r.max = hi
			case strings.Contains(lower, "trên") || strings.Contains(lower, "tối thiểu"):
				r.min = lo
			case len(values) == 2:
				r.min, r.max = lo, hi
			default:
				r.min = values[0] * 0.8
				r.max = values[0] * 1.2
			}
		}
	}

	for _, band := range priceBands {
		if strings.Contains(lower, band.keyword) {
			if r.min == 0 && band.min > 0 {
				r.min = band.min
			}
			if r.max == 0 && band.max > 0 {
				r.max = band.max
			}
		}
	}
	return r
}

func extractArea(lower, folded string) areaRange {
	matches := areaValueRe.FindAllStringSubmatch(folded, -1)
	if len(matches) == 0 {
		return areaRange{}
	}
	values := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return areaRange{}
	}
	lo, hi := minMax(values)
	switch {
	case strings.Contains(lower, "dưới") || strings.Contains(lower, "tối đa"):
		return areaRange{max: hi}
	case strings.Contains(lower, "trên") || strings.Contains(lower, "tối thiểu"):
		return areaRange{min: lo}
	default:
		return areaRange{min: lo * 0.9, max: hi * 1.1}
	}
}

func extractBedrooms(folded string) int {
	if m := bedroomsRe.FindStringSubmatch(folded); m != nil {
		n, _ := strconv.Atoi(m[1])
		return n
	}
	return 0
}

func buildAlternatives(primary Params, districtAlts, typeAlts []string, price priceRange) []Params {
	var alternatives []Params

	for _, alt := range districtAlts {
		p := cloneParams(primary)
		p["location"] = alt
		alternatives = append(alternatives, p)
	}
	for _, alt := range typeAlts {
		p := cloneParams(primary)
		p["propertyType"] = alt
		alternatives = append(alternatives, p)
	}
	if price.min > 0 || price.max > 0 {
		p := cloneParams(primary)
		if price.min > 0 {
			p["minPrice"] = price.min * 0.7
		}
		if price.max > 0 {
			p["maxPrice"] = price.max * 1.3
		}
		alternatives = append(alternatives, p)
	}
	return alternatives
}

func buildRelated(district, propertyType string) []Params {
	var related []Params

	for _, area := range nearbyDistricts[district] {
		p := Params{"location": area}
		if propertyType != "" {
			p["propertyType"] = propertyType
		}
		related = append(related, p)
	}
	for _, t := range similarPropertyTypes[propertyType] {
		p := Params{"propertyType": t}
		if district != "" {
			p["location"] = district
		}
		related = append(related, p)
	}
	return related
}

// flexibleParams widens the price window by 20% and the area window by
// 15% around the exact parameters.
func flexibleParams(primary Params) Params {
	p := cloneParams(primary)
	if v, ok := p["minPrice"].(float64); ok {
		p["minPrice"] = v * 0.8
	}
	if v, ok := p["maxPrice"].(float64); ok {
		p["maxPrice"] = v * 1.2
	}
	if v, ok := p["minArea"].(float64); ok {
		p["minArea"] = v * 0.85
	}
	if v, ok := p["maxArea"].(float64); ok {
		p["maxArea"] = v * 1.15
	}
	return p
}

// fallbackParams keeps only the location so the last pass returns
// everything in the user's area.
func fallbackParams(primary Params) Params {
	p := Params{}
	if loc, ok := primary["location"]; ok {
		p["location"] = loc
	}
	return p
}

func priceRangeSuggestions(price priceRange) []RangeSuggestion {
	base := price.max
	if base == 0 {
		base = price.min
	}
	if base == 0 {
		base = 3_000_000_000
	}
	toTy := func(v float64) string {
		return strconv.FormatFloat(v/1_000_000_000, 'f', 1, 64)
	}
	return []RangeSuggestion{
		{Max: base * 0.7, Label: fmt.Sprintf("Dưới %s tỷ", toTy(base*0.7))},
		{Min: base * 0.8, Max: base * 1.2, Label: fmt.Sprintf("%s-%s tỷ", toTy(base*0.8), toTy(base*1.2))},
		{Min: base * 1.3, Label: fmt.Sprintf("Trên %s tỷ", toTy(base*1.3))},
	}
}

func areaRangeSuggestions(area areaRange) []RangeSuggestion {
	base := area.max
	if base == 0 {
		base = area.min
	}
	if base == 0 {
		base = 80
	}
	return []RangeSuggestion{
		{Max: math.Round(base * 0.8), Label: fmt.Sprintf("Dưới %.0fm²", math.Round(base*0.8))},
		{Min: math.Round(base * 0.9), Max: math.Round(base * 1.1), Label: fmt.Sprintf("%.0f-%.0fm²", math.Round(base*0.9), math.Round(base*1.1))},
		{Min: math.Round(base * 1.2), Label: fmt.Sprintf("Trên %.0fm²", math.Round(base*1.2))},
	}
}

func cloneParams(p Params) Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

func head(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
