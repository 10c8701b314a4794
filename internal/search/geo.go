package search

import "strings"

// Static Da Nang geography tables. When every analyzer-driven strategy
// has missed, landmarks, area profiles and location hints mentioned in
// the query seed one last search pass with parameters the analyzer could
// not derive on its own.

type geoLandmark struct {
	names       []string
	location    string
	radiusM     int
	nearbyAreas []string
}

var geoLandmarks = []geoLandmark{
	{[]string{"cầu rồng", "dragon bridge"}, "Hải Châu", 2000, []string{"Hải Châu", "Sơn Trà"}},
	{[]string{"cầu tình yêu", "love bridge"}, "Sơn Trà", 1500, []string{"Sơn Trà", "Ngũ Hành Sơn"}},
	{[]string{"chùa linh ứng", "linh ung pagoda"}, "Sơn Trà", 3000, []string{"Sơn Trà", "Ngũ Hành Sơn"}},
	{[]string{"bà nà hills", "bana hills"}, "Hòa Vang", 5000, []string{"Hòa Vang", "Liên Chiểu"}},
	{[]string{"ngũ hành sơn", "marble mountains"}, "Ngũ Hành Sơn", 2500, []string{"Ngũ Hành Sơn", "Sơn Trà", "Hòa Vang"}},
}

type areaProfile struct {
	name          string
	propertyTypes []string
	minPrice      float64
	maxPrice      float64
}

var areaProfiles = []areaProfile{
	{"hải châu", []string{"căn hộ", "shophouse", "văn phòng"}, 2_000_000_000, 8_000_000_000},
	{"sơn trà", []string{"biệt thự", "căn hộ cao cấp", "resort"}, 5_000_000_000, 20_000_000_000},
	{"thanh khê", []string{"căn hộ", "nhà riêng", "đất nền"}, 1_500_000_000, 5_000_000_000},
}

type locationHint struct {
	keywords    []string
	nearbyAreas []string
}

var locationHints = []locationHint{
	{[]string{"gần biển", "near beach", "view biển"}, []string{"Sơn Trà", "Ngũ Hành Sơn", "Hòa Vang"}},
	{[]string{"trung tâm", "downtown"}, []string{"Hải Châu", "Thanh Khê"}},
	{[]string{"yên tĩnh", "quiet"}, []string{"Hòa Vang", "Liên Chiểu", "Cẩm Lệ"}},
}

// geoKnowledge holds what the static tables recognized in one query.
type geoKnowledge struct {
	landmark *geoLandmark
	area     *areaProfile
	hint     *locationHint
}

func (g geoKnowledge) empty() bool {
	return g.landmark == nil && g.area == nil && g.hint == nil
}

// kinds lists the categories that fired, for result metadata.
func (g geoKnowledge) kinds() []string {
	var kinds []string
	if g.landmark != nil {
		kinds = append(kinds, "landmark")
	}
	if g.area != nil {
		kinds = append(kinds, "area_info")
	}
	if g.hint != nil {
		kinds = append(kinds, "location")
	}
	return kinds
}

// relevantGeoKnowledge scans the query against the static tables. Both
// sides are folded, so accents and casing do not matter.
func relevantGeoKnowledge(query string) geoKnowledge {
	folded := Fold(query)
	var g geoKnowledge

	for i := range geoLandmarks {
		for _, name := range geoLandmarks[i].names {
			if strings.Contains(folded, Fold(name)) {
				g.landmark = &geoLandmarks[i]
				break
			}
		}
		if g.landmark != nil {
			break
		}
	}

	for i := range areaProfiles {
		if strings.Contains(folded, Fold(areaProfiles[i].name)) {
			g.area = &areaProfiles[i]
			break
		}
	}

	for i := range locationHints {
		for _, kw := range locationHints[i].keywords {
			if strings.Contains(folded, Fold(kw)) {
				g.hint = &locationHints[i]
				break
			}
		}
		if g.hint != nil {
			break
		}
	}

	return g
}

// enhance merges the recognized knowledge into a copy of the base search
// parameters. A landmark pins the location and a radius around it, a
// location hint adds its nearby areas, and an area profile contributes
// its typical property types and price band without overriding an
// explicit budget. Returns nil when nothing was recognized.
func (g geoKnowledge) enhance(base Params) Params {
	if g.empty() {
		return nil
	}
	params := cloneParams(base)
	if g.landmark != nil {
		params["location"] = g.landmark.location
		params["radius"] = g.landmark.radiusM
	}
	if g.hint != nil {
		params["nearbyLocations"] = g.hint.nearbyAreas
	}
	if g.area != nil {
		params["suggestedPropertyTypes"] = g.area.propertyTypes
		if _, ok := params["minPrice"]; !ok {
			params["minPrice"] = g.area.minPrice
		}
		if _, ok := params["maxPrice"]; !ok {
			params["maxPrice"] = g.area.maxPrice
		}
	}
	return params
}
