package search

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hải Châu", "hai chau"},
		{"Đà Nẵng", "da nang"},
		{"căn hộ 2 phòng ngủ!", "can ho 2 phong ngu"},
		{"  nhiều   khoảng   trắng  ", "nhieu khoang trang"},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Fatalf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAnalyzeExtractsDistrictAndType(t *testing.T) {
	a := Analyze("tìm căn hộ Hải Châu")
	if a.Primary["location"] != "hải châu" {
		t.Fatalf("location = %v", a.Primary["location"])
	}
	if a.Primary["propertyType"] != "căn hộ" {
		t.Fatalf("propertyType = %v", a.Primary["propertyType"])
	}
}

func TestAnalyzeAccentlessQueryStillMatches(t *testing.T) {
	a := Analyze("can ho hai chau gia re")
	if a.Primary["location"] != "hải châu" {
		t.Fatalf("location = %v", a.Primary["location"])
	}
	if a.Primary["propertyType"] != "căn hộ" {
		t.Fatalf("propertyType = %v", a.Primary["propertyType"])
	}
}

func TestAnalyzePriceUpperBound(t *testing.T) {
	a := Analyze("nhà dưới 3 tỷ")
	max, ok := a.Primary["maxPrice"].(float64)
	if !ok || max != 3_000_000_000 {
		t.Fatalf("maxPrice = %v", a.Primary["maxPrice"])
	}
	if _, ok := a.Primary["minPrice"]; ok {
		t.Fatalf("minPrice should be absent: %v", a.Primary)
	}
}

func TestAnalyzePriceLowerBound(t *testing.T) {
	a := Analyze("biệt thự trên 5 tỷ")
	min, ok := a.Primary["minPrice"].(float64)
	if !ok || min != 5_000_000_000 {
		t.Fatalf("minPrice = %v", a.Primary["minPrice"])
	}
}

func TestAnalyzeSinglePriceGetsTolerance(t *testing.T) {
	a := Analyze("căn hộ 2 tỷ")
	min, _ := a.Primary["minPrice"].(float64)
	max, _ := a.Primary["maxPrice"].(float64)
	if min != 1_600_000_000 || max != 2_400_000_000 {
		t.Fatalf("price window = [%v, %v], want 20%% tolerance", min, max)
	}
}

func TestAnalyzePriceKeyword(t *testing.T) {
	a := Analyze("nhà giá rẻ Thanh Khê")
	max, ok := a.Primary["maxPrice"].(float64)
	if !ok || max != 2_000_000_000 {
		t.Fatalf("maxPrice = %v", a.Primary["maxPrice"])
	}
}

func TestAnalyzeBedroomsAndArea(t *testing.T) {
	a := Analyze("căn hộ 2 phòng ngủ 80 m2")
	if a.Primary["bedrooms"] != 2 {
		t.Fatalf("bedrooms = %v", a.Primary["bedrooms"])
	}
	min, _ := a.Primary["minArea"].(float64)
	max, _ := a.Primary["maxArea"].(float64)
	if min != 72 || max != 88 {
		t.Fatalf("area window = [%v, %v]", min, max)
	}
}

func TestAnalyzeStrategyWidensWindows(t *testing.T) {
	a := Analyze("căn hộ Hải Châu dưới 3 tỷ")
	exactMax := a.Strategy.Exact["maxPrice"].(float64)
	flexMax := a.Strategy.Flexible["maxPrice"].(float64)
	if flexMax != exactMax*1.2 {
		t.Fatalf("flexible maxPrice = %v, want %v", flexMax, exactMax*1.2)
	}
	if len(a.Strategy.Fallback) != 1 || a.Strategy.Fallback["location"] != "hải châu" {
		t.Fatalf("fallback = %v, want location only", a.Strategy.Fallback)
	}
}

func TestAnalyzeRelatedCoversNeighborsAndSimilarTypes(t *testing.T) {
	a := Analyze("căn hộ Hải Châu")
	if len(a.Related) == 0 {
		t.Fatalf("no related params")
	}
	foundNeighbor := false
	foundSimilarType := false
	for _, p := range a.Related {
		if p["location"] == "thanh khê" {
			foundNeighbor = true
		}
		if p["propertyType"] == "nhà riêng" && p["location"] == "hải châu" {
			foundSimilarType = true
		}
	}
	if !foundNeighbor || !foundSimilarType {
		t.Fatalf("related = %v", a.Related)
	}
}

func TestAnalyzeEmptyQuery(t *testing.T) {
	a := Analyze("")
	if len(a.Primary) != 0 {
		t.Fatalf("primary = %v, want empty", a.Primary)
	}
	if len(a.Suggestions.PriceRanges) != 3 {
		t.Fatalf("price suggestions = %v", a.Suggestions.PriceRanges)
	}
}
