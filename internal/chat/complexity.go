package chat

import "strings"

// Complexity buckets a query by how much domain context the model needs
// before it can answer well.
type Complexity string

const (
	ComplexitySimple      Complexity = "SIMPLE"
	ComplexityModerate    Complexity = "MODERATE"
	ComplexityComplex     Complexity = "COMPLEX"
	ComplexityVeryComplex Complexity = "VERY_COMPLEX"
)

// Knowledge sections that can be appended to the system prompt.
const (
	SectionMarketAnalysis   = "MARKET_ANALYSIS"
	SectionInvestmentGuide  = "INVESTMENT_GUIDE"
	SectionLegalProcedures  = "LEGAL_PROCEDURES"
	SectionPropertyTypes    = "PROPERTY_TYPES"
	SectionLocationAnalysis = "LOCATION_ANALYSIS"
	SectionGeneralKnowledge = "GENERAL_KNOWLEDGE"
)

// ComplexityResult is the outcome of scoring a query.
type ComplexityResult struct {
	Complexity         Complexity
	Score              int
	Indicators         []string
	NeedsKnowledgeBase bool
}

// Consultation and analysis phrases weigh double because they signal the
// user wants advice, not a plain lookup.
var complexIndicators = []string{
	"đầu tư", "lợi nhuận", "roi", "tỷ suất",
	"xu hướng", "thị trường", "giá tăng", "giá giảm",
	"nên mua", "nên thuê", "tư vấn", "phân tích",
	"so sánh", "lựa chọn nào tốt",
	"mới ra trường", "sinh viên", "gia đình trẻ", "có con nhỏ",
	"người già", "về hưu",
	"làm việc tại", "gần chỗ làm", "gần trường học",
	"an toàn", "yên tĩnh",
	"kinh doanh", "mở shop", "văn phòng công ty",
	"nhân viên", "khách hàng", "mặt tiền", "vị trí đẹp",
	"foot traffic", "giao thông thuận tiện",
	"pháp lý", "sổ đỏ", "sổ hồng", "quy hoạch",
	"hạ tầng", "tiện ích", "view đẹp", "hướng nhà",
	"feng shui", "thiết kế", "nội thất",
	"giá cả thế nào", "có đắt không", "có rẻ không", "giá hợp lý",
	"khu vực nào tốt", "nên chọn đâu", "ưu nhược điểm",
}

var multiCriteriaIndicators = []string{
	"và", "hoặc", "nhưng", "tuy nhiên", "ngoài ra",
	"bên cạnh đó", "đồng thời", "cùng với", "kết hợp",
	"vừa", "vừa",
}

var consultationWords = []string{"nên", "tốt nhất", "phù hợp", "lựa chọn", "khuyên"}

// AnalyzeComplexity scores a query against the indicator lexicons. It never
// fails; anything unusual degrades to SIMPLE.
func AnalyzeComplexity(query string) ComplexityResult {
	if strings.TrimSpace(query) == "" {
		return ComplexityResult{Complexity: ComplexitySimple}
	}

	lower := strings.ToLower(query)
	score := 0
	var indicators []string

	for _, ind := range complexIndicators {
		if strings.Contains(lower, ind) {
			score += 2
			indicators = append(indicators, ind)
		}
	}

	for _, ind := range multiCriteriaIndicators {
		if strings.Contains(lower, ind) {
			score++
			indicators = append(indicators, ind)
		}
	}

	if len([]rune(query)) > 100 {
		score++
		indicators = append(indicators, "Long query")
	}

	for _, w := range consultationWords {
		if strings.Contains(lower, w) {
			score++
			indicators = append(indicators, "Consultation needed")
		}
	}

	res := ComplexityResult{Score: score, Indicators: indicators}
	switch {
	case score >= 4:
		res.Complexity = ComplexityVeryComplex
		res.NeedsKnowledgeBase = true
	case score >= 2:
		res.Complexity = ComplexityComplex
		res.NeedsKnowledgeBase = true
	case score >= 1:
		res.Complexity = ComplexityModerate
	default:
		res.Complexity = ComplexitySimple
	}
	return res
}

// RelevantSections maps a query to the knowledge sections worth loading.
// Only called for queries whose complexity warrants knowledge at all.
func RelevantSections(query string, res ComplexityResult) []string {
	lower := strings.ToLower(query)
	var sections []string

	containsAny := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(lower, w) {
				return true
			}
		}
		return false
	}

	if containsAny("thị trường", "xu hướng", "market", "trend") {
		sections = append(sections, SectionMarketAnalysis)
	}
	if containsAny("đầu tư", "investment", "lợi nhuận", "profit") {
		sections = append(sections, SectionInvestmentGuide)
	}
	if containsAny("pháp lý", "legal", "thủ tục", "giấy tờ") {
		sections = append(sections, SectionLegalProcedures)
	}
	if containsAny("căn hộ", "nhà", "đất", "apartment") {
		sections = append(sections, SectionPropertyTypes)
	}
	if containsAny("vị trí", "location", "khu vực", "area") {
		sections = append(sections, SectionLocationAnalysis)
	}

	if len(sections) == 0 && res.NeedsKnowledgeBase {
		sections = append(sections, SectionGeneralKnowledge)
	}
	return sections
}
