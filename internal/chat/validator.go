package chat

import (
	"fmt"
	"math/rand"
	"regexp"
	"strings"
)

// Validator checks that a synthesized reply stays a short advisory message
// and does not duplicate listing details the structured results already
// carry. UUID leakage is the only hard error; everything else is a warning.
type Validator struct{}

// ValidationResult reports what leaked into a reply.
type ValidationResult struct {
	IsValid  bool
	Warnings []string
	Errors   []string
}

var (
	priceRe        = regexp.MustCompile(`\d+\s*(triệu|tỷ|million|billion)`)
	areaRe         = regexp.MustCompile(`\d+\s*(m²|m2|mét vuông|square meters?)`)
	numberedListRe = regexp.MustCompile(`\d+\.\s*[A-ZÀÁẠẢÃÂẦẤẬẨẪĂẰẮẶẲẴÈÉẸẺẼÊỀẾỆỂỄÌÍỊỈĨÒÓỌỎÕÔỒỐỘỔỖƠỜỚỢỞỠÙÚỤỦŨƯỪỨỰỬỮỲÝỴỶỸĐ]`)
	uuidRe         = regexp.MustCompile(`[a-f0-9]{8}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{4}-[a-f0-9]{12}`)
	stripNumberRe  = regexp.MustCompile(`\d+\.\s*`)
)

var streetNames = []string{
	"Trần Văn Trứ", "Thái Phiên", "Lê Duẩn", "Nguyễn Văn Linh",
	"Hoàng Diệu", "Phan Châu Trinh", "Lê Lợi", "Hùng Vương",
	"Trưng Nữ Vương", "Điện Biên Phủ", "Ngô Quyền", "Lý Thái Tổ",
}

var listingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`cho thuê.*tại.*giá`),
	regexp.MustCompile(`bán.*tại.*giá`),
	regexp.MustCompile(`căn hộ.*tại.*\d+`),
	regexp.MustCompile(`nhà.*tại.*\d+`),
}

// Validate inspects a reply against the structured results it accompanies.
func (v *Validator) Validate(response string, results []map[string]interface{}) ValidationResult {
	res := ValidationResult{IsValid: true}

	if priceRe.MatchString(response) {
		res.Warnings = append(res.Warnings, "Response contains specific prices")
	}
	if areaRe.MatchString(response) {
		res.Warnings = append(res.Warnings, "Response contains specific areas")
	}
	if numberedListRe.MatchString(response) {
		res.Warnings = append(res.Warnings, "Response contains numbered property listings")
	}
	if uuidRe.MatchString(response) {
		res.Errors = append(res.Errors, "Response contains UUIDs")
	}

	for _, street := range streetNames {
		if strings.Contains(response, street) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Response contains street name: %s", street))
		}
	}

	for _, p := range listingPatterns {
		if p.MatchString(response) {
			res.Warnings = append(res.Warnings, "Response contains listing-style patterns")
			break
		}
	}

	if len(results) > 0 {
		first := results[0]
		if addr, ok := first["address"].(string); ok && addr != "" && strings.Contains(response, addr) {
			res.Errors = append(res.Errors, "Response duplicates address from results")
		}
		if title, ok := first["title"].(string); ok && title != "" && strings.Contains(response, title) {
			res.Errors = append(res.Errors, "Response duplicates title from results")
		}
	}

	res.IsValid = len(res.Errors) == 0
	return res
}

// CleanResponse scrubs concrete figures out of a reply while keeping its
// advisory tone readable.
func (v *Validator) CleanResponse(response string) string {
	cleaned := priceRe.ReplaceAllString(response, "X triệu")
	cleaned = areaRe.ReplaceAllString(cleaned, "X m²")
	cleaned = stripNumberRe.ReplaceAllString(cleaned, "")
	cleaned = uuidRe.ReplaceAllString(cleaned, "[ID]")
	return cleaned
}

// GenerateCleanResponse builds a safe advisory reply from scratch when the
// model's own reply failed validation.
func (v *Validator) GenerateCleanResponse(query string, results []map[string]interface{}) string {
	if len(results) == 0 {
		return fmt.Sprintf(`Hiện tại tôi chưa tìm thấy bất động sản phù hợp với yêu cầu "%s". Bạn có thể thử điều chỉnh tiêu chí tìm kiếm hoặc mở rộng khu vực để có thêm lựa chọn.`, query)
	}

	count := len(results)
	quantity := "một số"
	if count > 5 {
		quantity = "nhiều"
	}

	templates := []string{
		fmt.Sprintf("Tôi đã tìm được %s bất động sản phù hợp với yêu cầu của bạn. Các lựa chọn có mức giá và vị trí đa dạng, bạn có thể xem chi tiết bên dưới.", quantity),
		fmt.Sprintf("Có %d bất động sản phù hợp với tiêu chí của bạn. Hãy xem danh sách chi tiết để lựa chọn phương án tốt nhất.", count),
		fmt.Sprintf("Tôi tìm thấy %d lựa chọn phù hợp. Nếu bạn có yêu cầu cụ thể hơn về ngân sách hoặc khu vực, tôi có thể lọc chính xác hơn.", count),
	}
	return templates[rand.Intn(len(templates))]
}
