package resolution

import (
	"fmt"
	"strings"

	"github.com/solvire/fartemis/resolution/algorithms"
	"github.com/solvire/fartemis/resolution/types"
)

// nameChangeMarkers явные формулировки смены имени в тексте
var nameChangeMarkers = []string{
	"formerly",
	"née",
	"nee ",
	"previously known as",
	"now known as",
	"name change",
	"changed her name",
	"changed his name",
	"changed their name",
}

// NameChangeDetector проверка непрерывности идентичности при текстовом
// несовпадении имени. Применяется только к лучшему кандидату, чтобы
// ограничить стоимость; на ранжирование не влияет.
type NameChangeDetector struct {
	criteria   types.SearchCriteria
	variations NameVariationSet
}

// NewNameChangeDetector создает новый детектор смены имени
func NewNameChangeDetector(criteria types.SearchCriteria, variations NameVariationSet) *NameChangeDetector {
	return &NameChangeDetector{criteria: criteria, variations: variations}
}

// Assess оценивает вероятность того, что отображаемое имя кандидата —
// продолжение искомой идентичности несмотря на несовпадение.
// Возвращает nil, когда хэндл соответствует вариантам имени (несовпадения нет).
// sharedConnections — число общих связей; при отсутствии графа передается ноль
// и вклад этого сигнала равен нулю.
func (d *NameChangeDetector) Assess(c types.ScoredCandidate, sharedConnections int) *types.NameChangeAssessment {
	handle := strings.ToLower(c.Candidate.ExtractedHandle)
	if handle == "" {
		return nil
	}

	// Хэндл совпадает с одним из вариантов — смены имени нет
	for _, form := range d.variations.HandleForms() {
		if strings.Contains(handle, form) {
			return nil
		}
	}

	// Отображаемое имя отличается от искомого не более чем на опечатку —
	// расходится только хэндл, смены имени нет
	if displayed := extractDisplayedName(c.Candidate); displayed != "" {
		distance := algorithms.LevenshteinDistance(
			strings.ToLower(displayed), strings.ToLower(d.criteria.FullName()))
		if distance <= 2 {
			return nil
		}
	}

	assessment := &types.NameChangeAssessment{
		OriginalName: d.criteria.FullName(),
	}

	confidence := 0.0
	first := sanitizeNamePart(d.criteria.FirstName)
	context := strings.ToLower(c.Candidate.ContextSnippet)

	// Имя присутствует, фамилия нет — классический след смены фамилии
	if first != "" && strings.Contains(handle, first) {
		confidence += 0.4
		assessment.Evidence = append(assessment.Evidence, "First name still present in handle")
	}

	// Непрерывность по компании: упоминание компании из критериев
	company := strings.ToLower(strings.TrimSpace(d.criteria.Company))
	if company != "" {
		mention := strings.ToLower(c.Candidate.CompanyMention + " " + c.Candidate.ContextSnippet)
		if strings.Contains(mention, company) {
			confidence += 0.3
			assessment.Evidence = append(assessment.Evidence, "Company timeline continuity")
		}
	}

	// Общие связи: убывающая отдача, вклад ограничен 0.2
	if sharedConnections > 0 {
		scaled := 0.2 * float64(sharedConnections) / float64(sharedConnections+20)
		confidence += scaled
		assessment.Evidence = append(assessment.Evidence,
			fmt.Sprintf("Shared connections: %d", sharedConnections))
	}

	// Явные формулировки смены имени в сниппете
	for _, marker := range nameChangeMarkers {
		if strings.Contains(context, marker) {
			confidence += 0.1
			assessment.Evidence = append(assessment.Evidence, "Name change language in content")
			break
		}
	}

	if confidence > 1.0 {
		confidence = 1.0
	}
	assessment.Confidence = confidence
	assessment.CurrentName = extractDisplayedName(c.Candidate)

	return assessment
}

// extractDisplayedName пытается извлечь текущее отображаемое имя кандидата
// из display_name или заголовка (текст до " - ", " | " или ":")
func extractDisplayedName(c types.Candidate) string {
	if c.DisplayName != "" {
		return c.DisplayName
	}

	title := c.Title
	if title == "" {
		title = c.ContextSnippet
	}
	for _, sep := range []string{" - ", " | ", ":"} {
		if idx := strings.Index(title, sep); idx > 0 {
			title = title[:idx]
			break
		}
	}
	title = strings.TrimSpace(title)

	// Имя — минимум два слова и без служебных терминов
	words := strings.Fields(title)
	if len(words) < 2 || len(words) > 4 {
		return ""
	}
	lower := strings.ToLower(title)
	if strings.Contains(lower, "linkedin") || strings.Contains(lower, "profile") {
		return ""
	}
	return title
}
