package resolution

import (
	"fmt"
	"strings"
	"time"

	"github.com/kljensen/snowball"

	"github.com/solvire/fartemis/resolution/algorithms"
	"github.com/solvire/fartemis/resolution/types"
)

// employmentKeywords маркеры трудовых отношений в сниппете
var employmentKeywords = []string{
	"works at",
	"working at",
	"joined",
	"employed by",
	"employee at",
	"hired by",
	"team at",
	"role at",
}

// roleKeywords маркеры должности/сеньорности для фактора title_relevance
var roleKeywords = []string{
	"engineer", "engineering", "developer", "manager", "director",
	"head", "lead", "founder", "chief", "officer", "president",
	"vp", "principal", "senior", "staff", "architect", "recruiter",
}

// Scorer вычисляет многофакторную оценку кандидата против критериев поиска
// и множества вариантов имени. Все вычисления чистые и синхронные.
type Scorer struct {
	criteria    types.SearchCriteria
	weights     ScoringWeights
	variations  NameVariationSet
	handleForms []string
	roleStems   map[string]bool
	now         func() time.Time
}

// NewScorer создает новый оценщик для одного запуска
func NewScorer(criteria types.SearchCriteria, variations NameVariationSet, weights ScoringWeights) *Scorer {
	s := &Scorer{
		criteria:    criteria,
		weights:     weights,
		variations:  variations,
		handleForms: variations.HandleForms(),
		roleStems:   make(map[string]bool),
		now:         time.Now,
	}

	for _, kw := range roleKeywords {
		s.roleStems[stemToken(kw)] = true
	}
	for _, token := range strings.Fields(strings.ToLower(criteria.RoleHint)) {
		s.roleStems[stemToken(token)] = true
	}

	return s
}

// Score вычисляет разбивку оценки одного кандидата
func (s *Scorer) Score(c types.Candidate) types.ScoredCandidate {
	var breakdown types.ScoreBreakdown
	var evidence []string

	breakdown.NameInURL, evidence = s.scoreNameInURL(c, evidence)
	breakdown.NameInContext, evidence = s.scoreNameInContext(c, evidence)
	breakdown.CompanyMatch, evidence = s.scoreCompanyMatch(c, evidence)
	breakdown.HandlePattern, evidence = s.scoreHandlePattern(c, evidence)
	breakdown.TitleRelevance, evidence = s.scoreTitleRelevance(c, evidence)
	breakdown.Freshness, evidence = s.scoreFreshness(c, evidence)

	return types.ScoredCandidate{
		Candidate:  c,
		Breakdown:  breakdown,
		TotalScore: breakdown.Total(),
		Evidence:   evidence,
		Sources:    []string{c.Source},
	}
}

// scoreNameInURL лучшая нечеткая схожесть хэндла с вариантами имени.
// Точное вхождение склеенного варианта дает максимальный вклад.
func (s *Scorer) scoreNameInURL(c types.Candidate, evidence []string) (float64, []string) {
	handle := strings.ToLower(c.ExtractedHandle)
	if handle == "" || len(s.handleForms) == 0 {
		return 0, evidence
	}

	best := 0.0
	for _, form := range s.handleForms {
		if strings.Contains(handle, form) {
			best = 1.0
			break
		}
		if sim := algorithms.NormalizedSimilarity(form, handle); sim > best {
			best = sim
		}
	}

	if best >= 0.8 {
		evidence = append(evidence, "Name in profile URL")
	}
	return best * s.weights.NameInURL, evidence
}

// scoreNameInContext плоские бонусы за вхождение имени и фамилии в сниппет
func (s *Scorer) scoreNameInContext(c types.Candidate, evidence []string) (float64, []string) {
	context := strings.ToLower(c.ContextSnippet)
	if context == "" {
		return 0, evidence
	}

	score := 0.0
	if strings.Contains(context, strings.ToLower(strings.TrimSpace(s.criteria.FirstName))) {
		score += s.weights.FirstNameInContext
		evidence = append(evidence, "First name in content")
	}
	if strings.Contains(context, strings.ToLower(strings.TrimSpace(s.criteria.LastName))) {
		score += s.weights.LastNameInContext
		evidence = append(evidence, "Last name in content")
	}
	return score, evidence
}

// scoreCompanyMatch бонус за компанию в сниппете плюс бонус за маркер трудовых отношений
func (s *Scorer) scoreCompanyMatch(c types.Candidate, evidence []string) (float64, []string) {
	company := strings.ToLower(strings.TrimSpace(s.criteria.Company))
	if company == "" {
		return 0, evidence
	}

	context := strings.ToLower(c.ContextSnippet + " " + c.CompanyMention)
	matched := strings.Contains(context, company)
	if !matched {
		// Слипшиеся и слегка искаженные написания компании ловим по биграммам
		for _, token := range strings.Fields(context) {
			token = strings.Trim(token, ".,;:!?()\"'")
			if len(token) < 3 {
				continue
			}
			if algorithms.CharacterNGramSimilarity(token, company, 2) >= 0.5 {
				matched = true
				break
			}
		}
	}
	if !matched {
		return 0, evidence
	}

	score := s.weights.CompanyMatch
	evidence = append(evidence, fmt.Sprintf("Associated with %s", strings.TrimSpace(s.criteria.Company)))

	for _, kw := range employmentKeywords {
		if strings.Contains(context, kw) {
			score += s.weights.EmploymentRelation
			evidence = append(evidence, "Employment relation in content")
			break
		}
	}
	return score, evidence
}

// scoreHandlePattern бонус за совпадение хэндла с одним из шаблонов построения
func (s *Scorer) scoreHandlePattern(c types.Candidate, evidence []string) (float64, []string) {
	handle := strings.ToLower(c.ExtractedHandle)
	if handle == "" {
		return 0, evidence
	}

	for _, form := range s.handleForms {
		if handle == form || strings.Contains(handle, form) {
			evidence = append(evidence, "Handle matches name pattern")
			return s.weights.HandlePattern, evidence
		}
	}
	return 0, evidence
}

// scoreTitleRelevance бонус за должностные слова в заголовочной части сниппета.
// Заголовок извлекается эвристически: текст до разделителя "-" или "|".
func (s *Scorer) scoreTitleRelevance(c types.Candidate, evidence []string) (float64, []string) {
	title := c.Title
	if title == "" {
		title = extractTitlePart(c.ContextSnippet)
	}
	if title == "" {
		return 0, evidence
	}

	for _, token := range strings.Fields(strings.ToLower(title)) {
		token = strings.Trim(token, ".,;:!?()\"'")
		if token == "" {
			continue
		}
		if s.roleStems[stemToken(token)] {
			evidence = append(evidence, "Role keywords in title")
			return s.weights.TitleRelevance, evidence
		}
	}
	return 0, evidence
}

// scoreFreshness ступенчатый бонус за свежесть контента.
// Три возрастные корзины со строго убывающим бонусом; отсутствие даты дает ноль.
func (s *Scorer) scoreFreshness(c types.Candidate, evidence []string) (float64, []string) {
	if c.ContentDate == nil {
		return 0, evidence
	}

	age := s.now().Sub(*c.ContentDate)
	switch {
	case age < 0:
		return 0, evidence
	case age <= 90*24*time.Hour:
		evidence = append(evidence, "Recent content")
		return s.weights.FreshnessRecent, evidence
	case age <= 365*24*time.Hour:
		return s.weights.FreshnessMid, evidence
	case age <= 3*365*24*time.Hour:
		return s.weights.FreshnessOld, evidence
	default:
		return 0, evidence
	}
}

// extractTitlePart извлекает заголовочную часть текста до первого разделителя
func extractTitlePart(text string) string {
	for _, sep := range []string{" - ", " | "} {
		if idx := strings.Index(text, sep); idx > 0 {
			return strings.TrimSpace(text[:idx])
		}
	}
	return strings.TrimSpace(text)
}

// stemToken приводит токен к основе; при ошибке возвращает токен как есть
func stemToken(token string) string {
	stemmed, err := snowball.Stem(token, "english", true)
	if err != nil {
		return strings.ToLower(token)
	}
	return stemmed
}
