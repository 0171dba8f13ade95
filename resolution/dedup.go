package resolution

import (
	"fmt"
	"sort"
	"strings"

	"github.com/solvire/fartemis/resolution/types"
)

// Deduplicator сводит кандидатов с одинаковым candidate_id в одну запись,
// объединяя свидетельства всех провайдеров.
type Deduplicator struct {
	cfg *Config
}

// NewDeduplicator создает новый дедупликатор
func NewDeduplicator(cfg *Config) *Deduplicator {
	return &Deduplicator{cfg: cfg}
}

// Deduplicate группирует оцененных кандидатов по candidate_id.
// Внутри группы удерживается максимальная оценка (сильное совпадение одного
// провайдера не разбавляется слабой выжимкой того же URL у другого), свидетельства
// объединяются, а сходимость двух и более независимых источников дает фиксированный
// бонус подтверждения. Итог отсортирован детерминированно: оценка по убыванию,
// затем приоритет провайдера, затем candidate_id.
func (d *Deduplicator) Deduplicate(scored []types.ScoredCandidate) []types.ScoredCandidate {
	groups := make(map[string][]types.ScoredCandidate)
	order := make([]string, 0)

	for _, sc := range scored {
		id := sc.Candidate.CandidateID
		if _, seen := groups[id]; !seen {
			order = append(order, id)
		}
		groups[id] = append(groups[id], sc)
	}

	merged := make([]types.ScoredCandidate, 0, len(groups))
	for _, id := range order {
		merged = append(merged, d.mergeGroup(groups[id]))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].TotalScore != merged[j].TotalScore {
			return merged[i].TotalScore > merged[j].TotalScore
		}
		ri, rj := d.bestRank(merged[i]), d.bestRank(merged[j])
		if ri != rj {
			return ri < rj
		}
		return merged[i].Candidate.CandidateID < merged[j].Candidate.CandidateID
	})

	return merged
}

// mergeGroup сводит одну группу кандидатов с общим candidate_id
func (d *Deduplicator) mergeGroup(group []types.ScoredCandidate) types.ScoredCandidate {
	best := group[0]
	for _, sc := range group[1:] {
		if sc.TotalScore > best.TotalScore {
			best = sc
		}
	}

	evidence := make(map[string]bool)
	sources := make(map[string]bool)
	for _, sc := range group {
		for _, e := range sc.Evidence {
			evidence[e] = true
		}
		for _, s := range sc.Sources {
			if s != "" {
				sources[s] = true
			}
		}
		if sc.Candidate.Source != "" {
			sources[sc.Candidate.Source] = true
		}
	}

	result := types.ScoredCandidate{
		Candidate:  best.Candidate,
		Breakdown:  best.Breakdown,
		TotalScore: best.TotalScore,
		Sources:    sortedKeys(sources),
	}

	// Бонус подтверждения: независимая сходимость повышает доверие
	// сверх качества извлечения любого одиночного провайдера.
	// Уже подтвержденная запись бонус повторно не получает, поэтому
	// повторная дедупликация не меняет результат.
	if len(result.Sources) >= 2 && !hasCorroboration(evidence) {
		result.TotalScore += d.cfg.Weights.Corroboration
		evidence[fmt.Sprintf("Corroborated by %d providers", len(result.Sources))] = true
	}

	result.Evidence = sortedKeys(evidence)
	return result
}

// bestRank возвращает лучший (наименьший) приоритетный ранг среди источников кандидата
func (d *Deduplicator) bestRank(sc types.ScoredCandidate) int {
	best := d.cfg.PriorityRank(sc.Candidate.Source)
	for _, s := range sc.Sources {
		if r := d.cfg.PriorityRank(s); r < best {
			best = r
		}
	}
	return best
}

// hasCorroboration проверяет, получила ли запись бонус подтверждения ранее
func hasCorroboration(evidence map[string]bool) bool {
	for e := range evidence {
		if strings.HasPrefix(e, "Corroborated by ") {
			return true
		}
	}
	return false
}

// sortedKeys возвращает отсортированные ключи множества
func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
