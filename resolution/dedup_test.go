package resolution

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/solvire/fartemis/resolution/types"
)

func scoredCandidate(id, source string, score float64, evidence ...string) types.ScoredCandidate {
	return types.ScoredCandidate{
		Candidate: types.Candidate{
			CandidateID: id,
			Source:      source,
			URL:         "https://linkedin.com/in/" + id,
		},
		TotalScore: score,
		Evidence:   evidence,
		Sources:    []string{source},
	}
}

func TestDeduplicateKeepsMaxScore(t *testing.T) {
	dedup := NewDeduplicator(DefaultConfig())

	merged := dedup.Deduplicate([]types.ScoredCandidate{
		scoredCandidate("abc", "duckduckgo", 14.0, "Name in profile URL"),
		scoredCandidate("abc", "tavily", 9.0, "First name in content"),
	})

	if len(merged) != 1 {
		t.Fatalf("expected 1 merged candidate, got %d", len(merged))
	}

	corroboration := DefaultConfig().Weights.Corroboration
	if merged[0].TotalScore != 14.0+corroboration {
		t.Errorf("expected max score plus corroboration %v, got %v", 14.0+corroboration, merged[0].TotalScore)
	}

	// Свидетельства обеих записей объединены
	evidence := fmt.Sprintf("%v", merged[0].Evidence)
	for _, needle := range []string{"Name in profile URL", "First name in content", "Corroborated by 2 providers"} {
		found := false
		for _, e := range merged[0].Evidence {
			if e == needle {
				found = true
			}
		}
		if !found {
			t.Errorf("expected evidence %q in %s", needle, evidence)
		}
	}

	if len(merged[0].Sources) != 2 {
		t.Errorf("expected 2 sources, got %v", merged[0].Sources)
	}
}

func TestDeduplicateNoCorroborationForSingleSource(t *testing.T) {
	dedup := NewDeduplicator(DefaultConfig())

	merged := dedup.Deduplicate([]types.ScoredCandidate{
		scoredCandidate("abc", "duckduckgo", 10.0),
	})

	if merged[0].TotalScore != 10.0 {
		t.Errorf("single-source candidate must not get corroboration bonus, got %v", merged[0].TotalScore)
	}
}

func TestDeduplicateSameProviderTwiceNotCorroborated(t *testing.T) {
	dedup := NewDeduplicator(DefaultConfig())

	merged := dedup.Deduplicate([]types.ScoredCandidate{
		scoredCandidate("abc", "duckduckgo", 10.0),
		scoredCandidate("abc", "duckduckgo", 8.0),
	})

	if merged[0].TotalScore != 10.0 {
		t.Errorf("duplicate hits from one provider must not corroborate, got %v", merged[0].TotalScore)
	}
}

func TestDeduplicateIdempotent(t *testing.T) {
	dedup := NewDeduplicator(DefaultConfig())

	input := []types.ScoredCandidate{
		scoredCandidate("abc", "duckduckgo", 14.0, "Name in profile URL"),
		scoredCandidate("abc", "tavily", 9.0, "First name in content"),
		scoredCandidate("def", "tavily", 6.0),
	}

	once := dedup.Deduplicate(input)
	twice := dedup.Deduplicate(once)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("deduplication is not idempotent:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestDeduplicateMonotonicity(t *testing.T) {
	dedup := NewDeduplicator(DefaultConfig())

	base := []types.ScoredCandidate{
		scoredCandidate("abc", "duckduckgo", 14.0),
		scoredCandidate("def", "tavily", 6.0),
	}
	mergedBase := dedup.Deduplicate(base)

	// Дополнительный источник того же кандидата не может понизить оценку
	extended := append(append([]types.ScoredCandidate{}, base...),
		scoredCandidate("abc", "duckduckgo-html", 3.0))
	mergedExtended := dedup.Deduplicate(extended)

	if mergedExtended[0].TotalScore < mergedBase[0].TotalScore {
		t.Errorf("adding evidence lowered the score: %v -> %v",
			mergedBase[0].TotalScore, mergedExtended[0].TotalScore)
	}
}

func TestDeduplicateDeterministicTieBreak(t *testing.T) {
	dedup := NewDeduplicator(DefaultConfig())

	// Одинаковые оценки: побеждает провайдер с лучшим приоритетом
	merged := dedup.Deduplicate([]types.ScoredCandidate{
		scoredCandidate("zzz", "duckduckgo-html", 8.0),
		scoredCandidate("aaa", "duckduckgo", 8.0),
	})

	if merged[0].Candidate.CandidateID != "aaa" {
		t.Errorf("expected higher-priority provider first, got %s", merged[0].Candidate.CandidateID)
	}

	// Одинаковые оценки и приоритеты: лексикографический порядок идентификаторов
	merged = dedup.Deduplicate([]types.ScoredCandidate{
		scoredCandidate("bbb", "tavily", 8.0),
		scoredCandidate("aaa", "tavily", 8.0),
	})

	if merged[0].Candidate.CandidateID != "aaa" || merged[1].Candidate.CandidateID != "bbb" {
		t.Error("expected lexicographic order for full ties")
	}
}

func TestDeduplicateBulkRandomized(t *testing.T) {
	gofakeit.Seed(42)
	dedup := NewDeduplicator(DefaultConfig())
	providers := []string{"duckduckgo", "tavily", "duckduckgo-html"}

	var input []types.ScoredCandidate
	for i := 0; i < 500; i++ {
		id := fmt.Sprintf("cand-%02d", gofakeit.Number(0, 39))
		input = append(input, scoredCandidate(
			id,
			providers[gofakeit.Number(0, len(providers)-1)],
			gofakeit.Float64Range(0, 20),
		))
	}

	merged := dedup.Deduplicate(input)

	seen := make(map[string]bool)
	for _, sc := range merged {
		if seen[sc.Candidate.CandidateID] {
			t.Fatalf("duplicate candidate id %s in output", sc.Candidate.CandidateID)
		}
		seen[sc.Candidate.CandidateID] = true
	}

	for i := 1; i < len(merged); i++ {
		if merged[i].TotalScore > merged[i-1].TotalScore {
			t.Fatalf("output not sorted by score at index %d", i)
		}
	}

	// Повторная дедупликация ничего не меняет и на объемных данных
	if again := dedup.Deduplicate(merged); !reflect.DeepEqual(merged, again) {
		t.Error("bulk deduplication is not idempotent")
	}
}
