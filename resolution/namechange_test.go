package resolution

import (
	"math"
	"testing"

	"github.com/solvire/fartemis/resolution/types"
)

func testDetector(criteria types.SearchCriteria) *NameChangeDetector {
	variations := GenerateNameVariations(criteria.FirstName, criteria.LastName, DefaultConfig().PrefixTokens)
	return NewNameChangeDetector(criteria, variations)
}

func assessCandidate(c types.Candidate, shared int) *types.NameChangeAssessment {
	detector := testDetector(types.SearchCriteria{FirstName: "Jane", LastName: "Smith", Company: "Acme"})
	return detector.Assess(types.ScoredCandidate{Candidate: c}, shared)
}

func TestAssessNilWhenHandleMatchesName(t *testing.T) {
	assessment := assessCandidate(types.Candidate{
		ExtractedHandle: "janesmith",
	}, 0)

	if assessment != nil {
		t.Errorf("matching handle must not trigger name-change assessment, got %+v", assessment)
	}
}

func TestAssessNilWhenHandleEmpty(t *testing.T) {
	if assessment := assessCandidate(types.Candidate{}, 0); assessment != nil {
		t.Error("empty handle must not trigger assessment")
	}
}

func TestAssessNilWhenDisplayedNameMatchesDespiteHandle(t *testing.T) {
	// Хэндл ни с чем не совпадает, но отображаемое имя — искомое с опечаткой
	assessment := assessCandidate(types.Candidate{
		ExtractedHandle: "builder2041",
		DisplayName:     "Jane Smyth",
	}, 0)

	if assessment != nil {
		t.Errorf("near-identical displayed name must not trigger assessment, got %+v", assessment)
	}

	// Действительно другое имя по-прежнему оценивается
	assessment = assessCandidate(types.Candidate{
		ExtractedHandle: "builder2041",
		DisplayName:     "Jane Doe",
	}, 5)
	if assessment == nil {
		t.Fatal("different displayed name should still produce an assessment")
	}
	if assessment.CurrentName != "Jane Doe" {
		t.Errorf("unexpected current name: %s", assessment.CurrentName)
	}
}

func TestAssessFirstNameSignal(t *testing.T) {
	assessment := assessCandidate(types.Candidate{
		ExtractedHandle: "janedoe",
	}, 0)

	if assessment == nil {
		t.Fatal("mismatched handle should produce an assessment")
	}
	if math.Abs(assessment.Confidence-0.4) > 1e-9 {
		t.Errorf("expected confidence 0.4 for first-name signal alone, got %v", assessment.Confidence)
	}
	if assessment.OriginalName != "Jane Smith" {
		t.Errorf("unexpected original name: %s", assessment.OriginalName)
	}
}

func TestAssessCompanyContinuitySignal(t *testing.T) {
	assessment := assessCandidate(types.Candidate{
		ExtractedHandle: "janedoe",
		ContextSnippet:  "Jane Doe works at Acme",
	}, 0)

	if assessment == nil {
		t.Fatal("expected assessment")
	}
	// 0.4 за имя в хэндле + 0.3 за непрерывность компании
	if math.Abs(assessment.Confidence-0.7) > 1e-9 {
		t.Errorf("expected confidence 0.7, got %v", assessment.Confidence)
	}
}

func TestAssessSharedConnectionsDiminishingReturns(t *testing.T) {
	few := assessCandidate(types.Candidate{ExtractedHandle: "someoneelse"}, 5)
	many := assessCandidate(types.Candidate{ExtractedHandle: "someoneelse"}, 200)

	if few == nil || many == nil {
		t.Fatal("expected assessments")
	}
	if few.Confidence >= many.Confidence {
		t.Errorf("more shared connections should raise confidence: %v vs %v", few.Confidence, many.Confidence)
	}
	// Вклад связей ограничен 0.2
	if many.Confidence > 0.2 {
		t.Errorf("connections signal alone must not exceed 0.2, got %v", many.Confidence)
	}
}

func TestAssessNameChangeLanguage(t *testing.T) {
	assessment := assessCandidate(types.Candidate{
		ExtractedHandle: "janedoe",
		ContextSnippet:  "Jane Doe, formerly Jane Smith, works at Acme",
	}, 0)

	if assessment == nil {
		t.Fatal("expected assessment")
	}
	// 0.4 + 0.3 + 0.1 за явную формулировку
	if math.Abs(assessment.Confidence-0.8) > 1e-9 {
		t.Errorf("expected confidence 0.8, got %v", assessment.Confidence)
	}

	found := false
	for _, e := range assessment.Evidence {
		if e == "Name change language in content" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected name-change language evidence, got %v", assessment.Evidence)
	}
}

func TestAssessConfidenceCapped(t *testing.T) {
	assessment := assessCandidate(types.Candidate{
		ExtractedHandle: "janedoe",
		ContextSnippet:  "Jane Doe, formerly Jane Smith, works at Acme",
	}, 1000)

	if assessment == nil {
		t.Fatal("expected assessment")
	}
	if assessment.Confidence > 1.0 {
		t.Errorf("confidence must be capped at 1.0, got %v", assessment.Confidence)
	}
}

func TestExtractDisplayedName(t *testing.T) {
	tests := []struct {
		name     string
		c        types.Candidate
		expected string
	}{
		{
			name:     "display name wins",
			c:        types.Candidate{DisplayName: "Jane Doe", Title: "Someone Else - Engineer"},
			expected: "Jane Doe",
		},
		{
			name:     "title before dash",
			c:        types.Candidate{Title: "Jane Doe - Engineer at Acme"},
			expected: "Jane Doe",
		},
		{
			name:     "title before pipe",
			c:        types.Candidate{Title: "Jane Doe | Acme"},
			expected: "Jane Doe",
		},
		{
			name:     "rejects service words",
			c:        types.Candidate{Title: "LinkedIn Profile - Jane Doe"},
			expected: "",
		},
		{
			name:     "rejects single word",
			c:        types.Candidate{Title: "Jane - Engineer"},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractDisplayedName(tt.c); got != tt.expected {
				t.Errorf("extractDisplayedName() = %q, expected %q", got, tt.expected)
			}
		})
	}
}
