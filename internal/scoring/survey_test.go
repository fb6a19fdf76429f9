package scoring

import "testing"

func TestNormalizeCount(t *testing.T) {
	tests := []struct {
		name     string
		count    int
		max      int
		expected float64
	}{
		{"max scores 100", 10, 10, 100},
		{"half of max", 5, 10, 50},
		{"zero count", 0, 10, 0},
		{"zero max", 0, 0, 0},
		{"thirds round to cents", 1, 3, 33.33},
		{"two thirds", 2, 3, 66.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeCount(tt.count, tt.max); got != tt.expected {
				t.Errorf("normalizeCount(%d, %d) = %v, want %v", tt.count, tt.max, got, tt.expected)
			}
		})
	}
}

func TestComputeSurveyScores(t *testing.T) {
	byPerson := map[string]NominationCounts{
		"1000000001": {Total: 10, National: 10},
		"1000000002": {Total: 10, National: 2, Clinical: 8},
		"1000000003": {Total: 5, Clinical: 5},
		"1000000004": {},
	}

	scores := ComputeSurveyScores(byPerson)

	overall := map[string]float64{
		"1000000001": 100,
		"1000000002": 100,
		"1000000003": 50,
		"1000000004": 0,
	}
	for npi, want := range overall {
		if got := scores[npi].Overall; got != want {
			t.Errorf("overall score for %s = %v, want %v", npi, got, want)
		}
	}

	// Per-category scores normalize against their own maximum.
	if got := scores["1000000001"].National; got != 100 {
		t.Errorf("national score = %v, want 100", got)
	}
	if got := scores["1000000002"].National; got != 20 {
		t.Errorf("national score = %v, want 20", got)
	}
	if got := scores["1000000002"].Clinical; got != 100 {
		t.Errorf("clinical score = %v, want 100", got)
	}
	if got := scores["1000000003"].Clinical; got != 62.5 {
		t.Errorf("clinical score = %v, want 62.5", got)
	}
	if got := scores["1000000003"].National; got != 0 {
		t.Errorf("national score = %v, want 0", got)
	}
}

func TestComputeSurveyScoresDeterministic(t *testing.T) {
	byPerson := map[string]NominationCounts{
		"1000000001": {Total: 7, Rising: 3, Digital: 4},
		"1000000002": {Total: 3, Rising: 1, Regional: 2},
	}

	first := ComputeSurveyScores(byPerson)
	second := ComputeSurveyScores(byPerson)

	for npi := range byPerson {
		if first[npi] != second[npi] {
			t.Errorf("recomputation changed scores for %s: %+v vs %+v", npi, first[npi], second[npi])
		}
	}
}

func TestComputeSurveyScoresEmptyScope(t *testing.T) {
	scores := ComputeSurveyScores(map[string]NominationCounts{})
	if len(scores) != 0 {
		t.Errorf("empty scope should yield no scores, got %d", len(scores))
	}
}
