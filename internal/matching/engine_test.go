package matching

import (
	"fmt"
	"testing"
)

func TestBand(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		expected   string
	}{
		{"exact", 100, BandHigh},
		{"at auto-accept threshold", 90, BandHigh},
		{"just below threshold", 89.9, BandMedium},
		{"medium floor", 70, BandMedium},
		{"below medium", 69.9, BandLow},
		{"floor", 40, BandLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Band(tt.confidence); got != tt.expected {
				t.Errorf("Band(%v) = %q, want %q", tt.confidence, got, tt.expected)
			}
		})
	}
}

func TestScoreCandidateExactMatch(t *testing.T) {
	engine := NewEngine()

	cand := Candidate{NPI: "1234567890", Name: "John Smith"}

	tests := []struct {
		name    string
		rawName string
	}{
		{"identical", "John Smith"},
		{"case and punctuation", "john SMITH."},
		{"honorific stripped", "Dr. John Smith, MD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, exact := engine.ScoreCandidate(tt.rawName, cand, nil)
			if score != 100 || !exact {
				t.Errorf("ScoreCandidate(%q) = (%v, %v), want (100, true)", tt.rawName, score, exact)
			}
		})
	}
}

func TestScoreCandidateAliasMatch(t *testing.T) {
	engine := NewEngine()

	cand := Candidate{
		NPI:     "1234567890",
		Name:    "Jonathan Smith",
		Aliases: []string{"John Smith"},
	}

	score, exact := engine.ScoreCandidate("John Smith", cand, nil)
	if score != 100 || !exact {
		t.Errorf("alias exact match = (%v, %v), want (100, true)", score, exact)
	}
}

func TestScoreCandidateTypoClearsAutoAccept(t *testing.T) {
	engine := NewEngine()

	cand := Candidate{
		NPI:     "1234567890",
		Name:    "Jonathan Smith",
		Aliases: []string{"Jon Smith"},
	}

	score, exact := engine.ScoreCandidate("Jon Smth", cand, nil)
	if exact {
		t.Error("typo should not count as exact")
	}
	if score < AutoAcceptThreshold {
		t.Errorf("single-typo variant scored %v, want >= %v", score, AutoAcceptThreshold)
	}
	if score >= 100 {
		t.Errorf("non-exact score should stay below 100, got %v", score)
	}
}

func TestScoreCandidateContextBoosts(t *testing.T) {
	engine := NewEngine()

	cand := Candidate{
		NPI:       "1234567890",
		Name:      "Jon Smith",
		Specialty: "Cardiology",
		State:     "TX",
	}
	nominator := &NominatorContext{Specialty: "Cardiology", State: "TX"}

	base, _ := engine.ScoreCandidate("Jon Smyth", cand, nil)
	boosted, _ := engine.ScoreCandidate("Jon Smyth", cand, nominator)

	want := base + specialtyBoost + stateBoost
	if want > 100 {
		want = 100
	}
	if boosted < want-0.11 || boosted > want+0.11 {
		t.Errorf("boosted score = %v, want about %v (base %v)", boosted, want, base)
	}
}

func TestScoreCandidateBoostNeverExceedsCap(t *testing.T) {
	engine := NewEngine()

	cand := Candidate{
		NPI:       "1234567890",
		Name:      "Jon Smith",
		Specialty: "Cardiology",
		State:     "TX",
		Aliases:   []string{"Jon Smithe"},
	}
	nominator := &NominatorContext{Specialty: "Cardiology", State: "TX"}

	score, _ := engine.ScoreCandidate("Jon Smithee", cand, nominator)
	if score > 100 {
		t.Errorf("score exceeded cap: %v", score)
	}
}

func TestSuggestFiltersAndOrders(t *testing.T) {
	engine := NewEngine()

	pool := []Candidate{
		{NPI: "3000000000", Name: "Zelda Quarternight"},
		{NPI: "2000000000", Name: "Jon Smith"},
		{NPI: "1000000000", Name: "John Smith"},
		{NPI: "4000000000", Name: "Jonathan Smithson"},
	}

	suggestions := engine.Suggest("John Smith", nil, pool)
	if len(suggestions) == 0 {
		t.Fatal("expected suggestions")
	}

	if suggestions[0].NPI != "1000000000" || !suggestions[0].Exact {
		t.Errorf("exact match should rank first, got %+v", suggestions[0])
	}

	for i := 1; i < len(suggestions); i++ {
		if suggestions[i].Confidence > suggestions[i-1].Confidence {
			t.Errorf("suggestions out of order at %d: %v > %v", i, suggestions[i].Confidence, suggestions[i-1].Confidence)
		}
	}

	for _, s := range suggestions {
		if s.Confidence < MinConfidence {
			t.Errorf("suggestion below confidence floor: %+v", s)
		}
		if s.NPI == "3000000000" {
			t.Error("unrelated candidate should be filtered out")
		}
	}
}

func TestSuggestTieBreakByCompletenessThenNPI(t *testing.T) {
	engine := NewEngine()

	// Identical names so confidence ties at 100.
	pool := []Candidate{
		{NPI: "2000000000", Name: "John Smith"},
		{NPI: "1000000000", Name: "John Smith"},
		{NPI: "3000000000", Name: "John Smith", Specialty: "Cardiology", State: "TX"},
	}

	suggestions := engine.Suggest("John Smith", nil, pool)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(suggestions))
	}

	if suggestions[0].NPI != "3000000000" {
		t.Errorf("complete profile should break the tie, got %s first", suggestions[0].NPI)
	}
	if suggestions[1].NPI != "1000000000" || suggestions[2].NPI != "2000000000" {
		t.Errorf("remaining ties should order by NPI: got %s, %s", suggestions[1].NPI, suggestions[2].NPI)
	}
}

func TestSuggestExactOutranksBoostedScoreTie(t *testing.T) {
	engine := NewEngine()

	// The near-miss blends high enough that specialty and state boosts cap
	// it at 100, tying the exact alias match. Exactness must win the tie
	// even though only the near-miss has a complete profile.
	pool := []Candidate{
		{
			NPI:       "1000000000",
			Name:      "Alexandria Kristoffersen",
			Specialty: "Cardiology",
			State:     "TX",
		},
		{
			NPI:     "9000000000",
			Name:    "Alexandria K. Smith",
			Aliases: []string{"Alexandria Kristofferson"},
		},
	}
	nominator := &NominatorContext{Specialty: "Cardiology", State: "TX"}

	suggestions := engine.Suggest("Alexandria Kristofferson", nominator, pool)
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}

	if suggestions[0].Confidence != 100 || suggestions[1].Confidence != 100 {
		t.Fatalf("expected a 100-confidence tie, got %v and %v",
			suggestions[0].Confidence, suggestions[1].Confidence)
	}
	if suggestions[0].NPI != "9000000000" || !suggestions[0].Exact {
		t.Errorf("exact match should rank first, got %+v", suggestions[0])
	}
	if suggestions[1].Exact {
		t.Errorf("near-miss should not be exact, got %+v", suggestions[1])
	}
}

func TestSuggestCapsListLength(t *testing.T) {
	engine := NewEngine()

	pool := make([]Candidate, 0, 15)
	for i := 0; i < 15; i++ {
		pool = append(pool, Candidate{
			NPI:  fmt.Sprintf("10000000%02d", i),
			Name: "John Smith",
		})
	}

	suggestions := engine.Suggest("John Smith", nil, pool)
	if len(suggestions) != MaxSuggestions {
		t.Errorf("expected %d suggestions, got %d", MaxSuggestions, len(suggestions))
	}
}

func TestSuggestEmptyInputs(t *testing.T) {
	engine := NewEngine()

	if got := engine.Suggest("", nil, []Candidate{{NPI: "1000000000", Name: "John Smith"}}); len(got) != 0 {
		t.Errorf("empty raw name should yield no suggestions, got %d", len(got))
	}
	if got := engine.Suggest("John Smith", nil, nil); len(got) != 0 {
		t.Errorf("empty pool should yield no suggestions, got %d", len(got))
	}
}
