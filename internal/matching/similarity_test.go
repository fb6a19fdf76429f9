package matching

import "testing"

func TestLevenshteinSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		s1, s2   string
		expected float64
	}{
		{"identical", "john smith", "john smith", 1.0},
		{"one deletion", "jon smth", "jon smith", 0.888888},
		{"both empty", "", "", 1.0},
		{"one empty", "john", "", 0.0},
		{"disjoint", "abc", "xyz", 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := levenshteinSimilarity(tt.s1, tt.s2)
			if result < tt.expected-0.001 || result > tt.expected+0.001 {
				t.Errorf("levenshteinSimilarity(%q, %q) = %v, want %v", tt.s1, tt.s2, result, tt.expected)
			}
		})
	}
}

func TestJaroWinklerSimilarity(t *testing.T) {
	tests := []struct {
		name   string
		s1, s2 string
		min    float64
		max    float64
	}{
		{"identical", "martha", "martha", 1.0, 1.0},
		{"classic pair", "martha", "marhta", 0.94, 0.97},
		{"shared prefix rewarded", "jon smth", "jon smith", 0.95, 1.0},
		{"no overlap", "abc", "xyz", 0.0, 0.0},
		{"empty", "", "abc", 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := jaroWinklerSimilarity(tt.s1, tt.s2)
			if result < tt.min-0.001 || result > tt.max+0.001 {
				t.Errorf("jaroWinklerSimilarity(%q, %q) = %v, want [%v, %v]", tt.s1, tt.s2, result, tt.min, tt.max)
			}
		})
	}
}

func TestSoundex(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"robert", "robert", "R163"},
		{"rupert same code", "rupert", "R163"},
		{"smith", "smith", "S530"},
		{"smyth same code", "smyth", "S530"},
		{"short name padded", "lee", "L000"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := soundex(tt.input); got != tt.expected {
				t.Errorf("soundex(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokenSimilarity(t *testing.T) {
	tests := []struct {
		name    string
		query   []string
		target  []string
		min     float64
		max     float64
	}{
		{"identical tokens", []string{"john", "smith"}, []string{"john", "smith"}, 1.0, 1.0},
		{"reordered tokens", []string{"smith", "john"}, []string{"john", "smith"}, 1.0, 1.0},
		{"typo pairs best neighbor", []string{"jon", "smth"}, []string{"jon", "smith"}, 0.85, 0.95},
		{"empty query", nil, []string{"john"}, 0.0, 0.0},
		{"empty target", []string{"john"}, nil, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tokenSimilarity(tt.query, tt.target)
			if result < tt.min-0.001 || result > tt.max+0.001 {
				t.Errorf("tokenSimilarity(%v, %v) = %v, want [%v, %v]", tt.query, tt.target, result, tt.min, tt.max)
			}
		})
	}
}

func TestPhoneticSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		query    []string
		target   []string
		expected float64
	}{
		{"all tokens phonetic match", []string{"jon", "smth"}, []string{"jon", "smith"}, 1.0},
		{"half match", []string{"smith", "brown"}, []string{"smyth", "garcia"}, 0.5},
		{"no match", []string{"lee"}, []string{"garcia"}, 0.0},
		{"empty", nil, []string{"smith"}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := phoneticSimilarity(tt.query, tt.target)
			if result < tt.expected-0.001 || result > tt.expected+0.001 {
				t.Errorf("phoneticSimilarity(%v, %v) = %v, want %v", tt.query, tt.target, result, tt.expected)
			}
		})
	}
}
