package matching

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain name", "John Smith", "john smith"},
		{"honorific prefix", "Dr. John Smith", "john smith"},
		{"credential suffix", "John Smith, MD", "john smith"},
		{"stacked affixes", "Dr John Smith MD PhD", "john smith"},
		{"mixed case", "JOHN sMiTh", "john smith"},
		{"extra whitespace", "  John   Smith  ", "john smith"},
		{"punctuation", "Smith, John", "smith john"},
		{"hyphenated surname", "Mary Smith-Jones", "mary smithjones"},
		{"accented name", "José García", "jose garcia"},
		{"accents match ascii spelling", "Renée Müller", "renee muller"},
		{"generation suffix", "John Smith Jr", "john smith"},
		{"empty", "", ""},
		{"only affixes", "Dr. MD", ""},
		{"digits survive", "Smith 2nd", "smith 2nd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"two tokens", "Dr. John Smith", []string{"john", "smith"}},
		{"empty", "", nil},
		{"single", "Smith", []string{"smith"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.input)
			if len(got) == 0 && len(tt.expected) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Tokens(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
