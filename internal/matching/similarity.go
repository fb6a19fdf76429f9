package matching

import (
	"math"
	"strings"

	"github.com/agnivade/levenshtein"
)

// levenshteinSimilarity calculates similarity using Levenshtein distance
func levenshteinSimilarity(s1, s2 string) float64 {
	distance := levenshtein.ComputeDistance(s1, s2)
	maxLen := math.Max(float64(len(s1)), float64(len(s2)))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - (float64(distance) / maxLen)
}

// jaroWinklerSimilarity implements the Jaro-Winkler algorithm
func jaroWinklerSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	len1, len2 := len(s1), len(s2)
	if len1 == 0 || len2 == 0 {
		return 0.0
	}

	matchWindow := int(math.Max(float64(len1), float64(len2))/2) - 1
	if matchWindow < 0 {
		matchWindow = 0
	}

	s1Matches := make([]bool, len1)
	s2Matches := make([]bool, len2)

	matches := 0
	transpositions := 0

	for i := 0; i < len1; i++ {
		start := int(math.Max(0, float64(i-matchWindow)))
		end := int(math.Min(float64(len2), float64(i+matchWindow+1)))

		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	k := 0
	for i := 0; i < len1; i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	jaro := (float64(matches)/float64(len1) + float64(matches)/float64(len2) +
		(float64(matches)-float64(transpositions)/2)/float64(matches)) / 3.0

	prefix := 0
	for i := 0; i < int(math.Min(float64(len1), float64(len2))) && i < 4; i++ {
		if s1[i] == s2[i] {
			prefix++
		} else {
			break
		}
	}

	return jaro + (0.1 * float64(prefix) * (1.0 - jaro))
}

// soundex implements the Soundex phonetic algorithm
func soundex(s string) string {
	if len(s) == 0 {
		return ""
	}

	s = strings.ToUpper(s)
	result := string(s[0])

	mapping := map[rune]rune{
		'B': '1', 'F': '1', 'P': '1', 'V': '1',
		'C': '2', 'G': '2', 'J': '2', 'K': '2', 'Q': '2', 'S': '2', 'X': '2', 'Z': '2',
		'D': '3', 'T': '3',
		'L': '4',
		'M': '5', 'N': '5',
		'R': '6',
	}

	var prev rune
	for _, char := range s[1:] {
		if code, exists := mapping[char]; exists {
			if code != prev {
				result += string(code)
				prev = code
			}
		} else {
			prev = 0
		}

		if len(result) >= 4 {
			break
		}
	}

	for len(result) < 4 {
		result += "0"
	}

	return result[:4]
}

// tokenSimilarity aligns each query token with its best-scoring target token
// by edit distance and averages the pairings. "jon smth" vs "jon smith"
// scores well even though a plain set intersection would not.
func tokenSimilarity(queryTokens, targetTokens []string) float64 {
	if len(queryTokens) == 0 || len(targetTokens) == 0 {
		return 0.0
	}

	total := 0.0
	for _, qt := range queryTokens {
		best := 0.0
		for _, tt := range targetTokens {
			if sim := levenshteinSimilarity(qt, tt); sim > best {
				best = sim
			}
		}
		total += best
	}

	return total / float64(len(queryTokens))
}

// phoneticSimilarity is the fraction of query tokens whose Soundex code
// matches the Soundex code of some target token.
func phoneticSimilarity(queryTokens, targetTokens []string) float64 {
	if len(queryTokens) == 0 || len(targetTokens) == 0 {
		return 0.0
	}

	matched := 0
	for _, qt := range queryTokens {
		qs := soundex(qt)
		for _, tt := range targetTokens {
			if qs == soundex(tt) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(queryTokens))
}
