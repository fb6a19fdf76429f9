package matching

import (
	"math"
	"sort"
)

// Confidence bands consumed by resolution workflows.
const (
	BandHigh   = "high"
	BandMedium = "medium"
	BandLow    = "low"

	// AutoAcceptThreshold is the confidence at or above which bulk
	// auto-match resolves a nomination without human review.
	AutoAcceptThreshold = 90.0

	// MinConfidence is the floor below which candidates are discarded to
	// keep suggestion lists short.
	MinConfidence = 40.0

	// MaxSuggestions caps the returned list.
	MaxSuggestions = 10
)

// Stage blend weights. The four similarity stages always sum to 1 so the
// blended score stays in [0,1] before scaling.
var (
	levenshteinWeight = 0.35
	jaroWinklerWeight = 0.30
	tokenWeight       = 0.20
	phoneticWeight    = 0.15

	// Contextual boosts are bounded so they can never push a score past
	// 100 nor reorder candidates by more than their own magnitude.
	specialtyBoost = 3.0
	stateBoost     = 2.0
)

// Candidate is a registry identity eligible for matching within a scope.
type Candidate struct {
	NPI       string
	Name      string
	Specialty string
	City      string
	State     string
	Aliases   []string
}

// NominatorContext carries the nominator attributes used for bounded
// contextual boosts. Nil context disables boosting.
type NominatorContext struct {
	Specialty string
	State     string
}

// Suggestion is one ranked match candidate.
type Suggestion struct {
	NPI        string  `json:"npi"`
	Name       string  `json:"name"`
	Specialty  string  `json:"specialty,omitempty"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	Confidence float64 `json:"confidence"`
	Band       string  `json:"band"`
	Exact      bool    `json:"exact"`
}

// Band classifies a confidence score for downstream consumers.
func Band(confidence float64) string {
	switch {
	case confidence >= AutoAcceptThreshold:
		return BandHigh
	case confidence >= 70:
		return BandMedium
	default:
		return BandLow
	}
}

// Engine ranks registry candidates against a raw entered name. It is
// stateless and safe for unlimited concurrent use.
type Engine struct{}

// NewEngine creates a suggestion engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ScoreCandidate computes the confidence score in [0,100] for one candidate.
// Stages run in a fixed order: exact fingerprint match, blended string
// similarity over the canonical name and every alias, bounded contextual
// boosts.
func (e *Engine) ScoreCandidate(rawName string, cand Candidate, nominator *NominatorContext) (float64, bool) {
	query := Normalize(rawName)
	if query == "" {
		return 0, false
	}

	names := make([]string, 0, len(cand.Aliases)+1)
	names = append(names, cand.Name)
	names = append(names, cand.Aliases...)

	best := 0.0
	for _, name := range names {
		target := Normalize(name)
		if target == "" {
			continue
		}
		if target == query {
			return 100, true
		}
		if sim := e.blendedSimilarity(query, target); sim > best {
			best = sim
		}
	}

	score := best * 100

	if nominator != nil && score > 0 {
		if cand.Specialty != "" && Normalize(cand.Specialty) == Normalize(nominator.Specialty) {
			score += specialtyBoost
		}
		if cand.State != "" && Normalize(cand.State) == Normalize(nominator.State) {
			score += stateBoost
		}
	}

	if score > 100 {
		score = 100
	}

	return math.Round(score*10) / 10, false
}

// blendedSimilarity combines the four similarity stages on normalized names.
func (e *Engine) blendedSimilarity(query, target string) float64 {
	queryTokens := Tokens(query)
	targetTokens := Tokens(target)

	return levenshteinWeight*levenshteinSimilarity(query, target) +
		jaroWinklerWeight*jaroWinklerSimilarity(query, target) +
		tokenWeight*tokenSimilarity(queryTokens, targetTokens) +
		phoneticWeight*phoneticSimilarity(queryTokens, targetTokens)
}

// Suggest returns ranked suggestions for a raw entered name against the
// candidate pool. Ordering: confidence desc, exact matches first, profile
// completeness, NPI asc.
func (e *Engine) Suggest(rawName string, nominator *NominatorContext, pool []Candidate) []Suggestion {
	suggestions := make([]Suggestion, 0, MaxSuggestions)

	for _, cand := range pool {
		score, exact := e.ScoreCandidate(rawName, cand, nominator)
		if score < MinConfidence {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			NPI:        cand.NPI,
			Name:       cand.Name,
			Specialty:  cand.Specialty,
			City:       cand.City,
			State:      cand.State,
			Confidence: score,
			Band:       Band(score),
			Exact:      exact,
		})
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		// A boosted near-miss can cap at 100 and tie an exact match;
		// exactness settles that tie before anything else does.
		if suggestions[i].Exact != suggestions[j].Exact {
			return suggestions[i].Exact
		}
		ci := suggestions[i].Specialty != "" && suggestions[i].State != ""
		cj := suggestions[j].Specialty != "" && suggestions[j].State != ""
		if ci != cj {
			return ci
		}
		return suggestions[i].NPI < suggestions[j].NPI
	})

	if len(suggestions) > MaxSuggestions {
		suggestions = suggestions[:MaxSuggestions]
	}

	return suggestions
}
