package types

import (
	"github.com/kolmetry/kolmetry/internal/matching"
	"github.com/kolmetry/kolmetry/internal/scoring"
)

// CreatePersonRequest registers a canonical person
type CreatePersonRequest struct {
	NPI       string `json:"npi" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty"`
	City      string `json:"city"`
	State     string `json:"state"`
}

// SubmitNominationRequest records one raw survey nomination
type SubmitNominationRequest struct {
	Scope          string `json:"scope" binding:"required"`
	ResponseID     string `json:"response_id" binding:"required"`
	NominationType string `json:"nomination_type" binding:"required"`
	RawName        string `json:"raw_name" binding:"required"`
	NominatorNPI   string `json:"nominator_npi"`
}

// MatchRequest confirms a suggestion against an existing person
type MatchRequest struct {
	NPI      string `json:"npi" binding:"required"`
	AddAlias bool   `json:"add_alias"`
}

// CreatePersonAndMatchRequest resolves a nomination by creating the
// nominated person in the registry.
type CreatePersonAndMatchRequest struct {
	NPI       string `json:"npi" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Specialty string `json:"specialty"`
	City      string `json:"city"`
	State     string `json:"state"`
}

// UpdateWeightsRequest replaces a scope's weight config
type UpdateWeightsRequest struct {
	Weights scoring.Weights `json:"weights" binding:"required"`
}

// SuggestionsResponse is the ranked suggestion list for one nomination
type SuggestionsResponse struct {
	NominationID string                `json:"nomination_id"`
	Suggestions  []matching.Suggestion `json:"suggestions"`
}

// WeightsResponse carries a scope's effective weight config
type WeightsResponse struct {
	Scope   string          `json:"scope"`
	Weights scoring.Weights `json:"weights"`
}

// ScoresResponse is the scope ranking, best composite first
type ScoresResponse struct {
	Scope  string                 `json:"scope"`
	Count  int                    `json:"count"`
	Scores []*scoring.PersonScore `json:"scores"`
}

// HealthResponse reports service and dependency health
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}
