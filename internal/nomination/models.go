package nomination

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

// Status is the resolution state of a nomination. Every transition
// originates from UNMATCHED; the other three states are terminal.
type Status string

const (
	StatusUnmatched Status = "UNMATCHED"
	StatusMatched   Status = "MATCHED"
	StatusNewHCP    Status = "NEW_HCP"
	StatusExcluded  Status = "EXCLUDED"
)

// Nomination categories collected by the survey.
const (
	TypeNationalInfluence = "national_influence"
	TypeRisingInfluence   = "rising_influence"
	TypeRegionalExpert    = "regional_expert"
	TypeDigitalPresence   = "digital_presence"
	TypeClinicalExpert    = "clinical_expert"
)

var validTypes = map[string]bool{
	TypeNationalInfluence: true,
	TypeRisingInfluence:   true,
	TypeRegionalExpert:    true,
	TypeDigitalPresence:   true,
	TypeClinicalExpert:    true,
}

// Nomination is one free-text "I nominate X" entry from one survey response
type Nomination struct {
	ID           string     `json:"id" db:"id"`
	Scope        string     `json:"scope" db:"scope"`
	ResponseID   string     `json:"response_id" db:"response_id"`
	Type         string     `json:"nomination_type" db:"nomination_type"`
	RawName      string     `json:"raw_name" db:"raw_name"`
	NominatorNPI string     `json:"nominator_npi,omitempty" db:"nominator_npi"`
	Status       Status     `json:"status" db:"status"`
	MatchedNPI   *string    `json:"matched_npi,omitempty" db:"matched_npi"`
	Confidence   *float64   `json:"confidence,omitempty" db:"confidence"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty" db:"resolved_at"`
}

// NewNomination validates required fields and builds an UNMATCHED nomination
func NewNomination(scope, responseID, nominationType, rawName, nominatorNPI string) (*Nomination, error) {
	scope = strings.TrimSpace(scope)
	responseID = strings.TrimSpace(responseID)
	rawName = strings.TrimSpace(rawName)

	var missing []string
	if scope == "" {
		missing = append(missing, "scope")
	}
	if responseID == "" {
		missing = append(missing, "response_id")
	}
	if rawName == "" {
		missing = append(missing, "raw_name")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("nomination is missing required fields", missing...)
	}
	if !validTypes[nominationType] {
		return nil, apperrors.NewValidationError("unknown nomination type", "nomination_type="+nominationType)
	}

	return &Nomination{
		ID:           uuid.New().String(),
		Scope:        scope,
		ResponseID:   responseID,
		Type:         nominationType,
		RawName:      rawName,
		NominatorNPI: strings.TrimSpace(nominatorNPI),
		Status:       StatusUnmatched,
		CreatedAt:    time.Now(),
	}, nil
}

// Resolved reports whether the nomination contributes to survey scores
func (n *Nomination) Resolved() bool {
	return n.Status == StatusMatched || n.Status == StatusNewHCP
}
