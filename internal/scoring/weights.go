package scoring

import (
	"fmt"
	"math"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

// WeightSumTolerance is the floating-point slack allowed on the sum-to-100
// invariant.
const WeightSumTolerance = 0.01

// Weights is the fixed-field weight vector: eight externally supplied
// segment weights plus the survey weight. The nine values must sum to 100.
type Weights struct {
	Publications    float64 `json:"publications"`
	ClinicalTrials  float64 `json:"clinical_trials"`
	Conferences     float64 `json:"conferences"`
	Guidelines      float64 `json:"guidelines"`
	SocialMedia     float64 `json:"social_media"`
	PressMentions   float64 `json:"press_mentions"`
	ClaimsVolume    float64 `json:"claims_volume"`
	ReferralNetwork float64 `json:"referral_network"`
	Survey          float64 `json:"survey"`
}

// DefaultWeights returns the system default configuration: segment weights
// totaling 75 plus a survey weight of 25.
func DefaultWeights() Weights {
	return Weights{
		Publications:    15,
		ClinicalTrials:  12,
		Conferences:     8,
		Guidelines:      10,
		SocialMedia:     5,
		PressMentions:   5,
		ClaimsVolume:    12,
		ReferralNetwork: 8,
		Survey:          25,
	}
}

// Sum returns the total of all nine weights
func (w Weights) Sum() float64 {
	return w.Publications + w.ClinicalTrials + w.Conferences + w.Guidelines +
		w.SocialMedia + w.PressMentions + w.ClaimsVolume + w.ReferralNetwork + w.Survey
}

// Validate enforces the weight invariants: every weight in [0,100] and the
// nine weights summing to 100 within tolerance.
func (w Weights) Validate() error {
	fields := map[string]float64{
		"publications":     w.Publications,
		"clinical_trials":  w.ClinicalTrials,
		"conferences":      w.Conferences,
		"guidelines":       w.Guidelines,
		"social_media":     w.SocialMedia,
		"press_mentions":   w.PressMentions,
		"claims_volume":    w.ClaimsVolume,
		"referral_network": w.ReferralNetwork,
		"survey":           w.Survey,
	}
	for name, value := range fields {
		if value < 0 || value > 100 {
			return apperrors.NewValidationError(
				fmt.Sprintf("weight %s must be in [0,100]", name),
				fmt.Sprintf("%s=%.2f", name, value))
		}
	}

	if sum := w.Sum(); math.Abs(sum-100) > WeightSumTolerance {
		return apperrors.NewValidationError(
			"weights must sum to 100",
			fmt.Sprintf("sum=%.4f", sum))
	}

	return nil
}
