package scoring

import "math"

// SegmentScores are the eight externally supplied 0-100 metrics for one
// person. Nil means the person was never assessed on that segment.
type SegmentScores struct {
	Publications    *float64 `json:"publications"`
	ClinicalTrials  *float64 `json:"clinical_trials"`
	Conferences     *float64 `json:"conferences"`
	Guidelines      *float64 `json:"guidelines"`
	SocialMedia     *float64 `json:"social_media"`
	PressMentions   *float64 `json:"press_mentions"`
	ClaimsVolume    *float64 `json:"claims_volume"`
	ReferralNetwork *float64 `json:"referral_network"`
}

// Empty reports whether no segment was ever supplied
func (s SegmentScores) Empty() bool {
	return s.Publications == nil && s.ClinicalTrials == nil && s.Conferences == nil &&
		s.Guidelines == nil && s.SocialMedia == nil && s.PressMentions == nil &&
		s.ClaimsVolume == nil && s.ReferralNetwork == nil
}

// CompositeScore blends the segment scores and the survey score under the
// weight vector: Σ (weight_i / 100) * value_i. A missing segment
// contributes zero without shrinking the denominator, so a person assessed
// on few segments is not penalized beyond the zero contribution. Given
// valid inputs and weights the result is always in [0,100].
func CompositeScore(segments SegmentScores, surveyScore float64, w Weights) float64 {
	score := w.Survey / 100 * surveyScore

	add := func(value *float64, weight float64) {
		if value != nil {
			score += weight / 100 * *value
		}
	}
	add(segments.Publications, w.Publications)
	add(segments.ClinicalTrials, w.ClinicalTrials)
	add(segments.Conferences, w.Conferences)
	add(segments.Guidelines, w.Guidelines)
	add(segments.SocialMedia, w.SocialMedia)
	add(segments.PressMentions, w.PressMentions)
	add(segments.ClaimsVolume, w.ClaimsVolume)
	add(segments.ReferralNetwork, w.ReferralNetwork)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return math.Round(score*100) / 100
}
