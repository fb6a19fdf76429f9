package scoring

import "testing"

func ptr(v float64) *float64 { return &v }

func TestCompositeScoreSurveyOnly(t *testing.T) {
	// Survey weight 25, survey score 80: contribution 0.25 * 80 = 20.
	got := CompositeScore(SegmentScores{}, 80, DefaultWeights())
	if got != 20 {
		t.Errorf("composite = %v, want 20", got)
	}
}

func TestCompositeScoreMissingSegmentsContributeZero(t *testing.T) {
	w := DefaultWeights()

	full := SegmentScores{
		Publications:    ptr(100),
		ClinicalTrials:  ptr(100),
		Conferences:     ptr(100),
		Guidelines:      ptr(100),
		SocialMedia:     ptr(100),
		PressMentions:   ptr(100),
		ClaimsVolume:    ptr(100),
		ReferralNetwork: ptr(100),
	}
	if got := CompositeScore(full, 100, w); got != 100 {
		t.Errorf("all-perfect composite = %v, want 100", got)
	}

	partial := SegmentScores{Publications: ptr(100)}
	// Publications weight 15 plus survey weight 25 at score 100 each.
	if got := CompositeScore(partial, 100, w); got != 40 {
		t.Errorf("partial composite = %v, want 40", got)
	}

	if got := CompositeScore(SegmentScores{}, 0, w); got != 0 {
		t.Errorf("empty composite = %v, want 0", got)
	}
}

func TestCompositeScoreWeightedBlend(t *testing.T) {
	w := Weights{
		Publications: 40,
		ClaimsVolume: 30,
		Survey:       30,
	}

	segments := SegmentScores{
		Publications: ptr(50),
		ClaimsVolume: ptr(80),
	}

	// 0.40*50 + 0.30*80 + 0.30*60 = 20 + 24 + 18 = 62
	if got := CompositeScore(segments, 60, w); got != 62 {
		t.Errorf("composite = %v, want 62", got)
	}
}

func TestCompositeScoreRounding(t *testing.T) {
	w := Weights{Publications: 33.33, Survey: 66.67}
	segments := SegmentScores{Publications: ptr(33.33)}

	// 0.3333*33.33 + 0.6667*66.67 = 11.108889 + 44.448889 = 55.557778
	if got := CompositeScore(segments, 66.67, w); got != 55.56 {
		t.Errorf("composite = %v, want 55.56", got)
	}
}

func TestCompositeScoreStaysBounded(t *testing.T) {
	w := DefaultWeights()

	if got := CompositeScore(SegmentScores{Publications: ptr(100)}, 100, w); got < 0 || got > 100 {
		t.Errorf("composite out of bounds: %v", got)
	}
}

func TestSegmentScoresEmpty(t *testing.T) {
	if !(SegmentScores{}).Empty() {
		t.Error("zero-value segments should be empty")
	}
	if (SegmentScores{Guidelines: ptr(0)}).Empty() {
		t.Error("a supplied zero is not empty")
	}
}
