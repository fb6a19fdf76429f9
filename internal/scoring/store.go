package scoring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kolmetry/kolmetry/internal/database"
	"github.com/kolmetry/kolmetry/internal/nomination"
)

// PersonScore is the derived per (person, scope) score record. It is never
// hand-edited and always safe to regenerate from nomination counts, segment
// inputs, and the current weights.
type PersonScore struct {
	Scope          string           `json:"scope"`
	NPI            string           `json:"npi"`
	Segments       SegmentScores    `json:"segments"`
	Counts         NominationCounts `json:"counts"`
	SurveyScore    float64          `json:"survey_score"`
	ScoreNational  float64          `json:"score_national"`
	ScoreRising    float64          `json:"score_rising"`
	ScoreRegional  float64          `json:"score_regional"`
	ScoreDigital   float64          `json:"score_digital"`
	ScoreClinical  float64          `json:"score_clinical"`
	CompositeScore float64          `json:"composite_score"`
	CalculatedAt   time.Time        `json:"calculated_at"`
}

// Store handles weight config and person score persistence
type Store struct {
	db *database.DB
}

// NewStore creates a new scoring store
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// GetWeights loads the weight config for a scope. The second return value
// reports whether a stored row exists; absent rows read as the defaults.
func (s *Store) GetWeights(ctx context.Context, scope string) (Weights, bool, error) {
	var w Weights
	err := s.db.QueryRowContext(ctx, `
		SELECT w_publications, w_clinical_trials, w_conferences, w_guidelines,
		       w_social_media, w_press_mentions, w_claims_volume, w_referral_network, w_survey
		FROM weight_configs WHERE scope = ?
	`, scope).Scan(
		&w.Publications, &w.ClinicalTrials, &w.Conferences, &w.Guidelines,
		&w.SocialMedia, &w.PressMentions, &w.ClaimsVolume, &w.ReferralNetwork, &w.Survey,
	)
	if err == sql.ErrNoRows {
		return DefaultWeights(), false, nil
	}
	if err != nil {
		return Weights{}, false, fmt.Errorf("failed to query weight config: %w", err)
	}

	return w, true, nil
}

// SaveWeights stores a validated weight config for a scope
func (s *Store) SaveWeights(ctx context.Context, scope string, w Weights) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weight_configs (scope, w_publications, w_clinical_trials, w_conferences, w_guidelines,
			w_social_media, w_press_mentions, w_claims_volume, w_referral_network, w_survey, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope) DO UPDATE SET
			w_publications = excluded.w_publications,
			w_clinical_trials = excluded.w_clinical_trials,
			w_conferences = excluded.w_conferences,
			w_guidelines = excluded.w_guidelines,
			w_social_media = excluded.w_social_media,
			w_press_mentions = excluded.w_press_mentions,
			w_claims_volume = excluded.w_claims_volume,
			w_referral_network = excluded.w_referral_network,
			w_survey = excluded.w_survey,
			updated_at = excluded.updated_at
	`, scope, w.Publications, w.ClinicalTrials, w.Conferences, w.Guidelines,
		w.SocialMedia, w.PressMentions, w.ClaimsVolume, w.ReferralNetwork, w.Survey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save weight config: %w", err)
	}

	return nil
}

// DeleteWeights removes the stored config so the defaults show through
func (s *Store) DeleteWeights(ctx context.Context, scope string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM weight_configs WHERE scope = ?`, scope)
	if err != nil {
		return fmt.Errorf("failed to delete weight config: %w", err)
	}
	return nil
}

// ResolvedNominationCounts aggregates resolved (never excluded) nominations
// per matched person within a scope, overall and per category.
func (s *Store) ResolvedNominationCounts(ctx context.Context, scope string) (map[string]NominationCounts, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT matched_npi, nomination_type, COUNT(*)
		FROM nominations
		WHERE scope = ? AND status IN (?, ?) AND matched_npi IS NOT NULL
		GROUP BY matched_npi, nomination_type
	`, scope, nomination.StatusMatched, nomination.StatusNewHCP)
	if err != nil {
		return nil, fmt.Errorf("failed to query nomination counts: %w", err)
	}
	defer rows.Close()

	byPerson := make(map[string]NominationCounts)
	for rows.Next() {
		var npi, nominationType string
		var count int
		if err := rows.Scan(&npi, &nominationType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan nomination count: %w", err)
		}

		c := byPerson[npi]
		c.Total += count
		switch nominationType {
		case nomination.TypeNationalInfluence:
			c.National += count
		case nomination.TypeRisingInfluence:
			c.Rising += count
		case nomination.TypeRegionalExpert:
			c.Regional += count
		case nomination.TypeDigitalPresence:
			c.Digital += count
		case nomination.TypeClinicalExpert:
			c.Clinical += count
		}
		byPerson[npi] = c
	}

	return byPerson, rows.Err()
}

const personScoreColumns = `scope, npi,
	seg_publications, seg_clinical_trials, seg_conferences, seg_guidelines,
	seg_social_media, seg_press_mentions, seg_claims_volume, seg_referral_network,
	count_total, count_national, count_rising, count_regional, count_digital, count_clinical,
	survey_score, score_national, score_rising, score_regional, score_digital, score_clinical,
	composite_score, calculated_at`

func scanPersonScore(row interface{ Scan(...interface{}) error }) (*PersonScore, error) {
	var ps PersonScore
	segs := make([]sql.NullFloat64, 8)

	err := row.Scan(
		&ps.Scope, &ps.NPI,
		&segs[0], &segs[1], &segs[2], &segs[3], &segs[4], &segs[5], &segs[6], &segs[7],
		&ps.Counts.Total, &ps.Counts.National, &ps.Counts.Rising,
		&ps.Counts.Regional, &ps.Counts.Digital, &ps.Counts.Clinical,
		&ps.SurveyScore, &ps.ScoreNational, &ps.ScoreRising,
		&ps.ScoreRegional, &ps.ScoreDigital, &ps.ScoreClinical,
		&ps.CompositeScore, &ps.CalculatedAt,
	)
	if err != nil {
		return nil, err
	}

	targets := []**float64{
		&ps.Segments.Publications, &ps.Segments.ClinicalTrials, &ps.Segments.Conferences,
		&ps.Segments.Guidelines, &ps.Segments.SocialMedia, &ps.Segments.PressMentions,
		&ps.Segments.ClaimsVolume, &ps.Segments.ReferralNetwork,
	}
	for i, seg := range segs {
		if seg.Valid {
			value := seg.Float64
			*targets[i] = &value
		}
	}

	return &ps, nil
}

// ListScores returns every score record in a scope, best composite first
func (s *Store) ListScores(ctx context.Context, scope string) ([]*PersonScore, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+personScoreColumns+` FROM person_scores
		WHERE scope = ?
		ORDER BY composite_score DESC, npi ASC
	`, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to query person scores: %w", err)
	}
	defer rows.Close()

	var scores []*PersonScore
	for rows.Next() {
		ps, err := scanPersonScore(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan person score: %w", err)
		}
		scores = append(scores, ps)
	}

	return scores, rows.Err()
}

// UpsertSurvey overwrites the survey-derived fields of one score record,
// leaving externally supplied segments and the composite untouched.
func (s *Store) UpsertSurvey(ctx context.Context, scope, npi string, scores SurveyScores) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO person_scores (scope, npi,
			count_total, count_national, count_rising, count_regional, count_digital, count_clinical,
			survey_score, score_national, score_rising, score_regional, score_digital, score_clinical,
			calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope, npi) DO UPDATE SET
			count_total = excluded.count_total,
			count_national = excluded.count_national,
			count_rising = excluded.count_rising,
			count_regional = excluded.count_regional,
			count_digital = excluded.count_digital,
			count_clinical = excluded.count_clinical,
			survey_score = excluded.survey_score,
			score_national = excluded.score_national,
			score_rising = excluded.score_rising,
			score_regional = excluded.score_regional,
			score_digital = excluded.score_digital,
			score_clinical = excluded.score_clinical,
			calculated_at = excluded.calculated_at
	`, scope, npi,
		scores.Counts.Total, scores.Counts.National, scores.Counts.Rising,
		scores.Counts.Regional, scores.Counts.Digital, scores.Counts.Clinical,
		scores.Overall, scores.National, scores.Rising, scores.Regional, scores.Digital, scores.Clinical,
		time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert survey scores: %w", err)
	}

	return nil
}

// UpdateComposite overwrites the composite score of one record
func (s *Store) UpdateComposite(ctx context.Context, scope, npi string, composite float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE person_scores SET composite_score = ?, calculated_at = ?
		WHERE scope = ? AND npi = ?
	`, composite, time.Now(), scope, npi)
	if err != nil {
		return fmt.Errorf("failed to update composite score: %w", err)
	}
	return nil
}

// UpsertSegments stores externally supplied segment scores for one person,
// creating the score record when it does not exist yet.
func (s *Store) UpsertSegments(ctx context.Context, scope, npi string, segments SegmentScores) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO person_scores (scope, npi,
			seg_publications, seg_clinical_trials, seg_conferences, seg_guidelines,
			seg_social_media, seg_press_mentions, seg_claims_volume, seg_referral_network,
			calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(scope, npi) DO UPDATE SET
			seg_publications = excluded.seg_publications,
			seg_clinical_trials = excluded.seg_clinical_trials,
			seg_conferences = excluded.seg_conferences,
			seg_guidelines = excluded.seg_guidelines,
			seg_social_media = excluded.seg_social_media,
			seg_press_mentions = excluded.seg_press_mentions,
			seg_claims_volume = excluded.seg_claims_volume,
			seg_referral_network = excluded.seg_referral_network,
			calculated_at = excluded.calculated_at
	`, scope, npi,
		segments.Publications, segments.ClinicalTrials, segments.Conferences, segments.Guidelines,
		segments.SocialMedia, segments.PressMentions, segments.ClaimsVolume, segments.ReferralNetwork,
		time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert segment scores: %w", err)
	}

	return nil
}
