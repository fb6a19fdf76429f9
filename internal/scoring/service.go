package scoring

import (
	"context"
	"fmt"
	"time"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
	"github.com/kolmetry/kolmetry/internal/monitoring"
	"github.com/kolmetry/kolmetry/internal/registry"
	"github.com/kolmetry/kolmetry/internal/scopelock"
)

// BatchResult is the outcome of one recalculation run
type BatchResult struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
}

// Service owns PersonScore derivation. Every recalculation is a pure,
// fully overwriting recomputation from current nomination state and
// weights, so any call is safe to repeat.
type Service struct {
	store    *Store
	registry *registry.Store
	locks    *scopelock.Locker
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

// NewService creates a scoring service
func NewService(store *Store, reg *registry.Store, locks *scopelock.Locker,
	logger *monitoring.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{
		store:    store,
		registry: reg,
		locks:    locks,
		logger:   logger,
		metrics:  metrics,
	}
}

// CalculateSurveyScores recomputes every person's survey score in scope
// from resolved nomination counts. Persons holding a stale score record but
// no remaining resolved nominations are zeroed rather than skipped.
func (s *Service) CalculateSurveyScores(ctx context.Context, scope string) (*BatchResult, error) {
	release, err := s.locks.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	byPerson, err := s.store.ResolvedNominationCounts(ctx, scope)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.ListScores(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, ps := range existing {
		if _, ok := byPerson[ps.NPI]; !ok {
			byPerson[ps.NPI] = NominationCounts{}
		}
	}

	scores := ComputeSurveyScores(byPerson)

	previous := make(map[string]SurveyScores, len(existing))
	for _, ps := range existing {
		previous[ps.NPI] = SurveyScores{
			Counts:   ps.Counts,
			Overall:  ps.SurveyScore,
			National: ps.ScoreNational,
			Rising:   ps.ScoreRising,
			Regional: ps.ScoreRegional,
			Digital:  ps.ScoreDigital,
			Clinical: ps.ScoreClinical,
		}
	}

	result := &BatchResult{Processed: len(scores)}
	for npi, sc := range scores {
		if err := s.store.UpsertSurvey(ctx, scope, npi, sc); err != nil {
			return nil, err
		}
		if prev, ok := previous[npi]; !ok || prev != sc {
			result.Updated++
		}
	}

	s.metrics.IncrementSurveyRecalc()
	s.logger.BatchLogger("calculate_survey_scores", scope, result.Processed, result.Updated, time.Since(start))

	return result, nil
}

// RecalculateComposites rebuilds every composite score in scope under the
// scope's current weight config. Invoked explicitly and after every weight
// change; always a full overwrite.
func (s *Service) RecalculateComposites(ctx context.Context, scope string) (*BatchResult, error) {
	release, err := s.locks.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	return s.recalculateCompositesLocked(ctx, scope)
}

func (s *Service) recalculateCompositesLocked(ctx context.Context, scope string) (*BatchResult, error) {
	start := time.Now()

	weights, _, err := s.store.GetWeights(ctx, scope)
	if err != nil {
		return nil, err
	}

	scores, err := s.store.ListScores(ctx, scope)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{Processed: len(scores)}
	for _, ps := range scores {
		composite := CompositeScore(ps.Segments, ps.SurveyScore, weights)
		if composite == ps.CompositeScore {
			continue
		}
		if err := s.store.UpdateComposite(ctx, scope, ps.NPI, composite); err != nil {
			return nil, err
		}
		result.Updated++
	}

	s.metrics.IncrementCompositeRecalc()
	s.logger.BatchLogger("recalculate_composites", scope, result.Processed, result.Updated, time.Since(start))

	return result, nil
}

// GetWeightConfig returns the effective weights for a scope
func (s *Service) GetWeightConfig(ctx context.Context, scope string) (Weights, error) {
	weights, _, err := s.store.GetWeights(ctx, scope)
	return weights, err
}

// UpdateWeightConfig validates and stores a new weight vector, then
// rebuilds every composite in scope under it.
func (s *Service) UpdateWeightConfig(ctx context.Context, scope string, weights Weights) (*BatchResult, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.store.SaveWeights(ctx, scope, weights); err != nil {
		return nil, err
	}

	return s.recalculateCompositesLocked(ctx, scope)
}

// ResetWeightConfig drops the stored config so the scope reads the system
// defaults again, and rebuilds composites under them.
func (s *Service) ResetWeightConfig(ctx context.Context, scope string) (*BatchResult, error) {
	release, err := s.locks.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.store.DeleteWeights(ctx, scope); err != nil {
		return nil, err
	}

	return s.recalculateCompositesLocked(ctx, scope)
}

// UpsertSegmentScores records externally supplied segment metrics for one
// person and refreshes their composite under current weights.
func (s *Service) UpsertSegmentScores(ctx context.Context, scope, npi string, segments SegmentScores) (*PersonScore, error) {
	if err := validateSegments(segments); err != nil {
		return nil, err
	}

	if _, err := s.registry.GetPerson(ctx, npi); err != nil {
		return nil, err
	}

	if err := s.store.UpsertSegments(ctx, scope, npi, segments); err != nil {
		return nil, err
	}

	weights, _, err := s.store.GetWeights(ctx, scope)
	if err != nil {
		return nil, err
	}

	scores, err := s.store.ListScores(ctx, scope)
	if err != nil {
		return nil, err
	}
	for _, ps := range scores {
		if ps.NPI != npi {
			continue
		}
		composite := CompositeScore(ps.Segments, ps.SurveyScore, weights)
		if composite != ps.CompositeScore {
			if err := s.store.UpdateComposite(ctx, scope, npi, composite); err != nil {
				return nil, err
			}
			ps.CompositeScore = composite
		}
		return ps, nil
	}

	return nil, apperrors.NewNotFoundError("person score", fmt.Sprintf("%s/%s", scope, npi))
}

// ListScores returns the scope's score records, best composite first
func (s *Service) ListScores(ctx context.Context, scope string) ([]*PersonScore, error) {
	return s.store.ListScores(ctx, scope)
}

func validateSegments(segments SegmentScores) error {
	check := func(name string, value *float64) error {
		if value != nil && (*value < 0 || *value > 100) {
			return apperrors.NewValidationError(
				fmt.Sprintf("segment %s must be in [0,100]", name),
				fmt.Sprintf("%s=%.2f", name, *value))
		}
		return nil
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"publications", segments.Publications},
		{"clinical_trials", segments.ClinicalTrials},
		{"conferences", segments.Conferences},
		{"guidelines", segments.Guidelines},
		{"social_media", segments.SocialMedia},
		{"press_mentions", segments.PressMentions},
		{"claims_volume", segments.ClaimsVolume},
		{"referral_network", segments.ReferralNetwork},
	}
	for _, f := range fields {
		if err := check(f.name, f.value); err != nil {
			return err
		}
	}

	return nil
}
