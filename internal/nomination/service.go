package nomination

import (
	"context"
	"fmt"
	"time"

	"github.com/kolmetry/kolmetry/internal/cache"
	"github.com/kolmetry/kolmetry/internal/database"
	apperrors "github.com/kolmetry/kolmetry/internal/errors"
	"github.com/kolmetry/kolmetry/internal/matching"
	"github.com/kolmetry/kolmetry/internal/monitoring"
	"github.com/kolmetry/kolmetry/internal/registry"
	"github.com/kolmetry/kolmetry/internal/scopelock"
)

// PersonAttributes carries the full attribute set for create-person-and-match
type PersonAttributes struct {
	NPI       string `json:"npi"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	City      string `json:"city"`
	State     string `json:"state"`
}

// SkippedNomination records why one nomination was not auto-matched
type SkippedNomination struct {
	NominationID string `json:"nomination_id"`
	Reason       string `json:"reason"`
}

// Skip reasons reported by bulk auto-match.
const (
	SkipNoCandidates   = "no_candidates"
	SkipBelowThreshold = "below_threshold"
)

// BulkResult is the outcome of one bulk auto-match run
type BulkResult struct {
	Matched int                 `json:"matched"`
	Total   int                 `json:"total"`
	Skipped []SkippedNomination `json:"skipped,omitempty"`
}

// Service owns nomination mutation: the resolution state machine, the
// suggestion entry point, and bulk auto-match.
type Service struct {
	db       *database.DB
	registry *registry.Store
	store    *Store
	engine   *matching.Engine
	cache    *cache.SuggestionCache
	locks    *scopelock.Locker
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

// NewService creates a nomination service
func NewService(db *database.DB, reg *registry.Store, store *Store, engine *matching.Engine,
	suggestionCache *cache.SuggestionCache, locks *scopelock.Locker,
	logger *monitoring.Logger, metrics *monitoring.Metrics) *Service {
	return &Service{
		db:       db,
		registry: reg,
		store:    store,
		engine:   engine,
		cache:    suggestionCache,
		locks:    locks,
		logger:   logger,
		metrics:  metrics,
	}
}

// Submit records a new UNMATCHED nomination
func (s *Service) Submit(ctx context.Context, scope, responseID, nominationType, rawName, nominatorNPI string) (*Nomination, error) {
	nom, err := NewNomination(scope, responseID, nominationType, rawName, nominatorNPI)
	if err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, nom); err != nil {
		return nil, err
	}

	return nom, nil
}

// Get loads one nomination
func (s *Service) Get(ctx context.Context, id string) (*Nomination, error) {
	return s.store.Get(ctx, id)
}

// Suggest runs the suggestion engine for a nomination. Read-only; results
// are cached per normalized name and nominator until the registry changes.
func (s *Service) Suggest(ctx context.Context, nominationID string) ([]matching.Suggestion, error) {
	start := time.Now()

	nom, err := s.store.Get(ctx, nominationID)
	if err != nil {
		return nil, err
	}

	nominator, err := s.nominatorContext(ctx, nom)
	if err != nil {
		return nil, err
	}

	key := cache.Key(matching.Normalize(nom.RawName), nom.NominatorNPI)
	if suggestions, ok := s.cache.Get(key); ok {
		s.metrics.IncrementCacheHit()
		s.logger.SuggestionLogger(nominationID, -1, len(suggestions), time.Since(start), true)
		return suggestions, nil
	}
	s.metrics.IncrementCacheMiss()

	pool, err := s.registry.CandidatePool(ctx)
	if err != nil {
		return nil, err
	}

	suggestions := s.engine.Suggest(nom.RawName, nominator, pool)
	s.cache.Set(key, suggestions)

	s.metrics.IncrementSuggestionRun()
	s.logger.SuggestionLogger(nominationID, len(pool), len(suggestions), time.Since(start), false)

	return suggestions, nil
}

// Match resolves UNMATCHED → MATCHED against an existing person. With
// addAlias the raw entered name is appended to the person's alias set, which
// is how the registry improves future suggestions.
func (s *Service) Match(ctx context.Context, nominationID, npi string, addAlias bool) (*Nomination, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	nom, err := s.store.GetTx(ctx, tx, nominationID)
	if err != nil {
		return nil, err
	}
	if nom.Status != StatusUnmatched {
		return nil, apperrors.NewConflictError(fmt.Sprintf("nomination %s is already %s", nominationID, nom.Status))
	}

	person, err := s.registry.GetPersonTx(ctx, tx, npi)
	if err != nil {
		return nil, err
	}

	confidence := s.matchConfidence(ctx, tx, nom, person)

	if err := s.store.ResolveTx(ctx, tx, nominationID, StatusMatched, &npi, &confidence); err != nil {
		return nil, err
	}

	aliasAdded := false
	if addAlias {
		added, err := s.registry.AddAliasTx(ctx, tx, npi, nom.RawName)
		if err != nil {
			return nil, err
		}
		if added {
			if err := s.registry.Touch(ctx, tx, npi); err != nil {
				return nil, err
			}
		}
		aliasAdded = added
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit match: %w", err)
	}

	if aliasAdded {
		s.cache.Clear()
	}

	s.metrics.IncrementManualMatch()
	s.logger.ResolutionLogger(nominationID, nom.Scope, string(StatusMatched), npi, confidence)

	return s.store.Get(ctx, nominationID)
}

// Exclude resolves UNMATCHED → EXCLUDED. Terminal: there is no transition
// back out of EXCLUDED.
func (s *Service) Exclude(ctx context.Context, nominationID string) (*Nomination, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	nom, err := s.store.GetTx(ctx, tx, nominationID)
	if err != nil {
		return nil, err
	}
	if nom.Status != StatusUnmatched {
		return nil, apperrors.NewConflictError(fmt.Sprintf("nomination %s is already %s", nominationID, nom.Status))
	}

	if err := s.store.ResolveTx(ctx, tx, nominationID, StatusExcluded, nil, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit exclusion: %w", err)
	}

	s.metrics.IncrementExclusion()
	s.logger.ResolutionLogger(nominationID, nom.Scope, string(StatusExcluded), "", 0)

	return s.store.Get(ctx, nominationID)
}

// CreatePersonAndMatch resolves UNMATCHED → NEW_HCP: creates the person,
// records the raw entered name as their first alias, and matches the
// nomination, all in one transaction. Any failure leaves the nomination
// UNMATCHED and creates nothing.
func (s *Service) CreatePersonAndMatch(ctx context.Context, nominationID string, attrs PersonAttributes) (*Nomination, error) {
	person, err := registry.NewPerson(attrs.NPI, attrs.Name, attrs.Specialty, attrs.City, attrs.State)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	nom, err := s.store.GetTx(ctx, tx, nominationID)
	if err != nil {
		return nil, err
	}
	if nom.Status != StatusUnmatched {
		return nil, apperrors.NewConflictError(fmt.Sprintf("nomination %s is already %s", nominationID, nom.Status))
	}

	if err := s.registry.CreatePersonTx(ctx, tx, person); err != nil {
		return nil, err
	}

	if _, err := s.registry.AddAliasTx(ctx, tx, person.NPI, nom.RawName); err != nil {
		return nil, err
	}

	confidence := 100.0
	if err := s.store.ResolveTx(ctx, tx, nominationID, StatusNewHCP, &person.NPI, &confidence); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create-and-match: %w", err)
	}

	s.cache.Clear()
	s.metrics.IncrementNewIdentity()
	s.logger.ResolutionLogger(nominationID, nom.Scope, string(StatusNewHCP), person.NPI, confidence)

	return s.store.Get(ctx, nominationID)
}

// BulkAutoMatch resolves every UNMATCHED nomination in scope whose top
// suggestion clears the auto-accept threshold. Auto-matches never add
// aliases. Per-item failures are recorded and never abort the run.
func (s *Service) BulkAutoMatch(ctx context.Context, scope string) (*BulkResult, error) {
	release, err := s.locks.Acquire(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()

	exists, err := s.store.ScopeExists(ctx, scope)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, apperrors.NewNotFoundError("scope", scope)
	}

	unmatched, err := s.store.ListByStatus(ctx, scope, StatusUnmatched)
	if err != nil {
		return nil, err
	}

	pool, err := s.registry.CandidatePool(ctx)
	if err != nil {
		return nil, err
	}

	// The pool doubles as a nominator attribute lookup to avoid one query
	// per nomination.
	nominators := make(map[string]*matching.NominatorContext, len(pool))
	for _, cand := range pool {
		nominators[cand.NPI] = &matching.NominatorContext{Specialty: cand.Specialty, State: cand.State}
	}

	result := &BulkResult{Total: len(unmatched)}
	for _, nom := range unmatched {
		suggestions := s.engine.Suggest(nom.RawName, nominators[nom.NominatorNPI], pool)
		if len(suggestions) == 0 {
			result.Skipped = append(result.Skipped, SkippedNomination{NominationID: nom.ID, Reason: SkipNoCandidates})
			continue
		}

		top := suggestions[0]
		if top.Confidence < matching.AutoAcceptThreshold {
			result.Skipped = append(result.Skipped, SkippedNomination{NominationID: nom.ID, Reason: SkipBelowThreshold})
			continue
		}

		if err := s.autoMatch(ctx, nom.ID, top.NPI, top.Confidence); err != nil {
			result.Skipped = append(result.Skipped, SkippedNomination{NominationID: nom.ID, Reason: err.Error()})
			continue
		}

		result.Matched++
	}

	s.metrics.RecordAutoMatchRun(result.Matched)
	s.logger.BatchLogger("bulk_auto_match", scope, result.Total, result.Matched, time.Since(start))

	return result, nil
}

// autoMatch applies one threshold-gated MATCHED transition in its own
// transaction so a failure affects only its nomination.
func (s *Service) autoMatch(ctx context.Context, nominationID, npi string, confidence float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.store.ResolveTx(ctx, tx, nominationID, StatusMatched, &npi, &confidence); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit auto-match: %w", err)
	}

	return nil
}

// nominatorContext loads the nominator's attributes for contextual boosts.
// A missing or unknown nominator disables boosting rather than failing.
func (s *Service) nominatorContext(ctx context.Context, nom *Nomination) (*matching.NominatorContext, error) {
	if nom.NominatorNPI == "" {
		return nil, nil
	}

	person, err := s.registry.GetPerson(ctx, nom.NominatorNPI)
	if err != nil {
		if apperrors.IsCategory(err, apperrors.CategoryNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &matching.NominatorContext{Specialty: person.Specialty, State: person.State}, nil
}

// matchConfidence scores the chosen person against the raw entered name at
// match time. Scoring failures degrade to zero confidence rather than
// blocking a human-confirmed match.
func (s *Service) matchConfidence(ctx context.Context, q database.Queryer, nom *Nomination, person *registry.Person) float64 {
	aliases, err := s.registry.Aliases(ctx, q, person.NPI)
	if err != nil {
		return 0
	}

	cand := matching.Candidate{
		NPI:       person.NPI,
		Name:      person.Name,
		Specialty: person.Specialty,
		City:      person.City,
		State:     person.State,
		Aliases:   aliases,
	}

	nominator, err := s.nominatorContext(ctx, nom)
	if err != nil {
		nominator = nil
	}

	score, _ := s.engine.ScoreCandidate(nom.RawName, cand, nominator)
	return score
}
