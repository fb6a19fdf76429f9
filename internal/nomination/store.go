package nomination

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kolmetry/kolmetry/internal/database"
	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

// Store handles nomination persistence
type Store struct {
	db *database.DB
}

// NewStore creates a new nomination store
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

const nominationColumns = `id, scope, response_id, nomination_type, raw_name, nominator_npi, status, matched_npi, confidence, created_at, resolved_at`

func scanNomination(row interface{ Scan(...interface{}) error }) (*Nomination, error) {
	var nom Nomination
	var nominator sql.NullString
	var matched sql.NullString
	var confidence sql.NullFloat64
	var resolvedAt sql.NullTime

	err := row.Scan(
		&nom.ID, &nom.Scope, &nom.ResponseID, &nom.Type, &nom.RawName,
		&nominator, &nom.Status, &matched, &confidence, &nom.CreatedAt, &resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	nom.NominatorNPI = nominator.String
	if matched.Valid {
		nom.MatchedNPI = &matched.String
	}
	if confidence.Valid {
		nom.Confidence = &confidence.Float64
	}
	if resolvedAt.Valid {
		nom.ResolvedAt = &resolvedAt.Time
	}

	return &nom, nil
}

// Create inserts a new UNMATCHED nomination
func (s *Store) Create(ctx context.Context, nom *Nomination) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nominations (id, scope, response_id, nomination_type, raw_name, nominator_npi, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, nom.ID, nom.Scope, nom.ResponseID, nom.Type, nom.RawName, nom.NominatorNPI, nom.Status, nom.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create nomination: %w", err)
	}

	return nil
}

// Get loads a nomination by id
func (s *Store) Get(ctx context.Context, id string) (*Nomination, error) {
	return s.GetTx(ctx, s.db, id)
}

// GetTx loads a nomination by id on the supplied queryer
func (s *Store) GetTx(ctx context.Context, q database.Queryer, id string) (*Nomination, error) {
	row := q.QueryRowContext(ctx, `SELECT `+nominationColumns+` FROM nominations WHERE id = ?`, id)

	nom, err := scanNomination(row)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("nomination", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query nomination: %w", err)
	}

	return nom, nil
}

// ListByStatus returns every nomination in a scope with the given status,
// oldest first for deterministic batch processing.
func (s *Store) ListByStatus(ctx context.Context, scope string, status Status) ([]*Nomination, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nominationColumns+` FROM nominations
		WHERE scope = ? AND status = ?
		ORDER BY created_at ASC, id ASC
	`, scope, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query nominations: %w", err)
	}
	defer rows.Close()

	var noms []*Nomination
	for rows.Next() {
		nom, err := scanNomination(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nomination: %w", err)
		}
		noms = append(noms, nom)
	}

	return noms, rows.Err()
}

// ResolveTx applies a terminal transition to a nomination that the caller
// has already verified to be UNMATCHED within the same transaction.
func (s *Store) ResolveTx(ctx context.Context, q database.Queryer, id string, status Status, matchedNPI *string, confidence *float64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE nominations
		SET status = ?, matched_npi = ?, confidence = ?, resolved_at = ?
		WHERE id = ? AND status = ?
	`, status, matchedNPI, confidence, time.Now(), id, StatusUnmatched)
	if err != nil {
		return fmt.Errorf("failed to resolve nomination: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read resolve result: %w", err)
	}
	if rows == 0 {
		return apperrors.NewConflictError(fmt.Sprintf("nomination %s is not UNMATCHED", id))
	}

	return nil
}

// ScopeExists reports whether any nomination was ever recorded for a scope
func (s *Store) ScopeExists(ctx context.Context, scope string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM nominations WHERE scope = ?`, scope).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check scope: %w", err)
	}
	return count > 0, nil
}
