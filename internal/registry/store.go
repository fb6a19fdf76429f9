package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kolmetry/kolmetry/internal/database"
	apperrors "github.com/kolmetry/kolmetry/internal/errors"
	"github.com/kolmetry/kolmetry/internal/matching"
)

// Store handles person and alias persistence
type Store struct {
	db *database.DB
}

// NewStore creates a new registry store
func NewStore(db *database.DB) *Store {
	return &Store{db: db}
}

// CreatePerson inserts a new canonical identity. Fails with a conflict when
// the NPI is already assigned.
func (s *Store) CreatePerson(ctx context.Context, person *Person) error {
	return s.CreatePersonTx(ctx, s.db, person)
}

// CreatePersonTx is CreatePerson running on the supplied queryer so callers
// can bundle person creation with other writes in one transaction.
func (s *Store) CreatePersonTx(ctx context.Context, q database.Queryer, person *Person) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM persons WHERE npi = ?`, person.NPI).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check npi uniqueness: %w", err)
	}
	if exists > 0 {
		return apperrors.NewConflictError(fmt.Sprintf("person with npi %s already exists", person.NPI))
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO persons (npi, name, normalized_name, specialty, city, state, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, person.NPI, person.Name, matching.Normalize(person.Name), person.Specialty,
		person.City, person.State, person.Active, person.CreatedAt, person.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create person: %w", err)
	}

	return nil
}

// GetPerson loads a person by NPI
func (s *Store) GetPerson(ctx context.Context, npi string) (*Person, error) {
	return s.getPerson(ctx, s.db, npi)
}

// GetPersonTx loads a person by NPI on the supplied queryer
func (s *Store) GetPersonTx(ctx context.Context, q database.Queryer, npi string) (*Person, error) {
	return s.getPerson(ctx, q, npi)
}

func (s *Store) getPerson(ctx context.Context, q database.Queryer, npi string) (*Person, error) {
	var person Person
	err := q.QueryRowContext(ctx, `
		SELECT npi, name, specialty, city, state, active, created_at, updated_at
		FROM persons WHERE npi = ?
	`, npi).Scan(
		&person.NPI, &person.Name, &person.Specialty, &person.City,
		&person.State, &person.Active, &person.CreatedAt, &person.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("person", npi)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query person: %w", err)
	}

	return &person, nil
}

// AddAlias appends a free-text name variant to a person. Alias text is
// trimmed and compared case-insensitively; re-adding a known variant is a
// no-op rather than an error. Returns whether a row was written.
func (s *Store) AddAlias(ctx context.Context, npi, text string) (bool, error) {
	return s.AddAliasTx(ctx, s.db, npi, text)
}

// AddAliasTx is AddAlias running on the supplied queryer
func (s *Store) AddAliasTx(ctx context.Context, q database.Queryer, npi, text string) (bool, error) {
	alias := NewAlias(npi, text)
	normalized := matching.Normalize(alias.Text)
	if normalized == "" {
		return false, apperrors.NewValidationError("alias text is required")
	}

	if _, err := s.getPerson(ctx, q, npi); err != nil {
		return false, err
	}

	result, err := q.ExecContext(ctx, `
		INSERT OR IGNORE INTO aliases (id, npi, text, normalized_text, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, alias.ID, alias.NPI, alias.Text, normalized, alias.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to add alias: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read alias insert result: %w", err)
	}

	return rows > 0, nil
}

// FindByFingerprint returns persons whose canonical name or any alias
// matches the normalized form of the given text exactly.
func (s *Store) FindByFingerprint(ctx context.Context, text string) ([]Person, error) {
	normalized := matching.Normalize(text)
	if normalized == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT p.npi, p.name, p.specialty, p.city, p.state, p.active, p.created_at, p.updated_at
		FROM persons p
		LEFT JOIN aliases a ON a.npi = p.npi
		WHERE p.active = TRUE AND (p.normalized_name = ? OR a.normalized_text = ?)
		ORDER BY p.npi ASC
	`, normalized, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to query fingerprint: %w", err)
	}
	defer rows.Close()

	var persons []Person
	for rows.Next() {
		var person Person
		if err := rows.Scan(
			&person.NPI, &person.Name, &person.Specialty, &person.City,
			&person.State, &person.Active, &person.CreatedAt, &person.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan person: %w", err)
		}
		persons = append(persons, person)
	}

	return persons, rows.Err()
}

// CandidatePool loads every active identity with its aliases as matching
// candidates. The pool bounds the working set of one suggestion run.
func (s *Store) CandidatePool(ctx context.Context) ([]matching.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT npi, name, specialty, city, state
		FROM persons WHERE active = TRUE
		ORDER BY npi ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate pool: %w", err)
	}
	defer rows.Close()

	var pool []matching.Candidate
	index := make(map[string]int)
	for rows.Next() {
		var cand matching.Candidate
		if err := rows.Scan(&cand.NPI, &cand.Name, &cand.Specialty, &cand.City, &cand.State); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		index[cand.NPI] = len(pool)
		pool = append(pool, cand)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	aliasRows, err := s.db.QueryContext(ctx, `SELECT npi, text FROM aliases ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer aliasRows.Close()

	for aliasRows.Next() {
		var npi, text string
		if err := aliasRows.Scan(&npi, &text); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		if i, ok := index[npi]; ok {
			pool[i].Aliases = append(pool[i].Aliases, text)
		}
	}

	return pool, aliasRows.Err()
}

// Aliases returns the alias texts of one person, oldest first
func (s *Store) Aliases(ctx context.Context, q database.Queryer, npi string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT text FROM aliases WHERE npi = ? ORDER BY created_at ASC`, npi)
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	var texts []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		texts = append(texts, text)
	}

	return texts, rows.Err()
}

// Touch bumps updated_at, used when alias growth changes a profile
func (s *Store) Touch(ctx context.Context, q database.Queryer, npi string) error {
	_, err := q.ExecContext(ctx, `UPDATE persons SET updated_at = ? WHERE npi = ?`, time.Now(), npi)
	if err != nil {
		return fmt.Errorf("failed to touch person: %w", err)
	}
	return nil
}
