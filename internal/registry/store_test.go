package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolmetry/kolmetry/internal/database"
	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewStore(db)
}

func TestNewPersonValidation(t *testing.T) {
	tests := []struct {
		name    string
		npi     string
		person  string
		wantErr bool
	}{
		{"valid", "1234567890", "John Smith", false},
		{"npi too short", "123456789", "John Smith", true},
		{"npi too long", "12345678901", "John Smith", true},
		{"npi non-numeric", "12345678AB", "John Smith", true},
		{"npi empty", "", "John Smith", true},
		{"name empty", "1234567890", "", true},
		{"name whitespace only", "1234567890", "   ", true},
		{"npi surrounded by spaces", " 1234567890 ", "John Smith", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPerson(tt.npi, tt.person, "", "", "")
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestCreatePersonAndGet(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	person, err := NewPerson("1234567890", "John Smith", "Cardiology", "Houston", "TX")
	require.NoError(t, err)
	require.NoError(t, store.CreatePerson(ctx, person))

	loaded, err := store.GetPerson(ctx, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, "John Smith", loaded.Name)
	assert.Equal(t, "Cardiology", loaded.Specialty)
	assert.True(t, loaded.Active)
}

func TestCreatePersonDuplicateNPI(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	person, err := NewPerson("1234567890", "John Smith", "", "", "")
	require.NoError(t, err)
	require.NoError(t, store.CreatePerson(ctx, person))

	dup, err := NewPerson("1234567890", "Jane Doe", "", "", "")
	require.NoError(t, err)

	err = store.CreatePerson(ctx, dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryConflict))
}

func TestGetPersonNotFound(t *testing.T) {
	store := setupStore(t)

	_, err := store.GetPerson(context.Background(), "9999999999")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestAddAlias(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	person, err := NewPerson("1234567890", "Jonathan Smith", "", "", "")
	require.NoError(t, err)
	require.NoError(t, store.CreatePerson(ctx, person))

	added, err := store.AddAlias(ctx, "1234567890", "John Smith")
	require.NoError(t, err)
	assert.True(t, added)

	// Case-insensitive duplicate is a no-op, not an error.
	added, err = store.AddAlias(ctx, "1234567890", "JOHN SMITH")
	require.NoError(t, err)
	assert.False(t, added)

	aliases, err := store.Aliases(ctx, store.db, "1234567890")
	require.NoError(t, err)
	assert.Equal(t, []string{"John Smith"}, aliases)
}

func TestAddAliasValidation(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	person, err := NewPerson("1234567890", "John Smith", "", "", "")
	require.NoError(t, err)
	require.NoError(t, store.CreatePerson(ctx, person))

	_, err = store.AddAlias(ctx, "1234567890", "   ")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryValidation))

	_, err = store.AddAlias(ctx, "9999999999", "John Smith")
	require.Error(t, err)
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
}

func TestFindByFingerprint(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	person, err := NewPerson("1234567890", "Jonathan Smith", "", "", "")
	require.NoError(t, err)
	require.NoError(t, store.CreatePerson(ctx, person))

	_, err = store.AddAlias(ctx, "1234567890", "John Smith")
	require.NoError(t, err)

	// Canonical name, normalized.
	found, err := store.FindByFingerprint(ctx, "Dr. Jonathan Smith, MD")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "1234567890", found[0].NPI)

	// Alias, normalized.
	found, err = store.FindByFingerprint(ctx, "john smith")
	require.NoError(t, err)
	require.Len(t, found, 1)

	// No match.
	found, err = store.FindByFingerprint(ctx, "Jane Doe")
	require.NoError(t, err)
	assert.Empty(t, found)

	// Empty fingerprint.
	found, err = store.FindByFingerprint(ctx, "Dr. MD")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestCandidatePool(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	for _, p := range []struct{ npi, name string }{
		{"1000000001", "John Smith"},
		{"1000000002", "Jane Doe"},
	} {
		person, err := NewPerson(p.npi, p.name, "", "", "")
		require.NoError(t, err)
		require.NoError(t, store.CreatePerson(ctx, person))
	}

	_, err := store.AddAlias(ctx, "1000000001", "Johnny Smith")
	require.NoError(t, err)

	pool, err := store.CandidatePool(ctx)
	require.NoError(t, err)
	require.Len(t, pool, 2)

	assert.Equal(t, "1000000001", pool[0].NPI)
	assert.Equal(t, []string{"Johnny Smith"}, pool[0].Aliases)
	assert.Empty(t, pool[1].Aliases)
}
