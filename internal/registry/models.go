package registry

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/kolmetry/kolmetry/internal/errors"
)

// npiPattern: registry ids are exactly 10 numeric digits, immutable once
// assigned.
var npiPattern = regexp.MustCompile(`^\d{10}$`)

// Person is a canonical registry identity
type Person struct {
	NPI       string    `json:"npi" db:"npi"`
	Name      string    `json:"name" db:"name"`
	Specialty string    `json:"specialty,omitempty" db:"specialty"`
	City      string    `json:"city,omitempty" db:"city"`
	State     string    `json:"state,omitempty" db:"state"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Alias is a free-text name variant known to refer to one person
type Alias struct {
	ID        string    `json:"id" db:"id"`
	NPI       string    `json:"npi" db:"npi"`
	Text      string    `json:"text" db:"text"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewPerson validates attributes and builds a Person record
func NewPerson(npi, name, specialty, city, state string) (*Person, error) {
	npi = strings.TrimSpace(npi)
	name = strings.TrimSpace(name)

	if !npiPattern.MatchString(npi) {
		return nil, apperrors.NewValidationError("npi must be exactly 10 numeric digits", "npi="+npi)
	}
	if name == "" {
		return nil, apperrors.NewValidationError("person name is required")
	}

	now := time.Now()
	return &Person{
		NPI:       npi,
		Name:      name,
		Specialty: strings.TrimSpace(specialty),
		City:      strings.TrimSpace(city),
		State:     strings.TrimSpace(state),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// NewAlias builds an alias row with a generated id
func NewAlias(npi, text string) *Alias {
	return &Alias{
		ID:        uuid.New().String(),
		NPI:       npi,
		Text:      strings.TrimSpace(text),
		CreatedAt: time.Now(),
	}
}
