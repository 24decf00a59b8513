package meal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 0
	MaxRating = 5
)

var (
	ErrEmptyName        = errors.New("meal name must not be empty")
	ErrRatingOutOfRange = fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	ErrNotFound         = errors.New("meal not found")
)

// Meal is a recorded meal. PhotoPath is empty when no photo was attached.
type Meal struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	PhotoPath string    `json:"photo_path,omitempty" db:"photo_path"`
	Rating    int       `json:"rating" db:"rating"`
	Location  string    `json:"location" db:"location"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// New creates a validated Meal with a fresh ID.
func New(name, photoPath string, rating int, location string) (*Meal, error) {
	m := &Meal{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(name),
		PhotoPath: photoPath,
		Rating:    rating,
		Location:  location,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the name is non-empty and the rating is within range.
func (m *Meal) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	if m.Rating < MinRating || m.Rating > MaxRating {
		return ErrRatingOutOfRange
	}
	return nil
}
