package profilelog

import (
	"errors"
	"strings"
	"time"
)

// MaxNoteLength caps the free-text note on a snapshot.
const MaxNoteLength = 1000

// Domain errors
var (
	ErrEmptyUserID  = errors.New("user id cannot be empty")
	ErrInvalidValue = errors.New("weight and height must be positive")
	ErrNoteTooLong  = errors.New("note cannot exceed 1000 characters")
)

// Snapshot is one entry in a user's profile history.
type Snapshot struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	WeightKg      float64   `json:"weightKg"`
	HeightCm      float64   `json:"heightCm"`
	BMI           float64   `json:"bmi"`
	Category      string    `json:"category"`
	DailyCalories int       `json:"dailyCalories"`
	Goal          string    `json:"goal"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Validate checks that the Snapshot has valid data.
// PRE: Snapshot struct is populated
// POST: Returns nil if valid, error otherwise
func (s *Snapshot) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrEmptyUserID
	}
	if s.WeightKg <= 0 || s.HeightCm <= 0 {
		return ErrInvalidValue
	}
	if len(s.Note) > MaxNoteLength {
		return ErrNoteTooLong
	}
	return nil
}
