package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("weekly update not found")
)

// ValidationError lists every problem found in a save request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// DuplicateWeekError means another update already occupies the team and week.
type DuplicateWeekError struct {
	ExistingID string
	TeamName   string
	WeekDate   string
}

func (e *DuplicateWeekError) Error() string {
	return fmt.Sprintf("team %q already has update %s for week %s", e.TeamName, e.ExistingID, e.WeekDate)
}
