package util

import "github.com/google/uuid"

// NewID returns a random UUID string used as a primary key.
func NewID() string {
	return uuid.NewString()
}

// IsID reports whether s parses as a UUID.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
