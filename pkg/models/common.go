package models

import (
	"github.com/google/uuid"
)

// NewUUID generates a new UUID string
func NewUUID() string {
	return uuid.New().String()
}

// IsUUID reports whether s parses as a UUID.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
