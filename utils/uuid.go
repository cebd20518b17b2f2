package utils

import (
	"github.com/google/uuid"
)

// GenerateID returns a new unique identifier string, used for request
// ids and server-assigned records in the test backend.
func GenerateID() string {
	return uuid.New().String()
}
