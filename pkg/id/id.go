package id

import (
	"strings"

	"github.com/google/uuid"
	"github.com/teris-io/shortid"
)

// GetUUID generates a new UUID.
func GetUUID() string {
	return uuid.NewString()
}

// GetUUIDWithoutDashes generates a new UUID with the dashes stripped.
// Used for entity ids and invite tokens.
func GetUUIDWithoutDashes() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ShortId generates a short, URL-safe id. Used as a slug collision suffix.
func ShortId() string {
	s, err := shortid.Generate()
	if err != nil {
		return GetUUIDWithoutDashes()[:9]
	}
	return s
}
