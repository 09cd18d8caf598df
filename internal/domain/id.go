package domain

import "github.com/google/uuid"

// shortIDLen is how many leading characters of an id listings show.
const shortIDLen = 8

// generateID returns a random UUID for activities and meal entries.
func generateID() string {
	return uuid.NewString()
}

// ShortID returns the prefix of id shown to users. Activity lookups accept
// it as a reference.
func ShortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}
