package auth

import (
	"crypto/subtle"
)

const apiKeyHeader = "X-API-Key"

// apiKeyActor is recorded as the actor for writes authorised by the static API key.
const apiKeyActor = "api-key"

// validAPIKey compares in constant time. An empty configured key never matches.
func validAPIKey(configured, provided string) bool {
	if configured == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) == 1
}
