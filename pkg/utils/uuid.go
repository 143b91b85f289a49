package utils

import "github.com/google/uuid"

// NewRequestID returns a random (v4) UUID string used to tag a request in
// logs and responses.
func NewRequestID() string {
	return uuid.NewString()
}

// ShortID returns the first block of a request ID, enough to tell
// concurrent requests apart in log prefixes.
func ShortID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}
