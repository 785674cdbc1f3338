package sofetch

import (
	"crypto/rand"
	"encoding/hex"
)

// RequestIDFunc generates correlation ids.
type RequestIDFunc func() string

// RequestIDConfig controls correlation-id injection. When Header is non-empty
// and the built request does not already carry it, New() is called and the
// result attached. An empty Header disables injection.
type RequestIDConfig struct {
	Header string
	New    RequestIDFunc
}

// DefaultRequestID returns 16 random bytes hex-encoded.
func DefaultRequestID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Extremely unlikely; return empty rather than panicking.
		return ""
	}
	return hex.EncodeToString(b[:])
}
