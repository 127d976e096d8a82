// Package id provides random suffixes for scratch file names.
package id

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// SuffixBytes is the amount of randomness in a suffix; the hex form is
// twice as long.
const SuffixBytes = 8

// Generate returns a new random hex suffix.
// Example: 9f86d081884c7d65
func Generate() string {
	random := make([]byte, SuffixBytes)
	if _, err := rand.Read(random); err != nil {
		// Fallback to a nanosecond timestamp if crypto/rand fails
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(random)
}
