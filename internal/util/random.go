// Package util provides utility functions shared across the nursery backend.
package util

import (
	"math/rand/v2"
	"strings"
)

// GenerateRandomID generates a random ID with the specified prefix and hex length.
// The returned ID will be in the format: "{prefix}{hex_string}".
// Uses math/rand/v2; these IDs are identifiers, not secrets.
func GenerateRandomID(prefix string, hexLength int) string {
	return prefix + GenerateRandomHex(hexLength)
}

// GenerateRandomHex generates a random hexadecimal string of the specified length.
func GenerateRandomHex(length int) string {
	if length <= 0 {
		return ""
	}

	const hexChars = "0123456789abcdef"
	var builder strings.Builder
	builder.Grow(length)

	for i := 0; i < length; i++ {
		builder.WriteByte(hexChars[rand.IntN(16)])
	}

	return builder.String()
}

// GenerateNodeID generates a unique flow node ID with "n_" prefix.
func GenerateNodeID() string {
	return GenerateRandomID("n_", 16)
}

// GenerateEdgeID generates a unique flow edge ID with "e_" prefix.
func GenerateEdgeID() string {
	return GenerateRandomID("e_", 16)
}

// GenerateOptionID generates a unique message option ID with "opt_" prefix.
func GenerateOptionID() string {
	return GenerateRandomID("opt_", 12)
}

// GenerateSessionID generates a unique chat session ID with "cs_" prefix.
func GenerateSessionID() string {
	return GenerateRandomID("cs_", 32)
}

// GenerateRecordID generates a unique catalog record ID with the given prefix.
func GenerateRecordID(prefix string) string {
	return GenerateRandomID(prefix, 24)
}
