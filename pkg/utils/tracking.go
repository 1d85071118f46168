package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const trackingNumberBytes = 8

// GenerateTrackingNumber returns 16 random hex characters.
func GenerateTrackingNumber() (string, error) {
	b := make([]byte, trackingNumberBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate tracking number: %w", err)
	}
	return hex.EncodeToString(b), nil
}
