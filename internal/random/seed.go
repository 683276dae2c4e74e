// Package random provides seed generation and a swappable source of
// randomness for tool handlers.
//
// Seeds come from crypto/rand; picks come from a seeded PCG generator so a
// fixed seed always replays the same sequence.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return binary.LittleEndian.Uint64(b[:]), nil
}
