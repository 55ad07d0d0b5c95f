// Package seed provides seed generation for the placement PRNG. Fixing the
// seed makes a run reproducible.
package seed

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Mode determines how the random seed is generated.
type Mode string

const (
	// ModeRandom uses a non-deterministic seed (varies each run, default).
	ModeRandom Mode = "random"
	// ModeManual uses a user-provided seed value.
	ModeManual Mode = "manual"
	// ModePhrase hashes a user-provided phrase (deterministic by phrase).
	ModePhrase Mode = "phrase"
)

// Config holds configuration for seed generation.
type Config struct {
	Mode   Mode
	Value  *uint64 // only used when Mode is ModeManual
	Phrase string  // only used when Mode is ModePhrase
}

// Calculate determines the seed value based on the seed mode.
func Calculate(config Config) (uint64, error) {
	switch config.Mode {
	case ModeRandom, "":
		return GenerateRandomSeed(), nil
	case ModeManual:
		if config.Value == nil {
			return 0, fmt.Errorf("seed value is required for manual seed mode")
		}
		return *config.Value, nil
	case ModePhrase:
		if config.Phrase == "" {
			return 0, fmt.Errorf("seed phrase is required for phrase seed mode")
		}
		return PhraseSeed(config.Phrase), nil
	default:
		return 0, fmt.Errorf("unknown seed mode: %s", config.Mode)
	}
}

// PhraseSeed derives a seed from the SHA-256 of phrase.
func PhraseSeed(phrase string) uint64 {
	hash := sha256.Sum256([]byte(phrase))
	return binary.LittleEndian.Uint64(hash[:8])
}

// GenerateRandomSeed generates a non-deterministic, non-zero seed.
func GenerateRandomSeed() uint64 {
	// #nosec G404 -- seed generation is intentionally non-deterministic
	s := uint64(time.Now().UnixNano()) ^ rand.Uint64() // #nosec G115 -- wraparound is fine for a seed
	if s == 0 {
		s = 1
	}
	return s
}

// ParseValue parses a seed written in hex, with or without a 0x prefix.
func ParseValue(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(s), "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q (expected hex): %w", s, err)
	}
	return v, nil
}

// Format renders a seed the way ParseValue reads it.
func Format(v uint64) string {
	return fmt.Sprintf("%016x", v)
}

// ValidModes returns a list of valid seed modes.
func ValidModes() []Mode {
	return []Mode{ModeRandom, ModeManual, ModePhrase}
}

// ParseMode converts a string to a Mode.
// Returns an error if the string is not a valid mode.
func ParseMode(s string) (Mode, error) {
	mode := Mode(s)
	if slices.Contains(ValidModes(), mode) {
		return mode, nil
	}
	return "", fmt.Errorf("invalid seed mode: %s (valid: random, manual, phrase)", s)
}
