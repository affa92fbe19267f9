package fingerprint

import (
	"fmt"
	"strings"
)

// minPrefix is the shortest abbreviated hash Compare accepts
const minPrefix = 8

// Compare returns an error unless actual matches expected.
// The expected hash may be abbreviated to a prefix of at least minPrefix characters.
func Compare(expected, actual *SchemaFingerprint) error {
	if expected == nil || expected.Hash == "" {
		return fmt.Errorf("no expected fingerprint given")
	}
	if actual == nil {
		return fmt.Errorf("schema fingerprint mismatch: expected %s, got none", preview(expected.Hash))
	}
	if expected.Hash == actual.Hash {
		return nil
	}
	if len(expected.Hash) >= minPrefix && strings.HasPrefix(actual.Hash, expected.Hash) {
		return nil
	}

	return fmt.Errorf("schema fingerprint mismatch: expected %s, got %s",
		preview(expected.Hash), preview(actual.Hash))
}

func preview(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
