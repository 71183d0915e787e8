package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Fingerprint derives the cache key for a normalized request: a SHA-256
// content hash over the canonical JSON form, prefixed with the validator
// namespace. Hashing the normalized form means trivially different spellings
// of the same input share one cache entry. Collisions are accepted as a
// hash-space risk.
func Fingerprint(namespace string, normalized any) (string, error) {
	payload, err := json.Marshal(normalized)
	if err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", namespace, err)
	}
	sum := sha256.Sum256(payload)
	return namespace + ":" + hex.EncodeToString(sum[:]), nil
}
