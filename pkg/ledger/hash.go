package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// HashJSON computes the SHA-256 digest of a value's canonical JSON form and
// returns it hex-encoded. The value is marshalled and then canonicalized
// per RFC 8785 (JCS): stable key ordering, canonical separators and number
// formatting, no locale dependence. Identical logical content therefore
// always yields the identical digest, regardless of map iteration order,
// and any byte-level change yields a different digest.
func HashJSON(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for hashing: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize for hashing: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// HashText computes the hex-encoded SHA-256 digest of a text payload.
// Absent data is not hashed: an empty string yields an empty digest.
func HashText(text string) string {
	if text == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
