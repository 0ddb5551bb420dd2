package query

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Cursors are opaque to callers: a base64 encoding of the date partition
// and filename position of the last item already returned. A store resumes
// strictly after that position. Callers pass the token back unchanged.

// EncodeCursor builds the opaque pagination token for a position.
func EncodeCursor(partition, position string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(partition + "|" + position))
}

// DecodeCursor splits an opaque pagination token back into its date
// partition and filename position.
func DecodeCursor(cursor string) (partition, position string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", "", fmt.Errorf("decode cursor: %w", err)
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed cursor")
	}
	return parts[0], parts[1], nil
}
