package audit

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/openfabric/tokenbridge/internal/buildinfo"
)

// Fingerprint returns a non-reversible identifier for a token, safe for logs
// and audit trails. Raw token material must never be logged; use this instead.
func Fingerprint(token string) string {
	if token == "" {
		return "(empty)"
	}
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// CreateUserAgent builds the User-Agent used on outbound exchange calls so the
// downstream system can correlate requests back to us.
func CreateUserAgent(correlationID, userID string) string {
	return fmt.Sprintf("Tokenbridge/%s (correlation_id=%s; user=%s)",
		buildinfo.Version, correlationID, userID)
}
