// Package signature implements the Dailyflows v1 webhook signing scheme:
// a hex HMAC-SHA256 over "<timestamp>.<body>", prefixed with "v1=".
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

const prefix = "v1="

// Sign computes the signature for a timestamped payload.
func Sign(secret, timestamp, body string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write([]byte(body))
	return prefix + hex.EncodeToString(h.Sum(nil))
}

// Verify recomputes the expected signature and compares it to the supplied
// one in constant time. Unequal lengths are an immediate mismatch.
func Verify(secret, timestamp, sig, body string) bool {
	expected := Sign(secret, timestamp, body)
	if len(expected) != len(sig) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
