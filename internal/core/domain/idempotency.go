package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"
)

const anonymousSubject = "anonymous"

// BuildTransferIdempotencyKey scopes a client-supplied Idempotency-Key to
// the caller and to transfer submission. Format: "transfer:subject:key".
// Returns "" for a blank key.
func BuildTransferIdempotencyKey(subject, clientKey string) string {
	clientKey = strings.TrimSpace(clientKey)
	if clientKey == "" {
		return ""
	}
	if subject == "" {
		subject = anonymousSubject
	}
	return "transfer:" + subject + ":" + clientKey
}

// TransferFingerprint hashes the fields that define a transfer so a reused
// key can be matched against the request it was first seen with.
func TransferFingerprint(src, dst string, value decimal.Decimal) string {
	sum := sha256.Sum256([]byte(src + "|" + dst + "|" + value.String()))
	return hex.EncodeToString(sum[:])
}
