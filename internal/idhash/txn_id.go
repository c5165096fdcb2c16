package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeTxnID computes a deterministic txn_id using SHA256.
// Formula: SHA256(document_id|account_id|txn_date|signed_amount_cents|normalized_descriptor)
// Returns hex-encoded hash (64 characters).
func ComputeTxnID(
	documentID string,
	accountID string,
	txnDate string,
	signedAmountCents int64,
	normalizedDescriptor string,
) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%s",
		documentID,
		accountID,
		txnDate,
		signedAmountCents,
		normalizedDescriptor,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
