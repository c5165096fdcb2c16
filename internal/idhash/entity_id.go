package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeEntityID computes a deterministic entity_id using SHA256.
// Formula: SHA256(deal_id|normalized_name)
// Returns hex-encoded hash (64 characters).
func ComputeEntityID(dealID string, normalizedName string) string {
	data := fmt.Sprintf("%s|%s", dealID, normalizedName)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
