// Package idhash derives deterministic identifiers for emitted records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// ComputeAlertID computes a deterministic co-buy alert id.
// Formula: SHA256(mint|buyer1,buyer2,...) with buyers sorted, hex-encoded.
// Buyer order does not affect the result.
func ComputeAlertID(mint string, buyers []string) string {
	sorted := append([]string(nil), buyers...)
	sort.Strings(sorted)

	data := fmt.Sprintf("%s|%s", mint, strings.Join(sorted, ","))
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSnapshotID identifies one score snapshot of a token.
// Formula: SHA256(address|cycle_id|discovered_at)
func ComputeSnapshotID(address, cycleID string, discoveredAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", address, cycleID, discoveredAt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
