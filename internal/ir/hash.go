package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed hashes.
// Version suffix enables future algorithm migration.
const (
	DomainSource   = "cuetest/source/v1"
	DomainSnapshot = "cuetest/snapshot/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// SnapshotHash hashes the canonical JSON of a compilation snapshot.
func SnapshotHash(c *Compilation) (string, error) {
	data, err := MarshalCanonical(c.Snapshot())
	if err != nil {
		return "", fmt.Errorf("SnapshotHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainSnapshot, data), nil
}
