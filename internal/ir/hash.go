package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainInputTree  = "treemig/input/v1"
	DomainOutputTree = "treemig/output/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest computes the content digest of raw JSON under domain.
// The JSON is decoded and re-encoded canonically first, so whitespace and
// key order do not affect the result.
func Digest(domain string, raw []byte) (string, error) {
	v, err := UnmarshalIRValue(raw)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest: failed to marshal: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// DigestBytes hashes data under domain without decoding it. Used for input
// that is not valid JSON and so has no canonical form.
func DigestBytes(domain string, data []byte) string {
	return hashWithDomain(domain, data)
}
