package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/rbergm/diploma-thesis/internal/selector"
)

// Domain prefixes for content-addressed fingerprints.
// The version suffix allows changing the encoding later.
const (
	DomainDirectives = "ueshint/directives/v1"
	DomainQuery      = "ueshint/query/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DirectiveObject converts a directive to its canonical map form.
func DirectiveObject(d selector.Directive) map[string]any {
	return map[string]any{
		"subquery":   d.Subquery,
		"depth":      d.Depth,
		"edge":       d.Edge.Key(),
		"index_scan": d.IndexScan.Identity(),
		"probe":      d.Probe.Identity(),
	}
}

// DirectivesJSON returns the canonical JSON array of ds, in order.
func DirectivesJSON(ds []selector.Directive) ([]byte, error) {
	arr := make([]any, len(ds))
	for i, d := range ds {
		arr[i] = DirectiveObject(d)
	}
	return Marshal(arr)
}

// Fingerprint computes the content-addressed identity of a directive
// sequence. Equal sequences (same edges, sides and order) yield equal
// fingerprints; an empty sequence has a fixed fingerprint.
func Fingerprint(ds []selector.Directive) (string, error) {
	data, err := DirectivesJSON(ds)
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainDirectives, data), nil
}

// QueryFingerprint identifies query text after NFC normalization.
func QueryFingerprint(text string) (string, error) {
	data, err := Marshal(text)
	if err != nil {
		return "", fmt.Errorf("query fingerprint: %w", err)
	}
	return hashWithDomain(DomainQuery, data), nil
}
