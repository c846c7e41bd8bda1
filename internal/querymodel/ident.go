package querymodel

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeIdent folds an unquoted SQL identifier to its comparison form:
// NFC normalized and lower-cased.
func NormalizeIdent(s string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(s)))
}

// NormalizeQuotedIdent is NormalizeIdent for quoted identifiers, which
// keep their case and surrounding spaces.
func NormalizeQuotedIdent(s string) string {
	return norm.NFC.String(s)
}
