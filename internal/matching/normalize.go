package matching

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9\s]`)

// accentFolder strips combining marks after NFD decomposition, so "josé"
// and "jose" share one fingerprint.
var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// honorifics and credential suffixes that carry no identity signal in an
// entered name. Compared against whole tokens after lowercasing.
var commonAffixes = map[string]bool{
	"dr": true, "mr": true, "mrs": true, "ms": true, "prof": true,
	"md": true, "do": true, "np": true, "pa": true, "rn": true,
	"phd": true, "facc": true, "facs": true, "esq": true,
	"jr": true, "sr": true, "ii": true, "iii": true, "iv": true,
}

// Normalize lowercases an entered name, folds diacritics, strips
// punctuation and titles/credentials, and collapses whitespace. The result
// is the canonical fingerprint used for exact matching and per-person alias
// uniqueness.
func Normalize(name string) string {
	name = strings.ToLower(name)
	if folded, _, err := transform.String(accentFolder, name); err == nil {
		name = folded
	}
	name = nonAlnum.ReplaceAllString(name, "")

	tokens := strings.Fields(name)
	filtered := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !commonAffixes[token] {
			filtered = append(filtered, token)
		}
	}

	return strings.Join(filtered, " ")
}

// Tokens returns the normalized name parts of an entered name.
func Tokens(name string) []string {
	return strings.Fields(Normalize(name))
}
