package domain

import (
	"regexp"
	"strings"
)

var (
	// parentheticalRe matches unit suffixes such as "(SGD)" or "(km)".
	parentheticalRe = regexp.MustCompile(`\([^)]*\)`)

	underscoreRunRe = regexp.MustCompile(`_{2,}`)
)

// DefaultSynonyms resolves known header spellings to canonical names.
var DefaultSynonyms = map[string]string{
	"cardno":  ColCardNo,
	"card_no": ColCardNo,
}

// CleanName lowercases a raw header, joins whitespace-separated words with
// underscores, and removes parenthetical groups, e.g. "Taxi Fare (SGD)" -> "taxi_fare".
func CleanName(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Join(strings.Fields(s), "_")
	s = parentheticalRe.ReplaceAllString(s, "")
	s = underscoreRunRe.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}

// CanonicalName cleans raw and resolves it through synonyms. Names without a
// synonym pass through cleaned.
func CanonicalName(raw string, synonyms map[string]string) string {
	name := CleanName(raw)
	if canonical, ok := synonyms[name]; ok {
		return canonical
	}
	return name
}

// NormalizeSynonyms cleans the keys of a user supplied synonym table so that
// "Card No" and "card_no" are looked up the same way, and overlays it on
// DefaultSynonyms.
func NormalizeSynonyms(extra map[string]string) map[string]string {
	out := make(map[string]string, len(DefaultSynonyms)+len(extra))
	for k, v := range DefaultSynonyms {
		out[k] = v
	}
	for k, v := range extra {
		out[CleanName(k)] = CleanName(v)
	}
	return out
}

// NormalizeHeaders renames every column of t to its canonical name.
func NormalizeHeaders(t *Table, synonyms map[string]string) error {
	return t.Rename(func(c string) string { return CanonicalName(c, synonyms) })
}
