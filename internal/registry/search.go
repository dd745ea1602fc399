package registry

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/face-registry/internal/store"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Lásaro" -> "Lasaro").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeQuery normalizes a search term for comparison (lowercase, no
// diacritics, spaces for dashes). Rosters carry Portuguese names, so a search
// for "joao" must find "João".
func normalizeQuery(s string) string {
	s = RemoveDiacritics(s)
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", " ")
	return s
}

// FilterDocument returns the subset of a roster whose name, email or phone
// contains the query, ignoring case and diacritics. An empty query returns
// the document unchanged.
func FilterDocument(doc store.Document, query string) store.Document {
	query = normalizeQuery(strings.TrimSpace(query))
	if query == "" {
		return doc
	}

	out := store.Document{}
	for id, p := range doc {
		haystack := normalizeQuery(p.Name + " " + p.Email + " " + p.Phone)
		if strings.Contains(haystack, query) {
			out[id] = p
		}
	}
	return out
}
