// Package search ranks visitor records against a free-form query.
//
// Matching is accent- and case-insensitive: "joão" finds "Joao" and vice
// versa. Each record is scored on its name, document and destination; the
// single best field wins, with document matches boosted because a document
// hit identifies a person far more precisely than a name fragment.
package search

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/RaFeltrim/sigeco-condo-access-sub002/internal/sigeco/types"
)

// MaxResults caps how many matches Search returns.
const MaxResults = 10

// documentBoost lifts a document match above an equally scored name or
// destination match.
const documentBoost = 10

// Field names the record field a match was scored on.
type Field string

const (
	FieldName        Field = "name"
	FieldDocument    Field = "document"
	FieldDestination Field = "destination"
)

// Match is one ranked search hit.
type Match struct {
	Visitor types.VisitorRecord
	Field   Field
	Score   int
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases text and strips diacritics by decomposing characters
// and dropping the combining marks.
func Normalize(text string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(text))
	if err != nil {
		// Transform failures only happen on invalid UTF-8; fall back to the
		// lowercased input so matching still works bytewise.
		return strings.ToLower(text)
	}
	return out
}

// Score rates how well a normalized field matches a normalized query:
// exact 100, prefix 80, substring 60, otherwise 0.
func Score(field, normalizedQuery string) int {
	f := Normalize(field)
	switch {
	case f == "" || normalizedQuery == "":
		return 0
	case f == normalizedQuery:
		return 100
	case strings.HasPrefix(f, normalizedQuery):
		return 80
	case strings.Contains(f, normalizedQuery):
		return 60
	default:
		return 0
	}
}

// Search ranks visitors against query and returns at most MaxResults
// matches, best first. An empty or whitespace query returns no matches.
// Search never fails.
func Search(visitors []types.VisitorRecord, query string) []Match {
	q := Normalize(strings.TrimSpace(query))
	if q == "" {
		return []Match{}
	}

	matches := make([]Match, 0, len(visitors))
	for _, v := range visitors {
		best := Match{Visitor: v.Clone()}

		if s := Score(v.Name, q); s > best.Score {
			best.Field, best.Score = FieldName, s
		}
		if s := Score(v.Document, q); s > 0 {
			if boosted := s + documentBoost; boosted > best.Score {
				best.Field, best.Score = FieldDocument, boosted
			}
		}
		if s := Score(v.Destination, q); s > best.Score {
			best.Field, best.Score = FieldDestination, s
		}

		if best.Score > 0 {
			matches = append(matches, best)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	return matches
}
