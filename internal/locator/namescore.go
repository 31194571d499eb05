package locator

import (
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"github.com/surgebase/porter2"
)

// Name similarity for the pattern fallback: when an exact lookup finds
// nothing, candidates from the substring search are ordered by how well
// their names match the query before proximity scoring applies. The
// layers mirror the search scoring stack: exact > suffix of a qualified
// name > stemmed word overlap > Jaro-Winkler distance.

const stemMinLength = 3

// nameSimilarity returns a score in [0,1], higher is a better match
func nameSimilarity(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}
	if strings.EqualFold(query, candidate) {
		return 1.0
	}

	// Partially-qualified queries: "Models.User" should rank a symbol
	// whose full name ends with the query at near-exact strength.
	if strings.Contains(query, ".") && strings.HasSuffix(strings.ToLower(candidate), strings.ToLower(query)) {
		return 0.95
	}

	if overlap := stemmedWordOverlap(query, candidate); overlap > 0 {
		// Word overlap lands between fuzzy and exact so that
		// "getData" finds "GetDataAsync" ahead of typo-distance hits.
		return 0.55 + 0.35*overlap
	}

	score, err := edlib.StringsSimilarity(strings.ToLower(query), strings.ToLower(candidate), edlib.JaroWinkler)
	if err != nil {
		return 0
	}
	return float64(score) * 0.6
}

// stemmedWordOverlap splits both identifiers into words, stems them and
// returns the fraction of query words present in the candidate.
func stemmedWordOverlap(query, candidate string) float64 {
	queryWords := stemWords(splitIdentifier(query))
	if len(queryWords) == 0 {
		return 0
	}
	candidateWords := make(map[string]struct{})
	for _, word := range stemWords(splitIdentifier(candidate)) {
		candidateWords[word] = struct{}{}
	}

	matched := 0
	for _, word := range queryWords {
		if _, ok := candidateWords[word]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryWords))
}

// splitIdentifier breaks a symbol name into lowercase words on camelCase,
// PascalCase, snake_case, dots and digit boundaries.
func splitIdentifier(name string) []string {
	var words []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
	}

	runes := []rune(name)
	for i, ch := range runes {
		switch {
		case ch == '_' || ch == '-' || ch == '.' || ch == '/':
			flush()
		case unicode.IsUpper(ch):
			// Start a new word on lower→upper and on the last upper of
			// an acronym run (HTTPServer → http, server).
			if i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])) {
				flush()
			} else if i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
				flush()
			}
			current.WriteRune(ch)
		case unicode.IsDigit(ch):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				flush()
			}
			current.WriteRune(ch)
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return words
}

// stemWords applies porter2 stemming to words long enough to stem
func stemWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) >= stemMinLength {
			out = append(out, porter2.Stem(word))
		} else {
			out = append(out, word)
		}
	}
	return out
}
