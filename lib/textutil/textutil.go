package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// FoldAccents removes diacritics, "Programação" becomes "Programacao".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeName makes names comparable regardless of case, accents and spacing.
func NormalizeName(name string) string {
	name = FoldAccents(name)
	name = strings.ToLower(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

// MostSimilar returns the index of the candidate most similar to target by
// Jaro-Winkler distance over normalized names, and that similarity. The index
// is -1 when there are no candidates.
func MostSimilar(target string, candidates []string) (int, float64) {
	target = NormalizeName(target)

	index := -1
	var mostSimilarity float64
	for i, candidate := range candidates {
		similarity := matchr.JaroWinkler(target, NormalizeName(candidate), false)
		if similarity > mostSimilarity {
			mostSimilarity = similarity
			index = i
		}
	}
	return index, mostSimilarity
}
