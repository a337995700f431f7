package quality

import (
	"strings"
	"unicode"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTitle applies NFKC, case folding and strips all whitespace.
func NormalizeTitle(s string) string {
	s = cases.Fold().String(norm.NFKC.String(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Similarity returns the Sørensen–Dice coefficient over character bigrams of
// the normalized titles, in [0, 1].
func Similarity(a, b string) float64 {
	return similarity(NormalizeTitle(a), NormalizeTitle(b))
}

func similarity(na, nb string) float64 {
	// Equal titles match fully, including single runes and empty titles
	// that produce no bigrams.
	if na == nb {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	dice := &metrics.SorensenDice{CaseSensitive: true, NgramSize: 2}
	return strutil.Similarity(na, nb, dice)
}

// BestMatch returns the prior course whose title is most similar to title.
// Ties keep the earliest course. ok is false for an empty corpus.
func BestMatch(title string, corpus []PriorCourse) (match PriorCourse, score float64, ok bool) {
	if len(corpus) == 0 {
		return PriorCourse{}, 0, false
	}

	nt := NormalizeTitle(title)
	score = -1
	for _, c := range corpus {
		s := similarity(nt, NormalizeTitle(c.Title))
		if s > score {
			match, score = c, s
		}
	}
	return match, score, true
}
