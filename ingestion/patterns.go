package ingestion

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxCommonStarters = 5

var (
	nonWordPattern = regexp.MustCompile(`[^\w]`)
	capsPattern    = regexp.MustCompile(`[A-Z]{2,}`)
)

// WritingPatterns is the aggregate style summary computed over one sender's
// retained messages. It is derived fresh on every call and never persisted by
// the pipeline itself.
type WritingPatterns struct {
	AvgMessageLength float64            `json:"avgMessageLength"`
	CommonStarters   []string           `json:"commonStarters"`
	PunctuationStyle map[string]float64 `json:"punctuationStyle"`
}

func zeroPatterns() WritingPatterns {
	return WritingPatterns{
		CommonStarters:   []string{},
		PunctuationStyle: map[string]float64{},
	}
}

// AnalyzeWritingPatterns computes the style summary for a list of message
// strings. An empty list yields the zero-value patterns; it is not an error.
//
// AvgMessageLength is the mean rune count rounded half-up to two decimals.
// CommonStarters holds the up-to-five most frequent lowercased first words
// (non-word runes stripped), ties broken by first appearance. Punctuation
// fractions count messages containing "!", "?", a literal "..." and a run of
// two or more consecutive uppercase letters.
func AnalyzeWritingPatterns(messages []string) WritingPatterns {
	if len(messages) == 0 {
		return zeroPatterns()
	}

	total := len(messages)
	lengthSum := 0
	exclamation := 0
	question := 0
	ellipsis := 0
	caps := 0

	starterCounts := make(map[string]int)
	starterOrder := make([]string, 0)

	for _, msg := range messages {
		lengthSum += utf8.RuneCountInString(msg)

		if starter := firstWord(msg); starter != "" {
			if _, seen := starterCounts[starter]; !seen {
				starterOrder = append(starterOrder, starter)
			}
			starterCounts[starter]++
		}

		if strings.Contains(msg, "!") {
			exclamation++
		}
		if strings.Contains(msg, "?") {
			question++
		}
		if strings.Contains(msg, "...") {
			ellipsis++
		}
		if capsPattern.MatchString(msg) {
			caps++
		}
	}

	return WritingPatterns{
		AvgMessageLength: roundTwoDecimals(float64(lengthSum) / float64(total)),
		CommonStarters:   topStarters(starterCounts, starterOrder),
		PunctuationStyle: map[string]float64{
			"exclamation": float64(exclamation) / float64(total),
			"question":    float64(question) / float64(total),
			"ellipsis":    float64(ellipsis) / float64(total),
			"caps":        float64(caps) / float64(total),
		},
	}
}

func firstWord(msg string) string {
	fields := strings.Fields(msg)
	if len(fields) == 0 {
		return ""
	}
	return nonWordPattern.ReplaceAllString(strings.ToLower(fields[0]), "")
}

// topStarters ranks starters by descending count; equal counts keep their
// first-seen order, which the insertion-ordered slice already provides.
func topStarters(counts map[string]int, order []string) []string {
	ranked := append([]string(nil), order...)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && counts[ranked[j]] > counts[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	if len(ranked) > maxCommonStarters {
		ranked = ranked[:maxCommonStarters]
	}
	if ranked == nil {
		ranked = []string{}
	}
	return ranked
}

func roundTwoDecimals(v float64) float64 {
	return math.Round(v*100) / 100
}
