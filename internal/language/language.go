// Package language implements a lightweight language detector used to
// localize every user-facing string the assistant produces. Detection is
// script-first (CJK, Hangul, Cyrillic) with a stop-word heuristic for the
// Latin-script languages, defaulting to English.
package language

import (
	"strings"
	"unicode"
)

// Detector detects the language of a text fragment.
type Detector interface {
	Detect(text string) string
}

// Heuristic is the built-in Detector.
type Heuristic struct{}

// NewDetector returns the built-in heuristic detector.
func NewDetector() *Heuristic {
	return &Heuristic{}
}

var stopWords = map[string][]string{
	"es": {"el", "la", "los", "las", "una", "por", "para", "como", "pero", "qué", "más", "hoy", "mañana"},
	"de": {"der", "die", "das", "und", "ich", "nicht", "ein", "eine", "für", "mit", "heute", "morgen"},
	"fr": {"le", "la", "les", "une", "est", "pour", "avec", "mais", "dans", "aujourd'hui", "demain"},
}

// Detect returns a two-letter language code for text, defaulting to "en".
func (h *Heuristic) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return "en"
	}

	var han, kana, hangul, cyrillic, letters int
	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			han++
		case unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r):
			kana++
		case unicode.Is(unicode.Hangul, r):
			hangul++
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}

	if letters > 0 {
		switch {
		case kana > 0:
			return "ja"
		case hangul*5 >= letters:
			return "ko"
		case han*5 >= letters:
			return "zh"
		case cyrillic*5 >= letters:
			return "ru"
		}
	}

	words := strings.Fields(strings.ToLower(text))
	best, bestHits := "en", 0
	for code, stops := range stopWords {
		hits := 0
		for _, w := range words {
			w = strings.Trim(w, ".,!?;:\"'()")
			for _, s := range stops {
				if w == s {
					hits++
					break
				}
			}
		}
		if hits > bestHits {
			best, bestHits = code, hits
		}
	}

	if bestHits >= 2 {
		return best
	}
	return "en"
}
