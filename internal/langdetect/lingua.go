package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// Languages commonly seen in regional-conflict coverage. Restricting the
// detector keeps model memory bounded and avoids false positives on short
// headlines.
var coverageLanguages = []lingua.Language{
	lingua.English,
	lingua.Russian,
	lingua.Ukrainian,
	lingua.Arabic,
	lingua.Hebrew,
	lingua.Persian,
	lingua.Turkish,
	lingua.French,
	lingua.German,
	lingua.Armenian,
	lingua.Azerbaijani,
	lingua.Georgian,
}

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// DetectISO6391 returns the lower-cased two-letter code for the detected
// language, or "" when the sample is too short or inconclusive.
func DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return ""
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < 6 {
		return ""
	}

	language, exists := getDetector().DetectLanguageOf(sample)
	if !exists {
		return ""
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(coverageLanguages...).
			WithPreloadedLanguageModels().
			Build()
	})
	return detector
}
