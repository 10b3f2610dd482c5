// Package language detects the language of note text. The segmenter and
// the redaction prompt both assume English, so the inspect command uses
// this to flag notes that would segment or redact poorly.
package language

import (
	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

func New() *Detector {
	detector := lingua.NewLanguageDetectorBuilder().
		FromAllLanguages().
		Build()

	return &Detector{detector: detector}
}

// Detect returns the most likely language of text.
func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// Name returns the detected language name, or "" when detection fails.
func (d *Detector) Name(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.String(), true
}

// IsEnglish reports whether text reads as English. Undetectable text counts
// as English so short fragments do not trip warnings.
func (d *Detector) IsEnglish(text string) bool {
	lang, ok := d.Detect(text)
	if !ok {
		return true
	}
	return lang == lingua.English
}
