// Package segmenter detects sentence boundaries in clinical note text and
// groups consecutive sentences into redaction-sized segments. Boundary
// detection uses the trained English Punkt model, which knows common
// abbreviations like "Dr." that a naive period split would trip over.
package segmenter

import (
	"fmt"
	"strings"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// DefaultGroupSize is the number of sentences joined into one segment when
// the caller does not specify a size.
const DefaultGroupSize = 5

// Segmenter wraps a loaded sentence tokenizer. Construct it once with New
// and reuse it across notes; loading the model is the expensive part.
type Segmenter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// New loads the English Punkt tokenizer.
func New() (*Segmenter, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	return &Segmenter{tokenizer: tok}, nil
}

// Sentences splits text into individual sentences. Each sentence is trimmed
// of surrounding whitespace and whitespace-only sentences are dropped, so
// the result contains no empty strings. Empty input yields a nil slice.
func (s *Segmenter) Sentences(text string) []string {
	var out []string
	for _, sent := range s.tokenizer.Tokenize(text) {
		t := strings.TrimSpace(sent.Text)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Groups splits text into sentences and joins every n consecutive sentences
// with a single space. The final group keeps whatever remainder is left, so
// no sentence is ever dropped. n below 1 is treated as 1.
func (s *Segmenter) Groups(text string, n int) []string {
	if n < 1 {
		n = 1
	}

	sents := s.Sentences(text)

	var groups []string
	for i := 0; i < len(sents); i += n {
		end := i + n
		if end > len(sents) {
			end = len(sents)
		}
		groups = append(groups, strings.Join(sents[i:end], " "))
	}
	return groups
}
