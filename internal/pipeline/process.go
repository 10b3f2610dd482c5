package pipeline

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/notescrub/notescrub/internal"
)

// Splitter segments note text into redaction units.
type Splitter interface {
	Groups(text string, n int) []string
}

// Redactor produces the de-identified form of one text unit.
type Redactor interface {
	Redact(ctx context.Context, text string) (string, error)
}

// Processor turns one note's text into an ordered batch of redacted
// sentences.
type Processor struct {
	splitter Splitter
	redactor Redactor
	log      zerolog.Logger
}

func NewProcessor(splitter Splitter, redactor Redactor, log zerolog.Logger) *Processor {
	return &Processor{
		splitter: splitter,
		redactor: redactor,
		log:      log,
	}
}

// Process segments the note text and redacts each segment in order. With
// split disabled the whole text is redacted as a single segment at index 0.
// A redaction failure aborts the whole note so the caller never delivers a
// partial batch.
func (p *Processor) Process(ctx context.Context, noteID int, text string, split bool, groupSize int) ([]internal.Sentence, error) {
	var segments []string
	if split {
		segments = p.splitter.Groups(text, groupSize)
	} else {
		segments = []string{text}
	}

	sentences := make([]internal.Sentence, 0, len(segments))
	for i, segment := range segments {
		redacted, err := p.redactor.Redact(ctx, segment)
		if err != nil {
			return nil, fmt.Errorf("failed to redact segment %d of note %d: %w", i, noteID, err)
		}

		p.log.Debug().Int("note_id", noteID).Int("index", i).Msg("segment redacted")
		sentences = append(sentences, internal.Sentence{
			Index:    i,
			Original: segment,
			LLM:      redacted,
		})
	}

	return sentences, nil
}
