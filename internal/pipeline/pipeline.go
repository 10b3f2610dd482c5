// Package pipeline drives the batch redaction run: it reads rows from the
// source file, turns each into redacted sentences, and delivers them to the
// persistence service, resuming past notes a previous run already finished.
package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/notescrub/notescrub/internal"
	"github.com/notescrub/notescrub/internal/reader"
	"github.com/notescrub/notescrub/internal/segmenter"
)

// RowSource yields the input rows in file order.
type RowSource interface {
	Rows() []reader.Row
}

// SentenceStore is the pipeline's view of the persistence service: deliver
// one note's sentences and read back what is already stored.
type SentenceStore interface {
	SentenceFetcher
	PushSentences(ctx context.Context, noteID int, sentences []internal.Sentence) error
}

type Config struct {
	Split     bool
	GroupSize int
}

// Summary reports what a single pipeline run did.
type Summary struct {
	RunID     uuid.UUID
	Resume    int
	Processed int
	Skipped   int
	Blank     int
}

type Pipeline struct {
	source RowSource
	proc   *Processor
	store  SentenceStore
	config Config
	log    zerolog.Logger
}

func New(source RowSource, proc *Processor, store SentenceStore, config Config, log zerolog.Logger) *Pipeline {
	if config.GroupSize < 1 {
		config.GroupSize = segmenter.DefaultGroupSize
	}
	return &Pipeline{
		source: source,
		proc:   proc,
		store:  store,
		config: config,
		log:    log,
	}
}

// Run executes one batch pass over the source rows, one note at a time.
// Note ids are the 1-based row positions. Notes at or below the resume
// point and notes with blank text are skipped; everything else is processed
// and delivered in a single request per note. Any processing or delivery
// error ends the run; rerunning is safe because delivered notes are skipped.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{
		RunID:  uuid.New(),
		Resume: Resolve(ctx, p.store, p.log),
	}

	runLog := p.log.With().Str("run_id", summary.RunID.String()).Logger()
	runLog.Info().Int("resume", summary.Resume).Msg("starting batch run")

	for i, row := range p.source.Rows() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		noteID := i + 1

		if noteID <= summary.Resume {
			summary.Skipped++
			continue
		}
		if strings.TrimSpace(row.Text) == "" {
			runLog.Debug().Int("note_id", noteID).Msg("skipping blank note")
			summary.Blank++
			continue
		}

		runLog.Info().Int("note_id", noteID).Msg("processing note")
		sentences, err := p.proc.Process(ctx, noteID, row.Text, p.config.Split, p.config.GroupSize)
		if err != nil {
			return nil, err
		}
		if len(sentences) == 0 {
			summary.Blank++
			continue
		}

		if err := p.store.PushSentences(ctx, noteID, sentences); err != nil {
			return nil, err
		}
		summary.Processed++
	}

	runLog.Info().
		Int("processed", summary.Processed).
		Int("skipped", summary.Skipped).
		Int("blank", summary.Blank).
		Msg("batch run complete")

	return summary, nil
}
