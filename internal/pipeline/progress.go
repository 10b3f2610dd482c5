package pipeline

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/notescrub/notescrub/internal"
)

// SentenceFetcher reads back every stored sentence row.
type SentenceFetcher interface {
	FetchSentences(ctx context.Context) ([]internal.StoredSentence, error)
}

// Resolve inspects the stored sentences and returns the resume point for a
// run: notes with ids at or below it are skipped. The resume point is the
// first note id owning a sentence whose redaction is missing or blank; when
// every stored note is fully redacted, the highest note is redacted again.
// An empty or unreachable store resumes from the beginning.
func Resolve(ctx context.Context, fetcher SentenceFetcher, log zerolog.Logger) int {
	rows, err := fetcher.FetchSentences(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to fetch previous sentences, starting from the beginning")
		return 0
	}
	if len(rows) == 0 {
		return 0
	}

	notes := make(map[int][]internal.StoredSentence)
	for _, row := range rows {
		notes[row.NoteID] = append(notes[row.NoteID], row)
	}

	noteIDs := make([]int, 0, len(notes))
	for id := range notes {
		noteIDs = append(noteIDs, id)
	}
	sort.Ints(noteIDs)

	for _, id := range noteIDs {
		for _, row := range notes[id] {
			if row.LLM == nil || strings.TrimSpace(*row.LLM) == "" {
				return id
			}
		}
	}

	return noteIDs[len(noteIDs)-1] - 1
}
