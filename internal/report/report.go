// Package report renders the stored sentences as a review document:
// markdown grouped by note, optionally rendered to a standalone HTML page.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/notescrub/notescrub/internal"
)

// Markdown renders rows as a per-note review report. Notes appear in
// ascending id order, sentences in stored order within each note.
func Markdown(rows []internal.StoredSentence) string {
	var b strings.Builder
	b.WriteString("# Redaction Review\n\n")

	if len(rows) == 0 {
		b.WriteString("No sentences stored.\n")
		return b.String()
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

	reviewed := 0
	for _, row := range rows {
		if row.Final != nil {
			reviewed++
		}
	}

	fmt.Fprintf(&b, "- Notes: %d\n- Sentences: %d\n- Reviewed: %d\n", len(noteIDs), len(rows), reviewed)

	for _, id := range noteIDs {
		fmt.Fprintf(&b, "\n## Note %d\n", id)
		for _, row := range notes[id] {
			fmt.Fprintf(&b, "\n### Sentence %d (index %d)\n\n", row.ID, row.Index)
			writeField(&b, "Original", row.Original)
			writeField(&b, "Redacted", orPlaceholder(row.LLM, "_not redacted_"))
			writeField(&b, "Final", orPlaceholder(row.Final, "_pending review_"))
		}
	}

	return b.String()
}

// HTML renders the review report as a complete HTML page.
func HTML(rows []internal.StoredSentence) string {
	opts := html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "Redaction Review",
	}
	renderer := html.NewRenderer(opts)

	ext := parser.CommonExtensions | parser.Attributes
	p := parser.NewWithExtensions(ext)
	doc := p.Parse([]byte(Markdown(rows)))

	return string(markdown.Render(doc, renderer))
}

func writeField(b *strings.Builder, label, text string) {
	fmt.Fprintf(b, "**%s**\n\n", label)
	for _, line := range strings.Split(text, "\n") {
		fmt.Fprintf(b, "> %s\n", line)
	}
	b.WriteString("\n")
}

func orPlaceholder(s *string, placeholder string) string {
	if s == nil {
		return placeholder
	}
	return *s
}
