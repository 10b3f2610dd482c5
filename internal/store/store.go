// Package store persists notes and their sentence-level redaction records
// in SQLite. The persistence service is the only writer; the pipeline and
// review surfaces reach it over HTTP.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/notescrub/notescrub/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS notes (
		note_id INTEGER PRIMARY KEY,
		title TEXT,
		discharge_summary TEXT,
		clinician_1 TEXT,
		clinician_2 TEXT
	);

	CREATE TABLE IF NOT EXISTS sentences (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		note_id INTEGER NOT NULL,
		sentence_index INTEGER NOT NULL,
		original_sentence TEXT NOT NULL,
		llm_sentence TEXT,
		final_sentence TEXT,
		FOREIGN KEY (note_id) REFERENCES notes(note_id)
	);

	CREATE INDEX IF NOT EXISTS idx_sentences_note ON sentences(note_id, sentence_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

// NewSentence is one sentence row to insert for a note. LLM is nil when the
// delivery carried no redacted text for the sentence.
type NewSentence struct {
	Index    int
	Original string
	LLM      *string
}

// InsertSentences stores all sentence rows for one note in a single
// transaction, creating a bare note row on first delivery. Either every
// row lands or none do; final_sentence is never written here.
func (s *Store) InsertSentences(ctx context.Context, noteID int, rows []NewSentence) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT OR IGNORE INTO notes (note_id) VALUES (?)`, noteID); err != nil {
		return fmt.Errorf("failed to insert note %d: %w", noteID, err)
	}

	for _, r := range rows {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sentences (note_id, sentence_index, original_sentence, llm_sentence) VALUES (?, ?, ?, ?)`,
			noteID, r.Index, r.Original, r.LLM); err != nil {
			return fmt.Errorf("failed to insert sentence %d of note %d: %w", r.Index, noteID, err)
		}
	}

	return tx.Commit()
}

// UpdateFinal sets the reviewed text for a sentence and reports whether a
// sentence with that id existed. final_sentence is the only column the
// review surface may change.
func (s *Store) UpdateFinal(ctx context.Context, id int, final string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sentences SET final_sentence = ? WHERE id = ?`, final, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetSentence returns one sentence by id, or nil when it does not exist.
func (s *Store) GetSentence(ctx context.Context, id int) (*internal.StoredSentence, error) {
	var row internal.StoredSentence
	err := s.db.QueryRowContext(ctx,
		`SELECT id, note_id, sentence_index, original_sentence, llm_sentence, final_sentence
		 FROM sentences WHERE id = ?`, id).
		Scan(&row.ID, &row.NoteID, &row.Index, &row.Original, &row.LLM, &row.Final)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// NextUnreviewed returns the lowest-id sentence whose final text has not
// been set yet, or nil when every sentence has been reviewed.
func (s *Store) NextUnreviewed(ctx context.Context) (*internal.StoredSentence, error) {
	var row internal.StoredSentence
	err := s.db.QueryRowContext(ctx,
		`SELECT id, note_id, sentence_index, original_sentence, llm_sentence, final_sentence
		 FROM sentences WHERE final_sentence IS NULL ORDER BY id LIMIT 1`).
		Scan(&row.ID, &row.NoteID, &row.Index, &row.Original, &row.LLM, &row.Final)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListSentences returns every sentence row in insertion order.
func (s *Store) ListSentences(ctx context.Context) ([]internal.StoredSentence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, note_id, sentence_index, original_sentence, llm_sentence, final_sentence
		 FROM sentences ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.StoredSentence
	for rows.Next() {
		var r internal.StoredSentence
		if err := rows.Scan(&r.ID, &r.NoteID, &r.Index, &r.Original, &r.LLM, &r.Final); err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Stats summarises stored volume and review progress.
type Stats struct {
	Notes      int
	Sentences  int
	Unreviewed int
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(DISTINCT note_id),
			COUNT(*),
			COALESCE(SUM(CASE WHEN final_sentence IS NULL THEN 1 ELSE 0 END), 0)
		FROM sentences`).Scan(
		&st.Notes,
		&st.Sentences,
		&st.Unreviewed,
	)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
