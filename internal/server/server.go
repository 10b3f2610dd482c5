// Package server exposes the persistence service: sentence delivery from
// the pipeline, the review endpoints that set final text, and a health
// probe used by the pipeline to wait for startup.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/notescrub/notescrub/internal"
	"github.com/notescrub/notescrub/internal/store"
)

// Server is the HTTP surface over a sentence store.
type Server struct {
	store *store.Store
	log   zerolog.Logger
	mux   *http.ServeMux
}

func New(st *store.Store, log zerolog.Logger) *Server {
	s := &Server{store: st, log: log, mux: http.NewServeMux()}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("POST /receive-sentences", s.handleReceiveSentences)
	s.mux.HandleFunc("PATCH /sentence/{id}", s.handleUpdateSentence)
	s.mux.HandleFunc("GET /next-sentence/{user_id}", s.handleNextSentence)
	s.mux.HandleFunc("GET /sentences", s.handleListSentences)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe runs the service until ctx is cancelled, then shuts the
// listener down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.log.Info().Str("addr", addr).Msg("persistence service listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

type receivePayload struct {
	NoteID    int               `json:"note_id"`
	Sentences []sentencePayload `json:"sentences"`
}

// sentencePayload uses pointer fields so a missing key can be told apart
// from a zero value.
type sentencePayload struct {
	Index    *int    `json:"index"`
	Original *string `json:"original"`
	LLM      *string `json:"llm"`
}

func (s *Server) handleReceiveSentences(w http.ResponseWriter, r *http.Request) {
	var payload receivePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Missing 'note_id' or 'sentences'")
		return
	}

	if payload.NoteID == 0 || len(payload.Sentences) == 0 {
		writeError(w, http.StatusBadRequest, "Missing 'note_id' or 'sentences'")
		return
	}

	// Validate every entry before anything is written so a bad request
	// cannot leave a partial note behind.
	rows := make([]store.NewSentence, 0, len(payload.Sentences))
	for _, entry := range payload.Sentences {
		if entry.Index == nil || entry.Original == nil {
			writeError(w, http.StatusBadRequest, "Each sentence must have 'index' and 'original'")
			return
		}
		rows = append(rows, store.NewSentence{
			Index:    *entry.Index,
			Original: *entry.Original,
			LLM:      entry.LLM,
		})
	}

	if err := s.store.InsertSentences(r.Context(), payload.NoteID, rows); err != nil {
		s.log.Error().Err(err).Int("note_id", payload.NoteID).Msg("failed to store sentences")
		writeError(w, http.StatusInternalServerError, "failed to store sentences")
		return
	}

	s.log.Info().Int("note_id", payload.NoteID).Int("sentences", len(rows)).Msg("sentences stored")
	writeMessage(w, "Sentences stored")
}

type updatePayload struct {
	Final *string `json:"final_sentence"`
}

func (s *Server) handleUpdateSentence(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Sentence not found")
		return
	}

	sent, err := s.store.GetSentence(r.Context(), id)
	if err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("failed to load sentence")
		writeError(w, http.StatusInternalServerError, "failed to load sentence")
		return
	}
	if sent == nil {
		writeError(w, http.StatusNotFound, "Sentence not found")
		return
	}

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Final == nil {
		writeError(w, http.StatusBadRequest, "Missing 'final_sentence'")
		return
	}

	if _, err := s.store.UpdateFinal(r.Context(), id, *payload.Final); err != nil {
		s.log.Error().Err(err).Int("id", id).Msg("failed to update sentence")
		writeError(w, http.StatusInternalServerError, "failed to update sentence")
		return
	}

	s.log.Info().Int("id", id).Msg("sentence finalised")
	writeMessage(w, "Sentence updated")
}

func (s *Server) handleNextSentence(w http.ResponseWriter, r *http.Request) {
	// user_id is reserved for assigning reviewers. It must parse as an
	// integer but is otherwise ignored for now.
	if _, err := strconv.Atoi(r.PathValue("user_id")); err != nil {
		http.NotFound(w, r)
		return
	}

	next, err := s.store.NextUnreviewed(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to fetch next sentence")
		writeError(w, http.StatusInternalServerError, "failed to fetch next sentence")
		return
	}
	if next == nil {
		writeError(w, http.StatusNotFound, "No unreviewed sentences left")
		return
	}

	writeJSON(w, http.StatusOK, next)
}

func (s *Server) handleListSentences(w http.ResponseWriter, r *http.Request) {
	sents, err := s.store.ListSentences(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sentences")
		writeError(w, http.StatusInternalServerError, "failed to list sentences")
		return
	}
	if sents == nil {
		sents = []internal.StoredSentence{}
	}

	writeJSON(w, http.StatusOK, sents)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
