package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/notescrub/notescrub/internal"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, zerolog.Nop())
}

func strPtr(s string) *string {
	return &s
}

func TestPushSentences(t *testing.T) {
	var gotMethod, gotPath, gotType string
	var gotBody map[string]interface{}

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"message": "Sentences stored"})
	}))

	sentences := []internal.Sentence{
		{Index: 0, Original: "Patient seen today.", LLM: "Patient seen today."},
		{Index: 1, Original: "Dr. Smith reviewed.", LLM: "[REDACTED] reviewed."},
	}
	if err := c.PushSentences(context.Background(), 3, sentences); err != nil {
		t.Fatalf("PushSentences failed: %v", err)
	}

	if gotMethod != "POST" {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotPath != "/receive-sentences" {
		t.Errorf("expected path /receive-sentences, got %s", gotPath)
	}
	if gotType != "application/json" {
		t.Errorf("expected JSON content type, got %q", gotType)
	}
	if gotBody["note_id"] != float64(3) {
		t.Errorf("expected note_id 3, got %v", gotBody["note_id"])
	}

	rows, ok := gotBody["sentences"].([]interface{})
	if !ok || len(rows) != 2 {
		t.Fatalf("expected 2 sentences in payload, got %v", gotBody["sentences"])
	}
	first, ok := rows[0].(map[string]interface{})
	if !ok {
		t.Fatalf("expected object entries, got %T", rows[0])
	}
	for _, key := range []string{"index", "original", "llm", "final"} {
		if _, present := first[key]; !present {
			t.Errorf("payload entry missing key %q", key)
		}
	}
	if first["final"] != nil {
		t.Errorf("expected final to be null, got %v", first["final"])
	}
}

func TestPushSentences_ServiceError(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Missing 'note_id' or 'sentences'"})
	}))

	err := c.PushSentences(context.Background(), 1, []internal.Sentence{{Index: 0, Original: "text"}})
	if err == nil {
		t.Fatal("expected error for rejected delivery")
	}
}

func TestPushSentences_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL, zerolog.Nop())
	err := c.PushSentences(context.Background(), 1, []internal.Sentence{{Index: 0, Original: "text"}})
	if err == nil {
		t.Fatal("expected error when service is unreachable")
	}
}

func TestFetchSentences(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" || r.URL.Path != "/sentences" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode([]internal.StoredSentence{
			{ID: 1, NoteID: 1, Index: 0, Original: "First.", LLM: strPtr("First.")},
			{ID: 2, NoteID: 2, Index: 0, Original: "Second.", LLM: nil},
		})
	}))

	rows, err := c.FetchSentences(context.Background())
	if err != nil {
		t.Fatalf("FetchSentences failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].ID != 1 || rows[1].NoteID != 2 {
		t.Errorf("unexpected rows: %+v", rows)
	}
	if rows[1].LLM != nil {
		t.Errorf("expected nil llm for second row, got %q", *rows[1].LLM)
	}
}

func TestFetchSentences_Empty(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))

	rows, err := c.FetchSentences(context.Background())
	if err != nil {
		t.Fatalf("FetchSentences failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestNextSentence(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/next-sentence/1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(internal.StoredSentence{ID: 4, NoteID: 2, Index: 1, Original: "text"})
	}))

	row, err := c.NextSentence(context.Background(), 1)
	if err != nil {
		t.Fatalf("NextSentence failed: %v", err)
	}
	if row == nil || row.ID != 4 {
		t.Errorf("unexpected row: %+v", row)
	}
}

func TestNextSentence_NoneLeft(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "No unreviewed sentences left"})
	}))

	row, err := c.NextSentence(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected no error when queue is empty, got %v", err)
	}
	if row != nil {
		t.Errorf("expected nil row, got %+v", row)
	}
}

func TestFinalize(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]string

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]string{"message": "Sentence updated"})
	}))

	if err := c.Finalize(context.Background(), 7, "Reviewed text."); err != nil {
		t.Fatalf("Finalize failed: %v", err)
	}
	if gotMethod != "PATCH" {
		t.Errorf("expected PATCH, got %s", gotMethod)
	}
	if gotPath != "/sentence/7" {
		t.Errorf("expected path /sentence/7, got %s", gotPath)
	}
	if gotBody["final_sentence"] != "Reviewed text." {
		t.Errorf("unexpected payload: %v", gotBody)
	}
}

func TestFinalize_NotFound(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Sentence not found"})
	}))

	err := c.Finalize(context.Background(), 99, "text")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestWaitReady(t *testing.T) {
	var calls atomic.Int32
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))

	if err := c.WaitReady(context.Background(), 10*time.Second); err != nil {
		t.Fatalf("WaitReady failed: %v", err)
	}
	if calls.Load() < 3 {
		t.Errorf("expected at least 3 polls, got %d", calls.Load())
	}
}

func TestWaitReady_Timeout(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	err := c.WaitReady(context.Background(), 300*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error for a service that never comes up")
	}
}

func TestBackoff(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 300*time.Millisecond)

	for i, want := range []time.Duration{200 * time.Millisecond, 300 * time.Millisecond, 300 * time.Millisecond} {
		if err := b.Sleep(context.Background()); err != nil {
			t.Fatalf("Sleep %d failed: %v", i, err)
		}
		if b.current != want {
			t.Errorf("after sleep %d: expected current %s, got %s", i, want, b.current)
		}
	}

	b.Reset()
	if b.current != 100*time.Millisecond {
		t.Errorf("expected reset to initial, got %s", b.current)
	}
}

func TestBackoff_CancelledContext(t *testing.T) {
	b := newBackoff(time.Hour, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	if err := b.Sleep(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if time.Since(start) > time.Second {
		t.Error("Sleep did not return promptly on cancellation")
	}
}
