// Package client is the HTTP client for the persistence service, used by
// the batch pipeline to deliver sentences and by the review commands to
// walk and finalise them.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/notescrub/notescrub/internal"
)

const DefaultBaseURL = "http://localhost:8000"

// ErrNotFound is returned when the service reports 404 for a sentence id.
var ErrNotFound = errors.New("sentence not found")

type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

func New(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

type pushPayload struct {
	NoteID    int                 `json:"note_id"`
	Sentences []internal.Sentence `json:"sentences"`
}

// PushSentences delivers all sentences of one note in a single request.
// The service stores them atomically, so an error here means nothing from
// this note was persisted.
func (c *Client) PushSentences(ctx context.Context, noteID int, sentences []internal.Sentence) error {
	jsonData, err := json.Marshal(pushPayload{NoteID: noteID, Sentences: sentences})
	if err != nil {
		return fmt.Errorf("failed to marshal sentences: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/receive-sentences", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Error().Err(err).Int("note_id", noteID).Msg("failed to deliver sentences")
		return fmt.Errorf("failed to deliver sentences for note %d: %w", noteID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.log.Error().
			Int("note_id", noteID).
			Int("status", resp.StatusCode).
			Str("body", strings.TrimSpace(string(body))).
			Msg("service rejected sentences")
		return fmt.Errorf("service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// FetchSentences returns every stored sentence row in insertion order.
func (c *Client) FetchSentences(ctx context.Context) ([]internal.StoredSentence, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/sentences", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch sentences: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	var out []internal.StoredSentence
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sentences: %w", err)
	}
	return out, nil
}

// NextSentence returns the next unreviewed sentence, or nil when none are
// left. userID is carried in the path for future reviewer assignment.
func (c *Client) NextSentence(ctx context.Context, userID int) (*internal.StoredSentence, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/next-sentence/%d", c.baseURL, userID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch next sentence: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	var out internal.StoredSentence
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode sentence: %w", err)
	}
	return &out, nil
}

// Finalize sets the reviewed text of a sentence.
func (c *Client) Finalize(ctx context.Context, id int, final string) error {
	jsonData, err := json.Marshal(map[string]string{"final_sentence": final})
	if err != nil {
		return fmt.Errorf("failed to marshal final sentence: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PATCH", fmt.Sprintf("%s/sentence/%d", c.baseURL, id), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to update sentence %d: %w", id, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("service returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return nil
}

// WaitReady polls the health endpoint until the service answers or the
// timeout elapses. The run command calls this after spawning the service
// and before the first delivery.
func (c *Client) WaitReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	b := newBackoff(100*time.Millisecond, 2*time.Second)
	for {
		err := c.healthy(ctx)
		if err == nil {
			return nil
		}
		c.log.Debug().Err(err).Msg("service not ready yet")

		if err := b.Sleep(ctx); err != nil {
			return fmt.Errorf("service did not become ready within %s", timeout)
		}
	}
}

func (c *Client) healthy(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health returned status %d", resp.StatusCode)
	}
	return nil
}
