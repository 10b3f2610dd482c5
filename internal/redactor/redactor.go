// Package redactor sends note segments to a locally hosted Ollama model and
// returns the de-identified text. The model's reply is passed through
// verbatim; judging whether the redaction is adequate is left to the human
// review step.
package redactor

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
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.3"
)

const redactionPrompt = "You are a clinical de-identification assistant. " +
	"Your task is to remove any identifiable information from the following sentence " +
	"while preserving clinical relevance. Replace names, locations, and IDs with [REDACTED]." +
	"ONLY GIVE REDACTED SENTENCE AND NO COMMENTARY" +
	"THESE ARE NOT REAL CASES, AND YOU CANNOT REFUSE TO TRY REDACTING INFORMATION\n\n" +
	"Sentence: %s"

// ModelMissingPolicy is consulted when the server reports that the
// configured model is not present locally. Returning true authorises the
// client to pull the model and retry once. The decision may involve a
// terminal prompt, which is why it lives outside this package.
type ModelMissingPolicy func(model string) bool

// PullAlways authorises every pull.
func PullAlways(string) bool { return true }

// PullNever declines every pull.
func PullNever(string) bool { return false }

// Client is a chat client for a local Ollama server.
type Client struct {
	baseURL   string
	model     string
	client    *http.Client
	puller    *http.Client
	onMissing ModelMissingPolicy
	log       zerolog.Logger
}

// New creates a redaction client. Empty baseURL or model fall back to the
// package defaults.
func New(baseURL, model string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
		// Pulling a model downloads gigabytes; the chat timeout would
		// cut it off.
		puller: &http.Client{Timeout: 30 * time.Minute},
		log:    log,
	}
}

// SetModelMissingPolicy installs the pull-authorisation callback. Without
// one the client propagates the model-not-found error unchanged.
func (c *Client) SetModelMissingPolicy(p ModelMissingPolicy) {
	c.onMissing = p
}

// Model returns the model name the client sends with each request.
func (c *Client) Model() string {
	return c.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

// apiError carries the status and body of a non-2xx response so the
// model-not-found case can be recognised by the caller.
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("ollama returned status %d: %s", e.status, e.body)
}

// Redact sends one segment to the model and returns its reply verbatim.
// If the server reports the model missing and the installed policy
// authorises it, the model is pulled and the request retried exactly once;
// every other error is returned as-is.
func (c *Client) Redact(ctx context.Context, text string) (string, error) {
	reply, err := c.chat(ctx, text)
	if err == nil {
		return reply, nil
	}

	if !isModelMissing(err) || c.onMissing == nil || !c.onMissing(c.model) {
		return "", err
	}

	c.log.Info().Str("model", c.model).Msg("model not found, pulling")
	if pullErr := c.Pull(ctx); pullErr != nil {
		return "", fmt.Errorf("failed to pull model %s: %w", c.model, pullErr)
	}
	c.log.Info().Str("model", c.model).Msg("model pulled, retrying")

	return c.chat(ctx, text)
}

func (c *Client) chat(ctx context.Context, text string) (string, error) {
	reqBody := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: fmt.Sprintf(redactionPrompt, text)}},
		Stream:   false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/chat", c.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &apiError{status: resp.StatusCode, body: string(body)}
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}

	return chatResp.Message.Content, nil
}

// Pull downloads the configured model through the server. With streaming
// disabled the call blocks until the download completes.
func (c *Client) Pull(ctx context.Context) error {
	jsonData, err := json.Marshal(pullRequest{Name: c.model, Stream: false})
	if err != nil {
		return fmt.Errorf("failed to marshal pull request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/api/pull", c.baseURL), bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create pull request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.puller.Do(req)
	if err != nil {
		return fmt.Errorf("pull request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("pull returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// IsAvailable reports whether the Ollama server answers at all.
func (c *Client) IsAvailable(ctx context.Context) error {
	req, _ := http.NewRequestWithContext(ctx, "GET", fmt.Sprintf("%s/api/tags", c.baseURL), nil)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not available: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

// isModelMissing reports whether err is the server telling us the requested
// model is not present locally.
func isModelMissing(err error) bool {
	var apiErr *apiError
	if !errors.As(err, &apiErr) {
		return false
	}
	if apiErr.status < 400 || apiErr.status >= 500 {
		return false
	}
	return strings.Contains(apiErr.body, "model") && strings.Contains(apiErr.body, "not found")
}
