// Package compiler turns natural-language requests into validated workflow
// specifications using an external text-generation service, with a
// deterministic fallback builder for when the service is unavailable or
// keeps producing schema-invalid output.
package compiler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
)

// DefaultBaseURL is the OpenRouter-compatible chat completions endpoint.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// DefaultModel is used when the configuration names none.
const DefaultModel = "openrouter/auto"

const systemPrompt = `You compile natural-language requests into a JSON workflow for ecommerce ops.
Return ONLY valid JSON adhering to the provided schema. No prose, no comments.`

// Client talks to an OpenRouter-compatible chat completions API.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates a compiler client. Empty baseURL and model fall back
// to the defaults; the API key is required for Compile to succeed.
func NewClient(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Compile sends the prompt and parses the response into a validated
// Workflow. A schema-invalid first answer triggers exactly one repair
// attempt that feeds the validation error back to the model; repaired
// reports whether that second attempt produced the result.
func (c *Client) Compile(ctx context.Context, prompt string) (w *spec.Workflow, repaired bool, err error) {
	if c.apiKey == "" {
		return nil, false, fmt.Errorf("compile: no API key configured")
	}

	w, err = c.attempt(ctx, prompt)
	if err == nil {
		return w, false, nil
	}

	repairPrompt := fmt.Sprintf(
		"The previous attempt failed schema validation: %v. Produce a corrected JSON workflow. Original request:\n%s",
		err, prompt)
	w, repairErr := c.attempt(ctx, repairPrompt)
	if repairErr != nil {
		return nil, false, fmt.Errorf("compile: %w (repair attempt: %v)", err, repairErr)
	}
	return w, true, nil
}

// attempt performs one chat completion round and validates the result.
func (c *Client) attempt(ctx context.Context, prompt string) (*spec.Workflow, error) {
	content, err := c.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var w spec.Workflow
	if err := json.Unmarshal([]byte(stripFences(content)), &w); err != nil {
		return nil, fmt.Errorf("response is not valid workflow JSON: %w", err)
	}
	w.ApplyDefaults()
	w.Normalize()
	if err := spec.Validate(&w).First(); err != nil {
		return nil, err
	}
	return &w, nil
}

// chatRequest and chatResponse model the subset of the completions wire
// format the compiler needs.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete performs one chat completion call and returns the first
// choice's content.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completions request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completions status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// stripFences removes a surrounding markdown code fence, which models
// add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
