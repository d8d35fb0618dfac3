// Package genai is a minimal client for the Gemini generateContent REST API.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// EmptyReply stands in for a successful response that carried no text.
const EmptyReply = "（Gemini 沒有回覆文字）"

const (
	defaultModel    = "gemini-2.5-flash"
	defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models"
	apiKeyHeader    = "x-goog-api-key"
)

// Chat roles accepted by Generate.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleModel     = "model"
	RoleAssistant = "assistant"
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("genai: api key not configured")

// Config holds upstream settings.
type Config struct {
	APIKey          string
	Model           string
	Endpoint        string
	Timeout         time.Duration
	MaxOutputTokens int
	Temperature     float64
}

// Message is one turn of a chat transcript.
type Message struct {
	Role    string `json:"role" validate:"required,oneof=system user model assistant"`
	Content string `json:"content" validate:"required"`
}

// UpstreamError reports a non-success answer from the API.
type UpstreamError struct {
	Status int
	Detail string
	// NotJSON is set when the body could not be decoded at all.
	NotJSON bool
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("gemini returned %d: %s", e.Status, truncate(e.Detail, 200))
}

// Client calls the generateContent endpoint.
type Client struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// New builds a client. Zero values fall back to the public endpoint, a
// flash model and a 30s timeout.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 1500
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c != nil && strings.TrimSpace(c.cfg.APIKey) != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Text  string `json:"text"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// Generate sends the transcript and returns the reply text. A successful
// response without text yields EmptyReply.
func (c *Client) Generate(ctx context.Context, messages []Message) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(c.buildRequest(messages))
	if err != nil {
		return "", fmt.Errorf("marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s:generateContent", strings.TrimRight(c.cfg.Endpoint, "/"), c.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, c.cfg.APIKey)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		// *url.Error quotes the request URL; callers only get the cause.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read gemini response: %w", err)
	}
	c.logger.Debug("gemini response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		status := resp.StatusCode
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
		return "", &UpstreamError{Status: status, Detail: string(raw), NotJSON: true}
	}
	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		detail := string(raw)
		if parsed.Error != nil {
			detail = parsed.Error.Message
		}
		status := resp.StatusCode
		if status == http.StatusOK {
			status = http.StatusBadGateway
		}
		return "", &UpstreamError{Status: status, Detail: detail}
	}

	return extractReply(parsed), nil
}

func (c *Client) buildRequest(messages []Message) generateRequest {
	req := generateRequest{
		Contents: make([]content, 0, len(messages)),
		GenerationConfig: generationConfig{
			MaxOutputTokens: c.cfg.MaxOutputTokens,
			Temperature:     c.cfg.Temperature,
		},
	}
	var system []part
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, part{Text: m.Content})
		case RoleAssistant, RoleModel:
			req.Contents = append(req.Contents, content{Role: RoleModel, Parts: []part{{Text: m.Content}}})
		default:
			req.Contents = append(req.Contents, content{Role: RoleUser, Parts: []part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		req.SystemInstruction = &content{Parts: system}
	}
	return req
}

func extractReply(resp generateResponse) string {
	if len(resp.Candidates) > 0 {
		parts := resp.Candidates[0].Content.Parts
		if len(parts) > 0 && strings.TrimSpace(parts[0].Text) != "" {
			return parts[0].Text
		}
		texts := make([]string, 0, len(parts))
		for _, p := range parts {
			if strings.TrimSpace(p.Text) != "" {
				texts = append(texts, p.Text)
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n")
		}
	}
	if strings.TrimSpace(resp.Text) != "" {
		return resp.Text
	}
	return EmptyReply
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
