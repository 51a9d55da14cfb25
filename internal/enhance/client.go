// Package enhance calls an OpenAI-compatible chat endpoint to polish free
// text and to score team sentiment.
package enhance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"cadence/api/internal/config"
)

const (
	MinSentiment = 1.0
	MaxSentiment = 5.0
)

var (
	// ErrDisabled is returned when no endpoint is configured.
	ErrDisabled  = errors.New("text enhancement is not configured")
	ErrEmptyText = errors.New("text is empty")
)

const enhancePrompt = `You edit sections of a weekly leadership status report.
Rewrite the user's text to be clear, concise and professional. Keep every fact,
name and number. Keep line breaks that separate list items. Return only the rewritten text.`

const sentimentPrompt = `Rate the team morale expressed in the user's text on a scale
from 1.0 (very negative) to 5.0 (very positive). Return JSON: {"score": <number>}. Only return JSON.`

type Client struct {
	baseURL string
	apiKey  string
	model   string
	http    *http.Client
	log     *zap.Logger
}

func New(cfg config.EnhanceConfig, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("enhance"),
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// Enhance returns a rewritten version of text.
func (c *Client) Enhance(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	out, err := c.chat(ctx, enhancePrompt, text)
	if err != nil {
		return "", fmt.Errorf("enhance: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Sentiment scores text between MinSentiment and MaxSentiment.
func (c *Client) Sentiment(ctx context.Context, text string) (float64, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyText
	}
	out, err := c.chat(ctx, sentimentPrompt, text)
	if err != nil {
		return 0, fmt.Errorf("sentiment: %w", err)
	}
	score, err := parseScore(out)
	if err != nil {
		c.log.Warn("unparseable sentiment reply", zap.String("reply", out), zap.Error(err))
		return 0, fmt.Errorf("sentiment: %w", err)
	}
	return Clamp(score), nil
}

// Clamp forces score into the sentiment range, rounded to one decimal.
func Clamp(score float64) float64 {
	if score < MinSentiment {
		score = MinSentiment
	}
	if score > MaxSentiment {
		score = MaxSentiment
	}
	return float64(int(score*10+0.5)) / 10
}

func parseScore(reply string) (float64, error) {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```json")
	reply = strings.Trim(reply, "` \n")

	var parsed struct {
		Score *float64 `json:"score"`
	}
	if err := json.Unmarshal([]byte(reply), &parsed); err == nil && parsed.Score != nil {
		return *parsed.Score, nil
	}
	if v, err := strconv.ParseFloat(reply, 64); err == nil {
		return v, nil
	}
	return 0, fmt.Errorf("no score in reply")
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	payload, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	c.log.Debug("llm call", zap.Int("status", resp.StatusCode), zap.Duration("duration", time.Since(started)))
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm status %d: %s", resp.StatusCode, data)
	}

	var result chatResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	return result.Choices[0].Message.Content, nil
}
