package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"reviewhub/internal/model"
)

const (
	anthropicBaseURL          = "https://api.anthropic.com/v1"
	anthropicMessagesEndpoint = "/messages"
	anthropicVersion          = "2023-06-01"
)

// ReplyDrafter drafts a reply to a customer review. Drafts are never
// persisted; the user edits and posts them explicitly.
type ReplyDrafter interface {
	DraftReply(ctx context.Context, businessName string, review *model.Review) (string, error)
}

type anthropicDrafter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// NewAnthropicDrafter creates a ReplyDrafter backed by the Anthropic
// messages API.
func NewAnthropicDrafter(apiKey, modelName string) ReplyDrafter {
	return &anthropicDrafter{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: anthropicBaseURL,
		apiKey:  apiKey,
		model:   modelName,
	}
}

func draftPrompt(businessName string, review *model.Review) string {
	comment := "(no comment, rating only)"
	if review.Comment != nil && *review.Comment != "" {
		comment = *review.Comment
	}
	return fmt.Sprintf(
		"You write replies to customer reviews on behalf of the business %q. "+
			"Write a short, warm, professional reply to the following %d-star review by %s. "+
			"Thank them by name, address their specific points, and do not offer discounts "+
			"or make promises. Reply with the response text only.\n\nReview: %s",
		businessName, review.Rating, review.ReviewerName, comment)
}

func (d *anthropicDrafter) DraftReply(ctx context.Context, businessName string, review *model.Review) (string, error) {
	if d.apiKey == "" {
		return "", fmt.Errorf("AI drafts are not configured")
	}

	requestBody := map[string]interface{}{
		"model":      d.model,
		"max_tokens": 400,
		"messages": []map[string]string{
			{"role": "user", "content": draftPrompt(businessName, review)},
		},
	}
	bodyJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("marshal draft request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+anthropicMessagesEndpoint, bytes.NewReader(bodyJSON))
	if err != nil {
		return "", fmt.Errorf("create draft request: %w", err)
	}
	req.Header.Set("x-api-key", d.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("draft reply: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read draft response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("draft reply: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decode draft response: %w", err)
	}
	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("draft response contained no text")
}
