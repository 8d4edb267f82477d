package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/richinex/supplysentinel/model"
)

const (
	maxReasonLen = 3000
	httpTimeout  = 10 * time.Second
)

// Webhook posts alerts to a Slack-compatible incoming webhook.
type Webhook struct {
	url    string
	client *http.Client
}

// NewWebhook creates a Webhook. If url is empty, Notify is a no-op.
func NewWebhook(url string) *Webhook {
	return &Webhook{
		url:    url,
		client: &http.Client{Timeout: httpTimeout},
	}
}

// Notify implements Notifier.
func (w *Webhook) Notify(ctx context.Context, a model.Alert) error {
	if w.url == "" {
		return nil
	}

	body, err := json.Marshal(buildMessage(a))
	if err != nil {
		return fmt.Errorf("webhook: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook: returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func buildMessage(a model.Alert) map[string]any {
	return map[string]any{
		"text": fmt.Sprintf("CRITICAL ALERT: %s supply chain risk", a.Dependency.Material),
		"blocks": []map[string]any{
			headerBlock(a),
			fieldsBlock(a),
			{"type": "divider"},
			reasonBlock(a),
			contextBlock(a),
		},
	}
}

func headerBlock(a model.Alert) map[string]any {
	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": fmt.Sprintf("%s Critical Alert: %s Supply Chain Risk", scoreEmoji(a.Assessment.Score), a.Dependency.Material),
		},
	}
}

func fieldsBlock(a model.Alert) map[string]any {
	action := "No"
	if a.Assessment.ActionNeeded {
		action = "Yes"
	}
	fields := []map[string]any{
		{"type": "mrkdwn", "text": fmt.Sprintf("*Material:* %s", a.Dependency.Material)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Location:* %s", a.Dependency.Origin)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Score:* %g/10", a.Assessment.Score)},
		{"type": "mrkdwn", "text": fmt.Sprintf("*Action needed:* %s", action)},
	}
	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func reasonBlock(a model.Alert) map[string]any {
	text := truncate(a.Assessment.Reason, maxReasonLen)
	if text == "" {
		text = "_No reason given._"
	}
	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Reason*\n\n%s", text),
		},
	}
}

func contextBlock(a model.Alert) map[string]any {
	return map[string]any{
		"type": "context",
		"elements": []map[string]any{
			{
				"type": "mrkdwn",
				"text": fmt.Sprintf("sentinel • %s • %s", a.Key, a.RaisedAt.UTC().Format("2006-01-02 15:04 UTC")),
			},
		},
	}
}

func scoreEmoji(score float64) string {
	if score >= 9 {
		return "\U0001f6a8" // rotating light
	}
	return "\U0001f534" // red circle
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
