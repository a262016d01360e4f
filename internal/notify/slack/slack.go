// Package slack sends high-risk patient notifications to Slack via
// incoming webhooks.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/pulse/internal/patient"
)

const (
	maxRecommendationLen = 3000
	httpTimeout          = 10 * time.Second
)

// Notifier posts risk predictions to a Slack webhook.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     log.Logger
}

// New creates a new Slack notifier. If webhookURL is empty, Send is a no-op.
func New(webhookURL string, logger log.Logger) *Notifier {
	if logger == nil {
		logger = log.Nop()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: httpTimeout},
		logger:     logger,
	}
}

// Send posts a prediction for the given patient to the configured Slack
// webhook. If no webhook URL is configured, it returns nil immediately.
func (n *Notifier) Send(ctx context.Context, p *patient.Patient, pred *patient.Prediction) error {
	if n.webhookURL == "" {
		return nil
	}

	msg := buildMessage(p, pred)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req) //nolint:gosec // G704: webhookURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: webhook returned %d: %s", resp.StatusCode, string(respBody))
	}

	n.logger.Info(ctx, "slack notification sent",
		"prediction_id", pred.ID,
		"risk_level", pred.RiskLevel,
	)
	return nil
}

func buildMessage(p *patient.Patient, pred *patient.Prediction) map[string]any {
	return map[string]any{
		"blocks": []map[string]any{
			headerBlock(p, pred),
			{"type": "divider"},
			fieldsBlock(pred),
			{"type": "divider"},
			recommendationBlock(pred),
			{"type": "divider"},
			contextBlock(pred),
		},
	}
}

func headerBlock(p *patient.Patient, pred *patient.Prediction) map[string]any {
	text := fmt.Sprintf("%s Risk Alert: %s", riskEmoji(pred.RiskLevel), p.Name)

	return map[string]any{
		"type": "header",
		"text": map[string]any{
			"type": "plain_text",
			"text": text,
		},
	}
}

func fieldsBlock(pred *patient.Prediction) map[string]any {
	fields := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk level:* %s", pred.RiskLevel),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Risk score:* %.2f", pred.RiskScore),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Strategy:* %s", pred.Strategy),
		},
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Patient:* %s", pred.PatientID),
		},
	}

	return map[string]any{
		"type":   "section",
		"fields": fields,
	}
}

func recommendationBlock(pred *patient.Prediction) map[string]any {
	text := truncate(pred.Recommendation, maxRecommendationLen)
	if text == "" {
		text = "_No recommendation available._"
	}

	return map[string]any{
		"type": "section",
		"text": map[string]any{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Recommendation*\n\n%s", text),
		},
	}
}

func contextBlock(pred *patient.Prediction) map[string]any {
	elements := []map[string]any{
		{
			"type": "mrkdwn",
			"text": fmt.Sprintf("pulse • prediction %s • %s", pred.ID, pred.CreatedAt.UTC().Format("2006-01-02 15:04 UTC")),
		},
	}

	return map[string]any{
		"type":     "context",
		"elements": elements,
	}
}

func riskEmoji(level string) string {
	switch strings.ToUpper(level) {
	case "HIGH":
		return "\U0001f534" // red circle
	case "MEDIUM":
		return "\U0001f7e1" // yellow circle
	default:
		return "\U0001f7e2" // green circle
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit-3] + "..."
}
