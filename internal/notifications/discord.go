package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const (
	colorRed    = 0xFF0000
	colorYellow = 0xFFCC00
)

// Discord posts operational alerts to a Discord webhook.
type Discord struct {
	webhookURL string
	logger     *log.Logger
	client     *http.Client
}

// NewDiscord creates a new Discord notifier. If webhookURL is empty,
// notifications are silently skipped.
func NewDiscord(webhookURL string, logger *log.Logger) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		logger:     logger,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled returns true if the webhook is configured.
func (d *Discord) Enabled() bool {
	return d != nil && d.webhookURL != ""
}

type discordMessage struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds,omitempty"`
}

type discordEmbed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// send posts msg in the background. Errors are logged only.
func (d *Discord) send(ctx context.Context, msg discordMessage) {
	if !d.Enabled() {
		return
	}
	go func() {
		if err := d.post(context.WithoutCancel(ctx), msg); err != nil {
			d.logger.Printf("discord: %v", err)
		}
	}()
}

func (d *Discord) post(ctx context.Context, msg discordMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func sweepFailedMessage(err error) discordMessage {
	return discordMessage{
		Content: "@here",
		Embeds: []discordEmbed{{
			Title:       "Script retention sweep failed",
			Description: fmt.Sprintf("```%v```", err),
			Color:       colorRed,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

func scriptsExpiredMessage(count int, cutoff time.Time) discordMessage {
	return discordMessage{
		Embeds: []discordEmbed{{
			Title: "Expired scripts removed",
			Color: colorYellow,
			Fields: []embedField{
				{Name: "Scripts", Value: fmt.Sprintf("%d", count), Inline: true},
				{Name: "Cutoff", Value: cutoff.UTC().Format(time.RFC3339), Inline: true},
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
}

// NotifySweepFailed alerts when the retention job cannot delete scripts.
func (d *Discord) NotifySweepFailed(ctx context.Context, err error) {
	d.send(ctx, sweepFailedMessage(err))
}

// NotifyScriptsExpired reports a sweep that removed at least one script.
func (d *Discord) NotifyScriptsExpired(ctx context.Context, count int, cutoff time.Time) {
	d.send(ctx, scriptsExpiredMessage(count, cutoff))
}
