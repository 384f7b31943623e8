package discord

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

const (
	// Colors for Discord embeds
	colorRed    = 15158332 // 0xE74C3C - for errors/expiration
	colorGreen  = 5763719  // 0x57F287 - for success
	colorYellow = 16705372 // 0xFEE75C - finished short of target

	// Default timeout for webhook requests
	defaultWebhookTimeout = 10 * time.Second

	// Max retries for rate limiting
	maxRetries = 3
)

// WebhookPayload represents a Discord webhook message
type WebhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed represents a Discord embed
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField represents a field in a Discord embed
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// EmbedFooter represents the footer of a Discord embed
type EmbedFooter struct {
	Text string `json:"text"`
}

// CrawlSummary is what a finished crawl reports.
type CrawlSummary struct {
	Accepted        int
	Target          int
	ParticipantRows int
	TargetReached   bool
	Runtime         time.Duration
	OutDir          string
}

// NewCrawlCompletePayload creates a payload for a finished crawl
func NewCrawlCompletePayload(s CrawlSummary) WebhookPayload {
	title := "✅ Crawl Complete"
	color := colorGreen
	if !s.TargetReached {
		title = "⚠️ Crawl Ended Early (frontier exhausted)"
		color = colorYellow
	}
	return WebhookPayload{
		Embeds: []Embed{
			{
				Title: title,
				Color: color,
				Fields: []EmbedField{
					{
						Name:   "Matches",
						Value:  formatNumber(s.Accepted) + " / " + formatNumber(s.Target),
						Inline: true,
					},
					{
						Name:   "Participant Rows",
						Value:  formatNumber(s.ParticipantRows),
						Inline: true,
					},
					{
						Name:   "Runtime",
						Value:  formatDuration(s.Runtime),
						Inline: true,
					},
				},
				Footer: &EmbedFooter{
					Text: "Output: " + s.OutDir,
				},
			},
		},
	}
}

// NewKeyExpiredPayload creates a payload for API key expiration notification
func NewKeyExpiredPayload(accepted int, runtime time.Duration, apiKey string) WebhookPayload {
	return WebhookPayload{
		Content: "@here API Key Expired!",
		Embeds: []Embed{
			{
				Title: "🔑 API Key Expired",
				Color: colorRed,
				Fields: []EmbedField{
					{
						Name:   "Matches Collected",
						Value:  formatNumber(accepted),
						Inline: true,
					},
					{
						Name:   "Runtime",
						Value:  formatDuration(runtime),
						Inline: true,
					},
					{
						Name:   "Key",
						Value:  maskAPIKey(apiKey),
						Inline: true,
					},
				},
				Footer: &EmbedFooter{
					Text: "Refresh RIOT_API_KEY and rerun with --resume",
				},
			},
		},
	}
}

// WebhookClient sends notifications to Discord webhooks
type WebhookClient struct {
	webhookURL string
	httpClient *http.Client
	retryWait  time.Duration
}

// NewWebhookClient creates a new WebhookClient
func NewWebhookClient(webhookURL string) *WebhookClient {
	return &WebhookClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: defaultWebhookTimeout,
		},
		retryWait: time.Second,
	}
}

// SendCrawlComplete sends a crawl completion notification
func (c *WebhookClient) SendCrawlComplete(ctx context.Context, s CrawlSummary) error {
	return c.sendPayload(ctx, NewCrawlCompletePayload(s))
}

// SendKeyExpired sends a key expiration notification
func (c *WebhookClient) SendKeyExpired(ctx context.Context, accepted int, runtime time.Duration, apiKey string) error {
	return c.sendPayload(ctx, NewKeyExpiredPayload(accepted, runtime, apiKey))
}

// sendPayload sends a webhook payload with retry on rate limiting
func (c *WebhookClient) sendPayload(ctx context.Context, payload WebhookPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		resp.Body.Close()

		// Discord returns 204 No Content
		if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
			return nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := c.retryWait
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				waitDuration = time.Duration(seconds) * time.Second
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	return fmt.Errorf("webhook request failed after %d retries", maxRetries)
}

// formatNumber formats a number with commas (e.g., 47832 -> "47,832")
func formatNumber(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}

	s := strconv.Itoa(n)
	var result bytes.Buffer
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(c)
	}
	return result.String()
}

// formatDuration formats a duration as "Xh Ym" (e.g., 18h 32m)
func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// maskAPIKey masks an API key for display (e.g., "RGAPI-xxxx-xxxx" -> "RGAPI-...xxxx")
func maskAPIKey(key string) string {
	if len(key) <= 10 {
		return "****"
	}
	return key[:6] + "..." + key[len(key)-4:]
}
