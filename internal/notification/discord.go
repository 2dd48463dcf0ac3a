package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/scrycache/internal/domain"
)

// DiscordService posts run summaries to a Discord webhook. An empty webhook
// URL turns every send into a no-op.
type DiscordService struct {
	log        zerolog.Logger
	webhookURL string
	httpClient *http.Client
}

// NewService returns the notifier for a download run
func NewService(log zerolog.Logger, webhookURL string) domain.NotificationService {
	return &DiscordService{
		log:        log.With().Str("module", "notification").Str("type", "discord").Logger(),
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendSuccess sends a success notification with statistics
func (s *DiscordService) SendSuccess(ctx context.Context, stats domain.Statistics) error {
	if s.webhookURL == "" {
		return nil
	}

	fields := []discordField{
		{
			Name:   "Requested",
			Value:  fmt.Sprintf("%d cards (%d copies)", stats.Requested, stats.TotalCopies),
			Inline: true,
		},
		{
			Name:   "Resolved",
			Value:  fmt.Sprintf("%d (%d double faced)", stats.Resolved, stats.DoubleFaced),
			Inline: true,
		},
		{
			Name:   "Images Written",
			Value:  fmt.Sprintf("%d", stats.ImagesWritten),
			Inline: true,
		},
		{
			Name:   "Duplicates Merged",
			Value:  fmt.Sprintf("%d", stats.DupeCount),
			Inline: true,
		},
	}
	if stats.NotFound > 0 {
		fields = append(fields, discordField{
			Name:   "Not Found",
			Value:  notFoundValue(stats),
			Inline: false,
		})
	}

	color := 0x00ff00 // Green
	if stats.NotFound > 0 {
		color = 0xffa500 // Orange
	}

	embed := discordEmbed{
		Title:       "scrycache Download Completed",
		Description: "Card images downloaded",
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Fields:      fields,
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// SendError sends an error notification with error details
func (s *DiscordService) SendError(ctx context.Context, err error) error {
	if s.webhookURL == "" {
		return nil
	}

	embed := discordEmbed{
		Title:       "scrycache Download Failed",
		Description: fmt.Sprintf("Download failed with error:\n```%s```", err.Error()),
		Color:       0xff0000, // Red
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	payload := discordWebhook{
		Embeds: []discordEmbed{embed},
	}

	return s.sendWebhook(ctx, payload)
}

// sendWebhook sends a webhook payload to Discord
func (s *DiscordService) sendWebhook(ctx context.Context, payload discordWebhook) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to marshal webhook payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "failed to create webhook request")
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "failed to send webhook request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook request failed with status %d", resp.StatusCode)
	}

	s.log.Debug().Msg("Discord notification sent successfully")
	return nil
}

// discordWebhook represents a Discord webhook payload
type discordWebhook struct {
	Embeds []discordEmbed `json:"embeds"`
}

// discordEmbed represents a Discord embed
type discordEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Timestamp   string         `json:"timestamp,omitempty"`
	Fields      []discordField `json:"fields,omitempty"`
}

// discordField represents a Discord embed field
type discordField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}


// maxNotFoundNames caps the names listed in one embed field
const maxNotFoundNames = 15

func notFoundValue(stats domain.Statistics) string {
	names := stats.NotFoundNames
	extra := 0
	if len(names) > maxNotFoundNames {
		extra = len(names) - maxNotFoundNames
		names = names[:maxNotFoundNames]
	}
	value := fmt.Sprintf("%d: %s", stats.NotFound, strings.Join(names, ", "))
	if extra > 0 {
		value += fmt.Sprintf(" and %d more", extra)
	}
	return value
}
