package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"glucose-dashboard/internal/glucose"
)

// Notification wraps a danger event for delivery.
type Notification struct {
	Entry         glucose.AuditEntry
	Trend         glucose.Trend
	LowThreshold  float64
	HighThreshold float64
	AdditionalMsg string
}

// Notifier delivers danger notifications.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

// TelegramNotifier pushes messages through the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewTelegramNotifier constructs a Telegram notifier.
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
	}
}

// Notify calls sendMessage with the rendered text.
func (n *TelegramNotifier) Notify(ctx context.Context, note Notification) error {
	payload := map[string]string{
		"chat_id": n.chatID,
		"text":    renderMessage(note),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram returned ok=false")
		}
	}

	n.logger.Info().Time("at", note.Entry.Time()).
		Str("classification", note.Entry.Classification.String()).
		Float64("value", note.Entry.Value).
		Msg("danger alert sent (Telegram)")
	return nil
}

func renderMessage(note Notification) string {
	entry := note.Entry
	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("[Glucose %s]\n", strings.ToUpper(entry.Classification.String())))
	builder.WriteString(fmt.Sprintf("Time: %s UTC\n", entry.Time().UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf("Current: %s mg/dL\n", formatValue(entry.Value)))
	if entry.Forecast30 != nil {
		builder.WriteString(fmt.Sprintf("In 30 min: %s mg/dL\n", formatValue(*entry.Forecast30)))
	}
	if entry.Forecast60 != nil {
		builder.WriteString(fmt.Sprintf("In 60 min: %s mg/dL\n", formatValue(*entry.Forecast60)))
	}
	if note.Trend != "" {
		builder.WriteString(fmt.Sprintf("Trend: %s\n", note.Trend))
	}
	if note.LowThreshold > 0 || note.HighThreshold > 0 {
		builder.WriteString(fmt.Sprintf("Target: %s-%s mg/dL\n", formatValue(note.LowThreshold), formatValue(note.HighThreshold)))
	}
	if entry.Source != "" {
		builder.WriteString(fmt.Sprintf("Source: %s\n", entry.Source))
	}
	if note.AdditionalMsg != "" {
		builder.WriteString(note.AdditionalMsg)
	}
	return builder.String()
}

func formatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}

var _ Notifier = (*TelegramNotifier)(nil)
