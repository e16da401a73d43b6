package sink

import (
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rewired-gh/clobwatch/internal/config"
	"github.com/rewired-gh/clobwatch/internal/models"
)

// TelegramSink forwards volatility alerts to a Telegram chat. State updates
// are far too chatty for a notification channel and are ignored; the LogSink
// carries them.
type TelegramSink struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
	log            *zap.Logger
}

// NewTelegramSink creates a TelegramSink from the Telegram configuration.
func NewTelegramSink(cfg config.TelegramConfig, log *zap.Logger) (*TelegramSink, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	retryDelayBase := cfg.RetryDelayBase
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &TelegramSink{
		bot:            bot,
		chatID:         chatID,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
		log:            log,
	}, nil
}

// PublishUpdate is a no-op; only alerts are forwarded.
func (s *TelegramSink) PublishUpdate(models.StateUpdate) {}

// PublishAlert sends the alert with linear-backoff retries. Delivery failure
// is logged and swallowed: a broken notification channel must not disturb
// the processing pipeline.
func (s *TelegramSink) PublishAlert(alert models.Alert) {
	msg := tgbotapi.NewMessage(s.chatID, formatAlert(alert))
	msg.ParseMode = "MarkdownV2" // Use MarkdownV2 for better escaping support

	var lastErr error
	for i := 0; i < s.maxRetries; i++ {
		if _, err := s.bot.Send(msg); err == nil {
			return
		} else {
			lastErr = err
		}
		time.Sleep(s.retryDelayBase * time.Duration(i+1))
	}

	s.log.Error("failed to send Telegram alert",
		zap.String("alert_id", alert.ID),
		zap.Int("retries", s.maxRetries),
		zap.Error(lastErr))
}

// formatAlert renders an alert as a Telegram MarkdownV2 message.
func formatAlert(alert models.Alert) string {
	message := "🚨 *Volatility Alert*\n\n"

	dateStr := escapeMarkdownV2(alert.DetectedAt.Format("2006-01-02 15:04:05"))
	message += fmt.Sprintf("📅 Detected: %s\n", dateStr)
	message += fmt.Sprintf("🎯 Asset: `%s`\n\n", escapeMarkdownV2(shortAssetID(alert.AssetID)))

	if ps := alert.PriceSpike; ps != nil {
		directionEmoji := "📈"
		if ps.Direction == models.DirectionDown {
			directionEmoji = "📉"
		}
		changeStr := escapeMarkdownV2(fmt.Sprintf("%.2f%%", ps.RelChange*100))
		message += fmt.Sprintf("%s Price spike %s: *%s*\n", directionEmoji, ps.Direction, changeStr)
	}
	if vs := alert.VolumeSpike; vs != nil {
		ratioStr := escapeMarkdownV2(fmt.Sprintf("%.1fx", vs.Ratio))
		message += fmt.Sprintf("📊 Volume spike: *%s* baseline\n", ratioStr)
	}

	priceStr := escapeMarkdownV2(fmt.Sprintf("%.4f", alert.Trade.Price))
	sizeStr := escapeMarkdownV2(fmt.Sprintf("%.2f", alert.Trade.Size))
	message += fmt.Sprintf("\nTrade: %s %s @ %s\n", string(alert.Trade.Side), sizeStr, priceStr)

	return message
}

// shortAssetID truncates long CLOB token IDs for readability.
func shortAssetID(id string) string {
	if len(id) > 20 {
		return id[:20] + "..."
	}
	return id
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2
func escapeMarkdownV2(text string) string {
	result := ""
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			result += "\\" + string(char)
		default:
			result += string(char)
		}
	}
	return result
}
