package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dumitrugolubov/dubai-estate-ai/internal/models"
	"github.com/dumitrugolubov/dubai-estate-ai/pkg/config"
)

const (
	// Telegram Bot API limits, in characters.
	telegramCaptionLimit = 1024
	telegramMessageLimit = 4096

	defaultTelegramAPI = "https://api.telegram.org"
)

// TelegramConfig holds Telegram Bot API configuration.
type TelegramConfig struct {
	BotToken string
	APIBase  string // default https://api.telegram.org
}

// Validate validates the Telegram configuration.
func (c *TelegramConfig) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("bot token is required")
	}
	if c.APIBase == "" {
		c.APIBase = defaultTelegramAPI
	}
	return nil
}

// TelegramPublisher posts to Telegram channels through a bot. The channel's
// Target is the chat id or @username.
type TelegramPublisher struct {
	config     TelegramConfig
	httpClient *http.Client
}

// NewTelegramPublisher creates a Telegram publisher.
func NewTelegramPublisher(config TelegramConfig) (*TelegramPublisher, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telegram config: %w", err)
	}
	return &TelegramPublisher{
		config:     config,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// Name returns "telegram".
func (t *TelegramPublisher) Name() string {
	return string(models.ChannelTelegram)
}

// Publish sends the render with the description as its caption. Text that
// does not fit the caption follows as a separate message.
func (t *TelegramPublisher) Publish(ctx context.Context, channel models.Channel, post Post) error {
	chatID := channel.Target
	if chatID == "" {
		chatID = channel.ID
	}

	full := joinNonEmpty("\n\n", post.Title, post.Text)
	caption, rest := full, ""
	if len([]rune(full)) > telegramCaptionLimit {
		caption = truncate(post.Title, telegramCaptionLimit)
		rest = post.Text
	}

	if post.Image == "" {
		return t.sendMessage(ctx, chatID, full)
	}
	if err := t.sendImage(ctx, chatID, post.Image, caption); err != nil {
		return err
	}
	if rest != "" {
		if err := t.sendMessage(ctx, chatID, rest); err != nil {
			return fmt.Errorf("%w: %w", ErrPartialDelivery, err)
		}
	}
	return nil
}

// Close is a no-op for the Telegram publisher.
func (t *TelegramPublisher) Close() error {
	return nil
}

type telegramPhoto struct {
	ChatID  string `json:"chat_id"`
	Photo   string `json:"photo"`
	Caption string `json:"caption,omitempty"`
}

type telegramMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

func (t *TelegramPublisher) sendImage(ctx context.Context, chatID string, image models.ImageRef, caption string) error {
	if !isDataURL(image) {
		return t.call(ctx, "sendPhoto", telegramPhoto{ChatID: chatID, Photo: string(image), Caption: caption})
	}

	img, err := decodeDataURL(image)
	if err != nil {
		return err
	}
	// Telegram renders raster photos only; vector placeholders go as documents.
	method, field := "sendPhoto", "photo"
	if img.MIME == "image/svg+xml" {
		method, field = "sendDocument", "document"
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	w.WriteField("chat_id", chatID)
	if caption != "" {
		w.WriteField("caption", caption)
	}
	part, err := w.CreateFormFile(field, img.filename())
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return fmt.Errorf("failed to write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	return t.do(ctx, method, w.FormDataContentType(), &body)
}

func (t *TelegramPublisher) sendMessage(ctx context.Context, chatID, text string) error {
	return t.call(ctx, "sendMessage", telegramMessage{ChatID: chatID, Text: truncate(text, telegramMessageLimit)})
}

func (t *TelegramPublisher) call(ctx context.Context, method string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	return t.do(ctx, method, "application/json", bytes.NewReader(jsonData))
}

func (t *TelegramPublisher) do(ctx context.Context, method, contentType string, body io.Reader) error {
	endpoint := fmt.Sprintf("%s/bot%s/%s", strings.TrimSuffix(t.config.APIBase, "/"), t.config.BotToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", config.UserAgent())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// The URL embeds the bot token; keep the cause without it.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}
	defer resp.Body.Close()

	var result telegramResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err := json.Unmarshal(raw, &result); err != nil {
		return fmt.Errorf("telegram API error: status %d, body: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	if !result.OK || resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: %s: status %d: %s", method, resp.StatusCode, result.Description)
	}
	return nil
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
