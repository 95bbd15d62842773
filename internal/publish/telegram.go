package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/Wisionflow/algora/internal/httputil"
)

const telegramAPI = "https://api.telegram.org"

// Telegram posts to a channel through the Bot API.
type Telegram struct {
	token   string
	chatID  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

func NewTelegram(token, chatID string, client *http.Client, logger *slog.Logger) *Telegram {
	if client == nil {
		client = httputil.NewHTTPClientWithTimeout(nil, 15*time.Second)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Telegram{token: token, chatID: chatID, baseURL: telegramAPI, client: client, logger: logger}
}

// WithBaseURL points the publisher at another Bot API server.
func (t *Telegram) WithBaseURL(u string) *Telegram {
	t.baseURL = u
	return t
}

func (t *Telegram) Name() string { return "telegram" }

type tgResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Publish sends a photo with caption when the message has an image that
// fits; otherwise, or when the photo is rejected, a text message.
func (t *Telegram) Publish(ctx context.Context, msg Message) (string, error) {
	if t.token == "" || t.chatID == "" {
		return "", ErrNotConfigured
	}
	if msg.ImageURL != "" && utf8.RuneCountInString(msg.Text) <= CaptionLimit {
		id, err := t.call(ctx, "sendPhoto", map[string]any{
			"chat_id":    t.chatID,
			"photo":      msg.ImageURL,
			"caption":    msg.Text,
			"parse_mode": "HTML",
		})
		if err == nil {
			return id, nil
		}
		t.logger.Warn("sendPhoto failed, falling back to text", "err", err)
	}
	return t.call(ctx, "sendMessage", map[string]any{
		"chat_id":                  t.chatID,
		"text":                     msg.Text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	})
}

func (t *Telegram) call(ctx context.Context, method string, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header = httputil.JSONHeaders()

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram %s: %w", method, stripURL(err))
	}
	defer resp.Body.Close()
	raw, err := httputil.ReadBody(resp)
	if err != nil {
		return "", err
	}
	var out tgResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("telegram %s: decode: %w", method, err)
	}
	if !out.OK {
		return "", fmt.Errorf("telegram %s: %s", method, out.Description)
	}
	return strconv.FormatInt(out.Result.MessageID, 10), nil
}

// stripURL drops the request URL from transport errors; it carries the bot token.
func stripURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}
