// Package notify delivers formatted news items to a Telegram chat via
// the Bot API.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"newswatch/internal/collect"
)

const telegramAPIBaseURL = "https://api.telegram.org"

// Telegram sends one message per news item to a fixed chat.
type Telegram struct {
	botToken string
	chatID   string
	client   *http.Client
	baseURL  string
}

// NewTelegram registers the bot token and target chat.
func NewTelegram(botToken, chatID string, timeout time.Duration) *Telegram {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		client:   &http.Client{Timeout: timeout},
		baseURL:  telegramAPIBaseURL,
	}
}

// Send posts one item to the chat as an HTML message. keyword is the
// search keyword to emphasize in the title; empty means no emphasis.
// Failures are returned, never swallowed.
func (t *Telegram) Send(ctx context.Context, item collect.Item, keyword string) error {
	if t.botToken == "" || t.chatID == "" {
		return fmt.Errorf("telegram notifier misconfigured")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	form := url.Values{}
	form.Set("chat_id", t.chatID)
	form.Set("text", buildMessage(item, keyword))
	form.Set("parse_mode", "HTML")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}

	return nil
}
