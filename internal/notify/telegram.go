package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DeliveryResult is the outcome of a single send attempt. It is never
// persisted; callers log it and move on.
type DeliveryResult struct {
	OK     bool
	Reason string
}

// Sender delivers one text message to one channel recipient.
type Sender interface {
	Send(ctx context.Context, chatID, text string) DeliveryResult
}

// TelegramClient posts messages through the Telegram Bot API.
// All failure modes (bad config, network error, non-2xx) are folded into the
// DeliveryResult so a failed recipient never aborts the caller's loop.
type TelegramClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewTelegramClient(baseURL, token string, timeout time.Duration) *TelegramClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TelegramClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

type sendMessageReq struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Send performs exactly one outbound call. Retries are the caller's policy.
func (c *TelegramClient) Send(ctx context.Context, chatID, text string) DeliveryResult {
	if c.token == "" {
		// Fail closed: a missing credential degrades delivery, not the process.
		return DeliveryResult{Reason: "bot token not configured"}
	}
	if chatID == "" {
		return DeliveryResult{Reason: "empty chat id"}
	}
	if text == "" {
		return DeliveryResult{Reason: "empty message"}
	}

	body, err := json.Marshal(sendMessageReq{ChatID: chatID, Text: text})
	if err != nil {
		return DeliveryResult{Reason: "encode request: " + err.Error()}
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{Reason: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return DeliveryResult{Reason: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DeliveryResult{Reason: fmt.Sprintf("telegram responded %d", resp.StatusCode)}
	}
	return DeliveryResult{OK: true}
}
