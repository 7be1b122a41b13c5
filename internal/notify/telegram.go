package notify

import (
	"bytes"         // Request body buffer
	"encoding/json" // JSON encoding
	"fmt"           // Message formatting
	"io"            // Response body reading
	"net/http"      // HTTP client
	"time"          // Client timeout
)

// TelegramSender delivers notifications to a chat via the Telegram Bot API
type TelegramSender struct {
	token  string       // Bot token
	chatID string       // Target chat ID
	client *http.Client // HTTP client with timeout
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
func NewTelegramSender(token, chatID string) *TelegramSender {
	return &TelegramSender{
		token:  token,
		chatID: chatID,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification to the configured chat using sendMessage
func (t *TelegramSender) Send(title, message string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)
	payload := map[string]string{
		"chat_id":    t.chatID,                                // Target chat
		"text":       fmt.Sprintf("*%s*\n%s", title, message), // Bold title, body below
		"parse_mode": "Markdown",                              // Telegram markdown
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}
	resp, err := t.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: send request: %w", err)
	}
	defer resp.Body.Close()
	// Anything outside 2xx is a delivery failure
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("telegram: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

// Name returns the sender identifier
func (t *TelegramSender) Name() string {
	return "telegram"
}
