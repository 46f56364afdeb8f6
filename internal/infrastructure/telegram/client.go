package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/intake-api/internal/config"
	"github.com/intake-api/internal/domain"
)

// Update is one entry from the Bot API update stream. Only the fields the
// binding resolver needs are mapped.
type Update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *Message `json:"message"`
	EditedMessage *Message `json:"edited_message"`
}

// Msg returns whichever of message/edited_message is present.
func (u *Update) Msg() *Message {
	if u.Message != nil {
		return u.Message
	}
	return u.EditedMessage
}

type Message struct {
	From *User  `json:"from"`
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type Chat struct {
	ID int64 `json:"id"`
}

// API is the outbound surface of the Bot API the application depends on.
type API interface {
	SendMessage(ctx context.Context, chatID, text string) error
	GetUpdates(ctx context.Context, limit int) ([]Update, error)
}

// Client talks to the Telegram Bot API over HTTP. Every call is bounded by
// the caller's context plus a hard per-request timeout.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL: cfg.TelegramAPIURL,
		token:   cfg.TelegramBotToken,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// apiResponse is the Bot API envelope: ok=false carries a description.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage pushes a Markdown-formatted message to a chat.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	body, err := json.Marshal(map[string]string{
		"chat_id":    chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	var out apiResponse
	if err := c.do(req, &out); err != nil {
		return err
	}
	if !out.OK {
		return fmt.Errorf("telegram sendMessage: %s: %w", out.Description, domain.ErrUnavailable)
	}
	return nil
}

// GetUpdates pulls the most recent updates from the bot's queue. Used only
// as the fallback path when no chat binding has been captured yet.
func (c *Client) GetUpdates(ctx context.Context, limit int) ([]Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/bot%s/getUpdates?limit=%d", c.baseURL, c.token, limit), nil)
	if err != nil {
		return nil, err
	}

	var out apiResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, fmt.Errorf("telegram getUpdates: %s: %w", out.Description, domain.ErrUnavailable)
	}
	var updates []Update
	if err := json.Unmarshal(out.Result, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", domain.ErrUnavailable)
	}
	return updates, nil
}

// do executes the request and decodes the Bot API envelope. Transport-level
// failures (timeouts, connection errors) are ErrUnavailable: the provider
// could not be reached, which is never the same as "not found".
func (c *Client) do(req *http.Request, out *apiResponse) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request: %v: %w", err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("telegram response: %v: %w", err, domain.ErrUnavailable)
	}
	return nil
}
