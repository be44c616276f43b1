package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is a minimal Telegram Bot API client covering the methods this
// service needs: long polling, sending, and in-place caption edits.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// NewClient creates a new Bot API client
func NewClient(token string, timeout int) *Client {
	return &Client{
		apiBase: fmt.Sprintf("https://api.telegram.org/bot%s", token),
		httpClient: &http.Client{
			Timeout: time.Duration(timeout) * time.Second,
		},
	}
}

// GetUpdates long-polls for new updates starting at offset.
func (c *Client) GetUpdates(offset int64, timeoutSec int) ([]Update, error) {
	params := url.Values{}
	params.Set("offset", strconv.FormatInt(offset, 10))
	params.Set("timeout", strconv.Itoa(timeoutSec))
	params.Set("allowed_updates", `["message","channel_post","callback_query"]`)

	resp, err := c.httpClient.Get(c.apiBase + "/getUpdates?" + params.Encode())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("bad response: %w", err)
	}
	if !payload.OK {
		return nil, fmt.Errorf("telegram returned ok=false: %s", payload.Description)
	}

	var updates []Update
	if err := json.Unmarshal(payload.Result, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

// SendMessage sends a text message, optionally with an inline keyboard.
func (c *Client) SendMessage(chatID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call("sendMessage", payload)
}

// SendPhoto sends a photo by URL or file id with a caption.
func (c *Client) SendPhoto(chatID int64, photo, caption string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id": chatID,
		"photo":   photo,
		"caption": caption,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call("sendPhoto", payload)
}

// EditMessageCaption replaces the caption of an existing media message.
func (c *Client) EditMessageCaption(chatID, messageID int64, caption string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"caption":    caption,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call("editMessageCaption", payload)
}

// EditMessageText replaces the text of an existing message.
func (c *Client) EditMessageText(chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call("editMessageText", payload)
}

// DeleteMessage deletes a message the bot can manage.
func (c *Client) DeleteMessage(chatID, messageID int64) error {
	return c.call("deleteMessage", map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	})
}

// AnswerCallbackQuery acknowledges a callback button press.
func (c *Client) AnswerCallbackQuery(callbackID, text string, showAlert bool) error {
	return c.call("answerCallbackQuery", map[string]any{
		"callback_query_id": callbackID,
		"text":              text,
		"show_alert":        showAlert,
	})
}

// call posts a JSON payload to one Bot API method and checks the envelope.
func (c *Client) call(method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, c.apiBase+"/"+method, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d: %s", method, resp.StatusCode, string(respBody))
	}

	var parsed apiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fmt.Errorf("%s: bad response: %w", method, err)
	}
	if !parsed.OK {
		return fmt.Errorf("%s: telegram returned ok=false: %s", method, parsed.Description)
	}
	return nil
}
