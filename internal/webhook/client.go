package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	messagePrefix   = "⏰ Reminder: "
	fallbackErrMsg  = "Failed to send message"
	maxResponseBody = 64 << 10

	DefaultTimeout = 10 * time.Second
)

// DeliveryError is any reason a message did not reach the chat webhook.
// Code carries the remote errcode when the webhook answered with one.
type DeliveryError struct {
	Code   int
	Reason string
	Err    error
}

func (e *DeliveryError) Error() string {
	return e.Reason
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

type textPayload struct {
	MsgType string      `json:"msgtype"`
	Text    textContent `json:"text"`
}

type textContent struct {
	Content string `json:"content"`
}

type webhookResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

type Client struct {
	httpClient *http.Client
}

// NewClient returns a client whose every request is bounded by timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FormatMessage renders the text body of a reminder notification.
func FormatMessage(title string, content *string) string {
	if content != nil && *content != "" {
		return messagePrefix + title + "\n" + *content
	}
	return messagePrefix + title
}

// Deliver makes exactly one attempt to post the reminder to url.
func (c *Client) Deliver(ctx context.Context, url, title string, content *string) error {
	body, err := json.Marshal(textPayload{
		MsgType: "text",
		Text:    textContent{Content: FormatMessage(title, content)},
	})
	if err != nil {
		return &DeliveryError{Reason: "encode message: " + err.Error(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &DeliveryError{Reason: "build request: " + redact(err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &DeliveryError{Reason: "request failed: " + redact(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return &DeliveryError{Reason: "read response: " + err.Error(), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DeliveryError{Reason: fmt.Sprintf("unexpected http status %d", resp.StatusCode)}
	}

	var result webhookResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return &DeliveryError{Reason: "decode response: " + err.Error(), Err: err}
	}

	if result.ErrCode != 0 {
		reason := result.ErrMsg
		if reason == "" {
			reason = fallbackErrMsg
		}
		return &DeliveryError{Code: result.ErrCode, Reason: reason}
	}

	return nil
}

// redact drops the target URL from transport errors. Webhook URLs carry
// their access key in the query string.
func redact(err error) string {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Op + ": " + ue.Err.Error()
	}
	return err.Error()
}
