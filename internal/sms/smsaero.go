package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL адрес API SMS Aero v2.
	DefaultBaseURL = "https://gate.smsaero.ru/v2"
	// DefaultSign подпись отправителя по умолчанию.
	DefaultSign = "SMS Aero"
)

// Client клиент SMS Aero. Номер передаётся только цифрами, без «+».
type Client struct {
	email      string
	apiKey     string
	sign       string
	baseURL    string
	httpClient *http.Client
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт HTTP клиент, например с другим таймаутом.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL меняет адрес API. Пустая строка оставляет адрес по умолчанию.
func WithBaseURL(u string) Option {
	return func(cl *Client) {
		if u != "" {
			cl.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithSign задаёт подпись отправителя. Пустая строка оставляет DefaultSign.
func WithSign(sign string) Option {
	return func(cl *Client) {
		if sign != "" {
			cl.sign = sign
		}
	}
}

// NewClient создаёт клиент с учётными данными аккаунта SMS Aero.
func NewClient(email, apiKey string, opts ...Option) *Client {
	c := &Client{
		email:      email,
		apiKey:     apiKey,
		sign:       DefaultSign,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured сообщает, заданы ли учётные данные.
func (c *Client) Configured() bool {
	return c.email != "" && c.apiKey != ""
}

type sendResponse struct {
	Success bool            `json:"success"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Send отправляет SMS. Ошибки провайдера возвращаются как *ProviderError,
// отказ в авторизации как ErrUnauthorized.
func (c *Client) Send(ctx context.Context, phone, text string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	params := url.Values{}
	params.Set("number", phone)
	params.Set("text", text)
	params.Set("sign", c.sign)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sms/send?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("sms: create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sms: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return fmt.Errorf("sms: read response: %w", err)
	}

	var parsed sendResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &ProviderError{Status: resp.StatusCode, Message: fmt.Sprintf("некорректный ответ провайдера: %s", truncate(string(body), 200))}
	}

	if !parsed.Success || resp.StatusCode >= 400 {
		msg := ""
		if parsed.Message != nil {
			msg = *parsed.Message
		}
		if isAuthMessage(msg) {
			return ErrUnauthorized
		}
		return &ProviderError{Status: resp.StatusCode, Message: msg}
	}

	return nil
}

func isAuthMessage(msg string) bool {
	words := messageWords(msg)
	return hasWord(words, "auth", "unauthorized", "authorization", "authentication", "unauthenticated") ||
		hasStem(words, "авторизац")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
