package emailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Nazarious-ucu/newsletter-api/internal/models"
)

const (
	sendPath    = "email"
	tokenHeader = "X-Postmark-Server-Token"
)

// Client sends email through a Postmark-compatible HTTP API.
type Client struct {
	http     *http.Client
	endpoint string
	sender   models.SubscriberEmail
	token    string
}

type sendEmailRequest struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"` //nolint:revive,stylecheck
	TextBody string `json:"TextBody"`
}

func NewClient(baseURL string, sender models.SubscriberEmail, token string, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse email client base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("email client base url %q must be absolute", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		http:     httpClient,
		endpoint: base.JoinPath(sendPath).String(),
		sender:   sender,
		token:    token,
	}, nil
}

func (c *Client) SendEmail(
	ctx context.Context,
	recipient models.SubscriberEmail,
	subject, htmlContent, textContent string,
) error {
	payload, err := json.Marshal(sendEmailRequest{
		From:     c.sender.String(),
		To:       recipient.String(),
		Subject:  subject,
		HtmlBody: htmlContent,
		TextBody: textContent,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(tokenHeader, c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("send email: provider responded %d", resp.StatusCode)
	}

	return nil
}
