package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"routedesk/pkg/config"
)

// HTTPMailer posts JSON to a transactional mail API authenticated with a bearer key.
type HTTPMailer struct {
	url        string
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewHTTPMailer(cfg config.MailConfig) *HTTPMailer {
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return &HTTPMailer{
		url:    cfg.APIURL,
		apiKey: cfg.APIKey,
		from:   cfg.FromAddress,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *HTTPMailer) Send(ctx context.Context, e Email) error {
	b, err := json.Marshal(sendRequest{
		From:    formatFrom(e.FromName, m.from),
		To:      []string{e.To},
		Subject: e.Subject,
		Text:    e.Body,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("mail api returned %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}
