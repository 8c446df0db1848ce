package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dumitrugolubov/dubai-estate-ai/pkg/config"
)

// ValidateWebhookURL checks a Slack or Teams incoming webhook URL.
func ValidateWebhookURL(u string) error {
	if u == "" {
		return fmt.Errorf("webhook URL is required")
	}
	if !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("webhook URL must use HTTPS")
	}
	return nil
}

// postWebhook posts a JSON payload and expects any 2xx response.
func postWebhook(ctx context.Context, client *http.Client, service, url string, payload any) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", config.UserAgent())

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s API error: status %d, body: %s", service, resp.StatusCode, string(body))
	}
	return nil
}
