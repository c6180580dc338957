// Package connector posts reply activities back to the Bot Framework
// connector service.
package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"evidenze-chat/cmd/bot/activity"
	"evidenze-chat/credential"
	"evidenze-chat/internal/httpclient"
)

// Client sends activities to the service URL announced by each inbound
// activity. A nil credential provider means local/emulator mode: requests go
// out without an Authorization header.
type Client struct {
	httpClient *http.Client
	provider   credential.Provider
}

func New(provider credential.Provider) *Client {
	return &Client{
		httpClient: httpclient.New(httpclient.Config{Timeout: 30 * time.Second}),
		provider:   provider,
	}
}

// HTTPError reports a non-2xx answer from the connector.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("connector request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// SendActivity posts the reply into its conversation on the given service URL.
func (c *Client) SendActivity(ctx context.Context, serviceURL string, act activity.Activity) error {
	endpoint, err := buildActivityURL(serviceURL, act.Conversation.ID, act.ReplyToID)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(act)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Teams-Bot/1.0")

	if c.provider != nil {
		cred, err := c.provider.Acquire(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+cred.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func buildActivityURL(serviceURL, conversationID, replyToID string) (string, error) {
	base, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid service url %q: %w", serviceURL, err)
	}
	rel := fmt.Sprintf("v3/conversations/%s/activities", url.PathEscape(conversationID))
	if replyToID != "" {
		rel += "/" + url.PathEscape(replyToID)
	}
	joined, err := base.Parse(rel)
	if err != nil {
		return "", err
	}
	return joined.String(), nil
}
