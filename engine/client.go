// Package engine is the HTTP client for the external training service that
// fine-tunes an Echo from a user's processed messages. The engine runs out of
// process; this client only forwards requests and reports outcomes.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	client  *http.Client
}

// TrainResult mirrors the engine's training response.
type TrainResult struct {
	SessionID         string             `json:"sessionId"`
	MessagesProcessed int                `json:"messagesProcessed"`
	PersonalityTraits map[string]float64 `json:"personalityTraits"`
}

type trainRequest struct {
	UserID string `json:"userId"`
}

type trainResponse struct {
	Success           bool               `json:"success"`
	SessionID         string             `json:"sessionId"`
	MessagesProcessed int                `json:"messagesProcessed"`
	PersonalityTraits map[string]float64 `json:"personalityTraits"`
	Error             string             `json:"error"`
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// Train asks the engine to retrain the user's Echo over their stored
// messages. Training is synchronous from the caller's point of view; the
// engine decides how much work a session involves.
func (c *Client) Train(ctx context.Context, userID string) (TrainResult, error) {
	if userID == "" {
		return TrainResult{}, fmt.Errorf("user id cannot be empty")
	}

	body, err := json.Marshal(trainRequest{UserID: userID})
	if err != nil {
		return TrainResult{}, fmt.Errorf("marshal train request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/train", bytes.NewReader(body))
	if err != nil {
		return TrainResult{}, fmt.Errorf("create train request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return TrainResult{}, fmt.Errorf("call training engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return TrainResult{}, fmt.Errorf("read training engine error body: %w", readErr)
		}
		if len(data) > 0 {
			return TrainResult{}, fmt.Errorf("training engine error: %s", string(data))
		}
		return TrainResult{}, fmt.Errorf("training engine returned status %s", resp.Status)
	}

	var parsed trainResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return TrainResult{}, fmt.Errorf("decode training engine response: %w", err)
	}
	if !parsed.Success {
		if parsed.Error != "" {
			return TrainResult{}, fmt.Errorf("training failed: %s", parsed.Error)
		}
		return TrainResult{}, fmt.Errorf("training failed")
	}

	return TrainResult{
		SessionID:         parsed.SessionID,
		MessagesProcessed: parsed.MessagesProcessed,
		PersonalityTraits: parsed.PersonalityTraits,
	}, nil
}

// Health reports whether the engine is reachable.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call training engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("training engine returned status %s", resp.Status)
	}
	return nil
}
