package push

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FCMGateway delivers notifications through the FCM legacy HTTP API.
type FCMGateway struct {
	apiURL    string
	serverKey string
	client    *http.Client
}

// FCMConfig holds configuration for the FCM gateway
type FCMConfig struct {
	APIURL    string
	ServerKey string
}

// NewFCMGateway creates a new FCM gateway client
func NewFCMGateway(config FCMConfig) *FCMGateway {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = "https://fcm.googleapis.com/fcm/send"
	}

	return &FCMGateway{
		apiURL:    apiURL,
		serverKey: config.ServerKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// fcmNotification is the notification payload section
type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// fcmRequest represents the send request structure
type fcmRequest struct {
	To           string          `json:"to"`
	Notification fcmNotification `json:"notification"`
	Priority     string          `json:"priority"`
}

// fcmResponse represents the send response structure
type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Send delivers a notification to one device token.
func (g *FCMGateway) Send(token, title, body string) (string, error) {
	if g.serverKey == "" {
		return "", fmt.Errorf("fcm server key is not configured")
	}

	payload := fcmRequest{
		To: token,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
		},
		Priority: "high",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, g.apiURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.serverKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read push response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("push provider returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed fcmResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse push response: %w", err)
	}

	if parsed.Failure > 0 || len(parsed.Results) == 0 {
		reason := "unknown"
		if len(parsed.Results) > 0 && parsed.Results[0].Error != "" {
			reason = parsed.Results[0].Error
		}
		return "", fmt.Errorf("push delivery failed: %s", reason)
	}

	return parsed.Results[0].MessageID, nil
}

// GetName returns the gateway name
func (g *FCMGateway) GetName() string {
	return "fcm"
}
