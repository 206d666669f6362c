package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/EZ-CORE/EZ-GEN/internal/config"
)

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]interface{}
}

var fcmClient = &http.Client{Timeout: 20 * time.Second}

// SendPushToTokens relays a notification to a set of device tokens through
// the FCM legacy HTTP API. With no FCM_SERVER_KEY configured it no-ops, so
// installs without push still work.
func SendPushToTokens(ctx context.Context, tokens []string, msg PushMessage) error {
	if config.Current.FCMServerKey == "" || len(tokens) == 0 {
		return nil
	}
	payload := map[string]interface{}{
		"registration_ids": tokens,
		"notification": map[string]interface{}{
			"title": msg.Title,
			"body":  msg.Body,
		},
	}
	if len(msg.Data) > 0 {
		payload["data"] = msg.Data
	}
	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://fcm.googleapis.com/fcm/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+config.Current.FCMServerKey)
	resp, err := fcmClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("fcm responded %s", resp.Status)
	}
	return nil
}
