package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AlertColor is the embed color used for price alerts.
const AlertColor = 0xFF5733

// Discord posts alerts to a Discord webhook as a single embed. An empty
// webhook URL makes the sink a no-op, not an error.
type Discord struct {
	WebhookURL string
	Color      int
	HTTP       *http.Client
}

// NewDiscord creates a Discord sink for the given webhook URL.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		WebhookURL: webhookURL,
		Color:      AlertColor,
		HTTP:       &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *Discord) Name() string { return "discord" }

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
}

type discordPayload struct {
	Embeds []discordEmbed `json:"embeds"`
}

func (d *Discord) Send(title, message string) error {
	if d.WebhookURL == "" {
		return nil
	}
	color := d.Color
	if color == 0 {
		color = AlertColor
	}
	payload, err := json.Marshal(discordPayload{
		Embeds: []discordEmbed{{Title: title, Description: message, Color: color}},
	})
	if err != nil {
		return err
	}

	httpClient := d.HTTP
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := httpClient.Post(d.WebhookURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	// Discord returns 204 on success; accept any 2xx.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("discord webhook: HTTP %d", resp.StatusCode)
	}
	return nil
}
