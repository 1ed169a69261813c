package alerts

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// deliver sends webhook notifications for a to all configured targets.
// Errors are logged but do not affect the caller.
func (e *Engine) deliver(a *Alert) {
	for _, wh := range e.webhooks {
		url := wh.URL()
		if url == "" {
			continue
		}

		payload, err := buildPayload(wh.Type, a)
		if err != nil {
			slog.Warn("alerts: unknown webhook type, skipping", "type", wh.Type)
			continue
		}

		if err := e.post(url, payload); err != nil {
			slog.Error("alerts: webhook delivery failed",
				"type", wh.Type,
				"rule", a.RuleName,
				"err", err,
			)
		} else {
			slog.Debug("alerts: webhook delivered",
				"type", wh.Type,
				"rule", a.RuleName,
				"state", a.State,
			)
		}
	}
}

// buildPayload renders the alert for one webhook flavor.
func buildPayload(kind string, a *Alert) ([]byte, error) {
	switch kind {
	case "slack":
		return json.Marshal(map[string]string{"text": slackText(a)})
	case "teams":
		return json.Marshal(teamsCard(a))
	case "http":
		// Generic targets get the alert record itself.
		return json.Marshal(a)
	default:
		return nil, fmt.Errorf("unknown webhook type %q", kind)
	}
}

// slackText is a one-line summary: severity, rule, group, and either the
// triggering value or the resolution.
func slackText(a *Alert) string {
	if a.State == "resolved" {
		return fmt.Sprintf("%s resolved: %s on sensor group %s",
			severityLabel(a.Severity), a.RuleName, a.Group)
	}
	return fmt.Sprintf("%s %s on sensor group %s (value %.2f)",
		severityLabel(a.Severity), a.RuleName, a.Group, a.Value)
}

// teamsCard renders a MessageCard with the alert fields as facts.
func teamsCard(a *Alert) map[string]interface{} {
	facts := []map[string]string{
		{"name": "Group", "value": a.Group},
		{"name": "Severity", "value": a.Severity},
		{"name": "Value", "value": fmt.Sprintf("%.2f", a.Value)},
		{"name": "Fired at", "value": a.FiredAt.UTC().Format(time.RFC3339)},
	}
	if a.ResolvedAt != nil {
		facts = append(facts, map[string]string{
			"name": "Resolved at", "value": a.ResolvedAt.UTC().Format(time.RFC3339),
		})
	}
	return map[string]interface{}{
		"@type":      "MessageCard",
		"@context":   "http://schema.org/extensions",
		"themeColor": severityColor(a.Severity),
		"summary":    a.RuleName,
		"title":      fmt.Sprintf("PlantPulse alert %s: %s", a.State, a.RuleName),
		"text":       a.Message,
		"sections":   []map[string]interface{}{{"facts": facts}},
	}
}

func (e *Engine) post(url string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("http post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned HTTP %d", resp.StatusCode)
	}
	return nil
}

func severityLabel(s string) string {
	switch s {
	case "critical":
		return "[CRITICAL]"
	case "warning":
		return "[WARNING]"
	default:
		return "[INFO]"
	}
}

func severityColor(s string) string {
	switch s {
	case "critical":
		return "FF4F6A"
	case "warning":
		return "FFAB40"
	default:
		return "00D4FF"
	}
}
