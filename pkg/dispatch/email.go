package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/agentops/pdpguard/pkg/spec"
)

// EmailDispatcher delivers alerts as email by rendering the message to a
// configured webhook bridge (an automation endpoint that owns the SMTP
// leg). The bridge URL is environment-scoped configuration; the action
// only names the recipient and an optional subject.
type EmailDispatcher struct {
	bridgeURL string
	client    *http.Client
}

// NewEmailDispatcher creates a dispatcher for email actions.
func NewEmailDispatcher(bridgeURL string) *EmailDispatcher {
	return &EmailDispatcher{
		bridgeURL: bridgeURL,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *EmailDispatcher) Type() string { return spec.ActionEmail }

// emailMessage is the bridge wire format.
type emailMessage struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

// Send posts the rendered message to the bridge. The subject defaults to
// the run outcome when the action names none.
func (d *EmailDispatcher) Send(ctx context.Context, action spec.Action, payload Payload) error {
	if d.bridgeURL == "" {
		return fmt.Errorf("email: no bridge URL configured")
	}

	p := applyTemplate(action, payload)
	msg := emailMessage{
		To:      action.To,
		Subject: action.Subject,
		Text:    p.AlertText(),
	}
	if msg.Subject == "" {
		msg.Subject = emailSubject(p)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("email: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.bridgeURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("email: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("email: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return fmt.Errorf("email: bridge status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// emailSubject summarizes the run outcome for the subject line.
func emailSubject(p Payload) string {
	name := p.SpecName
	if name == "" {
		name = "PDP Guard"
	}
	if p.Summary.Failed > 0 {
		return fmt.Sprintf("%s: %d/%d targets failed", name, p.Summary.Failed, p.Summary.Total)
	}
	return fmt.Sprintf("%s: all %d targets passed", name, p.Summary.Total)
}
