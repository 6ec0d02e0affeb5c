package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"savanna-backend/internal/domain"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoSender `json:"sender"`
	To          []BrevoTo   `json:"to"`
	Subject     string      `json:"subject"`
	HTMLContent string      `json:"htmlContent"`
}

type BrevoSender struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type BrevoTo struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// BrevoClient sends the operator a transactional email via Brevo
// (Sendinblue) when a new lead lands. Empty APIKey or NotifyTo = no-op,
// so the contact form works without email configured.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	NotifyTo string
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@savannahomes.com"
}

// SendNewLead emails the operator a summary of a fresh contact-form lead.
func (c *BrevoClient) SendNewLead(ctx context.Context, lead *domain.Lead) error {
	if c.APIKey == "" || c.NotifyTo == "" {
		return nil
	}
	subject := fmt.Sprintf("New lead: %s", lead.Name)
	if lead.ListingTitle != nil {
		subject = fmt.Sprintf("New lead: %s (%s)", lead.Name, *lead.ListingTitle)
	}
	return c.send(ctx, c.NotifyTo, subject, NewLeadHTML(lead))
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: "Savanna Homes"},
		To:          []BrevoTo{{Email: toEmail}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPI, bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("brevo request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo error: status %d body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
