package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
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

// Sender sends the account emails. A nil Sender means nothing is mailed.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
	SendPasswordReset(ctx context.Context, toEmail, code string) error
}

// BrevoClient sends emails through the Brevo transactional API. Without an
// APIKey every send is a no-op.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	SiteURL  string // links in mails point here
	Endpoint string // overrides the Brevo URL, for tests
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@property-portal.local"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) send(ctx context.Context, toEmail, name, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoSender{Email: c.from(), Name: siteName},
		To:          []BrevoTo{{Email: toEmail, Name: name}},
		Subject:     subject,
		HTMLContent: html,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

// SendWelcome greets a newly registered account.
func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, name string) error {
	if name == "" {
		name = "there"
	}
	return c.send(ctx, toEmail, name, "Welcome to "+siteName, EmailLayout(welcomeContent(name, c.siteURL())))
}

// SendPasswordReset mails the reset code with a link back to the site.
func (c *BrevoClient) SendPasswordReset(ctx context.Context, toEmail, code string) error {
	link := c.siteURL() + "/reset-password?code=" + url.QueryEscape(code)
	return c.send(ctx, toEmail, "", "Reset your "+siteName+" password", EmailLayout(resetContent(code, link)))
}

func (c *BrevoClient) siteURL() string {
	if c.SiteURL == "" {
		return "http://localhost:5173"
	}
	return strings.TrimRight(c.SiteURL, "/")
}

func welcomeContent(name, siteURL string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s!</h1>
    <p>Your <strong>%s</strong> account is ready. Browse featured homes, search by city or state, and list your own property.</p>
    <center>
      <a href="%s/properties" class="portal-button">Browse properties</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, you can ignore this email.
    </p>
`, EscapeHTML(name), siteName, siteURL)
}

func resetContent(code, link string) string {
	return fmt.Sprintf(`
    <h1>Reset your password</h1>
    <p>We received a request to reset the password for your account. The link below is valid for one hour.</p>
    <center>
      <a href="%s" class="portal-button">Choose a new password</a>
    </center>
    <p style="font-size: 14px; color: #666;">Or enter this code on the reset page: <strong>%s</strong></p>
    <p style="font-size: 14px; color: #666;">If you did not ask for a reset, no action is needed.</p>
`, EscapeHTML(link), EscapeHTML(code))
}
