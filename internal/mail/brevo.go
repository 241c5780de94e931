package mail

import (
	"context"
	"fmt"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoProvider delivers through the Brevo transactional email API.
type BrevoProvider struct {
	apiKey string
}

func NewBrevoProvider(apiKey string) *BrevoProvider {
	return &BrevoProvider{apiKey: apiKey}
}

func (p *BrevoProvider) Name() string { return "brevo" }

func (p *BrevoProvider) Configured() bool { return p.apiKey != "" }

func (p *BrevoProvider) Send(ctx context.Context, msg Message) error {
	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", p.apiKey)
	client := brevo.NewAPIClient(cfg)

	email := brevo.SendSmtpEmail{
		Sender:  &brevo.SendSmtpEmailSender{Email: msg.From},
		To:      []brevo.SendSmtpEmailTo{{Email: msg.To}},
		Subject: msg.Subject,
	}
	if msg.IsHTML {
		email.HtmlContent = msg.Body
	} else {
		email.TextContent = msg.Body
	}

	_, resp, err := client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("brevo send failed: %w", err)
	}
	if resp != nil && resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed with status %d", resp.StatusCode)
	}
	return nil
}
