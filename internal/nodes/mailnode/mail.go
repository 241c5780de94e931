// Package mailnode contributes the outbound transactional-email node.
package mailnode

import (
	"context"
	"fmt"

	"engine/internal/flow"
	"engine/internal/mail"
	"engine/internal/schema"
)

// Mailer is the delivery collaborator the node delegates to. The API key
// comes from the node's own secret slot, resolved per invocation.
type Mailer interface {
	Send(ctx context.Context, apiKey string, msg mail.Message) error
}

// apiKeySecret is owned by this integration and referenced by slot name
// from every node here that needs it.
var apiKeySecret = &flow.SecretDescriptor{
	Name:        "brevoApiKey",
	Title:       "Brevo API key",
	Description: "Transactional email API key used by the send email node",
	Schema: &schema.Field{
		Kind:     schema.KindString,
		Required: true,
		Widget:   schema.WidgetPassword,
	},
}

func Package(mailer Mailer) flow.Package {
	return flow.Package{
		Name:    "email",
		Secrets: []*flow.SecretDescriptor{apiKeySecret},
		Nodes:   []*flow.Definition{sendDefinition(mailer)},
	}
}

func sendDefinition(mailer Mailer) *flow.Definition {
	return &flow.Definition{
		Name:        "sendEmail",
		Title:       "Send Email",
		Description: "Sends a transactional email through the configured delivery provider",
		Icon:        "mail",
		NodeType:    flow.NodeTypeAction,
		Category:    "Email",
		Properties: schema.Object(
			schema.N("from", &schema.Field{Kind: schema.KindString, Title: "From", Required: true, Format: schema.FormatEmail}),
			schema.N("to", &schema.Field{Kind: schema.KindString, Title: "To", Required: true, Format: schema.FormatEmail}),
			schema.N("subject", &schema.Field{Kind: schema.KindString, Title: "Subject", Required: true}),
			schema.N("body", &schema.Field{Kind: schema.KindString, Title: "Body", Required: true, Widget: schema.WidgetTextarea}),
			schema.N("isHtml", &schema.Field{Kind: schema.KindBoolean, Title: "HTML body", Default: false}),
		),
		Result: schema.Object(
			schema.N("success", &schema.Field{Kind: schema.KindBoolean, Required: true}),
			schema.N("message", &schema.Field{Kind: schema.KindString, Required: true}),
		),
		Secrets: map[string]*flow.SecretDescriptor{
			"apiKey": apiKeySecret,
		},
		Execute: func(ctx context.Context, inv *flow.Invocation) (map[string]any, error) {
			return execute(ctx, mailer, inv)
		},
	}
}

func execute(ctx context.Context, mailer Mailer, inv *flow.Invocation) (map[string]any, error) {
	apiKey, _ := inv.Secrets["apiKey"].(string)
	isHTML, _ := inv.Properties["isHtml"].(bool)

	msg := mail.Message{
		From:    inv.Properties["from"].(string),
		To:      inv.Properties["to"].(string),
		Subject: inv.Properties["subject"].(string),
		Body:    inv.Properties["body"].(string),
		IsHTML:  isHTML,
	}

	// Delivery failure is reported through the success flag; retries are a
	// workflow-level concern.
	if err := mailer.Send(ctx, apiKey, msg); err != nil {
		return map[string]any{
			"success": false,
			"message": err.Error(),
		}, nil
	}

	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("email sent to %s", msg.To),
	}, nil
}
