// Package mail is the outbound email-delivery collaborator consumed by the
// email node. Delivery goes through pluggable providers tried in priority
// order; retry policy is a workflow-level concern and deliberately absent
// here.
package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

// Provider is one delivery backend.
type Provider interface {
	Name() string
	Configured() bool
	Send(ctx context.Context, msg Message) error
}

// Service fans a message out to the first configured provider that accepts
// it. The per-node API key, when present, takes precedence over any key
// from process configuration.
type Service struct {
	logger    zerolog.Logger
	providers []Provider
}

func NewService(logger zerolog.Logger, providers ...Provider) *Service {
	return &Service{logger: logger, providers: providers}
}

func (s *Service) Send(ctx context.Context, apiKey string, msg Message) error {
	providers := s.providers
	if apiKey != "" {
		providers = append([]Provider{NewBrevoProvider(apiKey)}, providers...)
	}

	var errs []string
	for _, p := range providers {
		if !p.Configured() {
			errs = append(errs, fmt.Sprintf("%s: skipped (not configured)", p.Name()))
			continue
		}
		if err := p.Send(ctx, msg); err != nil {
			s.logger.Warn().Str("provider", p.Name()).Err(err).Msg("Email provider failed")
			errs = append(errs, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		s.logger.Info().Str("provider", p.Name()).Str("to", msg.To).Str("subject", msg.Subject).Msg("Email sent")
		return nil
	}

	if len(errs) == 0 {
		return fmt.Errorf("no email provider available")
	}
	return fmt.Errorf("all email providers failed: %s", strings.Join(errs, " | "))
}
