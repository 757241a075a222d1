package newsletter

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/config"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// ErrEmptyCampaign rejects a send with no subject, body, or recipients.
var ErrEmptyCampaign = errors.New("campaign needs a subject, a body, and at least one recipient")

// Recipient is one newsletter target.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Campaign is one bulk send. The body supports {{name}} and {{email}}
// placeholders.
type Campaign struct {
	Subject    string      `json:"subject"`
	Body       string      `json:"body"`
	Recipients []Recipient `json:"recipients"`
}

// Report summarizes a finished campaign.
type Report struct {
	Sent    int      `json:"sent"`
	Failed  int      `json:"failed"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Service runs newsletter campaigns through a mail collaborator.
type Service struct {
	mailer       Mailer
	unsubscribes storage.UnsubscribeRepo
	cfg          config.MailConfig
	logger       *zap.Logger
}

// NewService creates a newsletter service.
func NewService(mailer Mailer, unsubscribes storage.UnsubscribeRepo, cfg config.MailConfig, logger *zap.Logger) *Service {
	return &Service{mailer: mailer, unsubscribes: unsubscribes, cfg: cfg, logger: logger}
}

// SendCampaign delivers a campaign to every unique, still-subscribed
// recipient, pacing sends with the configured delay. Delivery failures
// are counted and reported; they do not abort the remaining sends.
func (s *Service) SendCampaign(ctx context.Context, c Campaign) (*Report, error) {
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Body) == "" || len(c.Recipients) == 0 {
		return nil, ErrEmptyCampaign
	}

	optedOut, err := s.optOutSet(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	seen := make(map[string]bool)
	for _, r := range c.Recipients {
		email := strings.ToLower(strings.TrimSpace(r.Email))
		if email == "" || seen[email] {
			report.Skipped++
			continue
		}
		seen[email] = true

		if optedOut[email] {
			report.Skipped++
			continue
		}

		msg := Message{
			To:      email,
			Subject: Render(c.Subject, r),
			HTML:    Render(c.Body, r) + s.footer(email),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", email, err))
			s.logger.Warn("newsletter send failed", zap.String("email", email), zap.Error(err))
		} else {
			report.Sent++
		}

		if s.cfg.SendDelay > 0 {
			select {
			case <-time.After(s.cfg.SendDelay):
			case <-ctx.Done():
				return report, ctx.Err()
			}
		}
	}

	s.logger.Info("newsletter campaign finished",
		zap.Int("sent", report.Sent),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped))
	return report, nil
}

// SendTest delivers a single rendered message to one address without
// touching the opt-out list.
func (s *Service) SendTest(ctx context.Context, c Campaign, to string) error {
	if strings.TrimSpace(c.Subject) == "" || strings.TrimSpace(c.Body) == "" || strings.TrimSpace(to) == "" {
		return ErrEmptyCampaign
	}
	r := Recipient{Name: "Teszt", Email: to}
	return s.mailer.Send(ctx, Message{
		To:      strings.ToLower(strings.TrimSpace(to)),
		Subject: "[TESZT] " + Render(c.Subject, r),
		HTML:    Render(c.Body, r) + s.footer(to),
	})
}

// Unsubscribe records an opt-out.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return errors.New("email is required")
	}
	if err := s.unsubscribes.Add(ctx, email); err != nil {
		return err
	}
	s.logger.Info("newsletter unsubscribe", zap.String("email", email))
	return nil
}

// Render substitutes {{name}} and {{email}} placeholders.
func Render(template string, r Recipient) string {
	out := strings.ReplaceAll(template, "{{name}}", r.Name)
	return strings.ReplaceAll(out, "{{email}}", r.Email)
}

func (s *Service) optOutSet(ctx context.Context) (map[string]bool, error) {
	emails, err := s.unsubscribes.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load opt-outs: %w", err)
	}
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		set[strings.ToLower(e)] = true
	}
	return set, nil
}

func (s *Service) footer(email string) string {
	if s.cfg.Unsubscribe == "" {
		return ""
	}
	link := s.cfg.Unsubscribe + "?email=" + url.QueryEscape(email)
	return fmt.Sprintf(`<p style="font-size:12px;color:#888"><a href="%s">Leiratkozás</a></p>`, link)
}
