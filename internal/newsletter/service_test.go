package newsletter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/eredeticsakra/csakra-api/internal/config"
	"github.com/eredeticsakra/csakra-api/internal/storage"
)

// stubMailer records sends and optionally fails selected addresses.
type stubMailer struct {
	sent    []Message
	failFor map[string]bool
}

func (m *stubMailer) Send(ctx context.Context, msg Message) error {
	if m.failFor[msg.To] {
		return errors.New("delivery refused")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func newTestService(mailer *stubMailer, unsubs *storage.MemoryUnsubscribeRepo) *Service {
	cfg := config.MailConfig{
		FromAddress: "hello@eredeticsakra.hu",
		FromName:    "Eredeti Csakra",
		Unsubscribe: "https://eredeticsakra.hu/leiratkozas",
		SendDelay:   0,
	}
	return NewService(mailer, unsubs, cfg, zap.NewNop())
}

func TestSendCampaign(t *testing.T) {
	mailer := &stubMailer{}
	unsubs := storage.NewMemoryUnsubscribeRepo()
	svc := newTestService(mailer, unsubs)
	ctx := context.Background()

	if err := unsubs.Add(ctx, "gone@x.hu"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	report, err := svc.SendCampaign(ctx, Campaign{
		Subject: "Kedves {{name}}!",
		Body:    "<p>Szia {{name}}, ez a te címed: {{email}}</p>",
		Recipients: []Recipient{
			{Name: "Anna", Email: "anna@x.hu"},
			{Name: "Anna megint", Email: "ANNA@x.hu"}, // duplicate
			{Name: "Béla", Email: "bela@x.hu"},
			{Name: "Elment", Email: "gone@x.hu"}, // unsubscribed
			{Name: "Senki", Email: ""},
		},
	})
	if err != nil {
		t.Fatalf("SendCampaign failed: %v", err)
	}
	if report.Sent != 2 || report.Skipped != 3 || report.Failed != 0 {
		t.Errorf("report = %+v, want sent=2 skipped=3 failed=0", report)
	}

	first := mailer.sent[0]
	if first.Subject != "Kedves Anna!" {
		t.Errorf("subject not rendered: %q", first.Subject)
	}
	if !strings.Contains(first.HTML, "anna@x.hu") {
		t.Errorf("email placeholder not rendered: %q", first.HTML)
	}
	if !strings.Contains(first.HTML, "leiratkozas?email=anna%40x.hu") {
		t.Errorf("missing unsubscribe footer: %q", first.HTML)
	}
}

func TestSendCampaignCountsFailures(t *testing.T) {
	mailer := &stubMailer{failFor: map[string]bool{"bad@x.hu": true}}
	svc := newTestService(mailer, storage.NewMemoryUnsubscribeRepo())

	report, err := svc.SendCampaign(context.Background(), Campaign{
		Subject: "Hírek",
		Body:    "<p>Szia</p>",
		Recipients: []Recipient{
			{Name: "A", Email: "good@x.hu"},
			{Name: "B", Email: "bad@x.hu"},
			{Name: "C", Email: "also-good@x.hu"},
		},
	})
	if err != nil {
		t.Fatalf("SendCampaign failed: %v", err)
	}
	// One failure must not stop the rest of the batch.
	if report.Sent != 2 || report.Failed != 1 {
		t.Errorf("report = %+v, want sent=2 failed=1", report)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "bad@x.hu") {
		t.Errorf("errors = %v", report.Errors)
	}
}

func TestSendCampaignRejectsEmpty(t *testing.T) {
	svc := newTestService(&stubMailer{}, storage.NewMemoryUnsubscribeRepo())

	_, err := svc.SendCampaign(context.Background(), Campaign{Subject: "x"})
	if !errors.Is(err, ErrEmptyCampaign) {
		t.Errorf("error = %v, want ErrEmptyCampaign", err)
	}
}

func TestSendTest(t *testing.T) {
	mailer := &stubMailer{}
	svc := newTestService(mailer, storage.NewMemoryUnsubscribeRepo())

	err := svc.SendTest(context.Background(), Campaign{Subject: "Hírek", Body: "<p>Szia {{name}}</p>"}, "admin@x.hu")
	if err != nil {
		t.Fatalf("SendTest failed: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 send, got %d", len(mailer.sent))
	}
	if !strings.HasPrefix(mailer.sent[0].Subject, "[TESZT]") {
		t.Errorf("test subject = %q", mailer.sent[0].Subject)
	}
}

func TestUnsubscribe(t *testing.T) {
	unsubs := storage.NewMemoryUnsubscribeRepo()
	svc := newTestService(&stubMailer{}, unsubs)
	ctx := context.Background()

	if err := svc.Unsubscribe(ctx, " Valaki@X.HU "); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	emails, _ := unsubs.ListAll(ctx)
	if len(emails) != 1 || emails[0] != "valaki@x.hu" {
		t.Errorf("stored opt-outs = %v", emails)
	}
	if err := svc.Unsubscribe(ctx, ""); err == nil {
		t.Error("expected error for empty email")
	}
}
