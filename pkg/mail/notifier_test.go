package mail_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/uachado/uachado/pkg/configs"
	"github.com/uachado/uachado/pkg/internal/storage/mq"
	"github.com/uachado/uachado/pkg/mail"
	"github.com/uachado/uachado/pkg/queue"
)

// recordingSender 记录发出的每封邮件.
type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To      string
	Subject string
	Body    string
}

func (r *recordingSender) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, sentMail{To: to, Subject: subject, Body: body})

	return nil
}

func (r *recordingSender) snapshot() []sentMail {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]sentMail(nil), r.sent...)
}

// waitForMails 轮询等待邮件数量达到 want.
func waitForMails(t *testing.T, r *recordingSender, want int) []sentMail {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= want {
			return got
		}

		time.Sleep(10 * time.Millisecond)
	}

	t.Fatalf("timed out waiting for %d mails, got %d", want, len(r.snapshot()))

	return nil
}

func newNotifierHarness(t *testing.T) (*recordingSender, *mq.Client) {
	t.Helper()

	mqc, err := mq.New(context.Background(), &configs.MQConfig{Type: configs.MQTypeChannel})
	if err != nil {
		t.Fatalf("open mq: %v", err)
	}

	t.Cleanup(func() { _ = mqc.Close() })

	sender := &recordingSender{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	if err := mail.NewNotifier(sender, mqc).Start(ctx); err != nil {
		t.Fatalf("start notifier: %v", err)
	}

	return sender, mqc
}

func TestNotifierStoredDeduplicatesRecipients(t *testing.T) {
	sender, mqc := newNotifierHarness(t)
	ctx := context.Background()

	payload := queue.ItemStoredPayload{
		Item:           queue.ItemRef{ID: 1, Tag: "Tablets", Description: "iPad cinzento"},
		DropoffPointID: 1,
		Matches: []queue.MatchRecipient{
			{Email: "aluno@ua.pt", Tag: "Tablets", Description: "perdi um iPad"},
			{Email: "aluno@ua.pt", Tag: "Tablets", Description: "outro report"},
			{Email: "colega@ua.pt", Tag: "Tablets", Description: "tablet preto"},
		},
	}
	if err := queue.PublishItemStored(ctx, mqc, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	mails := waitForMails(t, sender, 2)
	if len(mails) != 2 {
		t.Fatalf("sent %d mails, want 2", len(mails))
	}

	for _, m := range mails {
		if m.Subject != "O teu item foi UAchado!" {
			t.Errorf("subject = %q", m.Subject)
		}

		if !strings.Contains(m.Body, "Equipa do UAchado") {
			t.Errorf("body missing signature: %q", m.Body)
		}
	}
}

func TestNotifierReportConfirmation(t *testing.T) {
	sender, mqc := newNotifierHarness(t)
	ctx := context.Background()

	payload := queue.ItemReportedPayload{
		Item:        queue.ItemRef{ID: 7, Tag: "Carregadores", Description: "carregador USB-C"},
		ReportEmail: "aluno@ua.pt",
	}
	if err := queue.PublishItemReported(ctx, mqc, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	mails := waitForMails(t, sender, 1)

	m := mails[0]
	if m.To != "aluno@ua.pt" {
		t.Errorf("to = %q", m.To)
	}

	if m.Subject != "O teu report foi adicionado!" {
		t.Errorf("subject = %q", m.Subject)
	}

	if !strings.Contains(m.Body, "carregador USB-C") {
		t.Errorf("body missing description: %q", m.Body)
	}
}

func TestNotifierRetrievedConfirmation(t *testing.T) {
	sender, mqc := newNotifierHarness(t)
	ctx := context.Background()

	date := time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)
	payload := queue.ItemRetrievedPayload{
		Item:           queue.ItemRef{ID: 9, Tag: "Portáteis", Description: "portátil prateado"},
		RetrievedEmail: "dono@ua.pt",
		RetrievedDate:  date,
	}
	if err := queue.PublishItemRetrieved(ctx, mqc, payload); err != nil {
		t.Fatalf("publish: %v", err)
	}

	mails := waitForMails(t, sender, 1)

	m := mails[0]
	if m.Subject != "UAchaste o teu item!" {
		t.Errorf("subject = %q", m.Subject)
	}

	if !strings.Contains(m.Body, "Data: 2026-03-14") {
		t.Errorf("body missing formatted date: %q", m.Body)
	}
}
