package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/codr1/Courtside/internal/metrics"
	"github.com/codr1/Courtside/internal/models"
)

type sentEmail struct {
	recipient string
	subject   string
	body      string
	ctxErr    error
}

type fakeEmailSender struct {
	sent    chan sentEmail
	release chan struct{}
	err     error
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{sent: make(chan sentEmail, 1)}
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	if f.release != nil {
		<-f.release
	}
	f.sent <- sentEmail{recipient: recipient, subject: subject, body: body, ctxErr: ctx.Err()}
	return f.err
}

func waitForEmail(t *testing.T, ch <-chan sentEmail) sentEmail {
	t.Helper()
	select {
	case email := <-ch:
		return email
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for email")
	}
	return sentEmail{}
}

func sampleNotice() models.WaitlistNotice {
	return models.WaitlistNotice{
		WaitlistID: 7,
		UserID:     3,
		Email:      "ana@example.com",
		Name:       "Ana",
		CourtID:    2,
		CourtName:  "Court 2",
		Date:       models.MustDate("2024-06-15"),
		Slot:       models.Slot{Start: models.At(9, 0), End: models.At(10, 0)},
	}
}

func TestBuildWaitlistEmail(t *testing.T) {
	message := BuildWaitlistEmail(sampleNotice())

	if message.Subject != "Booking Slot Available - Court 2" {
		t.Fatalf("subject = %q", message.Subject)
	}
	for _, want := range []string{"Hi Ana,", "Court: Court 2", "Date: Saturday, Jun 15, 2024", "Time: 09:00 - 10:00"} {
		if !strings.Contains(message.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, message.Body)
		}
	}
}

func TestBuildWaitlistEmailFallsBackOnBlankNames(t *testing.T) {
	notice := sampleNotice()
	notice.Name = " "
	notice.CourtName = ""

	message := BuildWaitlistEmail(notice)
	if !strings.HasPrefix(message.Body, "Hi there,") {
		t.Fatalf("body = %q", message.Body)
	}
	if message.Subject != "Booking Slot Available - your court" {
		t.Fatalf("subject = %q", message.Subject)
	}
}

func TestNotifyWaitlistSurvivesCallerCancellation(t *testing.T) {
	sender := newFakeEmailSender()
	sender.release = make(chan struct{})
	notifier := NewWaitlistNotifier(sender)

	ctx, cancel := context.WithCancel(context.Background())
	notifier.NotifyWaitlist(ctx, sampleNotice())
	cancel()
	close(sender.release)

	email := waitForEmail(t, sender.sent)
	if email.ctxErr != nil {
		t.Fatalf("send context err = %v, want nil", email.ctxErr)
	}
	if email.recipient != "ana@example.com" {
		t.Fatalf("recipient = %q", email.recipient)
	}
}

func TestNotifyWaitlistSkipsMissingRecipient(t *testing.T) {
	sender := newFakeEmailSender()
	notifier := NewWaitlistNotifier(sender)

	notice := sampleNotice()
	notice.Email = ""
	notifier.NotifyWaitlist(context.Background(), notice)

	select {
	case email := <-sender.sent:
		t.Fatalf("unexpected email to %q", email.recipient)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDeliverRecordsOutcome(t *testing.T) {
	sentBefore := testutil.ToFloat64(metrics.WaitlistNotificationsTotal.WithLabelValues("sent"))
	failedBefore := testutil.ToFloat64(metrics.WaitlistNotificationsTotal.WithLabelValues("failed"))

	ok := newFakeEmailSender()
	if err := NewWaitlistNotifier(ok).Deliver(context.Background(), sampleNotice()); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	waitForEmail(t, ok.sent)

	failing := newFakeEmailSender()
	failing.err = errors.New("smtp down")
	if err := NewWaitlistNotifier(failing).Deliver(context.Background(), sampleNotice()); err == nil {
		t.Fatal("expected delivery error")
	}

	if got := testutil.ToFloat64(metrics.WaitlistNotificationsTotal.WithLabelValues("sent")) - sentBefore; got != 1 {
		t.Fatalf("sent delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.WaitlistNotificationsTotal.WithLabelValues("failed")) - failedBefore; got != 1 {
		t.Fatalf("failed delta = %v, want 1", got)
	}
}

func TestNewSESClientRequiresSettings(t *testing.T) {
	if _, err := NewSESClient(context.Background(), "", "secret", "us-east-1", "from@example.com"); err == nil {
		t.Fatal("expected error for missing access key")
	}
	if _, err := NewSESClient(context.Background(), "key", "secret", "us-east-1", ""); err == nil {
		t.Fatal("expected error for missing sender")
	}
}
