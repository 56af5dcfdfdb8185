package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

type captureSender struct {
	sent chan sentEmail
}

type sentEmail struct {
	recipient string
	subject   string
	body      string
}

func newCaptureSender() *captureSender {
	return &captureSender{sent: make(chan sentEmail, 1)}
}

func (c *captureSender) Send(ctx context.Context, recipient, subject, body string) error {
	c.sent <- sentEmail{recipient: recipient, subject: subject, body: body}
	return nil
}

func TestSendAsyncDelivers(t *testing.T) {
	sender := newCaptureSender()
	msg := BuildBookingConfirmation(BookingDetails{
		FieldName: "Riverside Pitch",
		City:      "London",
		Date:      "Monday, Sep 1, 2026",
		TimeRange: "18:00 - 19:00 UTC",
		Price:     "£45.00",
	})

	SendAsync(context.Background(), sender, "player@example.com", msg, nil)

	select {
	case got := <-sender.sent:
		if got.recipient != "player@example.com" {
			t.Fatalf("unexpected recipient: %q", got.recipient)
		}
		if !strings.Contains(got.subject, "Riverside Pitch") {
			t.Fatalf("unexpected subject: %q", got.subject)
		}
		if !strings.Contains(got.body, "£45.00") {
			t.Fatalf("price missing from body: %q", got.body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("email was never sent")
	}
}

func TestSendAsyncSurvivesCancelledHandlerContext(t *testing.T) {
	sender := newCaptureSender()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	SendAsync(ctx, sender, "player@example.com", Message{Subject: "s", Body: "b"}, nil)

	select {
	case <-sender.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("send must not be aborted by handler cancellation")
	}
}

func TestSendAsyncSkipsEmptyRecipient(t *testing.T) {
	sender := newCaptureSender()
	SendAsync(context.Background(), sender, "  ", Message{Subject: "s", Body: "b"}, nil)

	select {
	case <-sender.sent:
		t.Fatal("empty recipient must not be sent to")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBuildBookingReminder(t *testing.T) {
	msg := BuildBookingReminder(BookingDetails{FieldName: "Riverside Pitch", Date: "Tuesday", TimeRange: "18:00 - 19:00"})
	if !strings.Contains(msg.Subject, "Reminder") {
		t.Fatalf("unexpected subject: %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Tuesday") {
		t.Fatalf("date missing from body: %q", msg.Body)
	}
}

func TestFormatDateTimeRange(t *testing.T) {
	start := time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	date, timeRange := FormatDateTimeRange(start, end)
	if date != "Tuesday, Sep 1, 2026" {
		t.Fatalf("unexpected date: %q", date)
	}
	if timeRange != "18:00 - 19:00 UTC" {
		t.Fatalf("unexpected range: %q", timeRange)
	}
}
