package smtp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
)

func testMailer(refnum, location string) *Mailer {
	cfg := config.SMTPConfig{
		Host:          "smtp.example.ie",
		Port:          587,
		From:          "alerts@example.ie",
		SubjectPrefix: "[Water.ie]",
	}
	return NewMailer(cfg, "me@example.ie", refnum, location, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ref(s string) *string { return &s }

func TestSubject(t *testing.T) {
	assert.Equal(t, "[Water.ie] 2 new outage(s) in Mayo", Subject("[Water.ie]", "Mayo", 2))
	assert.Equal(t, "1 new outage(s) in Cork", Subject("", "Cork", 1))
}

func TestMailer_Compose(t *testing.T) {
	m := testMailer("", "ballina")
	msg := m.Compose("Mayo", []domain.Outage{
		{Title: "Burst main", Location: "Ballina", County: "Mayo", Status: "Open", Reference: ref("MAY00102991")},
		{Title: "Works", Location: "Crossmolina", County: "Mayo", Status: "Open"},
	})

	assert.Equal(t, "alerts@example.ie", msg.From)
	assert.Equal(t, "me@example.ie", msg.To)
	assert.Equal(t, "[Water.ie] 2 new outage(s) in Mayo", msg.Subject)
	assert.Contains(t, msg.Body, "Location filter: ballina")
	assert.Contains(t, msg.Body, "Title    : Burst main")
	assert.Contains(t, msg.Body, "Reference: MAY00102991")
	assert.Contains(t, msg.Body, "Reference: (unknown)")
}

func TestMailer_Notify(t *testing.T) {
	m := testMailer("", "")
	var sent []Message
	m.send = func(_ context.Context, msg Message) error {
		sent = append(sent, msg)
		return nil
	}

	require.NoError(t, m.Notify(context.Background(), "Mayo", []domain.Outage{{Title: "Burst main"}}))
	require.Len(t, sent, 1)
	assert.Equal(t, "[Water.ie] 1 new outage(s) in Mayo", sent[0].Subject)
}

func TestMailer_NotifyError(t *testing.T) {
	m := testMailer("", "")
	m.send = func(context.Context, Message) error { return errors.New("535 authentication failed") }

	err := m.Notify(context.Background(), "Mayo", []domain.Outage{{Title: "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotification))
	assert.Contains(t, err.Error(), "me@example.ie")
	assert.Contains(t, err.Error(), "535")
}

func TestMailer_DeliverHonoursCancelledContext(t *testing.T) {
	m := testMailer("", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.Notify(ctx, "Mayo", []domain.Outage{{Title: "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMailer_NotifyAbandonsUnresponsiveServer(t *testing.T) {
	m := testMailer("", "")
	m.timeout = 20 * time.Millisecond
	release := make(chan struct{})
	defer close(release)
	m.send = func(context.Context, Message) error {
		<-release
		return nil
	}

	start := time.Now()
	err := m.Notify(context.Background(), "Mayo", []domain.Outage{{Title: "x"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotification))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestNewMailer_Timeout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Equal(t, defaultSendTimeout, NewMailer(config.SMTPConfig{}, "me@example.ie", "", "", logger).timeout)
	assert.Equal(t, 5*time.Second,
		NewMailer(config.SMTPConfig{Timeout: 5 * time.Second}, "me@example.ie", "", "", logger).timeout)
}
