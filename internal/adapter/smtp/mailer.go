package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/domodwyer/mailyak/v3"

	"github.com/couchcryptid/water-outage-monitor/internal/config"
	"github.com/couchcryptid/water-outage-monitor/internal/domain"
	"github.com/couchcryptid/water-outage-monitor/internal/report"
)

// implicitTLSPort is the SMTPS port; every other port negotiates STARTTLS.
const implicitTLSPort = 465

// defaultSendTimeout bounds one delivery when SMTPConfig.Timeout is unset.
const defaultSendTimeout = 30 * time.Second

// Message is a composed plain-text email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

// Mailer emails a batch of new outages. It implements domain.Notifier.
type Mailer struct {
	cfg      config.SMTPConfig
	to       string
	refnum   string
	location string
	timeout  time.Duration
	send     func(ctx context.Context, msg Message) error
	logger   *slog.Logger
}

// NewMailer creates a Mailer delivering to the given recipient. The refnum
// and location filters are echoed in the message header.
func NewMailer(cfg config.SMTPConfig, to, refnum, location string, logger *slog.Logger) *Mailer {
	m := &Mailer{cfg: cfg, to: to, refnum: refnum, location: location, timeout: cfg.Timeout, logger: logger}
	if m.timeout <= 0 {
		m.timeout = defaultSendTimeout
	}
	m.send = m.deliver
	return m
}

func (m *Mailer) Notify(ctx context.Context, county string, outages []domain.Outage) error {
	msg := m.Compose(county, outages)
	if err := m.sendWithTimeout(ctx, msg); err != nil {
		return fmt.Errorf("%w: email to %s: %w", domain.ErrNotification, m.to, err)
	}
	m.logger.Info("notification email sent", "county", county, "to", m.to, "outages", len(outages))
	return nil
}

// Compose builds the email for outages.
func (m *Mailer) Compose(county string, outages []domain.Outage) Message {
	return Message{
		From:    m.cfg.From,
		To:      m.to,
		Subject: Subject(m.cfg.SubjectPrefix, county, len(outages)),
		Body:    report.Text(county, m.refnum, m.location, outages),
	}
}

// Subject returns e.g. "[Water.ie] 2 new outage(s) in Mayo".
func Subject(prefix, county string, n int) string {
	s := fmt.Sprintf("%d new outage(s) in %s", n, county)
	if prefix == "" {
		return s
	}
	return prefix + " " + s
}

// sendWithTimeout gives up on a delivery that outlives the timeout or ctx.
// The SMTP client has no cancellation, so an abandoned send finishes in the
// background and its result is dropped.
func (m *Mailer) sendWithTimeout(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- m.send(ctx, msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("smtp send abandoned: %w", ctx.Err())
	}
}

func (m *Mailer) deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var mail *mailyak.MailYak
	if m.cfg.Port == implicitTLSPort {
		var err error
		mail, err = mailyak.NewWithTLS(addr, auth, &tls.Config{ServerName: m.cfg.Host, MinVersion: tls.VersionTLS12})
		if err != nil {
			return fmt.Errorf("smtp tls setup: %w", err)
		}
	} else {
		mail = mailyak.New(addr, auth)
	}

	mail.From(msg.From)
	mail.To(msg.To)
	mail.Subject(msg.Subject)
	mail.Plain().Set(msg.Body)
	return mail.Send()
}
