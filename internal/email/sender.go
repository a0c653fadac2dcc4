// Package email renders account emails and hands them to a delivery backend.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

var ErrSendFailed = errors.New("email: send failed")

// Message is a rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Tag     string
	HTML    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers through an SMTP relay, upgrading to STARTTLS when
// offered and authenticating with PLAIN when a user is configured.
type SMTPSender struct {
	host     string
	port     string
	user     string
	password string
	from     string
	timeout  time.Duration
}

const defaultSMTPTimeout = 10 * time.Second

// NewSMTPSender bounds every delivery by timeout (or the caller's deadline,
// whichever comes first). A zero timeout uses 10s.
func NewSMTPSender(host, port, user, password, from string, timeout time.Duration) *SMTPSender {
	if from == "" {
		from = user
	}
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}
	return &SMTPSender{
		host:     host,
		port:     port,
		user:     user,
		password: password,
		from:     from,
		timeout:  timeout,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

func (s *SMTPSender) send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(s.host, s.port))
	if err != nil {
		return err
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	// cancellation before the deadline also unblocks pending reads
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, s.host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
			return err
		}
	}
	if s.user != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
				return err
			}
		}
	}

	if err := c.Mail(envelopeAddress(s.from)); err != nil {
		return err
	}
	if err := c.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMIME(s.from, msg)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// envelopeAddress strips a display name, "Natours <a@b>" becomes "a@b".
func envelopeAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return from
}

func buildMIME(from string, msg Message) []byte {
	return []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		from, msg.To, stripNewlines(msg.Subject), msg.HTML,
	))
}

func stripNewlines(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}

// PostmarkSender delivers through Postmark's transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if from == "" {
		return nil, errors.New("postmark sender address is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

func (p *PostmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := p.client.SendEmail(ctx, postmark.Email{
		From:       p.from,
		To:         msg.To,
		Subject:    msg.Subject,
		Tag:        msg.Tag,
		HTMLBody:   msg.HTML,
		TrackOpens: false,
	})
	if err != nil {
		return errors.Join(ErrSendFailed, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(ErrSendFailed, fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message))
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used in
// development.
type LogSender struct {
	logger *logging.Logger
}

func NewLogSender(logger *logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(_ context.Context, msg Message) error {
	l.logger.Info("email not sent (log provider)",
		"to", msg.To,
		"subject", msg.Subject,
		"tag", msg.Tag,
		"body", msg.HTML,
	)
	return nil
}
