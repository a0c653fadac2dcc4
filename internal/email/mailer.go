package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/minh-le0205/tour-rest-api/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Mailer renders account emails and delivers them through a Sender. It
// satisfies auth.Delivery and auth.WelcomeSender.
type Mailer struct {
	sender      Sender
	frontendURL string
	resetTTL    time.Duration
}

func NewMailer(sender Sender, frontendURL string, resetTTL time.Duration) *Mailer {
	return &Mailer{
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		resetTTL:    resetTTL,
	}
}

// SendResetInstructions sends the plaintext reset token as a link. It is
// called synchronously so the caller can roll the token back on failure.
func (m *Mailer) SendResetInstructions(ctx context.Context, to, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	body, err := render("password_reset.html", struct {
		ResetLink string
		ValidFor  string
	}{
		ResetLink: fmt.Sprintf("%s/reset-password/%s", m.frontendURL, url.PathEscape(token)),
		ValidFor:  humanizeDuration(m.resetTTL),
	})
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return err
	}

	err = m.sender.Send(ctx, Message{
		To:      to,
		Subject: fmt.Sprintf("Your password reset token (valid for %s)", humanizeDuration(m.resetTTL)),
		Tag:     "password-reset",
		HTML:    body,
	})
	if err != nil {
		logger.Error("failed to send password reset email", "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent")
	return nil
}

// SendWelcome greets a new account.
// This method is designed to be called in a goroutine
func (m *Mailer) SendWelcome(ctx context.Context, name, to string) error {
	body, err := render("welcome.html", struct {
		Name        string
		AccountLink string
	}{
		Name:        name,
		AccountLink: m.frontendURL + "/me",
	})
	if err != nil {
		return err
	}

	if err := m.sender.Send(ctx, Message{
		To:      to,
		Subject: "Welcome to the Natours family!",
		Tag:     "welcome",
		HTML:    body,
	}); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
