// Package mailer delivers transactional email over SMTP. Sends are
// always best effort: transport failures are logged and absorbed so a
// broken mail relay never fails a sign-up or deletion.
package mailer

import (
	"go.uber.org/zap"

	"github.com/wneessen/go-mail"

	"github.com/collabus/transit-admin/internal/config"
	"github.com/collabus/transit-admin/internal/templates"
)

// Sender delivers rendered emails. The queue consumer depends on this
// interface so tests can swap in a recorder.
type Sender interface {
	Send(to string, email templates.Email)
}

// Mailer implements Sender on top of an SMTP submission account
// (GMAIL_USER / GMAIL_PASS by default).
type Mailer struct {
	cfg config.Config
	log *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

// Send delivers one message. Errors are logged with context and never
// returned; callers have nothing useful to do with them.
func (m *Mailer) Send(to string, email templates.Email) {
	if m.cfg.SMTPUser == "" || m.cfg.SMTPPass == "" {
		m.log.Warn("mailer not configured, dropping email",
			zap.String("to", to), zap.String("subject", email.Subject))
		return
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.MailFrom); err != nil {
		m.log.Error("mailer: invalid from address", zap.Error(err))
		return
	}
	if err := msg.To(to); err != nil {
		m.log.Error("mailer: invalid recipient", zap.String("to", to), zap.Error(err))
		return
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)

	client, err := mail.NewClient(m.cfg.SMTPHost,
		mail.WithPort(m.cfg.SMTPPort),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.SMTPUser),
		mail.WithPassword(m.cfg.SMTPPass),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		m.log.Error("mailer: client setup failed", zap.Error(err))
		return
	}
	if err := client.DialAndSend(msg); err != nil {
		m.log.Error("mailer: send failed",
			zap.String("to", to), zap.String("subject", email.Subject), zap.Error(err))
		return
	}
	m.log.Info("email sent", zap.String("to", to), zap.String("subject", email.Subject))
}
