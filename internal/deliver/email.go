package deliver

import (
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/hrcguru/tech-news-automation/internal/config"
)

// Mailer sends the digest as an HTML email. The first attempt uses
// implicit TLS on 465; on failure it retries once with STARTTLS on 587.
type Mailer struct {
	cfg config.Delivery
	log *zap.Logger
}

func NewMailer(cfg config.Delivery, log *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) Send(subject, html string) error {
	if !m.cfg.CredentialsSet() {
		return fmt.Errorf("sender credentials not configured")
	}
	if m.cfg.ReceiverEmail == "" {
		return fmt.Errorf("no recipient configured")
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat("News Digest", m.cfg.SenderEmail); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(m.cfg.ReceiverEmail); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	if len(m.cfg.BCC) > 0 {
		if err := msg.Bcc(m.cfg.BCC...); err != nil {
			return fmt.Errorf("invalid bcc address: %w", err)
		}
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	if err := m.send(msg, mail.WithSSLPort(false)); err != nil {
		m.log.Warn("SSL submission failed, retrying with STARTTLS", zap.Error(err))
		if err := m.send(msg, mail.WithPort(587), mail.WithTLSPolicy(mail.TLSMandatory)); err != nil {
			return fmt.Errorf("sending email: %w", err)
		}
	}

	m.log.Info("email delivered",
		zap.String("to", m.cfg.ReceiverEmail),
		zap.Int("bcc", len(m.cfg.BCC)))
	return nil
}

func (m *Mailer) send(msg *mail.Msg, opts ...mail.Option) error {
	opts = append(opts,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.SenderEmail),
		mail.WithPassword(m.cfg.SenderPassword),
		mail.WithTimeout(15*time.Second),
	)
	client, err := mail.NewClient(m.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	return client.DialAndSend(msg)
}
