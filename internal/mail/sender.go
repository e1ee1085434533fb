// AngelaMos | 2026
// sender.go

package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/carterperez-dev/webuzz/internal/config"
)

// Envelope is a rendered message ready for delivery.
type Envelope struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Sender interface {
	Deliver(ctx context.Context, env Envelope) error
}

type SMTPSender struct {
	client     *gomail.Client
	senderName string
	senderAddr string
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}

	if cfg.UseTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{
		client:     client,
		senderName: cfg.SenderName,
		senderAddr: cfg.SenderEmail,
	}, nil
}

func (s *SMTPSender) Deliver(ctx context.Context, env Envelope) error {
	msg := gomail.NewMsg()

	if err := msg.FromFormat(s.senderName, s.senderAddr); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(env.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(env.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, env.Text)
	if env.HTML != "" {
		msg.AddAlternativeString(gomail.TypeTextHTML, env.HTML)
	}

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Deliver(_ context.Context, env Envelope) error {
	s.logger.Info("mail not delivered, no smtp host configured",
		"to", env.To,
		"subject", env.Subject,
		"body", env.Text,
	)
	return nil
}
