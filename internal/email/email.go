package email

import (
	"fmt"

	"github.com/rs/zerolog"
	gomail "gopkg.in/gomail.v2"

	"github.com/renovahq/crm-api/pkg/validator"
)

// Sender delivers outbound notification mail.
type Sender interface {
	Send(to, subject, body string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Enabled  bool
}

type smtpSender struct {
	cfg      Config
	dialer   *gomail.Dialer
	validate *validator.Validator
	logger   *zerolog.Logger
}

// NewSMTPSender builds a gomail-backed sender. When disabled it logs
// and drops mail instead of dialing, which keeps local development
// quiet.
func NewSMTPSender(cfg Config, logger *zerolog.Logger) Sender {
	return &smtpSender{
		cfg:      cfg,
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *smtpSender) Send(to, subject, body string) error {
	if err := s.validate.Var(to, "required,email"); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	if !s.cfg.Enabled {
		s.logger.Debug().Str("to", to).Str("subject", subject).Msg("email sending disabled, dropping message")
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
