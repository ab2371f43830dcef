package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers messages through an SMTP relay.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	send sendFunc
}

func NewSMTPMailer(cfg SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTPMailer{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		auth: auth,
		send: smtp.SendMail,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := msg.Bytes(time.Now())
	done := make(chan error, 1)
	go func() {
		done <- m.send(m.addr, m.auth, msg.From, []string{msg.To}, raw)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send to %s: %w", msg.To, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ Mailer = (*SMTPMailer)(nil)
