package mailer

import (
	"crypto/tls"
	"errors"
	"fmt"
	"sync"

	gomail "github.com/go-mail/mail/v2"
)

// ErrMissingCredentials is returned when the SMTP mailer is constructed
// without host or sender configuration.
var ErrMissingCredentials = errors.New("smtp host and from address are required")

// Mailer abstracts outbound mail so callers can swap the SMTP mailer for the
// dev mailer in development and tests.
type Mailer interface {
	// Send delivers one plain-text mail.
	Send(to, subject, body string) error

	// GetName returns the mailer name for logging
	GetName() string
}

// SMTPConfig holds SMTP mailer configuration.
type SMTPConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	From          string
	SkipTLSVerify bool
}

// SMTPMailer delivers mail over SMTP.
type SMTPMailer struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

// NewSMTPMailer creates an SMTP mailer from config.
func NewSMTPMailer(config SMTPConfig) (*SMTPMailer, error) {
	if config.Host == "" || config.From == "" {
		return nil, ErrMissingCredentials
	}

	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)
	if config.SkipTLSVerify {
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &SMTPMailer{
		config: config,
		dialer: dialer,
	}, nil
}

// Send delivers one plain-text mail via SMTP.
func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.config.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}

	return nil
}

// GetName returns the mailer name
func (m *SMTPMailer) GetName() string {
	return "SMTP"
}

// DevMessage is one mail recorded by the dev mailer.
type DevMessage struct {
	To      string
	Subject string
	Body    string
}

// DevMailer records mail instead of sending it. Safe default for development
// and the unit tests.
type DevMailer struct {
	mu   sync.Mutex
	Sent []DevMessage
}

// NewDevMailer creates a recording mailer.
func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

// Send records the mail.
func (m *DevMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, DevMessage{To: to, Subject: subject, Body: body})
	return nil
}

// GetName returns the mailer name
func (m *DevMailer) GetName() string {
	return "Development"
}
