package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strings"
	"unicode/utf8"

	"github.com/jhillyerd/enmime"
)

// MaxFieldLength bounds the subject and the body.
const MaxFieldLength = 1600

// ErrInvalidMessage is returned when the recipient, subject or body is unusable.
var ErrInvalidMessage = errors.New("Missing required email fields")

// Message is a validated plain-text email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// NewMessage trims and validates the fields.
func NewMessage(to, subject, text string) (Message, error) {
	m := Message{
		To:      strings.TrimSpace(to),
		Subject: strings.TrimSpace(subject),
		Text:    strings.TrimSpace(text),
	}
	if m.To == "" || !withinLimit(m.Subject) || !withinLimit(m.Text) {
		return Message{}, ErrInvalidMessage
	}
	return m, nil
}

func withinLimit(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > 0 && n <= MaxFieldLength
}

type Sender interface {
	Send(ctx context.Context, to, subject, text string) error
}

type SMTPSender struct {
	host string
	port string
	from string
	auth smtp.Auth // nil for local dev (MailHog)
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	return &SMTPSender{host: host, port: port, from: from}
}

func (s *SMTPSender) Send(_ context.Context, to, subject, text string) error {
	m, err := NewMessage(to, subject, text)
	if err != nil {
		return err
	}
	raw, err := buildMIME(s.from, m)
	if err != nil {
		return err
	}
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, s.auth, s.from, []string{m.To}, raw)
}

func buildMIME(from string, m Message) ([]byte, error) {
	part, err := enmime.Builder().
		From("Pizza Delivery", from).
		To("", m.To).
		Subject(m.Subject).
		Text([]byte(m.Text)).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build message: %w", err)
	}
	var buf bytes.Buffer
	if err := part.Encode(&buf); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return buf.Bytes(), nil
}

// Fallback logger sender (useful for dev without a mail provider)
type LogSender struct {
	Logger *log.Logger
}

func (s LogSender) Send(_ context.Context, to, subject, text string) error {
	m, err := NewMessage(to, subject, text)
	if err != nil {
		return err
	}
	logger := s.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("[Email] to=%s subject=%q body=%q", m.To, m.Subject, m.Text)
	return nil
}
