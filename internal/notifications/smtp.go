package notifications

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"dealflow/internal/logging"
	"dealflow/internal/services"
)

// SMTPConfig holds the relay settings for SMTP delivery.
type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
}

// sendMailFunc matches smtp.SendMail, which upgrades to STARTTLS when the
// server offers it.
type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// SMTP delivers messages through an authenticated relay.
type SMTP struct {
	cfg      SMTPConfig
	logger   *slog.Logger
	sendMail sendMailFunc
	now      func() time.Time
}

// NewSMTP builds an SMTP sender.
func NewSMTP(cfg SMTPConfig, logger *slog.Logger) *SMTP {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTP{cfg: cfg, logger: logger, sendMail: smtp.SendMail, now: time.Now}
}

// Name implements Sender.
func (s *SMTP) Name() string { return "smtp" }

// Send implements Sender. net/smtp has no context support, so cancellation
// is only checked before dialing.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if msg.To == "" || msg.From == "" {
		return services.Wrap(services.ErrValidation, "smtp", "send", "to and from addresses are required", nil)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := buildMIME(msg, s.now())
	if err != nil {
		return services.Wrap(services.ErrValidation, "smtp", "build message", "", err)
	}
	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("connecting to SMTP server", logging.String("addr", addr))

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
	if err := s.sendMail(addr, auth, msg.From, []string{msg.To}, body); err != nil {
		return services.Wrap(services.ErrExternalTool, "smtp", "send", "SMTP delivery failed", err)
	}
	logger.Info("email sent", logging.String("transport", "smtp"), logging.String("to", msg.To))
	return nil
}

// buildMIME renders a multipart/alternative message with a single HTML part.
func buildMIME(msg Message, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	var head bytes.Buffer
	fmt.Fprintf(&head, "From: %s\r\n", msg.From)
	fmt.Fprintf(&head, "To: %s\r\n", msg.To)
	fmt.Fprintf(&head, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&head, "Date: %s\r\n", now.Format(time.RFC1123Z))
	head.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&head, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", writer.Boundary())

	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(msg.HTML)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return append(head.Bytes(), buf.Bytes()...), nil
}
