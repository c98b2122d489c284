package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"
	"time"
)

const (
	dialTimeout = 8 * time.Second
	connTimeout = 15 * time.Second
)

// SMTPMailer delivers plain-text mail over SMTP with STARTTLS
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(host, port, username, password, from, fromName string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		fromName: fromName,
	}
}

// Send delivers one message to one recipient
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	fromHeader := fmt.Sprintf("%s <%s>", m.fromName, m.from)

	msg := strings.Join([]string{
		fmt.Sprintf("From: %s", fromHeader),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"",
		body,
	}, "\r\n")

	if err := m.send(ctx, to, []byte(msg)); err != nil {
		return err
	}

	log.Printf("[MAIL] sent to=%s subject=%q", to, subject)
	return nil
}

func (m *SMTPMailer) send(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(m.host, m.port)

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	// deadline covers the whole SMTP exchange
	_ = conn.SetDeadline(time.Now().Add(connTimeout))

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer func() { _ = c.Quit() }()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.host}); err != nil {
			return err
		}
	}

	if m.username != "" {
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := c.Auth(auth); err != nil {
			return err
		}
	}

	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}

	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
