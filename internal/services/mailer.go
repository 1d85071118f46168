package services

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/chachabrian/courier-backend/internal/config"
)

const companyName = "Courier Service"

// Common header template for all emails
const emailHeader = `
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f9f9f9; padding: 20px;">
			<h2 style="color: #4CAF50; margin: 0;">Courier Service</h2>
		</div>
`

// Common footer template for all emails
const emailFooter = `
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>
`

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers mail through an authenticated SMTP relay.
type SMTPMailer struct {
	from     string
	host     string
	port     string
	username string
	password string
	sendMail sendMailFunc
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	username := cfg.SMTPUsername
	if username == "" {
		username = cfg.From
	}
	return &SMTPMailer{
		from:     cfg.From,
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: username,
		password: cfg.SMTPPassword,
		sendMail: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	if m.from == "" || m.password == "" || m.host == "" || m.port == "" {
		return fmt.Errorf("email configuration not set")
	}

	auth := smtp.PlainAuth("", m.username, m.password, m.host)
	if err := m.sendMail(m.host+":"+m.port, auth, m.from, []string{msg.To}, buildMIMEMessage(m.from, msg)); err != nil {
		log.Printf("Failed to send email: %v", err)
		return err
	}

	log.Printf("Successfully sent email %q to %s", msg.Subject, msg.To)
	return nil
}

func buildMIMEMessage(from string, msg Message) []byte {
	headers := [][2]string{
		{"From", fmt.Sprintf("%s <%s>", companyName, from)},
		{"To", msg.To},
		{"Subject", msg.Subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
		{"X-Mailer", "Courier-Mailer"},
	}

	var b strings.Builder
	for _, h := range headers {
		fmt.Fprintf(&b, "%s: %s\r\n", h[0], h[1])
	}
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}

// NewMailer picks SES when AWS credentials are configured and SMTP otherwise.
func NewMailer(cfg config.MailConfig) (Mailer, error) {
	if cfg.UseSES() {
		mailer, err := NewSESMailer(cfg)
		if err != nil {
			return nil, err
		}
		log.Printf("AWS SES mail transport initialized")
		return mailer, nil
	}

	log.Printf("AWS SES not configured. Using SMTP mail transport")
	return NewSMTPMailer(cfg), nil
}
