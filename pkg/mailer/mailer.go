package mailer

import (
	"fmt"
	"io"
	"regexp"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/hirestack/ats-api/pkg/config"
)

// Receipt reports the outcome of a single dispatch attempt. Dispatch failures
// are returned inside the receipt, never as an error, so callers can fold the
// outcome into their primary response without branching on transport faults.
type Receipt struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// Attachment is an in-memory file attached to an outbound message.
type Attachment struct {
	Filename string
	Content  []byte
	MIMEType string
}

// Message is a fully resolved outbound email.
type Message struct {
	To          string
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers notification emails.
type Mailer interface {
	Send(msg Message) Receipt
	SendTemplate(to, subject, body string, vars map[string]string) Receipt
}

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate substitutes {{name}} placeholders. Unresolved variables
// render as an empty string.
func RenderTemplate(body string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[name]
	})
}

// SMTPMailer delivers mail through a configured SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTP builds an SMTP-backed mailer from config.
func NewSMTP(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers the message, reporting failure through the receipt.
func (m *SMTPMailer) Send(msg Message) Receipt {
	if msg.To == "" {
		return Receipt{Success: false, Warning: "recipient email is empty"}
	}

	gm := gomail.NewMessage()
	gm.SetHeader("From", m.from)
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	if msg.HTML != "" {
		gm.SetBody("text/html", msg.HTML)
		if msg.Text != "" {
			gm.AddAlternative("text/plain", msg.Text)
		}
	} else {
		gm.SetBody("text/plain", msg.Text)
	}
	for _, att := range msg.Attachments {
		content := att.Content
		gm.Attach(att.Filename, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(content)
			return err
		}))
	}

	if err := m.dialer.DialAndSend(gm); err != nil {
		return Receipt{Success: false, Warning: fmt.Sprintf("email delivery failed: %v", err)}
	}
	return Receipt{Success: true, MessageID: uuid.NewString()}
}

// SendTemplate renders the body template and sends it as HTML.
func (m *SMTPMailer) SendTemplate(to, subject, body string, vars map[string]string) Receipt {
	return m.Send(Message{
		To:      to,
		Subject: RenderTemplate(subject, vars),
		HTML:    RenderTemplate(body, vars),
	})
}

// Nop is a mailer that records nothing and always succeeds. Used in tests and
// when SMTP is disabled.
type Nop struct{}

// Send implements Mailer.
func (Nop) Send(msg Message) Receipt {
	return Receipt{Success: true, MessageID: "nop"}
}

// SendTemplate implements Mailer.
func (Nop) SendTemplate(to, subject, body string, vars map[string]string) Receipt {
	return Receipt{Success: true, MessageID: "nop"}
}
