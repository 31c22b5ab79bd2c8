// Package notify sends price-drop mail over SMTP.
package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SendError reports a failed notification attempt (connection, STARTTLS or
// authentication failure). The cycle runner treats it as a per-item failure.
type SendError struct {
	Recipient string
	Err       error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sending mail to %s: %v", e.Recipient, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Mailer sends one message per call through an SMTP session with STARTTLS
// and plain authentication, using process-wide sender credentials.
type Mailer struct {
	host     string
	port     int
	sender   string
	password string
}

func NewMailer(host string, port int, sender, password string) *Mailer {
	return &Mailer{host: host, port: port, sender: sender, password: password}
}

// Send delivers a single plain-text price-drop message to recipient. Each
// call opens and closes its own SMTP session.
func (m *Mailer) Send(ctx context.Context, recipient, name string, lowestPrice int, sourceURL string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.sender); err != nil {
		return &SendError{Recipient: recipient, Err: err}
	}
	if err := msg.To(recipient); err != nil {
		return &SendError{Recipient: recipient, Err: err}
	}
	msg.Subject(Subject)
	msg.SetBodyString(mail.TypeTextPlain, Body(name, lowestPrice, sourceURL))

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.sender),
		mail.WithPassword(m.password),
	)
	if err != nil {
		return &SendError{Recipient: recipient, Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &SendError{Recipient: recipient, Err: err}
	}
	return nil
}
