package services

import (
	"context"
	"fmt"
	"net/smtp"

	"github.com/eventease/eventease-gobackend/internal/models"
)

// Mailer sends the payment confirmation email. Fire-and-forget: callers log
// failures and move on.
type Mailer interface {
	SendPaymentConfirmation(ctx context.Context, tx *models.PaymentTransaction, event *models.Event, user *models.User) error
}

// SMTPMailer delivers mail over a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPMailer constructs an SMTPMailer.
func NewSMTPMailer(host, port, username, password, from string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, username: username, password: password, from: from}
}

func (m *SMTPMailer) SendPaymentConfirmation(ctx context.Context, tx *models.PaymentTransaction, event *models.Event, user *models.User) error {
	if m.host == "" {
		return fmt.Errorf("smtp not configured")
	}

	subject := "Your ticket for " + event.Title
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\nYour payment of %.2f %s for %q has been confirmed.\r\nTransaction reference: %s\r\n\r\nSee you there!\r\nThe EventEase team\r\n",
		user.FullName, tx.Amount, tx.Currency, event.Title, tx.TxRef,
	)
	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + user.Email + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" + body,
	)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}
	if err := smtp.SendMail(m.host+":"+m.port, auth, m.from, []string{user.Email}, msg); err != nil {
		return fmt.Errorf("send confirmation email: %w", err)
	}
	return nil
}
