package utils

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// Mailer sends transactional email through SendGrid.
type Mailer struct {
	APIKey    string
	FromName  string
	FromEmail string
}

// Send sends an email; a nil error means SendGrid accepted it.
func (m *Mailer) Send(toName, toEmail, subject, textContent, htmlContent string) error {
	if m.APIKey == "" {
		return fmt.Errorf("SENDGRID_API_KEY is not set")
	}

	from := mail.NewEmail(m.FromName, m.FromEmail)
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, textContent, htmlContent)
	client := sendgrid.NewSendClient(m.APIKey)

	response, err := client.Send(message)
	if err != nil {
		log.Printf("Error sending email to %s: %v", toEmail, err)
		return err
	}

	if response.StatusCode >= 400 {
		log.Printf("SendGrid API Error: Status Code %d, Body: %s", response.StatusCode, response.Body)
		return fmt.Errorf("failed to send email, status code: %d", response.StatusCode)
	}

	log.Printf("Email sent to %s. Status Code: %d", toEmail, response.StatusCode)
	return nil
}
