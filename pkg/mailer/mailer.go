package mailer

import (
	"fmt"
	"log"
	"time"

	"github.com/wneessen/go-mail"
)

//go:generate mockgen -destination=../mocks/mock_mailer.go -package=pkgmocks github.com/Mailfleet/mailfleet/pkg/mailer Mailer

// Alert is the email rendering of a fleet notification.
type Alert struct {
	Severity string // "critical" or "warning"
	Title    string
	Message  string
	DomainID string // optional, the sending domain concerned
	Pool     string // optional, the pool concerned
}

// Mailer is the interface for delivering alert emails to operators.
type Mailer interface {
	// SendAlert sends an alert email to the given operator address
	SendAlert(to string, alert Alert) error
}

// Config holds the configuration for the mailer
type Config struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
}

// SMTPMailer implements the Mailer interface using SMTP
type SMTPMailer struct {
	config   *Config
	testMode bool
}

// NewSMTPMailer creates a new SMTP mailer
func NewSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{
		config:   config,
		testMode: false,
	}
}

// NewTestSMTPMailer creates a new SMTP mailer in test mode (won't connect to SMTP server)
func NewTestSMTPMailer(config *Config) *SMTPMailer {
	return &SMTPMailer{
		config:   config,
		testMode: true,
	}
}

// SendAlert sends an alert email to the given operator address
func (m *SMTPMailer) SendAlert(to string, alert Alert) error {
	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	if err := msg.FromFormat(m.config.FromName, m.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set email from address: %w", err)
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set email recipient: %w", err)
	}

	marker := "⚠️"
	if alert.Severity == "critical" {
		marker = "🚨"
	}
	subject := fmt.Sprintf("%s %s", marker, alert.Title)
	msg.Subject(subject)

	scope := ""
	if alert.DomainID != "" {
		scope += fmt.Sprintf("<p>Sending domain: <strong>%s</strong></p>", alert.DomainID)
	}
	if alert.Pool != "" {
		scope += fmt.Sprintf("<p>Pool: <strong>%s</strong></p>", alert.Pool)
	}

	htmlBody := fmt.Sprintf(`
	<html>
		<body>
			<h1 style="color: #d32f2f;">%s %s</h1>
			%s
			<div style="background-color: #fff3cd; border: 1px solid #ffeaa7; padding: 15px; border-radius: 5px; margin: 20px 0;">
				<p style="margin-bottom: 0; color: #856404;">%s</p>
			</div>
			<p>Best regards,<br>The Mailfleet Team</p>
		</body>
	</html>`, marker, alert.Title, scope, alert.Message)

	plainScope := ""
	if alert.DomainID != "" {
		plainScope += fmt.Sprintf("Sending domain: %s\n", alert.DomainID)
	}
	if alert.Pool != "" {
		plainScope += fmt.Sprintf("Pool: %s\n", alert.Pool)
	}

	plainBody := fmt.Sprintf(
		"%s\n\n%s%s\n\nBest regards,\nThe Mailfleet Team",
		alert.Title, plainScope, alert.Message)

	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	msg.AddAlternativeString(mail.TypeTextPlain, plainBody)

	client, err := m.createSMTPClient()
	if err != nil {
		return err
	}

	// For testing - log information if client is nil
	if client == nil {
		log.Printf("Sending %s alert to: %s", alert.Severity, to)
		log.Printf("From: %s <%s>", m.config.FromName, m.config.FromEmail)
		log.Printf("Subject: %s", subject)
		log.Printf("Message: %s", alert.Message)
		return nil
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}

	return nil
}

// createSMTPClient creates and configures a new SMTP client
func (m *SMTPMailer) createSMTPClient() (*mail.Client, error) {
	// In test mode, return nil client to avoid SMTP connections
	if m.testMode {
		return nil, nil
	}

	clientOptions := []mail.Option{
		mail.WithPort(m.config.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(10 * time.Second),
	}

	// Authentication is optional so local relays on port 25 keep working.
	if m.config.SMTPUsername != "" && m.config.SMTPPassword != "" {
		clientOptions = append(clientOptions,
			mail.WithUsername(m.config.SMTPUsername),
			mail.WithPassword(m.config.SMTPPassword),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}

	client, err := mail.NewClient(m.config.SMTPHost, clientOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}

	return client, nil
}

// ConsoleMailer is a development implementation that just prints alerts.
type ConsoleMailer struct{}

// NewConsoleMailer creates a new console mailer for development
func NewConsoleMailer() *ConsoleMailer {
	return &ConsoleMailer{}
}

// SendAlert prints the alert to the console
func (m *ConsoleMailer) SendAlert(to string, alert Alert) error {
	fmt.Println("==============================================================")
	fmt.Printf("                 FLEET ALERT (%s)\n", alert.Severity)
	fmt.Println("==============================================================")
	fmt.Printf("To: %s\n", to)
	fmt.Printf("Subject: %s\n\n", alert.Title)
	if alert.DomainID != "" {
		fmt.Printf("Sending domain: %s\n", alert.DomainID)
	}
	if alert.Pool != "" {
		fmt.Printf("Pool: %s\n", alert.Pool)
	}
	fmt.Printf("\n%s\n", alert.Message)
	fmt.Println("==============================================================")

	return nil
}
