package services

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"intra-ai-assistant/config"
	"intra-ai-assistant/internal/pkg/logger"
)

const welcomeMailSubject = "Welcome to the AI Assistant"

const welcomeMailTemplate = `<html>
<head></head>
<body>
    <p>Hello {name},</p>
    <p>Welcome aboard! We are excited to have you with us.</p>

    <p>To help us offer you a personalized experience, please take a moment to complete your profile.
    By updating your skills, interests, and department, you will unlock access to tailored services and events that match your preferences.</p>

    <p><strong>Here is what you need to complete:</strong></p>
    <ul>
        <li><strong>Skills:</strong> Let us know your key skills. Example: Java, Python, AI.</li>
        <li><strong>Interests:</strong> Tell us what excites you! Example: AI, Big 4, News.</li>
        <li><strong>Department:</strong> Specify your area of work. Example: Information Technology.</li>
    </ul>

    <p>Once you complete your profile, you will be able to enjoy services specifically designed for your interests and expertise!</p>

    <p>If you have any questions, feel free to reach out to our support team at {support}. We can connect on your {email} to help you get started.</p>
    <p>Best regards,<br>The Assistant Team</p>
</body>
</html>`

// MailService sends transactional email over SMTP. Delivery is best-effort:
// callers treat a send failure as non-fatal and only the log records it.
type MailService struct {
	config config.MailConfig
	logger *logger.Logger

	// sendMail is swappable in tests.
	sendMail func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

func NewMailService(cfg config.MailConfig, log *logger.Logger) (*MailService, error) {
	if cfg.Host == "" {
		return nil, errors.New("mail host required")
	}
	if cfg.Username == "" {
		log.Warn("SMTP_USERNAME not set, outgoing mail will fail")
	}

	return &MailService{
		config:   cfg,
		logger:   log,
		sendMail: smtp.SendMail,
	}, nil
}

// SendWelcome delivers the onboarding email to a newly registered user.
func (service *MailService) SendWelcome(ctx context.Context, to string, name string) error {
	startTime := time.Now()

	if to == "" {
		return errors.New("recipient address required")
	}
	if name == "" {
		name = "there"
	}

	body := renderWelcomeBody(name, to, service.config.Support)
	message := buildMIMEMessage(service.config.Sender, to, welcomeMailSubject, body)

	done := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf("%s:%s", service.config.Host, service.config.Port)
		auth := smtp.PlainAuth("", service.config.Username, service.config.Password, service.config.Host)
		done <- service.sendMail(addr, auth, service.config.Sender, []string{to}, message)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	service.logger.LogService("mail", "send_welcome", time.Since(startTime), map[string]interface{}{
		"recipient": to,
	}, err)

	return err
}

func renderWelcomeBody(name, email, support string) string {
	if support == "" {
		support = "our support desk"
	}
	replacer := strings.NewReplacer(
		"{name}", name,
		"{email}", email,
		"{support}", support,
	)
	return replacer.Replace(welcomeMailTemplate)
}

func buildMIMEMessage(from, to, subject, htmlBody string) []byte {
	var builder strings.Builder
	builder.WriteString("From: " + from + "\r\n")
	builder.WriteString("To: " + to + "\r\n")
	builder.WriteString("Subject: " + subject + "\r\n")
	builder.WriteString("MIME-Version: 1.0\r\n")
	builder.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	builder.WriteString("\r\n")
	builder.WriteString(htmlBody)
	return []byte(builder.String())
}
