package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/kryptogain/backend/src/config"
	"github.com/username/kryptogain/backend/src/logger"
)

// NewEmailService selects the mail provider from configuration. Incomplete
// provider configuration falls back to the mock sender so registration keeps
// working in development.
func NewEmailService() EmailService {
	if config.Cfg == nil {
		logger.L.Error("Configuration not loaded. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{VerificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:                       mg,
			senderEmail:              config.Cfg.SenderEmail,
			senderName:               config.Cfg.SenderName,
			verificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
		}
	case "smtp":
		if config.Cfg.SMTPServer == "" || config.Cfg.SMTPUser == "" || config.Cfg.SMTPPassword == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("SMTP configuration incomplete. Falling back to MockEmailService.")
			return &MockEmailService{VerificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL}
		}
		return &SMTPEmailService{
			SMTPServer:               config.Cfg.SMTPServer,
			SMTPPort:                 config.Cfg.SMTPPort,
			SMTPUser:                 config.Cfg.SMTPUser,
			SMTPPassword:             config.Cfg.SMTPPassword,
			SenderEmail:              config.Cfg.SenderEmail,
			VerificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{VerificationEmailBaseURL: config.Cfg.VerificationEmailBaseURL}
	}
}

type SMTPEmailService struct {
	SMTPServer               string
	SMTPPort                 int
	SMTPUser                 string
	SMTPPassword             string
	SenderEmail              string
	VerificationEmailBaseURL string
}

func (s *SMTPEmailService) SendVerificationEmail(toEmail, username, token string) error {
	verificationLink := fmt.Sprintf("%s?token=%s", s.VerificationEmailBaseURL, token)
	body := fmt.Sprintf("Hi %s,\r\n\r\nPlease verify your email address for KryptoGain by opening this link:\r\n%s\r\n\r\nIf you did not create an account, ignore this email.\r\n", username, verificationLink)

	header := map[string]string{
		"From":         s.SenderEmail,
		"To":           toEmail,
		"Subject":      "Verify Your Email Address for KryptoGain",
		"MIME-version": "1.0",
		"Content-Type": `text/plain; charset="UTF-8"`,
	}
	message := ""
	for k, v := range header {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	auth := smtp.PlainAuth("", s.SMTPUser, s.SMTPPassword, s.SMTPServer)
	addr := fmt.Sprintf("%s:%d", s.SMTPServer, s.SMTPPort)
	if err := smtp.SendMail(addr, auth, s.SenderEmail, []string{toEmail}, []byte(message)); err != nil {
		logger.L.Error("Failed to send verification email via SMTP", "error", err, "to", toEmail)
		return fmt.Errorf("failed to send verification email via SMTP: %w", err)
	}
	logger.L.Info("Verification email sent via SMTP", "to", toEmail)
	return nil
}

type MailgunEmailService struct {
	mg                       mailgun.Mailgun
	senderEmail              string
	senderName               string
	verificationEmailBaseURL string
}

func (s *MailgunEmailService) SendVerificationEmail(toEmail, username, token string) error {
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Verify Your Email Address for KryptoGain"
	verificationLink := fmt.Sprintf("%s?token=%s", s.verificationEmailBaseURL, token)

	plainTextBody := fmt.Sprintf(`Hi %s,

Welcome to KryptoGain! Please verify your email address by clicking the link below:
%s

If you did not create an account using this email address, please ignore this email.

Thanks,
The KryptoGain Team`, username, verificationLink)

	htmlBody := fmt.Sprintf(`
	<html>
		<body style="font-family: Arial, sans-serif; line-height: 1.6;">
			<p>Hi %s,</p>
			<p>Welcome to KryptoGain! Please verify your email address by clicking the link below:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8; text-decoration: none; font-weight: bold; padding: 10px 15px; border: 1px solid #1a73e8; border-radius: 4px; background-color: #e8f0fe;">Verify Email Address</a></p>
			<p>If the button above doesn't work, you can copy and paste the following URL into your browser's address bar:</p>
			<p><a href="%s" target="_blank" style="color: #1a73e8;">%s</a></p>
			<p>If you did not create an account using this email address, please ignore this email.</p>
			<p>Thanks,<br>The KryptoGain Team</p>
		</body>
	</html>`, username, verificationLink, verificationLink, verificationLink)

	message := s.mg.NewMessage(from, subject, plainTextBody, toEmail)
	message.SetHtml(htmlBody)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send verification email via Mailgun", "error", err, "to", toEmail, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Verification email sent via Mailgun", "to", toEmail, "id", id)
	return nil
}

type MockEmailService struct {
	VerificationEmailBaseURL string
}

func (m *MockEmailService) SendVerificationEmail(toEmail, username, token string) error {
	verificationLink := fmt.Sprintf("%s?token=%s", m.VerificationEmailBaseURL, token)
	logger.L.Info("MockEmailService: Would send verification email.",
		"to", toEmail, "username", username, "verificationLink", verificationLink)
	return nil
}
