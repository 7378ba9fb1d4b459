package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"

	"github.com/rifayetuxbd/craftshop-api/internal/logging"
)

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, fromEmail, frontendURL string) *Service {
	if fromEmail == "" {
		fromEmail = smtpUser
	}
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    fromEmail,
		frontendURL:  frontendURL,
	}
}

// SendVerificationCode emails the six digit verification code together
// with a one-click verification link. The matching token stays
// server-side; the link only carries email and code.
func (s *Service) SendVerificationCode(ctx context.Context, toEmail, displayName, code, _ string) error {
	logger := logging.FromContext(ctx)

	verificationLink := fmt.Sprintf("%s/auth/verify-email?email=%s&code=%s",
		s.frontendURL, url.QueryEscape(toEmail), url.QueryEscape(code))

	subject := "[Hajiganj Crafts] Verify your email"
	body, err := renderTemplate(verificationEmailTemplate, verificationEmailData{
		DisplayName:      displayName,
		Code:             code,
		VerificationLink: verificationLink,
	})
	if err != nil {
		logger.Error("failed to render verification email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordReset emails the password reset link.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, displayName, code string) error {
	logger := logging.FromContext(ctx)

	resetLink := fmt.Sprintf("%s/auth/reset-password?email=%s&code=%s",
		s.frontendURL, url.QueryEscape(toEmail), url.QueryEscape(code))

	subject := "[Hajiganj Crafts] Reset your password"
	body, err := renderTemplate(passwordResetEmailTemplate, passwordResetEmailData{
		DisplayName: displayName,
		ResetLink:   resetLink,
	})
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

type verificationEmailData struct {
	DisplayName      string
	Code             string
	VerificationLink string
}

type passwordResetEmailData struct {
	DisplayName string
	ResetLink   string
}

func renderTemplate(tmpl string, data any) (string, error) {
	t, err := template.New("email").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}
	return buf.String(), nil
}

const verificationEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .code {
            font-size: 28px;
            letter-spacing: 6px;
            font-weight: bold;
            text-align: center;
            padding: 16px;
            background-color: #f3f4f6;
            border-radius: 5px;
        }
        .button {
            display: inline-block;
            background-color: #b45309;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <h2>Hello {{.DisplayName}},</h2>
    <p>Use this code to verify your email address:</p>

    <div class="code">{{.Code}}</div>

    <p>Or click the button below:</p>
    <a href="{{.VerificationLink}}" class="button" style="color: white !important;">Verify Email Address</a>

    <p>If you didn't create an account, you can safely ignore this email.</p>
    <div class="footer">
        <p>This code is valid for 10 minutes.</p>
        <p>&copy; 2026 Hajiganj Crafts. All rights reserved.</p>
    </div>
</body>
</html>
`

const passwordResetEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .button {
            display: inline-block;
            background-color: #b45309;
            color: white !important;
            padding: 12px 30px;
            text-decoration: none;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <h2>Hello {{.DisplayName}},</h2>
    <p>We received a request to reset your password. Click the button below to choose a new one.</p>

    <a href="{{.ResetLink}}" class="button" style="color: white !important;">Reset Password</a>

    <p>If you didn't request this, you can safely ignore this email.</p>
    <div class="footer">
        <p>This link is valid for 10 minutes.</p>
        <p>&copy; 2026 Hajiganj Crafts. All rights reserved.</p>
    </div>
</body>
</html>
`
