package utils

import (
	"fmt"
	"os"
	"strconv"

	gomail "gopkg.in/gomail.v2"
)

// ResetEmailBody builds the HTML body sent on forgot-password. Kept separate
// from the send so it can be tested without an SMTP server.
func ResetEmailBody(name, resetURL string) string {
	if name == "" {
		name = "User"
	}
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1>Reset Your Password</h1>
  <p>Hello %s,</p>
  <p>We received a request to reset your password. If you didn't make this request, you can safely ignore this email.</p>
  <p><a href="%s">Reset Password</a></p>
  <p>Or copy and paste this URL into your browser:</p>
  <p>%s</p>
  <p>This link will expire in 24 hours.</p>
  <p>Thank you,<br>QR Code Generator Team</p>
</div>`, name, resetURL, resetURL)
}

func ResetPasswordURL(token string) string {
	base := os.Getenv("APP_URL")
	return fmt.Sprintf("%s/auth/reset-password?token=%s", base, token)
}

func SendPasswordResetEmail(email, token, name string) error {
	host := os.Getenv("EMAIL_SERVER_HOST")
	port, err := strconv.Atoi(os.Getenv("EMAIL_SERVER_PORT"))
	if err != nil {
		return fmt.Errorf("invalid EMAIL_SERVER_PORT: %w", err)
	}
	user := os.Getenv("EMAIL_SERVER_USER")
	pass := os.Getenv("EMAIL_SERVER_PASSWORD")
	from := os.Getenv("EMAIL_SERVER_FROM")

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Reset your password")
	m.SetBody("text/html", ResetEmailBody(name, ResetPasswordURL(token)))

	d := gomail.NewDialer(host, port, user, pass)
	return d.DialAndSend(m)
}
