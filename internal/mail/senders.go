package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"strings"
	"time"
)

const emailJSEndpoint = "https://api.emailjs.com/api/v1.0/email/send"

// EmailJSSender posts to the EmailJS REST API.
type EmailJSSender struct {
	PublicKey  string
	PrivateKey string
	Endpoint   string
	HTTPClient *http.Client
}

func NewEmailJSSender(publicKey, privateKey string) *EmailJSSender {
	return &EmailJSSender{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Endpoint:   emailJSEndpoint,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type emailJSRequest struct {
	ServiceID   string `json:"service_id"`
	TemplateID  string `json:"template_id"`
	UserID      string `json:"user_id"`
	AccessToken string `json:"accessToken,omitempty"`
	Params      Params `json:"template_params"`
}

// Configured needs both EmailJS ids.
func (s *EmailJSSender) Configured(serviceID, templateID string) bool {
	return serviceID != "" && templateID != ""
}

func (s *EmailJSSender) Send(ctx context.Context, serviceID, templateID string, p Params) error {
	body, err := json.Marshal(emailJSRequest{
		ServiceID:   serviceID,
		TemplateID:  templateID,
		UserID:      s.PublicKey,
		AccessToken: s.PrivateKey,
		Params:      p,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building emailjs request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling emailjs: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("emailjs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// SMTPSender mails the message straight to the site owner. Service and
// template ids are not used.
type SMTPSender struct {
	Host string
	Port string
	User string
	Pass string
	To   string

	// send is smtp.SendMail, swapped in tests.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPSender(host, port, user, pass, to string) *SMTPSender {
	if host == "" {
		host = "smtp.gmail.com"
	}
	if port == "" {
		port = "587"
	}
	return &SMTPSender{Host: host, Port: port, User: user, Pass: pass, To: to, send: smtp.SendMail}
}

// Configured needs SMTP credentials; the EmailJS ids are irrelevant.
func (s *SMTPSender) Configured(_, _ string) bool {
	return s.User != "" && s.Pass != ""
}

func (s *SMTPSender) Send(ctx context.Context, _, _ string, p Params) error {
	if s.User == "" || s.Pass == "" {
		return fmt.Errorf("SMTP credentials not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to := s.To
	if to == "" {
		to = s.User
	}
	return s.send(s.Host+":"+s.Port, smtp.PlainAuth("", s.User, s.Pass, s.Host), s.User, []string{to}, s.compose(to, p))
}

func (s *SMTPSender) compose(to string, p Params) []byte {
	subject := fmt.Sprintf("Portfolio Contact: %s", oneLine(p.FromName))
	body := fmt.Sprintf(`
New contact form submission from your portfolio:

Name: %s
Email: %s
Message:
%s

---
Sent from your portfolio contact form
`, p.FromName, p.ReplyTo, p.Message)

	return []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"From: " + s.User + "\r\n" +
		"Reply-To: " + oneLine(p.ReplyTo) + "\r\n" +
		"\r\n" +
		body + "\r\n")
}

// oneLine strips CR/LF so visitor input cannot inject headers.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
