// pkg/email/email.go
package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"
)

type EmailService struct {
	apiKey    string
	from      string
	templates *template.Template
}

type EmailData struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Html    string `json:"html"`
}

// Template data structures
type WelcomeEmailData struct {
	Name string
}

type PasswordResetData struct {
	ResetLink string
}

type SubscriptionEmailData struct {
	Name          string
	PlanName      string
	Price         float64
	Currency      string
	MaxPortfolios int
	PeriodEnd     time.Time
	IsRenewal     bool
}

type SubscriptionCancelledData struct {
	Name      string
	PlanName  string
	PeriodEnd time.Time
}

type SubscriptionExpiryWarningData struct {
	Name       string
	PlanName   string
	DaysLeft   int
	ExpiryDate time.Time
}

type ExportReadyData struct {
	Name        string
	DownloadURL string
}

func NewEmailService(apiKey string) (*EmailService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("resend API key is required")
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("error loading email templates: %v", err)
	}

	return &EmailService{
		apiKey:    apiKey,
		from:      "CodeCanvas <noreply@codecanvas.dev>",
		templates: templates,
	}, nil
}

func (s *EmailService) sendTemplateEmail(to, subject, templateName string, data interface{}) error {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, templateName, data); err != nil {
		return fmt.Errorf("template execution error: %v", err)
	}

	emailData := EmailData{
		From:    s.from,
		To:      to,
		Subject: subject,
		Html:    body.String(),
	}

	jsonData, err := json.Marshal(emailData)
	if err != nil {
		return fmt.Errorf("error marshaling email data: %v", err)
	}

	req, err := http.NewRequest("POST", "https://api.resend.com/emails", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response body: %v", err)
	}

	log.Printf("Resend API response: Status: %d", resp.StatusCode)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("resend API error: %s", string(respBody))
	}

	return nil
}

// Email sending methods
func (s *EmailService) SendWelcomeEmail(email, name string) error {
	data := WelcomeEmailData{Name: name}
	return s.sendTemplateEmail(email, "Welcome to CodeCanvas! 🎉", "welcome.html", data)
}

func (s *EmailService) SendPasswordResetEmail(email, resetLink string) error {
	data := PasswordResetData{ResetLink: resetLink}
	return s.sendTemplateEmail(email, "Reset Your CodeCanvas Password", "password_reset.html", data)
}

func (s *EmailService) SendSubscriptionStartedEmail(
	email, name, planName string,
	price float64,
	currency string,
	maxPortfolios int,
	periodEnd time.Time,
	isRenewal bool,
) error {
	data := SubscriptionEmailData{
		Name:          name,
		PlanName:      planName,
		Price:         price,
		Currency:      currency,
		MaxPortfolios: maxPortfolios,
		PeriodEnd:     periodEnd,
		IsRenewal:     isRenewal,
	}

	subject := "Welcome to CodeCanvas " + planName + "! 🎉"
	if isRenewal {
		subject = "Your CodeCanvas Subscription Has Been Renewed 🔄"
	}

	return s.sendTemplateEmail(email, subject, "subscription_started.html", data)
}

func (s *EmailService) SendSubscriptionCancelledEmail(email, name, planName string, periodEnd time.Time) error {
	data := SubscriptionCancelledData{
		Name:      name,
		PlanName:  planName,
		PeriodEnd: periodEnd,
	}
	return s.sendTemplateEmail(email, "Your Subscription Has Been Cancelled", "subscription_cancelled.html", data)
}

func (s *EmailService) SendSubscriptionExpiryWarning(email, name, planName string, expiryDate time.Time, daysLeft int) error {
	data := SubscriptionExpiryWarningData{
		Name:       name,
		PlanName:   planName,
		DaysLeft:   daysLeft,
		ExpiryDate: expiryDate,
	}
	return s.sendTemplateEmail(email, fmt.Sprintf("Your subscription expires in %d days", daysLeft), "subscription_expiry_warning.html", data)
}

func (s *EmailService) SendExportReadyEmail(email, name, downloadURL string) error {
	data := ExportReadyData{Name: name, DownloadURL: downloadURL}
	return s.sendTemplateEmail(email, "Your portfolio export is ready 📦", "export_ready.html", data)
}
