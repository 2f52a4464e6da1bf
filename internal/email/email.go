// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"log"
	"net/smtp"
	"strings"
	"time"
)

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

// NewService creates a new email service
func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Email represents an email message
type Email struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	HTMLBody string
}

// loadTemplates loads all email templates
func (s *Service) loadTemplates() {

	// Survey Assignment Template
	s.templates["survey_assigned"] = template.Must(template.New("survey_assigned").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: linear-gradient(135deg, #f59e0b 0%, #d97706 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
        .content { background: #f9fafb; padding: 30px; border-radius: 0 0 10px 10px; }
        .project-card { background: white; border-radius: 8px; padding: 20px; margin: 20px 0; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .btn { display: inline-block; background: #f59e0b; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; margin-top: 15px; }
        .btn-whatsapp { background: #25d366; margin-left: 8px; }
        .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 20px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Nova Vistoria Atribuída</h1>
        </div>
        <div class="content">
            <p>Olá {{.IntegratorName}},</p>
            <p><strong>{{.AssignedBy}}</strong> atribuiu uma vistoria técnica a você.</p>

            <div class="project-card">
                <h2>{{.ClientName}}</h2>
                <p><strong>Endereço:</strong> {{.Address}}</p>
                {{if .PowerKwp}}<p><strong>Potência estimada:</strong> {{.PowerKwp}} kWp</p>{{end}}
                {{if .Notes}}<p><strong>Observações:</strong><br/>{{.Notes}}</p>{{end}}
            </div>

            <a href="{{.ProjectURL}}" class="btn">Abrir Projeto</a>
            {{if .WhatsAppLink}}<a href="{{.WhatsAppLink}}" class="btn btn-whatsapp">Confirmar no WhatsApp</a>{{end}}
        </div>
        <div class="footer">
            <p>SolarFlow Pro • Gestão de Projetos Fotovoltaicos</p>
        </div>
    </div>
</body>
</html>
`))

	// Password Reset Template
	s.templates["password_reset"] = template.Must(template.New("password_reset").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #f59e0b; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #f59e0b; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Redefinição de Senha</h2>
    </div>
    <div class="content">
        <p>Olá {{.UserName}},</p>
        <p>Recebemos um pedido para redefinir a sua senha. O link abaixo expira em 1 hora.</p>

        <a href="{{.ResetURL}}" class="btn">Redefinir Senha</a>

        <p style="margin-top: 16px; font-size: 14px; color: #6b7280;">
            Se você não pediu a redefinição, pode ignorar este email.
        </p>
    </div>
    <div class="footer">
        SolarFlow Pro • Gestão de Projetos Fotovoltaicos
    </div>
</div>
</body>
</html>
`))

	// Workflow Stage Template
	s.templates["status_changed"] = template.Must(template.New("status_changed").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0ea5e9; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .stage { background: white; border-radius: 8px; padding: 16px; margin: 16px 0; }
        .btn { display: inline-block; background: #0ea5e9; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>Projeto Avançou de Etapa</h2>
    </div>
    <div class="content">
        <p>Olá {{.UserName}},</p>
        <p>O projeto <strong>{{.ClientName}}</strong> mudou de etapa.</p>

        <div class="stage">
            <p>{{.OldStatus}} &rarr; <strong>{{.NewStatus}}</strong></p>
        </div>

        <a href="{{.ProjectURL}}" class="btn">Ver Projeto</a>
    </div>
    <div class="footer">
        SolarFlow Pro • Gestão de Projetos Fotovoltaicos
    </div>
</div>
</body>
</html>
`))
}

// Send sends an email
func (s *Service) Send(email *Email) error {
	var msg bytes.Buffer

	// Headers
	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if len(email.CC) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(email.CC, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.Body)
	}

	recipients := append(email.To, email.CC...)
	recipients = append(recipients, email.BCC...)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.Host,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial error: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			return fmt.Errorf("SMTP client error: %w", err)
		}
		defer client.Close()

		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("auth error: %w", err)
		}

		if err = client.Mail(s.config.From); err != nil {
			return fmt.Errorf("mail error: %w", err)
		}

		for _, rcpt := range recipients {
			if err = client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt error: %w", err)
			}
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("data error: %w", err)
		}

		_, err = w.Write(msg.Bytes())
		if err != nil {
			return fmt.Errorf("write error: %w", err)
		}

		err = w.Close()
		if err != nil {
			return fmt.Errorf("close error: %w", err)
		}

		return client.Quit()
	}

	// Non-TLS
	return smtp.SendMail(addr, auth, s.config.From, recipients, msg.Bytes())
}

// SendWithTemplate sends an email using a template
func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("template execution error: %w", err)
	}

	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body.String(),
	})
}

// ============================================
// Convenience Methods
// ============================================

// SurveyAssignedData holds data for survey assignment email
type SurveyAssignedData struct {
	IntegratorName string
	AssignedBy     string
	ClientName     string
	Address        string
	PowerKwp       string
	Notes          string
	ProjectURL     string
	WhatsAppLink   string
}

// SendSurveyAssigned sends a survey assignment email
func (s *Service) SendSurveyAssigned(to string, data SurveyAssignedData) error {
	return s.SendWithTemplate(
		[]string{to},
		fmt.Sprintf("[SolarFlow] Nova vistoria: %s", data.ClientName),
		"survey_assigned",
		data,
	)
}

// PasswordResetData holds data for password reset email
type PasswordResetData struct {
	UserName string
	ResetURL string
}

// SendPasswordReset sends a password reset email
func (s *Service) SendPasswordReset(to string, data PasswordResetData) error {
	return s.SendWithTemplate(
		[]string{to},
		"[SolarFlow] Redefinição de senha",
		"password_reset",
		data,
	)
}

// StatusChangedData holds data for workflow stage emails. Sent through the
// queue rather than inline, a completed project fans out to the whole
// engineering team.
type StatusChangedData struct {
	UserName   string
	ClientName string
	OldStatus  string
	NewStatus  string
	ProjectURL string
}

// ============================================
// Async Email Queue (simple in-memory)
// ============================================

// EmailQueue handles async email sending
type EmailQueue struct {
	service *Service
	queue   chan *queuedEmail
	done    chan bool
}

type queuedEmail struct {
	to           []string
	subject      string
	templateName string
	data         interface{}
	retries      int
}

// NewEmailQueue creates a new email queue
func NewEmailQueue(service *Service, workers int) *EmailQueue {
	q := &EmailQueue{
		service: service,
		queue:   make(chan *queuedEmail, 1000),
		done:    make(chan bool),
	}

	for i := 0; i < workers; i++ {
		go q.worker()
	}

	return q
}

func (q *EmailQueue) worker() {
	for {
		select {
		case email := <-q.queue:
			err := q.service.SendWithTemplate(email.to, email.subject, email.templateName, email.data)
			if err != nil {
				log.Printf("Email send error: %v", err)
				if email.retries < 3 {
					email.retries++
					time.Sleep(time.Second * time.Duration(email.retries*2))
					q.queue <- email
				}
			}
		case <-q.done:
			return
		}
	}
}

// Enqueue adds an email to the queue
func (q *EmailQueue) Enqueue(to []string, subject, templateName string, data interface{}) {
	q.queue <- &queuedEmail{
		to:           to,
		subject:      subject,
		templateName: templateName,
		data:         data,
		retries:      0,
	}
}

// Stop stops the email queue workers
func (q *EmailQueue) Stop() {
	close(q.done)
}
