// Package mailer sends the application's transactional emails over SMTP.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"

	"contratos/pkg/types"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

//go:embed templates
var templateFS embed.FS

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	logger    *logrus.Logger
	sender    Sender
	from      string
	fromName  string
	templates *template.Template
}

// New builds a Mailer from config. Without an SMTP host emails are logged
// and dropped.
func New(config *types.Config, logger *logrus.Logger) (*Mailer, error) {
	var sender Sender
	if config.SMTPHost != "" {
		sender = gomail.NewDialer(config.SMTPHost, config.SMTPPort, config.SMTPUsername, config.SMTPPassword)
	}
	return NewWithSender(sender, config.MailFrom, logger)
}

func NewWithSender(sender Sender, from string, logger *logrus.Logger) (*Mailer, error) {
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	return &Mailer{
		logger:    logger,
		sender:    sender,
		from:      from,
		fromName:  "Contratos",
		templates: templates,
	}, nil
}

func loadTemplates() (*template.Template, error) {
	t := template.New("")
	err := fs.WalkDir(templateFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(templateFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}

func (m *Mailer) render(templateName string, data any) (string, error) {
	var buf bytes.Buffer
	if err := m.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// Send renders templateName with data and delivers it as an HTML email.
func (m *Mailer) Send(ctx context.Context, to, subject, templateName string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	html, err := m.render(templateName, data)
	if err != nil {
		return err
	}

	if m.sender == nil {
		m.logger.WithFields(logrus.Fields{
			"to":       to,
			"subject":  subject,
			"template": templateName,
		}).Warn("smtp not configured, email dropped")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", msg.FormatAddress(m.from, m.fromName))
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to send %s email to %s: %w", templateName, to, err)
	}

	return nil
}

type ContactMessage struct {
	Name    string
	Email   string
	Company string
	Message string
}

func (m *Mailer) SendContact(ctx context.Context, to string, msg ContactMessage) error {
	return m.Send(ctx, to, "Nuevo mensaje de contacto: "+msg.Name, "email.contact", msg)
}

type ContractSigned struct {
	ContractName    string
	ContratistaName string
	SignedOn        string
}

func (m *Mailer) SendContractSigned(ctx context.Context, to string, data ContractSigned) error {
	return m.Send(ctx, to, "Contrato firmado: "+data.ContractName, "email.contract_signed", data)
}

type Invitation struct {
	ContractName string
	Organization string
	LoginURL     string
}

func (m *Mailer) SendInvitation(ctx context.Context, to string, data Invitation) error {
	return m.Send(ctx, to, "Invitación al contrato "+data.ContractName, "email.invitation", data)
}
