package workflow

import (
	"context"
	"net/mail"
	"strings"

	"contratos/internal/mailer"
	"contratos/pkg/types"
)

// SubmitContactForm forwards a marketing site message to the contact inbox.
func (s *Service) SubmitContactForm(ctx context.Context, msg mailer.ContactMessage) error {
	msg.Name = strings.TrimSpace(msg.Name)
	msg.Email = strings.TrimSpace(msg.Email)
	msg.Company = strings.TrimSpace(msg.Company)
	msg.Message = strings.TrimSpace(msg.Message)

	verr := &types.ValidationError{}
	if msg.Name == "" {
		verr.Add("name", "el nombre es obligatorio")
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		verr.Add("email", "ingresa un correo válido")
	}
	if msg.Message == "" {
		verr.Add("message", "el mensaje es obligatorio")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if s.mailer == nil || s.config.ContactEmail == "" {
		s.logger.WithField("email", msg.Email).Warn("contact form received but no contact inbox is configured")
		return nil
	}

	return s.mailer.SendContact(ctx, s.config.ContactEmail, msg)
}
