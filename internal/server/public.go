package server

import (
	"net/http"

	"contratos/internal/mailer"
)

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, http.StatusOK, map[string]string{"status": "ok"})
}

type contactRequest struct {
	Name    string `form:"name" json:"name"`
	Email   string `form:"email" json:"email"`
	Company string `form:"company" json:"company"`
	Message string `form:"message" json:"message"`
}

func (s *Service) handleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	err := s.workflow.SubmitContactForm(r.Context(), mailer.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Message: req.Message,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, nil)
}
