package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"contratos/internal/clients"
	"contratos/pkg/types"

	"github.com/sirupsen/logrus"
)

var (
	errRouteNotFound = errors.New("route not found")
	errBadRequest    = errors.New("bad request")
)

func (s *Service) writeJSON(w http.ResponseWriter, status int, body types.Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("failed to encode response")
	}
}

func (s *Service) writeData(w http.ResponseWriter, status int, data any) {
	s.writeJSON(w, status, types.Envelope{Success: true, Data: data})
}

// writeReport answers a partially successful batch operation: the call
// succeeded and every failed row is listed as a warning.
func (s *Service) writeReport(w http.ResponseWriter, status int, data any, report types.BatchReport) {
	s.writeJSON(w, status, types.Envelope{Success: true, Data: data, Warnings: report.Warnings})
}

// statusFor maps a workflow error to the HTTP status and the message shown
// to the user.
func statusFor(err error) (int, string) {
	var verr *types.ValidationError
	var apiErr *clients.APIError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "revisa los campos marcados"
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "solicitud inválida"
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized, "inicia sesión para continuar"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "no tienes permiso para esta acción"
	case errors.Is(err, errRouteNotFound), types.IsNotFound(err):
		return http.StatusNotFound, "no encontrado"
	case errors.Is(err, types.ErrPhaseLocked):
		return http.StatusConflict, "esta fase aún está bloqueada"
	case errors.Is(err, types.ErrEndingAlreadySet):
		return http.StatusConflict, "ya existe una terminación para este contrato"
	case errors.Is(err, types.ErrAlreadySigned):
		return http.StatusConflict, "el contrato ya fue firmado"
	case errors.Is(err, types.ErrInvitationClosed):
		return http.StatusConflict, "la invitación ya fue aceptada"
	case errors.Is(err, types.ErrDocumentRejected):
		return http.StatusUnprocessableEntity, "el documento no pasó la verificación"
	case errors.Is(err, clients.ErrNoBackgroundDocument):
		return http.StatusNotFound, "la verificación no tiene certificado"
	case errors.Is(err, clients.ErrGenerationFailed), errors.As(err, &apiErr):
		return http.StatusBadGateway, "un servicio externo no respondió correctamente"
	}

	return http.StatusInternalServerError, "ocurrió un error inesperado"
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)

	entry := s.logger.WithError(err).WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"request_id": requestIDFromContext(r.Context()),
	})
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Debug("request rejected")
	}

	body := types.Envelope{Error: msg}
	var verr *types.ValidationError
	if errors.As(err, &verr) {
		body.Fields = verr.Fields
	}

	s.writeJSON(w, status, body)
}
