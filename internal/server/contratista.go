package server

import (
	"net/http"

	"contratos/internal/workflow"

	"github.com/alexedwards/flow"
)

func (s *Service) handleListMyContracts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	page, err := s.workflow.ListMyContracts(r.Context(), userID, listQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, page)
}

func (s *Service) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	report, err := s.workflow.AcceptInvitation(r.Context(), userID, flow.Param(r.Context(), "memberID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusOK, map[string]int{"created": report.Created}, report)
}

// uploadedFile parses the multipart body and returns its "file" part.
func (s *Service) uploadedFile(w http.ResponseWriter, r *http.Request, field string) (*workflow.Upload, func(), error) {
	if err := s.parseForm(w, r); err != nil {
		return nil, func() {}, err
	}
	return formFile(r, field)
}

func (s *Service) handleUploadPrecontractual(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	file, closeFile, err := s.uploadedFile(w, r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	ctx := r.Context()
	stored, err := s.workflow.UploadPrecontractual(ctx, userID, flow.Param(ctx, "memberID"), flow.Param(ctx, "requiredDocumentID"), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, map[string]string{"path": stored})
}

func (s *Service) handleUploadContractual(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	file, closeFile, err := s.uploadedFile(w, r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	ctx := r.Context()
	stored, err := s.workflow.UploadContractual(ctx, userID, flow.Param(ctx, "memberID"), flow.Param(ctx, "requiredDocumentID"), r.FormValue("month"), file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, map[string]string{"path": stored})
}

type extraRequest struct {
	Name  string `form:"name"`
	Month string `form:"month"`
}

func (s *Service) handleUploadExtra(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req extraRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	file, closeFile, err := formFile(r, "file")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	doc, err := s.workflow.UploadExtraDocument(r.Context(), userID, flow.Param(r.Context(), "memberID"), workflow.ExtraDocumentInput{
		Name:  req.Name,
		Month: optionalString(req.Month),
		File:  file,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusCreated, doc)
}

func (s *Service) handleDeleteExtra(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	report, err := s.workflow.DeleteExtraDocument(ctx, userID, flow.Param(ctx, "memberID"), flow.Param(ctx, "extraID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusOK, nil, report)
}

func (s *Service) handleSign(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	signature, closeFile, err := s.uploadedFile(w, r, "signature")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	report, err := s.workflow.Sign(r.Context(), userID, flow.Param(r.Context(), "memberID"), signature)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusOK, nil, report)
}

func (s *Service) handleRequestTermination(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	document, closeFile, err := s.optionalDocument(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	if err := s.workflow.RequestTermination(r.Context(), userID, flow.Param(r.Context(), "memberID"), document); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, nil)
}
