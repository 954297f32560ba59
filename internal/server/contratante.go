package server

import (
	"net/http"
	"strconv"
	"strings"

	"contratos/internal/workflow"
	"contratos/pkg/types"

	"github.com/alexedwards/flow"
)

// caller returns the authenticated user id, answering 401 when missing.
func (s *Service) caller(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := s.userIDFromContext(r.Context())
	if err != nil {
		s.writeError(w, r, errUnauthenticated)
		return "", false
	}
	return userID, true
}

func (s *Service) handleListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	projects, err := s.workflow.ListProjects(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, projects)
}

type projectRequest struct {
	ContratanteData map[string]string `form:"contratanteData" json:"contratanteData"`
}

func (s *Service) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req projectRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	signature, closeFile, err := formFile(r, "signature")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	project, err := s.workflow.UpdateProject(r.Context(), userID, flow.Param(r.Context(), "projectID"), workflow.ProjectInput{
		ContratanteData: req.ContratanteData,
		Signature:       signature,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, project)
}

func (s *Service) handleListContracts(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	page, err := s.workflow.ListContracts(r.Context(), userID, flow.Param(r.Context(), "projectID"), listQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, page)
}

func (s *Service) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	templates, err := s.workflow.ListTemplates(r.Context(), userID, flow.Param(r.Context(), "projectID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, templates)
}

type requirementRequest struct {
	Name       string `form:"name" json:"name"`
	Type       string `form:"type" json:"type"`
	DueDate    string `form:"dueDate" json:"dueDate"`
	TemplateID string `form:"templateId" json:"templateId"`
}

func (req requirementRequest) input(verr *types.ValidationError, field string) workflow.RequirementInput {
	return workflow.RequirementInput{
		Name:       req.Name,
		Type:       types.DocumentPhase(strings.ToLower(strings.TrimSpace(req.Type))),
		DueDate:    parseDate(verr, field+"dueDate", req.DueDate),
		TemplateID: optionalString(req.TemplateID),
	}
}

type createContractRequest struct {
	ProjectID    string               `form:"projectId" json:"projectId"`
	Name         string               `form:"name" json:"name"`
	Source       string               `form:"source" json:"source"`
	Object       string               `form:"object" json:"object"`
	Requirements []requirementRequest `form:"requirements" json:"requirements"`
}

func (s *Service) handleCreateContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req createContractRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	draft, closeFile, err := formFile(r, "draft")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	verr := &types.ValidationError{}
	in := workflow.CreateContractInput{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		Source:    types.ContractDraftSource(req.Source),
		Draft:     draft,
		Object:    req.Object,
	}
	for i, rr := range req.Requirements {
		in.Requirements = append(in.Requirements, rr.input(verr, "requirements["+strconv.Itoa(i)+"]."))
	}
	if err := verr.OrNil(); err != nil {
		s.writeError(w, r, err)
		return
	}

	contract, report, err := s.workflow.CreateContract(r.Context(), userID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusCreated, contract, report)
}

type renameRequest struct {
	Name string `form:"name" json:"name"`
}

func (s *Service) handleRenameContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req renameRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := s.workflow.RenameContract(r.Context(), userID, flow.Param(r.Context(), "contractID"), req.Name); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, nil)
}

func (s *Service) handleReplaceDraft(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	if err := s.parseForm(w, r); err != nil {
		s.writeError(w, r, err)
		return
	}

	draft, closeFile, err := formFile(r, "draft")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	contract, err := s.workflow.ReplaceDraft(r.Context(), userID, flow.Param(r.Context(), "contractID"), draft)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, contract)
}

func (s *Service) handleDeleteContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	if err := s.workflow.DeleteContract(r.Context(), userID, flow.Param(r.Context(), "contractID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, nil)
}

func (s *Service) handleAddRequiredDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req requirementRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	verr := &types.ValidationError{}
	in := req.input(verr, "")
	if err := verr.OrNil(); err != nil {
		s.writeError(w, r, err)
		return
	}

	doc, report, err := s.workflow.AddRequiredDocument(r.Context(), userID, flow.Param(r.Context(), "contractID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusCreated, doc, report)
}

func (s *Service) handleRemoveRequiredDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := s.workflow.RemoveRequiredDocument(ctx, userID, flow.Param(ctx, "contractID"), flow.Param(ctx, "requiredDocumentID")); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, nil)
}

type inviteRequest struct {
	Email      string `form:"email" json:"email"`
	Value      string `form:"value" json:"value"`
	StartDate  string `form:"startDate" json:"startDate"`
	EndDate    string `form:"endDate" json:"endDate"`
	TemplateID string `form:"templateId" json:"templateId"`
}

func (s *Service) handleInviteMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req inviteRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	verr := &types.ValidationError{}
	in := workflow.InviteInput{
		Email:      req.Email,
		Value:      optionalString(req.Value),
		StartDate:  parseDate(verr, "startDate", req.StartDate),
		EndDate:    parseDate(verr, "endDate", req.EndDate),
		TemplateID: optionalString(req.TemplateID),
	}
	if err := verr.OrNil(); err != nil {
		s.writeError(w, r, err)
		return
	}

	member, report, err := s.workflow.InviteMember(r.Context(), userID, flow.Param(r.Context(), "contractID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusCreated, member, report)
}

func (s *Service) handleListMembers(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	page, err := s.workflow.ListMembers(r.Context(), userID, flow.Param(r.Context(), "contractID"), listQuery(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, page)
}

func (s *Service) handleMemberOverview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	ov, err := s.workflow.MemberOverview(r.Context(), userID, flow.Param(r.Context(), "memberID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, ov)
}

func (s *Service) handleBackgroundCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	url, err := s.workflow.BackgroundCheckDocument(ctx, userID, flow.Param(ctx, "memberID"), workflow.BackgroundKind(flow.Param(ctx, "kind")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, map[string]string{"url": url})
}

type extensionRequest struct {
	StartDate string `form:"startDate" json:"startDate"`
	EndDate   string `form:"endDate" json:"endDate"`
}

func (s *Service) handleExtendContract(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	var req extensionRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	document, closeFile, err := formFile(r, "document")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeFile()

	verr := &types.ValidationError{}
	in := workflow.ExtensionInput{Document: document}
	if t := parseDate(verr, "startDate", req.StartDate); t != nil {
		in.StartDate = *t
	}
	if t := parseDate(verr, "endDate", req.EndDate); t != nil {
		in.EndDate = *t
	}
	if err := verr.OrNil(); err != nil {
		s.writeError(w, r, err)
		return
	}

	extension, report, err := s.workflow.ExtendContract(r.Context(), userID, flow.Param(r.Context(), "memberID"), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusCreated, extension, report)
}

func (s *Service) handleTerminateMember(w http.ResponseWriter, r *http.Request) {
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

	if err := s.workflow.TerminateMember(r.Context(), userID, flow.Param(r.Context(), "memberID"), document); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, nil)
}

// optionalDocument reads the "document" file of a multipart request. Other
// content types carry no file.
func (s *Service) optionalDocument(w http.ResponseWriter, r *http.Request) (*workflow.Upload, func(), error) {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return nil, func() {}, nil
	}
	if err := s.parseForm(w, r); err != nil {
		return nil, func() {}, err
	}
	return formFile(r, "document")
}

func (s *Service) handleSignAsContratante(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	report, err := s.workflow.SignAsContratante(r.Context(), userID, flow.Param(r.Context(), "memberID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeReport(w, http.StatusOK, nil, report)
}

func (s *Service) handlePreview(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.caller(w, r)
	if !ok {
		return
	}

	stored := strings.TrimSpace(r.URL.Query().Get("path"))
	if stored == "" {
		s.writeError(w, r, types.NewValidationError("path", "indica el documento"))
		return
	}

	url, err := s.workflow.DocumentPreviewURL(r.Context(), userID, flow.Param(r.Context(), "memberID"), stored)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeData(w, http.StatusOK, map[string]string{"url": url})
}
