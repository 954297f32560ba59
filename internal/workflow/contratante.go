package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"contratos/internal/lifecycle"
	"contratos/internal/mailer"
	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/sirupsen/logrus"
)

// ListProjects returns every project of every organization the user owns.
func (s *Service) ListProjects(ctx context.Context, userID string) ([]*types.ContractualProject, error) {
	orgs, err := s.stores.Organizations.OrganizationsByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]*types.ContractualProject, 0)
	for _, org := range orgs {
		projects, err := s.stores.Projects.ProjectsByOrganization(ctx, org.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, projects...)
	}

	return out, nil
}

// ListTemplates returns the templates a project's members can be invited
// with: the organization's own plus the shared ones.
func (s *Service) ListTemplates(ctx context.Context, userID, projectID string) ([]*types.Template, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	return s.stores.Templates.TemplatesForOrganization(ctx, project.OrganizationID)
}

func (s *Service) ListContracts(ctx context.Context, userID, projectID string, q ListQuery) (types.Page[*types.Contract], error) {
	if _, err := s.ownedProject(ctx, userID, projectID); err != nil {
		return types.Page[*types.Contract]{}, err
	}

	contracts, err := s.stores.Contracts.ContractsByProject(ctx, projectID)
	if err != nil {
		return types.Page[*types.Contract]{}, err
	}

	q = q.normalized()
	return lifecycle.PageOf(contracts, q.Search, q.Page, q.PageSize,
		func(c *types.Contract) string { return c.Name },
	), nil
}

type RequirementInput struct {
	Name       string
	Type       types.DocumentPhase
	DueDate    *time.Time
	TemplateID *string
}

func (in RequirementInput) validate(verr *types.ValidationError, prefix string) {
	if strings.TrimSpace(in.Name) == "" {
		verr.Add(prefix+"name", "el nombre del documento es obligatorio")
	}
	if !in.Type.Valid() {
		verr.Add(prefix+"type", "el tipo debe ser precontractual o contractual")
	}
}

type CreateContractInput struct {
	ProjectID    string
	Name         string
	Source       types.ContractDraftSource
	Draft        *Upload
	Object       string
	Requirements []RequirementInput
}

func (in CreateContractInput) validate() error {
	verr := &types.ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.Add("name", "el nombre del contrato es obligatorio")
	}

	switch in.Source {
	case types.DraftSourceUpload:
		if in.Draft == nil {
			verr.Add("draft", "adjunta el borrador del contrato")
		}
	case types.DraftSourceAI:
		if strings.TrimSpace(in.Object) == "" {
			verr.Add("object", "describe el objeto contractual")
		}
	case types.DraftSourceNone, "":
	default:
		verr.Add("source", "origen de borrador no soportado")
	}

	for i, req := range in.Requirements {
		req.validate(verr, fmt.Sprintf("requirements[%d].", i))
	}

	return verr.OrNil()
}

// CreateContract creates the contract with its draft and its required
// documents. The contract itself failing aborts the operation; a failing
// requirement becomes a warning and is not rolled back.
func (s *Service) CreateContract(ctx context.Context, userID string, in CreateContractInput) (*types.Contract, types.BatchReport, error) {
	var report types.BatchReport

	if err := in.validate(); err != nil {
		return nil, report, err
	}

	if _, err := s.ownedProject(ctx, userID, in.ProjectID); err != nil {
		return nil, report, err
	}

	contract := &types.Contract{
		ID:        utils.NanoID(),
		ProjectID: in.ProjectID,
		Name:      strings.TrimSpace(in.Name),
		Status:    types.ContractStatusDraft,
	}

	switch in.Source {
	case types.DraftSourceUpload:
		data, err := s.readUpload("draft", in.Draft)
		if err != nil {
			return nil, report, err
		}
		objectPath := lifecycle.ContractDraftPath(contract.ID, in.Draft.Filename)
		if err := s.storePrivate(ctx, objectPath, in.Draft, data); err != nil {
			return nil, report, fmt.Errorf("failed to upload contract draft: %w", err)
		}
		contract.DraftURL = &objectPath
	case types.DraftSourceAI:
		if s.clients.Generator == nil {
			return nil, report, types.NewValidationError("source", "la generación de contratos no está disponible")
		}
		docURL, err := s.clients.Generator.Generate(ctx, in.Object)
		if err != nil {
			return nil, report, fmt.Errorf("failed to generate contract draft: %w", err)
		}
		contract.DraftURL = &docURL
	}

	if err := s.stores.Contracts.Create(ctx, contract); err != nil {
		return nil, report, err
	}

	for _, req := range in.Requirements {
		doc := &types.RequiredDocument{
			ContractID: contract.ID,
			Name:       strings.TrimSpace(req.Name),
			Type:       req.Type,
			DueDate:    req.DueDate,
			TemplateID: req.TemplateID,
		}
		if err := s.stores.Requirements.Create(ctx, doc); err != nil {
			report.Warn(fmt.Sprintf("no se pudo crear el documento requerido %q: %v", doc.Name, err))
			continue
		}
		report.Created++
	}

	s.logReport("create_contract", logrus.Fields{"contract_id": contract.ID}, report)

	return contract, report, nil
}

func (s *Service) RenameContract(ctx context.Context, userID, contractID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.NewValidationError("name", "el nombre del contrato es obligatorio")
	}

	if _, _, err := s.ownedContract(ctx, userID, contractID); err != nil {
		return err
	}

	if err := s.stores.Contracts.Rename(ctx, contractID, name); err != nil {
		return err
	}

	s.invalidateContract(ctx, contractID)
	return nil
}

// ReplaceDraft uploads a new draft file and removes the previous upload when
// it lived at a different path.
func (s *Service) ReplaceDraft(ctx context.Context, userID, contractID string, draft *Upload) (*types.Contract, error) {
	contract, _, err := s.ownedContract(ctx, userID, contractID)
	if err != nil {
		return nil, err
	}

	data, err := s.readUpload("draft", draft)
	if err != nil {
		return nil, err
	}

	objectPath := lifecycle.ContractDraftPath(contract.ID, draft.Filename)
	if err := s.storePrivate(ctx, objectPath, draft, data); err != nil {
		return nil, fmt.Errorf("failed to upload contract draft: %w", err)
	}

	previous := contract.DraftURL
	if err := s.stores.Contracts.SetDraftURL(ctx, contract.ID, &objectPath); err != nil {
		return nil, err
	}

	if previous != nil && *previous != objectPath {
		if _, isDoc := contract.GoogleDocID(); !isDoc {
			if err := s.objects.Remove(ctx, s.config.PrivateBucket, *previous); err != nil {
				s.logger.WithError(err).WithField("path", *previous).Warn("failed to remove previous contract draft")
			}
		}
	}

	contract.DraftURL = &objectPath
	s.invalidateContract(ctx, contract.ID)

	return contract, nil
}

func (s *Service) DeleteContract(ctx context.Context, userID, contractID string) error {
	if _, _, err := s.ownedContract(ctx, userID, contractID); err != nil {
		return err
	}

	if err := s.stores.Contracts.SoftDelete(ctx, contractID); err != nil {
		return err
	}

	s.invalidateContract(ctx, contractID)
	return nil
}

// backfillMember creates the rows an accepted member is missing for reqs:
// the precontractual ones, and the contractual ones for every month the
// member already has plus every month of the contract period.
func (s *Service) backfillMember(ctx context.Context, member *types.ContractMember, reqs []*types.RequiredDocument) types.BatchReport {
	var report types.BatchReport

	pre, err := lifecycle.ExpandPrecontractual(ctx, s.stores.Documents, member.ID, reqs)
	if err != nil {
		report.Warn(err.Error())
	}
	report.Merge(pre)

	var r lifecycle.DateRange
	if member.StartDate != nil && member.EndDate != nil {
		r = lifecycle.DateRange{From: *member.StartDate, To: *member.EndDate}
	}
	con, err := lifecycle.BackfillContractual(ctx, s.stores.Documents, member.ID, reqs, r)
	if err != nil {
		report.Warn(err.Error())
	}
	report.Merge(con)

	return report
}

// AddRequiredDocument adds a requirement and expands it for every member
// that already accepted.
func (s *Service) AddRequiredDocument(ctx context.Context, userID, contractID string, in RequirementInput) (*types.RequiredDocument, types.BatchReport, error) {
	var report types.BatchReport

	verr := &types.ValidationError{}
	in.validate(verr, "")
	if err := verr.OrNil(); err != nil {
		return nil, report, err
	}

	if _, _, err := s.ownedContract(ctx, userID, contractID); err != nil {
		return nil, report, err
	}

	doc := &types.RequiredDocument{
		ContractID: contractID,
		Name:       strings.TrimSpace(in.Name),
		Type:       in.Type,
		DueDate:    in.DueDate,
		TemplateID: in.TemplateID,
	}
	if err := s.stores.Requirements.Create(ctx, doc); err != nil {
		return nil, report, err
	}

	members, err := s.stores.Members.MembersByContract(ctx, contractID)
	if err != nil {
		report.Warn(fmt.Sprintf("no se pudieron cargar los contratistas: %v", err))
		return doc, report, nil
	}

	ids := make([]string, 0, len(members))
	for _, member := range members {
		ids = append(ids, member.ID)
		if member.Status != types.MemberStatusAccepted {
			continue
		}
		report.Merge(s.backfillMember(ctx, member, []*types.RequiredDocument{doc}))
	}
	s.invalidate(ctx, ids...)

	s.logReport("add_required_document", logrus.Fields{"contract_id": contractID, "required_document_id": doc.ID}, report)

	return doc, report, nil
}

func (s *Service) RemoveRequiredDocument(ctx context.Context, userID, contractID, requiredDocumentID string) error {
	if _, _, err := s.ownedContract(ctx, userID, contractID); err != nil {
		return err
	}

	if err := s.stores.Requirements.SoftDelete(ctx, contractID, requiredDocumentID); err != nil {
		return err
	}

	s.invalidateContract(ctx, contractID)
	return nil
}

type InviteInput struct {
	Email      string
	Value      *string
	StartDate  *time.Time
	EndDate    *time.Time
	TemplateID *string
}

func (in InviteInput) validate() error {
	verr := &types.ValidationError{}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		verr.Add("email", "ingresa un correo válido")
	}
	if (in.StartDate == nil) != (in.EndDate == nil) {
		verr.Add("endDate", "indica la fecha de inicio y la de fin")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}

	if in.StartDate != nil {
		return lifecycle.ValidateDateRange(lifecycle.DateRange{From: *in.StartDate, To: *in.EndDate})
	}
	return nil
}

// InviteMember creates a pending member for a registered user and emails
// the invitation. A failed email is reported as a warning.
func (s *Service) InviteMember(ctx context.Context, userID, contractID string, in InviteInput) (*types.ContractMember, types.BatchReport, error) {
	var report types.BatchReport

	if err := in.validate(); err != nil {
		return nil, report, err
	}

	contract, project, err := s.ownedContract(ctx, userID, contractID)
	if err != nil {
		return nil, report, err
	}

	invitee, err := s.stores.Users.UserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, report, types.NewValidationError("email", "no hay un usuario registrado con ese correo")
		}
		return nil, report, err
	}

	member := &types.ContractMember{
		UserID:     invitee.ID,
		ContractID: contract.ID,
		Status:     types.MemberStatusPending,
		Value:      in.Value,
		StartDate:  in.StartDate,
		EndDate:    in.EndDate,
	}

	if in.TemplateID != nil && *in.TemplateID != "" {
		template, err := s.stores.Templates.Template(ctx, *in.TemplateID)
		if err != nil {
			return nil, report, err
		}
		member.Document = template.Sections.Clone()
	}

	if err := s.stores.Members.Create(ctx, member); err != nil {
		return nil, report, err
	}

	if s.mailer != nil && invitee.Email != nil {
		orgName := project.Name
		if org, err := s.stores.Organizations.Organization(ctx, project.OrganizationID); err == nil {
			orgName = org.Name
		}
		err := s.mailer.SendInvitation(ctx, *invitee.Email, mailer.Invitation{
			ContractName: contract.Name,
			Organization: orgName,
			LoginURL:     strings.TrimRight(s.config.PublicURL, "/") + "/login",
		})
		if err != nil {
			report.Warn(fmt.Sprintf("no se pudo enviar la invitación: %v", err))
		}
	}

	s.logReport("invite_member", logrus.Fields{"contract_id": contract.ID, "member_id": member.ID}, report)

	return member, report, nil
}

// MemberSummary is one row of the contract's member list.
type MemberSummary struct {
	MemberID string                 `json:"memberId"`
	UserID   string                 `json:"userId"`
	Name     string                 `json:"name"`
	Email    string                 `json:"email"`
	Status   types.MemberStatus     `json:"invitationStatus"`
	Badges   lifecycle.MemberStatus `json:"status"`
}

func (s *Service) ListMembers(ctx context.Context, userID, contractID string, q ListQuery) (types.Page[*MemberSummary], error) {
	if _, _, err := s.ownedContract(ctx, userID, contractID); err != nil {
		return types.Page[*MemberSummary]{}, err
	}

	members, err := s.stores.Members.MembersByContract(ctx, contractID)
	if err != nil {
		return types.Page[*MemberSummary]{}, err
	}

	rows := make([]*MemberSummary, 0, len(members))
	for _, member := range members {
		ov, err := s.overview(ctx, member)
		if err != nil {
			return types.Page[*MemberSummary]{}, err
		}

		row := &MemberSummary{
			MemberID: member.ID,
			UserID:   member.UserID,
			Status:   member.Status,
			Badges:   ov.Status,
		}
		if ov.User != nil {
			row.Name = ov.User.DisplayName()
			row.Email = utils.PtrString(ov.User.Email)
		}
		rows = append(rows, row)
	}

	q = q.normalized()
	return lifecycle.PageOf(rows, q.Search, q.Page, q.PageSize,
		func(m *MemberSummary) string { return m.Name },
		func(m *MemberSummary) string { return m.Email },
	), nil
}

type BackgroundKind string

const (
	BackgroundJuridico        BackgroundKind = "juridico"
	BackgroundSeguridadSocial BackgroundKind = "seguridad_social"
)

// BackgroundCheckDocument fetches the certificate of one of the member's
// background checks.
func (s *Service) BackgroundCheckDocument(ctx context.Context, userID, memberID string, kind BackgroundKind) (string, error) {
	member, _, _, err := s.adminMember(ctx, userID, memberID)
	if err != nil {
		return "", err
	}

	var check *types.BackgroundCheck
	switch kind {
	case BackgroundJuridico:
		check = member.StatusJuridico
	case BackgroundSeguridadSocial:
		check = member.StatusSeguridadSocial
	default:
		return "", types.NewValidationError("kind", "tipo de verificación no soportado")
	}

	if check == nil || check.Code == "" {
		return "", types.ErrDocumentNotFound
	}
	if s.clients.Background == nil {
		return "", types.NewValidationError("kind", "la verificación de antecedentes no está disponible")
	}

	return s.clients.Background.DocumentURL(ctx, check.Code)
}

type ExtensionInput struct {
	StartDate time.Time
	EndDate   time.Time
	Document  *Upload
}

// ExtendContract records an extension, moves the member's end date and
// creates the contractual rows for the months the extension adds.
func (s *Service) ExtendContract(ctx context.Context, userID, memberID string, in ExtensionInput) (*types.ContractExtension, types.BatchReport, error) {
	var report types.BatchReport

	r := lifecycle.DateRange{From: in.StartDate, To: in.EndDate}
	if err := lifecycle.ValidateDateRange(r); err != nil {
		return nil, report, err
	}

	member, contract, _, err := s.adminMember(ctx, userID, memberID)
	if err != nil {
		return nil, report, err
	}

	if s.config.EnforceExtensionRules {
		if err := lifecycle.ValidateExtension(r, member.StartDate, member.EndDate); err != nil {
			return nil, report, err
		}
	}

	data, err := s.readUpload("document", in.Document)
	if err != nil {
		return nil, report, err
	}

	extension := &types.ContractExtension{
		ID:        utils.NanoID(),
		MemberID:  member.ID,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	}

	objectPath := lifecycle.ExtensionPath(member.ID, extension.ID, in.Document.Filename)
	if err := s.storePrivate(ctx, objectPath, in.Document, data); err != nil {
		return nil, report, fmt.Errorf("failed to upload extension document: %w", err)
	}
	extension.DocumentURL = &objectPath

	if err := s.stores.Extensions.Create(ctx, extension); err != nil {
		return nil, report, err
	}

	if err := s.stores.Members.SetEndDate(ctx, member.ID, in.EndDate); err != nil {
		report.Warn(fmt.Sprintf("no se pudo actualizar la fecha de fin: %v", err))
	}

	reqs, err := s.stores.Requirements.RequiredDocumentsByContract(ctx, contract.ID)
	if err != nil {
		report.Warn(fmt.Sprintf("no se pudieron cargar los documentos requeridos: %v", err))
	} else {
		expanded, err := lifecycle.ExpandContractual(ctx, s.stores.Documents, member.ID, reqs, r)
		if err != nil {
			report.Warn(err.Error())
		}
		report.Merge(expanded)
	}

	s.invalidate(ctx, member.ID)
	s.logReport("extend_contract", logrus.Fields{"member_id": member.ID, "extension_id": extension.ID}, report)

	return extension, report, nil
}

func (s *Service) recordEnding(ctx context.Context, member *types.ContractMember, status types.EndingStatus, document *Upload) error {
	if member.Ending != nil {
		return types.ErrEndingAlreadySet
	}

	ending := &types.Ending{Status: status}
	if document != nil {
		data, err := s.readUpload("document", document)
		if err != nil {
			return err
		}
		objectPath := lifecycle.TerminationPath(member.ID, document.Filename)
		if err := s.storePrivate(ctx, objectPath, document, data); err != nil {
			return fmt.Errorf("failed to upload termination document: %w", err)
		}
		ending.URL = &objectPath
	}

	if err := s.stores.Members.SetEnding(ctx, member.ID, ending); err != nil {
		return err
	}

	s.invalidate(ctx, member.ID)
	return nil
}

// TerminateMember ends the member's contract from the contratante side.
func (s *Service) TerminateMember(ctx context.Context, userID, memberID string, document *Upload) error {
	member, _, _, err := s.adminMember(ctx, userID, memberID)
	if err != nil {
		return err
	}
	return s.recordEnding(ctx, member, types.EndingCommon, document)
}

// SignAsContratante places the project's signature on the remaining
// signature line of a document the contratista already signed.
func (s *Service) SignAsContratante(ctx context.Context, userID, memberID string) (types.BatchReport, error) {
	var report types.BatchReport

	member, contract, project, err := s.adminMember(ctx, userID, memberID)
	if err != nil {
		return report, err
	}
	if !member.Signed {
		return report, types.ErrPhaseLocked
	}
	if member.ContratanteSigned {
		return report, types.ErrAlreadySigned
	}
	if project.SignatureURL == nil || *project.SignatureURL == "" {
		return report, types.NewValidationError("signature", "configura la firma del proyecto antes de firmar")
	}

	var document types.Sections
	if len(member.Document) > 0 {
		signed, err := lifecycle.InsertSignature(member.Document, *project.SignatureURL)
		if err != nil {
			report.Warn(fmt.Sprintf("no se insertó la firma en el documento: %v", err))
		} else {
			document = signed
		}
	}

	if err := s.stores.Members.MarkContratanteSigned(ctx, member.ID, document); err != nil {
		return report, err
	}

	if docID, ok := contract.GoogleDocID(); ok && s.clients.Stamper != nil {
		if err := s.clients.Stamper.StampSignature(ctx, docID, *project.SignatureURL, "Firma del contratante: "+project.Name); err != nil {
			report.Warn(fmt.Sprintf("no se pudo estampar la firma en el documento: %v", err))
		}
	}

	s.invalidate(ctx, member.ID)
	s.logReport("sign_as_contratante", logrus.Fields{"member_id": member.ID}, report)

	return report, nil
}

type ProjectInput struct {
	ContratanteData map[string]string
	Signature       *Upload
}

// UpdateProject stores the contratante data and optionally a new signature
// image in the public bucket.
func (s *Service) UpdateProject(ctx context.Context, userID, projectID string, in ProjectInput) (*types.ContractualProject, error) {
	project, err := s.ownedProject(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	data := make(map[string]string, len(in.ContratanteData))
	for k, v := range in.ContratanteData {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		data[k] = strings.TrimSpace(v)
	}

	var signatureURL *string
	if in.Signature != nil {
		raw, err := s.readUpload("signature", in.Signature)
		if err != nil {
			return nil, err
		}
		url, err := s.storePublic(ctx, lifecycle.ProjectSignaturePath(project.ID, in.Signature.Filename), in.Signature, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to upload project signature: %w", err)
		}
		signatureURL = &url
	}

	if err := s.stores.Projects.Update(ctx, project.ID, data, signatureURL); err != nil {
		return nil, err
	}

	project.ContratanteData = data
	if signatureURL != nil {
		project.SignatureURL = signatureURL
	}

	return project, nil
}
