package workflow

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"contratos/internal/lifecycle"
	"contratos/internal/mailer"
	"contratos/pkg/types"

	"github.com/sirupsen/logrus"
)

// MyContract is one row of the contratista's contract list.
type MyContract struct {
	MemberID string                 `json:"memberId"`
	Contract *types.Contract        `json:"contract"`
	Invite   types.MemberStatus     `json:"invitationStatus"`
	Status   lifecycle.MemberStatus `json:"status"`
}

func (s *Service) ListMyContracts(ctx context.Context, userID string, q ListQuery) (types.Page[*MyContract], error) {
	members, err := s.stores.Members.MembersByUser(ctx, userID)
	if err != nil {
		return types.Page[*MyContract]{}, err
	}

	rows := make([]*MyContract, 0, len(members))
	for _, member := range members {
		ov, err := s.overview(ctx, member)
		if err != nil {
			if errors.Is(err, types.ErrContractNotFound) {
				// contract was deleted after the invitation
				continue
			}
			return types.Page[*MyContract]{}, err
		}

		rows = append(rows, &MyContract{
			MemberID: member.ID,
			Contract: ov.Contract,
			Invite:   member.Status,
			Status:   ov.Status,
		})
	}

	q = q.normalized()
	return lifecycle.PageOf(rows, q.Search, q.Page, q.PageSize,
		func(c *MyContract) string { return c.Contract.Name },
	), nil
}

// AcceptInvitation accepts a pending invitation and creates the member's
// placeholder rows: one per precontractual requirement and one per
// contractual requirement and month of the contract period.
func (s *Service) AcceptInvitation(ctx context.Context, userID, memberID string) (types.BatchReport, error) {
	var report types.BatchReport

	member, err := s.ownMember(ctx, userID, memberID)
	if err != nil {
		return report, err
	}
	if member.Status != types.MemberStatusPending {
		return report, types.ErrInvitationClosed
	}

	if err := s.stores.Members.Accept(ctx, member.ID); err != nil {
		return report, err
	}
	s.invalidate(ctx, member.ID)

	// the first accepted invitation activates a draft contract
	contract, err := s.stores.Contracts.Contract(ctx, member.ContractID)
	if err != nil {
		report.Warn(fmt.Sprintf("no se pudo cargar el contrato: %v", err))
	} else if contract.Status == types.ContractStatusDraft {
		if err := s.stores.Contracts.SetStatus(ctx, contract.ID, types.ContractStatusActive); err != nil {
			report.Warn(fmt.Sprintf("no se pudo activar el contrato: %v", err))
		} else {
			s.invalidateContract(ctx, contract.ID)
		}
	}

	reqs, err := s.stores.Requirements.RequiredDocumentsByContract(ctx, member.ContractID)
	if err != nil {
		report.Warn(fmt.Sprintf("no se pudieron cargar los documentos requeridos: %v", err))
		return report, nil
	}

	pre, err := lifecycle.ExpandPrecontractual(ctx, s.stores.Documents, member.ID, reqs)
	if err != nil {
		report.Warn(err.Error())
	}
	report.Merge(pre)

	if member.StartDate != nil && member.EndDate != nil {
		con, err := lifecycle.ExpandContractual(ctx, s.stores.Documents, member.ID, reqs, lifecycle.DateRange{From: *member.StartDate, To: *member.EndDate})
		if err != nil {
			report.Warn(err.Error())
		}
		report.Merge(con)
	}

	s.invalidate(ctx, member.ID)
	s.logReport("accept_invitation", logrus.Fields{"member_id": member.ID}, report)

	return report, nil
}

// acceptedMember loads the user's member row and a fresh overview of it.
func (s *Service) acceptedMember(ctx context.Context, userID, memberID string) (*MemberOverview, error) {
	member, err := s.ownMember(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}
	if member.Status != types.MemberStatusAccepted {
		return nil, types.ErrPhaseLocked
	}

	return s.buildOverview(ctx, member)
}

func requirementOf(ov *MemberOverview, requiredDocumentID string, phase types.DocumentPhase) (*types.RequiredDocument, error) {
	for _, req := range ov.Requirements {
		if req.ID == requiredDocumentID && req.Type == phase {
			return req, nil
		}
	}
	return nil, types.ErrRequiredDocumentNotFound
}

// UploadPrecontractual verifies and stores the file for a precontractual
// requirement. Uploading again replaces the file.
func (s *Service) UploadPrecontractual(ctx context.Context, userID, memberID, requiredDocumentID string, up *Upload) (string, error) {
	ov, err := s.acceptedMember(ctx, userID, memberID)
	if err != nil {
		return "", err
	}

	req, err := requirementOf(ov, requiredDocumentID, types.PhasePrecontractual)
	if err != nil {
		return "", err
	}

	data, err := s.readUpload("file", up)
	if err != nil {
		return "", err
	}
	if err := s.verify(ctx, up, data, req.Name); err != nil {
		return "", err
	}

	objectPath := lifecycle.PrecontractualPath(ov.Member.ID, req.ID, up.Filename)
	if err := s.storePrivate(ctx, objectPath, up, data); err != nil {
		return "", fmt.Errorf("failed to upload precontractual document: %w", err)
	}

	if err := s.stores.Documents.SetPrecontractualURL(ctx, ov.Member.ID, req.ID, objectPath); err != nil {
		return "", err
	}

	s.invalidate(ctx, ov.Member.ID)
	return objectPath, nil
}

// UploadContractual stores the monthly file for a contractual requirement.
// It is locked until the precontractual phase is complete and the contract
// is signed.
func (s *Service) UploadContractual(ctx context.Context, userID, memberID, requiredDocumentID, month string, up *Upload) (string, error) {
	ov, err := s.acceptedMember(ctx, userID, memberID)
	if err != nil {
		return "", err
	}
	if ov.Status.Gates.ContractualLocked {
		return "", types.ErrPhaseLocked
	}

	month = strings.ToLower(strings.TrimSpace(month))
	if _, ok := lifecycle.ParseMonthLabel(month); !ok {
		return "", types.NewValidationError("month", "mes inválido, usa el formato \"enero 2024\"")
	}
	// only months of the member's period (contract plus extensions) have rows
	if !slices.Contains(ov.Months, month) {
		return "", types.NewValidationError("month", "el mes no pertenece al periodo del contrato")
	}

	req, err := requirementOf(ov, requiredDocumentID, types.PhaseContractual)
	if err != nil {
		return "", err
	}

	data, err := s.readUpload("file", up)
	if err != nil {
		return "", err
	}
	if err := s.verify(ctx, up, data, req.Name); err != nil {
		return "", err
	}

	objectPath := lifecycle.ContractualPath(ov.Member.ID, req.ID, month, up.Filename)
	if err := s.storePrivate(ctx, objectPath, up, data); err != nil {
		return "", fmt.Errorf("failed to upload contractual document: %w", err)
	}

	if err := s.stores.Documents.SetContractualURL(ctx, ov.Member.ID, req.ID, month, objectPath); err != nil {
		return "", err
	}

	s.invalidate(ctx, ov.Member.ID)
	return objectPath, nil
}

type ExtraDocumentInput struct {
	Name  string
	Month *string
	File  *Upload
}

// UploadExtraDocument stores a document outside the required set, optionally
// filed under a month.
func (s *Service) UploadExtraDocument(ctx context.Context, userID, memberID string, in ExtraDocumentInput) (*types.ContractualExtraDocument, error) {
	ov, err := s.acceptedMember(ctx, userID, memberID)
	if err != nil {
		return nil, err
	}

	verr := &types.ValidationError{}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		verr.Add("name", "el nombre del documento es obligatorio")
	}
	var month *string
	if in.Month != nil && strings.TrimSpace(*in.Month) != "" {
		m := strings.ToLower(strings.TrimSpace(*in.Month))
		if _, ok := lifecycle.ParseMonthLabel(m); !ok {
			verr.Add("month", "mes inválido, usa el formato \"enero 2024\"")
		}
		month = &m
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	data, err := s.readUpload("file", in.File)
	if err != nil {
		return nil, err
	}

	objectPath := lifecycle.ExtraDocumentPath(ov.Member.ID, month, in.File.Filename)
	if err := s.storePrivate(ctx, objectPath, in.File, data); err != nil {
		return nil, fmt.Errorf("failed to upload extra document: %w", err)
	}

	doc := &types.ContractualExtraDocument{
		MemberID: ov.Member.ID,
		Name:     name,
		Month:    month,
		URL:      &objectPath,
	}
	if err := s.stores.Extras.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.invalidate(ctx, ov.Member.ID)
	return doc, nil
}

// DeleteExtraDocument soft deletes the row and removes the stored object. A
// failed object removal is a warning.
func (s *Service) DeleteExtraDocument(ctx context.Context, userID, memberID, extraID string) (types.BatchReport, error) {
	var report types.BatchReport

	member, err := s.ownMember(ctx, userID, memberID)
	if err != nil {
		return report, err
	}

	doc, err := s.stores.Extras.ExtraDocument(ctx, member.ID, extraID)
	if err != nil {
		return report, err
	}

	if err := s.stores.Extras.SoftDelete(ctx, member.ID, doc.ID); err != nil {
		return report, err
	}
	s.invalidate(ctx, member.ID)

	if doc.URL != nil && *doc.URL != "" {
		if err := s.objects.Remove(ctx, s.config.PrivateBucket, *doc.URL); err != nil {
			report.Warn(fmt.Sprintf("no se pudo borrar el archivo: %v", err))
		}
	}

	s.logReport("delete_extra_document", logrus.Fields{"member_id": member.ID, "extra_id": doc.ID}, report)

	return report, nil
}

// Sign records the contratista's signature. The member's document gets its
// tokens substituted and the signature placed on the last signature line.
func (s *Service) Sign(ctx context.Context, userID, memberID string, signature *Upload) (types.BatchReport, error) {
	var report types.BatchReport

	ov, err := s.acceptedMember(ctx, userID, memberID)
	if err != nil {
		return report, err
	}
	member := ov.Member
	if member.Signed {
		return report, types.ErrAlreadySigned
	}
	if ov.Status.Gates.SignatureLocked {
		return report, types.ErrPhaseLocked
	}

	data, err := s.readUpload("signature", signature)
	if err != nil {
		return report, err
	}

	signatureURL, err := s.storePublic(ctx, lifecycle.MemberSignaturePath(member.ID, signature.Filename), signature, data)
	if err != nil {
		return report, fmt.Errorf("failed to upload signature: %w", err)
	}

	var document types.Sections
	if len(member.Document) > 0 {
		var email *string
		if ov.User != nil {
			email = ov.User.Email
		}
		document = lifecycle.Substitute(member.Document, lifecycle.Replacements{
			Value:     member.Value,
			EndDate:   member.EndDate,
			UserEmail: email,
		})
		if remaining := lifecycle.RemainingTokens(document); len(remaining) > 0 {
			report.Warn(fmt.Sprintf("el documento conserva marcadores sin reemplazar: %s", strings.Join(remaining, ", ")))
		}

		signed, err := lifecycle.InsertSignature(document, signatureURL)
		if err != nil {
			report.Warn(fmt.Sprintf("no se insertó la firma en el documento: %v", err))
		} else {
			document = signed
		}
	}

	if err := s.stores.Members.MarkSigned(ctx, member.ID, signatureURL, document); err != nil {
		return report, err
	}
	s.invalidate(ctx, member.ID)

	name := ""
	if ov.User != nil {
		name = ov.User.DisplayName()
	}

	if docID, ok := ov.Contract.GoogleDocID(); ok && s.clients.Stamper != nil {
		if err := s.clients.Stamper.StampSignature(ctx, docID, signatureURL, "Firma del contratista: "+name); err != nil {
			report.Warn(fmt.Sprintf("no se pudo estampar la firma en el documento: %v", err))
		}
	}

	if err := s.notifySigned(ctx, ov.Contract, name); err != nil {
		report.Warn(fmt.Sprintf("no se pudo notificar al contratante: %v", err))
	}

	s.logReport("sign", logrus.Fields{"member_id": member.ID}, report)

	return report, nil
}

// notifySigned emails the owner of the contract's organization.
func (s *Service) notifySigned(ctx context.Context, contract *types.Contract, contratista string) error {
	if s.mailer == nil {
		return nil
	}

	project, err := s.stores.Projects.Project(ctx, contract.ProjectID)
	if err != nil {
		return err
	}
	org, err := s.stores.Organizations.Organization(ctx, project.OrganizationID)
	if err != nil {
		return err
	}
	owner, err := s.stores.Users.User(ctx, org.OwnerID)
	if err != nil {
		return err
	}
	if owner.Email == nil || *owner.Email == "" {
		return nil
	}

	return s.mailer.SendContractSigned(ctx, *owner.Email, mailer.ContractSigned{
		ContractName:    contract.Name,
		ContratistaName: contratista,
		SignedOn:        lifecycle.FormatDate(s.now()),
	})
}

// RequestTermination records the contratista's request to end the contract.
// Only the first termination of a member is kept.
func (s *Service) RequestTermination(ctx context.Context, userID, memberID string, document *Upload) error {
	member, err := s.ownMember(ctx, userID, memberID)
	if err != nil {
		return err
	}
	return s.recordEnding(ctx, member, types.EndingRequested, document)
}
