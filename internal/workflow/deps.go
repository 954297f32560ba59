package workflow

import (
	"context"
	"io"
	"time"

	"contratos/internal/lifecycle"
	"contratos/internal/mailer"
	"contratos/pkg/types"
)

type ContractStore interface {
	Contract(ctx context.Context, contractID string) (*types.Contract, error)
	ContractsByProject(ctx context.Context, projectID string) ([]*types.Contract, error)
	ContractsByIDs(ctx context.Context, contractIDs []string) ([]*types.Contract, error)
	Create(ctx context.Context, contract *types.Contract) error
	Rename(ctx context.Context, contractID, name string) error
	SetDraftURL(ctx context.Context, contractID string, draftURL *string) error
	SetStatus(ctx context.Context, contractID string, status types.ContractStatus) error
	SoftDelete(ctx context.Context, contractID string) error
}

type MemberStore interface {
	Member(ctx context.Context, memberID string) (*types.ContractMember, error)
	MembersByContract(ctx context.Context, contractID string) ([]*types.ContractMember, error)
	MembersByUser(ctx context.Context, userID string) ([]*types.ContractMember, error)
	Create(ctx context.Context, member *types.ContractMember) error
	Accept(ctx context.Context, memberID string) error
	SetEndDate(ctx context.Context, memberID string, endDate time.Time) error
	SetEnding(ctx context.Context, memberID string, ending *types.Ending) error
	MarkSigned(ctx context.Context, memberID, signatureURL string, document types.Sections) error
	MarkContratanteSigned(ctx context.Context, memberID string, document types.Sections) error
}

type RequiredDocumentStore interface {
	RequiredDocument(ctx context.Context, id string) (*types.RequiredDocument, error)
	RequiredDocumentsByContract(ctx context.Context, contractID string) ([]*types.RequiredDocument, error)
	Create(ctx context.Context, doc *types.RequiredDocument) error
	SoftDelete(ctx context.Context, contractID, id string) error
}

// MemberDocumentStore holds the generated per-member rows of both phases.
type MemberDocumentStore interface {
	lifecycle.ContractualDocumentStore
	lifecycle.PrecontractualDocumentStore
	SetPrecontractualURL(ctx context.Context, memberID, requiredDocumentID, url string) error
	SetContractualURL(ctx context.Context, memberID, requiredDocumentID, month, url string) error
}

type ExtraDocumentStore interface {
	ExtraDocument(ctx context.Context, memberID, id string) (*types.ContractualExtraDocument, error)
	ExtraDocumentsByMember(ctx context.Context, memberID string) ([]*types.ContractualExtraDocument, error)
	Create(ctx context.Context, doc *types.ContractualExtraDocument) error
	SoftDelete(ctx context.Context, memberID, id string) error
}

type ExtensionStore interface {
	ExtensionsByMember(ctx context.Context, memberID string) ([]*types.ContractExtension, error)
	Create(ctx context.Context, extension *types.ContractExtension) error
}

type ProjectStore interface {
	Project(ctx context.Context, projectID string) (*types.ContractualProject, error)
	ProjectsByOrganization(ctx context.Context, organizationID string) ([]*types.ContractualProject, error)
	Update(ctx context.Context, projectID string, contratanteData map[string]string, signatureURL *string) error
}

type OrganizationStore interface {
	Organization(ctx context.Context, organizationID string) (*types.Organization, error)
	OrganizationsByOwner(ctx context.Context, ownerID string) ([]*types.Organization, error)
}

type UserStore interface {
	User(ctx context.Context, userID string) (*types.User, error)
	UserByEmail(ctx context.Context, email string) (*types.User, error)
}

type TemplateStore interface {
	Template(ctx context.Context, templateID string) (*types.Template, error)
	TemplatesForOrganization(ctx context.Context, organizationID string) ([]*types.Template, error)
}

// Stores groups the repositories the service reads and writes.
type Stores struct {
	Contracts     ContractStore
	Members       MemberStore
	Requirements  RequiredDocumentStore
	Documents     MemberDocumentStore
	Extras        ExtraDocumentStore
	Extensions    ExtensionStore
	Projects      ProjectStore
	Organizations OrganizationStore
	Users         UserStore
	Templates     TemplateStore
}

type BackgroundChecker interface {
	DocumentURL(ctx context.Context, code string) (string, error)
}

type ContractGenerator interface {
	Generate(ctx context.Context, object string) (string, error)
}

type DocumentVerifier interface {
	Verify(ctx context.Context, filename string, file io.Reader, expectedName string) (bool, error)
}

type SignatureStamper interface {
	StampSignature(ctx context.Context, documentID, imageURL, caption string) error
}

// Clients are the outbound services. A nil client disables the feature that
// needs it.
type Clients struct {
	Background BackgroundChecker
	Generator  ContractGenerator
	Verifier   DocumentVerifier
	Stamper    SignatureStamper
}

type Notifier interface {
	SendContact(ctx context.Context, to string, msg mailer.ContactMessage) error
	SendContractSigned(ctx context.Context, to string, data mailer.ContractSigned) error
	SendInvitation(ctx context.Context, to string, data mailer.Invitation) error
}
