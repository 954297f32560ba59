package types

import "time"

type DocumentPhase string

const (
	PhasePrecontractual DocumentPhase = "precontractual"
	PhaseContractual    DocumentPhase = "contractual"
)

func (p DocumentPhase) Valid() bool {
	return p == PhasePrecontractual || p == PhaseContractual
}

// RequiredDocument is a document template a contract asks every member for.
type RequiredDocument struct {
	ID         string        `db:"id" json:"id"`
	ContractID string        `db:"contract_id" json:"contractId"`
	Name       string        `db:"name" json:"name"`
	Type       DocumentPhase `db:"type" json:"type"`
	DueDate    *time.Time    `db:"due_date" json:"dueDate"`
	TemplateID *string       `db:"template_id" json:"templateId"`
	CreatedAt  time.Time     `db:"created_at" json:"createdAt"`
	DeletedAt  *time.Time    `db:"deleted_at" json:"-"`
}

// PrecontractualDocument is unique per (member, required document).
type PrecontractualDocument struct {
	ID                 string     `db:"id" json:"id"`
	MemberID           string     `db:"contract_member_id" json:"memberId"`
	RequiredDocumentID string     `db:"required_document_id" json:"requiredDocumentId"`
	URL                *string    `db:"url" json:"url"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt          *time.Time `db:"deleted_at" json:"-"`
}

// ContractualDocument is unique per (member, required document, month).
type ContractualDocument struct {
	ID                 string     `db:"id" json:"id"`
	MemberID           string     `db:"contract_member_id" json:"memberId"`
	RequiredDocumentID string     `db:"required_document_id" json:"requiredDocumentId"`
	Month              string     `db:"month" json:"month"`
	URL                *string    `db:"url" json:"url"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt          *time.Time `db:"deleted_at" json:"-"`
}

type ContractualExtraDocument struct {
	ID        string     `db:"id" json:"id"`
	MemberID  string     `db:"contract_member_id" json:"memberId"`
	Name      string     `db:"name" json:"name"`
	Month     *string    `db:"month" json:"month"`
	URL       *string    `db:"url" json:"url"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Section is one named block of a contract document.
type Section struct {
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Sections maps a section name to its content. Stored as jsonb.
type Sections map[string]Section

func (s Sections) Clone() Sections {
	if s == nil {
		return nil
	}
	out := make(Sections, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

type Template struct {
	ID             string     `db:"id" json:"id"`
	OrganizationID *string    `db:"organization_id" json:"organizationId"`
	Name           string     `db:"name" json:"name"`
	Sections       Sections   `db:"sections" json:"sections"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt      *time.Time `db:"deleted_at" json:"-"`
}
