package types

import "time"

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "pending"
	MemberStatusAccepted MemberStatus = "accepted"
)

type EndingStatus string

const (
	// EndingRequested is a termination asked for by the contratista.
	EndingRequested EndingStatus = "solicitud"
	// EndingCommon is a termination issued by the contratante.
	EndingCommon EndingStatus = "comun"
)

// Ending is stored as jsonb on contract_members.ending and is written at most
// once per member.
type Ending struct {
	URL    *string      `json:"url"`
	Status EndingStatus `json:"status"`
}

// BackgroundCheck is the wire shape of status_juridico and
// status_seguridad_social. Status true means the check raised a flag.
type BackgroundCheck struct {
	Status    *bool    `json:"status"`
	Novedades []string `json:"novedades"`
	Code      string   `json:"code"`
}

type ContractMember struct {
	ID                    string           `db:"id" json:"id"`
	UserID                string           `db:"user_id" json:"userId"`
	ContractID            string           `db:"contract_id" json:"contractId"`
	Status                MemberStatus     `db:"status" json:"status"`
	Value                 *string          `db:"value" json:"value"`
	StartDate             *time.Time       `db:"start_date" json:"startDate"`
	EndDate               *time.Time       `db:"end_date" json:"endDate"`
	Signed                bool             `db:"signed" json:"signed"`
	ContratanteSigned     bool             `db:"contratante_signed" json:"contratanteSigned"`
	SignatureURL          *string          `db:"signature_url" json:"signatureUrl"`
	Document              Sections         `db:"document" json:"document,omitempty"`
	Ending                *Ending          `db:"ending" json:"ending"`
	StatusJuridico        *BackgroundCheck `db:"status_juridico" json:"statusJuridico"`
	StatusSeguridadSocial *BackgroundCheck `db:"status_seguridad_social" json:"statusSeguridadSocial"`
	CreatedAt             time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt             time.Time        `db:"updated_at" json:"updatedAt"`
	DeletedAt             *time.Time       `db:"deleted_at" json:"-"`
}

type ContractExtension struct {
	ID          string     `db:"id" json:"id"`
	MemberID    string     `db:"contract_member_id" json:"memberId"`
	StartDate   time.Time  `db:"extension_start_date" json:"startDate"`
	EndDate     time.Time  `db:"extension_end_date" json:"endDate"`
	DocumentURL *string    `db:"document_url" json:"documentUrl"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	DeletedAt   *time.Time `db:"deleted_at" json:"-"`
}
