package types

import "time"

type Organization struct {
	ID        string     `db:"id" json:"id"`
	OwnerID   string     `db:"owner_id" json:"ownerId"`
	Name      string     `db:"name" json:"name"`
	LogoURL   *string    `db:"logo_url" json:"logoUrl"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

type ContractualProject struct {
	ID              string            `db:"id" json:"id"`
	OrganizationID  string            `db:"organization_id" json:"organizationId"`
	Name            string            `db:"name" json:"name"`
	ContratanteData map[string]string `db:"contratante_data" json:"contratanteData"`
	SignatureURL    *string           `db:"signature_url" json:"signatureUrl"`
	CreatedAt       time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time         `db:"updated_at" json:"updatedAt"`
	DeletedAt       *time.Time        `db:"deleted_at" json:"-"`
}
