package types

import (
	"strings"
	"time"
)

type ContractStatus string

const (
	ContractStatusDraft    ContractStatus = "draft"
	ContractStatusActive   ContractStatus = "active"
	ContractStatusFinished ContractStatus = "finished"
)

type Contract struct {
	ID        string         `db:"id" json:"id"`
	ProjectID string         `db:"project_id" json:"projectId"`
	Name      string         `db:"name" json:"name"`
	DraftURL  *string        `db:"draft_url" json:"draftUrl"`
	Status    ContractStatus `db:"status" json:"status"`
	CreatedAt time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time      `db:"updated_at" json:"updatedAt"`
	DeletedAt *time.Time     `db:"deleted_at" json:"-"`
}

const googleDocsPrefix = "https://docs.google.com/document/d/"

// GoogleDocID returns the document id when the draft points at a generated
// Google Docs document.
func (c *Contract) GoogleDocID() (string, bool) {
	if c.DraftURL == nil || !strings.HasPrefix(*c.DraftURL, googleDocsPrefix) {
		return "", false
	}

	id := strings.TrimPrefix(*c.DraftURL, googleDocsPrefix)
	if i := strings.Index(id, "/"); i >= 0 {
		id = id[:i]
	}

	return id, id != ""
}

func GoogleDocEditURL(documentID string) string {
	return googleDocsPrefix + documentID + "/edit"
}

type ContractDraftSource string

const (
	DraftSourceUpload ContractDraftSource = "upload"
	DraftSourceAI     ContractDraftSource = "ai"
	DraftSourceNone   ContractDraftSource = "none"
)
