package clients

import (
	"context"
	"fmt"

	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"
)

const signatureWidthPt = 150

// DocsClient edits generated contracts in Google Docs.
type DocsClient struct {
	svc *docs.Service
}

// NewDocsClient authenticates with a service account file unless opts
// already carry credentials.
func NewDocsClient(ctx context.Context, credentialsFile string, opts ...option.ClientOption) (*DocsClient, error) {
	if credentialsFile != "" {
		opts = append([]option.ClientOption{option.WithCredentialsFile(credentialsFile)}, opts...)
	}

	svc, err := docs.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create docs service: %w", err)
	}

	return &DocsClient{svc: svc}, nil
}

// StampSignature appends the signature image followed by caption at the end
// of the document body.
func (c *DocsClient) StampSignature(ctx context.Context, documentID, imageURL, caption string) error {
	doc, err := c.svc.Documents.Get(documentID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to fetch document %s: %w", documentID, err)
	}

	index := bodyEndIndex(doc)

	// Both inserts target the same index, so the image lands before the caption.
	requests := []*docs.Request{
		{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: index},
				Text:     "\n" + caption + "\n",
			},
		},
		{
			InsertInlineImage: &docs.InsertInlineImageRequest{
				Location: &docs.Location{Index: index},
				Uri:      imageURL,
				ObjectSize: &docs.Size{
					Width: &docs.Dimension{Magnitude: signatureWidthPt, Unit: "PT"},
				},
			},
		},
	}

	_, err = c.svc.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{Requests: requests}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to stamp signature on %s: %w", documentID, err)
	}

	return nil
}

// bodyEndIndex is the last insertable index: the body's end index minus the
// trailing newline every document keeps.
func bodyEndIndex(doc *docs.Document) int64 {
	if doc == nil || doc.Body == nil || len(doc.Body.Content) == 0 {
		return 1
	}

	end := doc.Body.Content[len(doc.Body.Content)-1].EndIndex - 1
	if end < 1 {
		return 1
	}
	return end
}
