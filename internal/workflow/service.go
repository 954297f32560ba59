// Package workflow runs the contract lifecycle for both parties: the
// contratante who creates contracts and invites members, and the contratista
// who uploads documents, signs and asks for termination. Every operation
// takes the acting user id and, where it applies, the contract member id
// explicitly.
package workflow

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"contratos/internal/cache"
	"contratos/internal/lifecycle"
	"contratos/internal/storage"
	"contratos/pkg/types"

	"github.com/sirupsen/logrus"
)

const (
	previewExpiry  = time.Hour
	defaultPageLen = 10
)

type Service struct {
	logger  *logrus.Logger
	config  *types.Config
	stores  Stores
	objects storage.ObjectStore
	cache   cache.MemberCache
	clients Clients
	mailer  Notifier
	now     func() time.Time
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	stores Stores,
	objects storage.ObjectStore,
	memberCache cache.MemberCache,
	clients Clients,
	notifier Notifier,
) *Service {
	if memberCache == nil {
		memberCache = cache.NewMemoryCache(time.Duration(config.MemberCacheTTLSec) * time.Second)
	}

	return &Service{
		logger:  logger,
		config:  config,
		stores:  stores,
		objects: objects,
		cache:   memberCache,
		clients: clients,
		mailer:  notifier,
		now:     time.Now,
	}
}

// Upload is a file received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// ListQuery filters and pages a listing. Page is 1-based.
type ListQuery struct {
	Search   string
	Page     int
	PageSize int
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = defaultPageLen
	}
	return q
}

// readUpload buffers the upload so it can be verified and stored, enforcing
// the configured size limit.
func (s *Service) readUpload(field string, up *Upload) ([]byte, error) {
	if up == nil || up.Body == nil {
		return nil, types.NewValidationError(field, "el archivo es obligatorio")
	}

	limit := s.config.MaxUploadBytes
	if limit <= 0 {
		limit = 10 << 20
	}

	data, err := io.ReadAll(io.LimitReader(up.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, types.NewValidationError(field, fmt.Sprintf("el archivo supera el tamaño máximo de %d MB", limit>>20))
	}
	if len(data) == 0 {
		return nil, types.NewValidationError(field, "el archivo está vacío")
	}

	return data, nil
}

func contentTypeOf(up *Upload) string {
	if up.ContentType != "" {
		return up.ContentType
	}
	switch strings.ToLower(path.Ext(up.Filename)) {
	case ".pdf":
		return "application/pdf"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}

func (s *Service) storePrivate(ctx context.Context, objectPath string, up *Upload, data []byte) error {
	return s.objects.Upload(ctx, s.config.PrivateBucket, objectPath, bytes.NewReader(data), contentTypeOf(up), true)
}

// storePublic uploads to the public bucket and returns the object's URL.
func (s *Service) storePublic(ctx context.Context, objectPath string, up *Upload, data []byte) (string, error) {
	if err := s.objects.Upload(ctx, s.config.PublicBucket, objectPath, bytes.NewReader(data), contentTypeOf(up), true); err != nil {
		return "", err
	}
	return s.objects.PublicURL(s.config.PublicBucket, objectPath), nil
}

// verify runs the authenticity check when a verifier is configured.
func (s *Service) verify(ctx context.Context, up *Upload, data []byte, expectedName string) error {
	if s.clients.Verifier == nil {
		return nil
	}

	ok, err := s.clients.Verifier.Verify(ctx, up.Filename, bytes.NewReader(data), expectedName)
	if err != nil {
		return fmt.Errorf("failed to verify document: %w", err)
	}
	if !ok {
		return types.ErrDocumentRejected
	}
	return nil
}

func (s *Service) resolveSigned(ctx context.Context, stored string) (string, error) {
	candidates := lifecycle.StorageCandidates(stored, s.config.PrivateBucket)
	return storage.ResolveSignedURL(ctx, s.objects, s.config.PrivateBucket, candidates, previewExpiry)
}

func (s *Service) invalidate(ctx context.Context, memberIDs ...string) {
	if err := s.cache.Invalidate(ctx, memberIDs...); err != nil {
		s.logger.WithError(err).WithField("member_ids", memberIDs).Warn("failed to invalidate member cache")
	}
}

func (s *Service) invalidateContract(ctx context.Context, contractID string) {
	members, err := s.stores.Members.MembersByContract(ctx, contractID)
	if err != nil {
		s.logger.WithError(err).WithField("contract_id", contractID).Warn("failed to load members for cache invalidation")
		return
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	s.invalidate(ctx, ids...)
}

func (s *Service) logReport(op string, fields logrus.Fields, report types.BatchReport) {
	if len(report.Warnings) == 0 {
		return
	}
	s.logger.WithFields(fields).WithFields(logrus.Fields{
		"operation": op,
		"warnings":  report.Warnings,
	}).Warn("operation finished with warnings")
}

// ownedContract loads a contract the user administers through the project's
// organization.
func (s *Service) ownedContract(ctx context.Context, userID, contractID string) (*types.Contract, *types.ContractualProject, error) {
	contract, err := s.stores.Contracts.Contract(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}

	project, err := s.ownedProject(ctx, userID, contract.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	return contract, project, nil
}

func (s *Service) ownedProject(ctx context.Context, userID, projectID string) (*types.ContractualProject, error) {
	project, err := s.stores.Projects.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}

	org, err := s.stores.Organizations.Organization(ctx, project.OrganizationID)
	if err != nil {
		return nil, err
	}
	if org.OwnerID != userID {
		return nil, types.ErrForbidden
	}

	return project, nil
}

// adminMember loads a member whose contract the user administers.
func (s *Service) adminMember(ctx context.Context, userID, memberID string) (*types.ContractMember, *types.Contract, *types.ContractualProject, error) {
	member, err := s.stores.Members.Member(ctx, memberID)
	if err != nil {
		return nil, nil, nil, err
	}

	contract, project, err := s.ownedContract(ctx, userID, member.ContractID)
	if err != nil {
		return nil, nil, nil, err
	}

	return member, contract, project, nil
}

// ownMember loads a member row that belongs to the user.
func (s *Service) ownMember(ctx context.Context, userID, memberID string) (*types.ContractMember, error) {
	member, err := s.stores.Members.Member(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.UserID != userID {
		return nil, types.ErrForbidden
	}
	return member, nil
}

// memberForEither lets both parties of a member read it.
func (s *Service) memberForEither(ctx context.Context, userID, memberID string) (*types.ContractMember, error) {
	member, err := s.stores.Members.Member(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.UserID == userID {
		return member, nil
	}

	if _, _, err := s.ownedContract(ctx, userID, member.ContractID); err != nil {
		return nil, err
	}
	return member, nil
}
