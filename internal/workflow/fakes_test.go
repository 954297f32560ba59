package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"contratos/internal/mailer"
	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
)

// memDB is an in-memory stand-in for the Postgres repositories.
type memDB struct {
	mu sync.Mutex

	contracts     map[string]*types.Contract
	members       map[string]*types.ContractMember
	requirements  map[string]*types.RequiredDocument
	precontract   []*types.PrecontractualDocument
	contractual   []*types.ContractualDocument
	extras        map[string]*types.ContractualExtraDocument
	extensions    []*types.ContractExtension
	projects      map[string]*types.ContractualProject
	organizations map[string]*types.Organization
	users         map[string]*types.User
	templates     map[string]*types.Template

	failRequirement string
}

func newMemDB() *memDB {
	return &memDB{
		contracts:     map[string]*types.Contract{},
		members:       map[string]*types.ContractMember{},
		requirements:  map[string]*types.RequiredDocument{},
		extras:        map[string]*types.ContractualExtraDocument{},
		projects:      map[string]*types.ContractualProject{},
		organizations: map[string]*types.Organization{},
		users:         map[string]*types.User{},
		templates:     map[string]*types.Template{},
	}
}

func (db *memDB) stores() Stores {
	return Stores{
		Contracts:     memContracts{db},
		Members:       memMembers{db},
		Requirements:  memRequirements{db},
		Documents:     memDocuments{db},
		Extras:        memExtras{db},
		Extensions:    memExtensions{db},
		Projects:      memProjects{db},
		Organizations: memOrganizations{db},
		Users:         memUsers{db},
		Templates:     memTemplates{db},
	}
}

func copyOf[T any](v *T) *T {
	c := *v
	return &c
}

type memContracts struct{ db *memDB }

func (s memContracts) Contract(ctx context.Context, id string) (*types.Contract, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.contracts[id]
	if !ok || c.DeletedAt != nil {
		return nil, types.ErrContractNotFound
	}
	return copyOf(c), nil
}

func (s memContracts) ContractsByProject(ctx context.Context, projectID string) ([]*types.Contract, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.Contract, 0)
	for _, c := range s.db.contracts {
		if c.ProjectID == projectID && c.DeletedAt == nil {
			out = append(out, copyOf(c))
		}
	}
	return out, nil
}

func (s memContracts) ContractsByIDs(ctx context.Context, ids []string) ([]*types.Contract, error) {
	out := make([]*types.Contract, 0, len(ids))
	for _, id := range ids {
		if c, err := s.Contract(ctx, id); err == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s memContracts) Create(ctx context.Context, c *types.Contract) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if c.ID == "" {
		c.ID = utils.NanoID()
	}
	s.db.contracts[c.ID] = copyOf(c)
	return nil
}

func (s memContracts) with(id string, fn func(c *types.Contract)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	c, ok := s.db.contracts[id]
	if !ok || c.DeletedAt != nil {
		return types.ErrContractNotFound
	}
	fn(c)
	return nil
}

func (s memContracts) Rename(ctx context.Context, id, name string) error {
	return s.with(id, func(c *types.Contract) { c.Name = name })
}

func (s memContracts) SetDraftURL(ctx context.Context, id string, url *string) error {
	return s.with(id, func(c *types.Contract) { c.DraftURL = url })
}

func (s memContracts) SetStatus(ctx context.Context, id string, status types.ContractStatus) error {
	return s.with(id, func(c *types.Contract) { c.Status = status })
}

func (s memContracts) SoftDelete(ctx context.Context, id string) error {
	return s.with(id, func(c *types.Contract) { c.DeletedAt = utils.TimePtr(time.Now()) })
}

type memMembers struct{ db *memDB }

func (s memMembers) Member(ctx context.Context, id string) (*types.ContractMember, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.members[id]
	if !ok {
		return nil, types.ErrMemberNotFound
	}
	return copyOf(m), nil
}

func (s memMembers) list(match func(*types.ContractMember) bool) []*types.ContractMember {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.ContractMember, 0)
	for _, m := range s.db.members {
		if match(m) {
			out = append(out, copyOf(m))
		}
	}
	return out
}

func (s memMembers) MembersByContract(ctx context.Context, contractID string) ([]*types.ContractMember, error) {
	return s.list(func(m *types.ContractMember) bool { return m.ContractID == contractID }), nil
}

func (s memMembers) MembersByUser(ctx context.Context, userID string) ([]*types.ContractMember, error) {
	return s.list(func(m *types.ContractMember) bool { return m.UserID == userID }), nil
}

func (s memMembers) Create(ctx context.Context, m *types.ContractMember) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if m.ID == "" {
		m.ID = utils.NanoID()
	}
	s.db.members[m.ID] = copyOf(m)
	return nil
}

// where applies fn when cond holds; a false cond returns failed.
func (s memMembers) where(id string, cond func(m *types.ContractMember) bool, failed error, fn func(m *types.ContractMember)) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	m, ok := s.db.members[id]
	if !ok {
		return types.ErrMemberNotFound
	}
	if cond != nil && !cond(m) {
		return failed
	}
	fn(m)
	return nil
}

func (s memMembers) Accept(ctx context.Context, id string) error {
	return s.where(id,
		func(m *types.ContractMember) bool { return m.Status == types.MemberStatusPending },
		types.ErrInvitationClosed,
		func(m *types.ContractMember) { m.Status = types.MemberStatusAccepted },
	)
}

func (s memMembers) SetEndDate(ctx context.Context, id string, end time.Time) error {
	return s.where(id, nil, nil, func(m *types.ContractMember) { m.EndDate = &end })
}

func (s memMembers) SetEnding(ctx context.Context, id string, ending *types.Ending) error {
	return s.where(id,
		func(m *types.ContractMember) bool { return m.Ending == nil },
		types.ErrEndingAlreadySet,
		func(m *types.ContractMember) { m.Ending = ending },
	)
}

func (s memMembers) MarkSigned(ctx context.Context, id, signatureURL string, document types.Sections) error {
	return s.where(id,
		func(m *types.ContractMember) bool { return !m.Signed },
		types.ErrAlreadySigned,
		func(m *types.ContractMember) {
			m.Signed = true
			m.SignatureURL = &signatureURL
			m.Document = document
		},
	)
}

func (s memMembers) MarkContratanteSigned(ctx context.Context, id string, document types.Sections) error {
	return s.where(id,
		func(m *types.ContractMember) bool { return !m.ContratanteSigned },
		types.ErrAlreadySigned,
		func(m *types.ContractMember) {
			m.ContratanteSigned = true
			if document != nil {
				m.Document = document
			}
		},
	)
}

type memRequirements struct{ db *memDB }

func (s memRequirements) RequiredDocument(ctx context.Context, id string) (*types.RequiredDocument, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.requirements[id]
	if !ok || r.DeletedAt != nil {
		return nil, types.ErrRequiredDocumentNotFound
	}
	return copyOf(r), nil
}

func (s memRequirements) RequiredDocumentsByContract(ctx context.Context, contractID string) ([]*types.RequiredDocument, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.RequiredDocument, 0)
	for _, r := range s.db.requirements {
		if r.ContractID == contractID && r.DeletedAt == nil {
			out = append(out, copyOf(r))
		}
	}
	return out, nil
}

func (s memRequirements) Create(ctx context.Context, r *types.RequiredDocument) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.failRequirement != "" && r.Name == s.db.failRequirement {
		return errors.New("insert failed")
	}
	if r.ID == "" {
		r.ID = utils.NanoID()
	}
	s.db.requirements[r.ID] = copyOf(r)
	return nil
}

func (s memRequirements) SoftDelete(ctx context.Context, contractID, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	r, ok := s.db.requirements[id]
	if !ok || r.ContractID != contractID {
		return types.ErrRequiredDocumentNotFound
	}
	r.DeletedAt = utils.TimePtr(time.Now())
	return nil
}

type memDocuments struct{ db *memDB }

func (s memDocuments) PrecontractualDocumentsByMember(ctx context.Context, memberID string) ([]*types.PrecontractualDocument, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.PrecontractualDocument, 0)
	for _, d := range s.db.precontract {
		if d.MemberID == memberID {
			out = append(out, copyOf(d))
		}
	}
	return out, nil
}

func (s memDocuments) CreatePrecontractualDocument(ctx context.Context, doc *types.PrecontractualDocument) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	s.db.precontract = append(s.db.precontract, copyOf(doc))
	return nil
}

func (s memDocuments) SetPrecontractualURL(ctx context.Context, memberID, reqID, url string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, d := range s.db.precontract {
		if d.MemberID == memberID && d.RequiredDocumentID == reqID {
			d.URL = &url
			return nil
		}
	}
	s.db.precontract = append(s.db.precontract, &types.PrecontractualDocument{ID: utils.NanoID(), MemberID: memberID, RequiredDocumentID: reqID, URL: &url})
	return nil
}

func (s memDocuments) ContractualDocumentsByMember(ctx context.Context, memberID string) ([]*types.ContractualDocument, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.ContractualDocument, 0)
	for _, d := range s.db.contractual {
		if d.MemberID == memberID {
			out = append(out, copyOf(d))
		}
	}
	return out, nil
}

func (s memDocuments) CreateContractualDocument(ctx context.Context, doc *types.ContractualDocument) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	s.db.contractual = append(s.db.contractual, copyOf(doc))
	return nil
}

func (s memDocuments) SetContractualURL(ctx context.Context, memberID, reqID, month, url string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, d := range s.db.contractual {
		if d.MemberID == memberID && d.RequiredDocumentID == reqID && d.Month == month {
			d.URL = &url
			return nil
		}
	}
	s.db.contractual = append(s.db.contractual, &types.ContractualDocument{ID: utils.NanoID(), MemberID: memberID, RequiredDocumentID: reqID, Month: month, URL: &url})
	return nil
}

type memExtras struct{ db *memDB }

func (s memExtras) ExtraDocument(ctx context.Context, memberID, id string) (*types.ContractualExtraDocument, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.extras[id]
	if !ok || d.MemberID != memberID || d.DeletedAt != nil {
		return nil, types.ErrDocumentNotFound
	}
	return copyOf(d), nil
}

func (s memExtras) ExtraDocumentsByMember(ctx context.Context, memberID string) ([]*types.ContractualExtraDocument, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.ContractualExtraDocument, 0)
	for _, d := range s.db.extras {
		if d.MemberID == memberID && d.DeletedAt == nil {
			out = append(out, copyOf(d))
		}
	}
	return out, nil
}

func (s memExtras) Create(ctx context.Context, doc *types.ContractualExtraDocument) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if doc.ID == "" {
		doc.ID = utils.NanoID()
	}
	s.db.extras[doc.ID] = copyOf(doc)
	return nil
}

func (s memExtras) SoftDelete(ctx context.Context, memberID, id string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	d, ok := s.db.extras[id]
	if !ok || d.MemberID != memberID {
		return types.ErrDocumentNotFound
	}
	d.DeletedAt = utils.TimePtr(time.Now())
	return nil
}

type memExtensions struct{ db *memDB }

func (s memExtensions) ExtensionsByMember(ctx context.Context, memberID string) ([]*types.ContractExtension, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.ContractExtension, 0)
	for _, e := range s.db.extensions {
		if e.MemberID == memberID {
			out = append(out, copyOf(e))
		}
	}
	return out, nil
}

func (s memExtensions) Create(ctx context.Context, e *types.ContractExtension) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.extensions = append(s.db.extensions, copyOf(e))
	return nil
}

type memProjects struct{ db *memDB }

func (s memProjects) Project(ctx context.Context, id string) (*types.ContractualProject, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.projects[id]
	if !ok {
		return nil, types.ErrProjectNotFound
	}
	return copyOf(p), nil
}

func (s memProjects) ProjectsByOrganization(ctx context.Context, orgID string) ([]*types.ContractualProject, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.ContractualProject, 0)
	for _, p := range s.db.projects {
		if p.OrganizationID == orgID {
			out = append(out, copyOf(p))
		}
	}
	return out, nil
}

func (s memProjects) Update(ctx context.Context, id string, data map[string]string, signatureURL *string) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.projects[id]
	if !ok {
		return types.ErrProjectNotFound
	}
	p.ContratanteData = data
	if signatureURL != nil {
		p.SignatureURL = signatureURL
	}
	return nil
}

type memOrganizations struct{ db *memDB }

func (s memOrganizations) Organization(ctx context.Context, id string) (*types.Organization, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	o, ok := s.db.organizations[id]
	if !ok {
		return nil, types.ErrOrganizationNotFound
	}
	return copyOf(o), nil
}

func (s memOrganizations) OrganizationsByOwner(ctx context.Context, ownerID string) ([]*types.Organization, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*types.Organization, 0)
	for _, o := range s.db.organizations {
		if o.OwnerID == ownerID {
			out = append(out, copyOf(o))
		}
	}
	return out, nil
}

type memUsers struct{ db *memDB }

func (s memUsers) User(ctx context.Context, id string) (*types.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	u, ok := s.db.users[id]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return copyOf(u), nil
}

func (s memUsers) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, u := range s.db.users {
		if u.Email != nil && strings.EqualFold(*u.Email, strings.TrimSpace(email)) {
			return copyOf(u), nil
		}
	}
	return nil, types.ErrUserNotFound
}

type memTemplates struct{ db *memDB }

func (s memTemplates) Template(ctx context.Context, id string) (*types.Template, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.templates[id]
	if !ok {
		return nil, types.ErrTemplateNotFound
	}
	return copyOf(t), nil
}

func (s memTemplates) TemplatesForOrganization(ctx context.Context, organizationID string) ([]*types.Template, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	var out []*types.Template
	for _, t := range s.db.templates {
		if t.OrganizationID == nil || *t.OrganizationID == organizationID {
			out = append(out, copyOf(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// memObjects is an ObjectStore keeping objects in a map keyed bucket/path.
type memObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	removeErr error
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}}
}

func (o *memObjects) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string, upsert bool) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	key := bucket + "/" + path
	if _, exists := o.objects[key]; exists && !upsert {
		return fmt.Errorf("object %s already exists", key)
	}
	o.objects[key] = data
	return nil
}

func (o *memObjects) PublicURL(bucket, path string) string {
	return "https://cdn.test/" + bucket + "/" + path
}

func (o *memObjects) SignedURL(ctx context.Context, bucket, path string, expiry time.Duration) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.objects[bucket+"/"+path]; !ok {
		return "", fmt.Errorf("object %s/%s not found", bucket, path)
	}
	return "https://cdn.test/signed/" + bucket + "/" + path, nil
}

func (o *memObjects) Remove(ctx context.Context, bucket string, paths ...string) error {
	if o.removeErr != nil {
		return o.removeErr
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range paths {
		delete(o.objects, bucket+"/"+p)
	}
	return nil
}

func (o *memObjects) has(bucket, path string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.objects[bucket+"/"+path]
	return ok
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendContact(ctx context.Context, to string, msg mailer.ContactMessage) error {
	return m.Called(ctx, to, msg).Error(0)
}

func (m *MockNotifier) SendContractSigned(ctx context.Context, to string, data mailer.ContractSigned) error {
	return m.Called(ctx, to, data).Error(0)
}

func (m *MockNotifier) SendInvitation(ctx context.Context, to string, data mailer.Invitation) error {
	return m.Called(ctx, to, data).Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, filename string, file io.Reader, expectedName string) (bool, error) {
	args := m.Called(ctx, filename, expectedName)
	return args.Bool(0), args.Error(1)
}

type MockStamper struct {
	mock.Mock
}

func (m *MockStamper) StampSignature(ctx context.Context, documentID, imageURL, caption string) error {
	return m.Called(ctx, documentID, imageURL, caption).Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, object string) (string, error) {
	args := m.Called(ctx, object)
	return args.String(0), args.Error(1)
}

func upload(name, content string) *Upload {
	return &Upload{Filename: name, Body: bytes.NewBufferString(content)}
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const (
	ownerID  = "owner"
	workerID = "worker"
)

// fixture is one organization owned by ownerID with a single contract and a
// pending invitation for workerID.
type fixture struct {
	db       *memDB
	objects  *memObjects
	notifier *MockNotifier
	clients  Clients
	config   *types.Config
	svc      *Service

	contractID string
	memberID   string
	cedulaID   string
	planillaID string
}

func newFixture(clients Clients) *fixture {
	db := newMemDB()

	db.users[ownerID] = &types.User{ID: ownerID, Email: utils.StringPtr("owner@example.com"), GivenName: utils.StringPtr("Olga")}
	db.users[workerID] = &types.User{ID: workerID, Email: utils.StringPtr("ana@example.com"), GivenName: utils.StringPtr("Ana"), FamilyName: utils.StringPtr("Ruiz")}
	db.organizations["o1"] = &types.Organization{ID: "o1", OwnerID: ownerID, Name: "Alcaldía"}
	db.projects["p1"] = &types.ContractualProject{ID: "p1", OrganizationID: "o1", Name: "Obras 2024", SignatureURL: utils.StringPtr("https://cdn.test/public-assets/projects/p1/firma.png")}
	db.contracts["c1"] = &types.Contract{ID: "c1", ProjectID: "p1", Name: "Interventoría", Status: types.ContractStatusDraft}
	db.requirements["cedula"] = &types.RequiredDocument{ID: "cedula", ContractID: "c1", Name: "Cédula", Type: types.PhasePrecontractual}
	db.requirements["planilla"] = &types.RequiredDocument{ID: "planilla", ContractID: "c1", Name: "Planilla", Type: types.PhaseContractual}
	db.members["m1"] = &types.ContractMember{
		ID:         "m1",
		UserID:     workerID,
		ContractID: "c1",
		Status:     types.MemberStatusPending,
		Value:      utils.StringPtr("1000000"),
		StartDate:  utils.TimePtr(date(2024, 1, 15)),
		EndDate:    utils.TimePtr(date(2024, 3, 10)),
		Document: types.Sections{
			"objeto": {Content: "Valor ${value} hasta ${endDate} para ${userEmail}", Type: "html"},
			"firmas": {Content: "<p>Contratante</p><hr><p>Contratista</p><hr>", Type: "html"},
		},
	}

	config := &types.Config{
		PrivateBucket:         "documents",
		PublicBucket:          "public-assets",
		MaxUploadBytes:        1 << 20,
		MemberCacheTTLSec:     300,
		PublicURL:             "https://app.test",
		ContactEmail:          "hola@contratos.app",
		EnforceExtensionRules: true,
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	f := &fixture{
		db:         db,
		objects:    newMemObjects(),
		notifier:   new(MockNotifier),
		clients:    clients,
		config:     config,
		contractID: "c1",
		memberID:   "m1",
		cedulaID:   "cedula",
		planillaID: "planilla",
	}
	f.svc = New(config, logger, db.stores(), f.objects, nil, clients, f.notifier)
	f.svc.now = func() time.Time { return date(2024, 2, 1) }

	return f
}
