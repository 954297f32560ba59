package seed

import (
	"context"
	"strings"
	"testing"

	"contratos/internal/lifecycle"
	"contratos/internal/utils"
	"contratos/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepos struct {
	users     map[string]*types.User
	roles     map[string]types.UserRole
	orgs      map[string]*types.Organization
	projects  map[string]*types.ContractualProject
	templates map[string]*types.Template
}

func newMemRepos() *memRepos {
	return &memRepos{
		users: map[string]*types.User{
			"owner@example.com": {ID: "u1", Email: utils.StringPtr("owner@example.com"), GivenName: utils.StringPtr("Olga")},
		},
		roles:     map[string]types.UserRole{},
		orgs:      map[string]*types.Organization{},
		projects:  map[string]*types.ContractualProject{},
		templates: map[string]*types.Template{},
	}
}

func (m *memRepos) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, types.ErrUserNotFound
}

func (m *memRepos) SetRole(ctx context.Context, userID string, role types.UserRole) error {
	m.roles[userID] = role
	return nil
}

type memOrgs struct{ *memRepos }

func (m memOrgs) Organization(ctx context.Context, id string) (*types.Organization, error) {
	if o, ok := m.orgs[id]; ok {
		return o, nil
	}
	return nil, types.ErrOrganizationNotFound
}

func (m memOrgs) Create(ctx context.Context, org *types.Organization) error {
	m.orgs[org.ID] = org
	return nil
}

type memProjects struct{ *memRepos }

func (m memProjects) Project(ctx context.Context, id string) (*types.ContractualProject, error) {
	if p, ok := m.projects[id]; ok {
		return p, nil
	}
	return nil, types.ErrProjectNotFound
}

func (m memProjects) Create(ctx context.Context, p *types.ContractualProject) error {
	m.projects[p.ID] = p
	return nil
}

type memTemplates struct{ *memRepos }

func (m memTemplates) Template(ctx context.Context, id string) (*types.Template, error) {
	if t, ok := m.templates[id]; ok {
		return t, nil
	}
	return nil, types.ErrTemplateNotFound
}

func (m memTemplates) Create(ctx context.Context, t *types.Template) error {
	m.templates[t.ID] = t
	return nil
}

func (m *memRepos) repos() Repos {
	return Repos{Users: m, Organizations: memOrgs{m}, Projects: memProjects{m}, Templates: memTemplates{m}}
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	m := newMemRepos()

	require.NoError(t, SeedDemo(ctx, m.repos(), "owner@example.com"))

	assert.Equal(t, types.UserRoleContratante, m.roles["u1"])
	require.Contains(t, m.orgs, DemoOrganizationID)
	assert.Equal(t, "u1", m.orgs[DemoOrganizationID].OwnerID)
	require.Contains(t, m.projects, DemoProjectID)
	assert.Equal(t, DemoOrganizationID, m.projects[DemoProjectID].OrganizationID)
	require.Contains(t, m.templates, DemoTemplateID)

	m.orgs[DemoOrganizationID].Name = "renamed"
	require.NoError(t, SeedDemo(ctx, m.repos(), "owner@example.com"))
	assert.Equal(t, "renamed", m.orgs[DemoOrganizationID].Name, "existing rows are kept")
}

func TestSeedDemoUnknownOwner(t *testing.T) {
	err := SeedDemo(context.Background(), newMemRepos().repos(), "nobody@example.com")
	assert.ErrorIs(t, err, types.ErrUserNotFound)
}

func TestDemoTemplateSigns(t *testing.T) {
	sections := DemoTemplateSections()
	assert.Equal(t, 2, strings.Count(sections[lifecycle.SignaturesSection].Content, lifecycle.SignatureMarker))

	signed, err := lifecycle.InsertSignature(sections, "https://cdn.test/firma.png")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(signed[lifecycle.SignaturesSection].Content, lifecycle.SignatureMarker))
}
