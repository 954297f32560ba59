package seed

import (
	"context"
	"errors"
	"fmt"

	"contratos/internal/lifecycle"
	"contratos/pkg/types"
)

// Fixed ids keep the seed idempotent. New ones come from
// `go run ./cmd/contratos nanoid`.
const (
	DemoOrganizationID = "Yq3vN0c8kRk1x2L7pA9sWmTzE4uHbJ5d"
	DemoProjectID      = "hG6nD2fQw8rV1sK0mZ3xC7yB4tL9pJ5e"
	DemoTemplateID     = "uR5kW9zT2mQ7nB1xF4vC8sL0pD3hJ6gY"
)

type UserFinder interface {
	UserByEmail(ctx context.Context, email string) (*types.User, error)
	SetRole(ctx context.Context, userID string, role types.UserRole) error
}

type OrganizationWriter interface {
	Organization(ctx context.Context, organizationID string) (*types.Organization, error)
	Create(ctx context.Context, org *types.Organization) error
}

type ProjectWriter interface {
	Project(ctx context.Context, projectID string) (*types.ContractualProject, error)
	Create(ctx context.Context, project *types.ContractualProject) error
}

type TemplateWriter interface {
	Template(ctx context.Context, templateID string) (*types.Template, error)
	Create(ctx context.Context, template *types.Template) error
}

type Repos struct {
	Users         UserFinder
	Organizations OrganizationWriter
	Projects      ProjectWriter
	Templates     TemplateWriter
}

// DemoTemplateSections is a minimal service contract with every token the
// signing flow fills in and one signature line per party.
func DemoTemplateSections() types.Sections {
	return types.Sections{
		"objeto": {
			Type:    "html",
			Content: "<p>El contratista prestará sus servicios por un valor de " + lifecycle.TokenValue + " hasta el " + lifecycle.TokenEndDate + ".</p>",
		},
		"notificaciones": {
			Type:    "html",
			Content: "<p>Las notificaciones al contratista se enviarán a " + lifecycle.TokenUserEmail + ".</p>",
		},
		lifecycle.SignaturesSection: {
			Type:    "html",
			Content: "<p>El contratante</p>" + lifecycle.SignatureMarker + "<p>El contratista</p>" + lifecycle.SignatureMarker,
		},
	}
}

// SeedDemo gives the account registered as ownerEmail an organization, a
// project and a shared contract template. Rows that already exist are left
// untouched.
func SeedDemo(ctx context.Context, repos Repos, ownerEmail string) error {
	owner, err := repos.Users.UserByEmail(ctx, ownerEmail)
	if err != nil {
		return fmt.Errorf("failed to find owner %s, register the account first: %w", ownerEmail, err)
	}

	if err := repos.Users.SetRole(ctx, owner.ID, types.UserRoleContratante); err != nil {
		return fmt.Errorf("failed to set owner role: %w", err)
	}

	created := 0

	_, err = repos.Organizations.Organization(ctx, DemoOrganizationID)
	switch {
	case errors.Is(err, types.ErrOrganizationNotFound):
		fmt.Printf("  Creating organization %s\n", DemoOrganizationID)
		if err := repos.Organizations.Create(ctx, &types.Organization{
			ID:      DemoOrganizationID,
			OwnerID: owner.ID,
			Name:    "Alcaldía de Ejemplo",
		}); err != nil {
			return fmt.Errorf("failed to create demo organization: %w", err)
		}
		created++
	case err != nil:
		return fmt.Errorf("failed to fetch demo organization: %w", err)
	}

	_, err = repos.Projects.Project(ctx, DemoProjectID)
	switch {
	case errors.Is(err, types.ErrProjectNotFound):
		fmt.Printf("  Creating project %s\n", DemoProjectID)
		if err := repos.Projects.Create(ctx, &types.ContractualProject{
			ID:             DemoProjectID,
			OrganizationID: DemoOrganizationID,
			Name:           "Contratación 2025",
			ContratanteData: map[string]string{
				"nit":           "800.000.000-1",
				"representante": owner.DisplayName(),
			},
		}); err != nil {
			return fmt.Errorf("failed to create demo project: %w", err)
		}
		created++
	case err != nil:
		return fmt.Errorf("failed to fetch demo project: %w", err)
	}

	_, err = repos.Templates.Template(ctx, DemoTemplateID)
	switch {
	case errors.Is(err, types.ErrTemplateNotFound):
		fmt.Printf("  Creating template %s\n", DemoTemplateID)
		if err := repos.Templates.Create(ctx, &types.Template{
			ID:       DemoTemplateID,
			Name:     "Prestación de servicios",
			Sections: DemoTemplateSections(),
		}); err != nil {
			return fmt.Errorf("failed to create demo template: %w", err)
		}
		created++
	case err != nil:
		return fmt.Errorf("failed to fetch demo template: %w", err)
	}

	fmt.Printf("\nSeed complete: %d created\n", created)
	return nil
}
