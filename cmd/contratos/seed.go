package main

import (
	"context"
	"fmt"

	"contratos/internal/db"
	"contratos/internal/seed"
	"contratos/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed a demo organization, project and contract template",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "owner",
			Aliases:  []string{"o"},
			Usage:    "Email of the registered account that owns the demo organization",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		repos := seed.Repos{
			Users:         store.NewUserRepository(pool),
			Organizations: store.NewOrganizationRepository(pool),
			Projects:      store.NewProjectRepository(pool),
			Templates:     store.NewTemplateRepository(pool),
		}

		logrus.Info("Seeding demo data...")
		if err := seed.SeedDemo(ctx, repos, c.String("owner")); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}

		logrus.Info("Demo data seeded successfully")

		return nil
	},
}
