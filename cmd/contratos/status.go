package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"contratos/internal/db"
	"contratos/internal/workflow"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "Print a contract member's documents, gates and status badges",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "user",
			Aliases:  []string{"u"},
			Usage:    "Id of the contratante or contratista looking at the member",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "member",
			Aliases:  []string{"m"},
			Usage:    "Contract member id",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable colored output",
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

		logger := logrus.New()
		logger.SetOutput(io.Discard)

		wf := workflow.New(cfg, logger, newStores(pool), nil, nil, workflow.Clients{}, nil)

		overview, err := wf.MemberOverview(ctx, c.String("user"), c.String("member"))
		if err != nil {
			return fmt.Errorf("failed to load member %s: %w", c.String("member"), err)
		}

		printer := pp.New()
		printer.SetOutput(os.Stdout)
		printer.SetColoringEnabled(!c.Bool("no-color"))
		printer.SetExportedOnly(true)

		_, err = printer.Println(overview)
		return err
	},
}
