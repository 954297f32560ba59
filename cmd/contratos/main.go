package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "contratos",
		Usage: "Contract lifecycle API for contratantes and contratistas",
		Commands: []*cli.Command{
			serveCommand,
			seedCommand,
			statusCommand,
			nanoidCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("application failed")
	}
}
