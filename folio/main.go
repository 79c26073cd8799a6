// Command folio computes customer portfolio returns, from the command line or
// as an HTTP service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path"

	"github.com/etnz/folio/cmd"
	"github.com/etnz/folio/config"
	"github.com/etnz/folio/logger"
	"github.com/google/subcommands"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	name := path.Base(os.Args[0])
	commander := subcommands.NewCommander(flag.CommandLine, name)
	cmd.Register(commander, cfg)
	cmd.Completion(commander).Complete(name)

	flag.Parse()

	err = logger.Init(logger.Config{
		Level:          cfg.Logging.Level,
		Format:         cfg.Logging.Format,
		FileEnabled:    cfg.Logging.FileEnabled,
		FilePath:       cfg.Logging.FilePath,
		ServiceName:    "folio",
		ServiceVersion: cmd.Version,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(int(subcommands.ExitFailure))
	}

	os.Exit(int(commander.Execute(context.Background())))
}
