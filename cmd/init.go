package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/tradebook/config"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type initCmd struct {
	currency string
	backend  string
	force    bool
}

func (*initCmd) Name() string     { return "init" }
func (*initCmd) Synopsis() string { return "write a default configuration file" }
func (*initCmd) Usage() string {
	return `tb [-config <file>] init [-currency <code>] [-backend <store>] [-force]

  Writes the default configuration to the file named by -config. Secrets
  are never written: set them in the environment or in a .env file.
`
}

func (c *initCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "Journal currency")
	f.StringVar(&c.backend, "backend", "", "Store backend: memory, file, sqlite or redis")
	f.BoolVar(&c.force, "force", false, "Overwrite an existing configuration file")
}

func (c *initCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if _, err := os.Stat(*configFile); err == nil && !c.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists, use -force to overwrite it\n", *configFile)
		return subcommands.ExitFailure
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	cfg := config.Default()
	if c.currency != "" {
		cfg.Journal.Currency = c.currency
	}
	if c.backend != "" {
		cfg.Store.Backend = c.backend
		if c.backend == "sqlite" {
			cfg.Store.Path = "tradebook.db"
		}
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	if err := cfg.SaveToFile(*configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Str("config", *configFile).Str("store", cfg.Store.Backend).Msg("configuration written")
	return subcommands.ExitSuccess
}
