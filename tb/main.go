// Command tb is a trade journal: it records trades and trading capital, and
// reports realized P/L, the true portfolio size and the open heat.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"

	"github.com/etnz/tradebook/cmd"
	"github.com/google/subcommands"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// secrets may live in a .env file next to the journal.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Msg("cannot load .env")
	}

	commander := subcommands.NewCommander(flag.CommandLine, "tb")
	cmd.Register(commander)
	cmd.Completion(commander, flag.CommandLine).Complete("tb")
	flag.Parse()

	cfg, err := cmd.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load configuration")
	}
	cmd.SetupLogging(cfg)

	if name := flag.Arg(0); name != "" && !registered(commander, name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}

func registered(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		found = found || cmd.Name() == name
	})
	return found
}
