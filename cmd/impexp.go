package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/etnz/tradebook"
	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

type importCmd struct {
	replace bool
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a JSONL journal into the store" }
func (*importCmd) Usage() string {
	return `tb import [-replace] <file.jsonl>

  Reads a JSONL journal, "-" being the standard input. Trades and capital
  records are merged into the stored journal, replacing those with the same
  ID or period. With -replace the stored journal is discarded first.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.replace, "replace", false, "Replace the stored journal instead of merging")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: import takes exactly one file")
		return subcommands.ExitUsageError
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var r io.Reader = os.Stdin
	if name := f.Arg(0); name != "-" {
		file, err := os.Open(name)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		defer file.Close()
		r = file
	}
	limits, opts := a.cfg.Limits(), a.cfg.Options()
	in, err := tradebook.DecodeJournal(r, limits, opts.Excess)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding %s: %v\n", f.Arg(0), err)
		return subcommands.ExitFailure
	}

	j := in
	if !c.replace {
		if j, err = a.journal(ctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		if err := merge(j, in, limits); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	} else if in.Currency() == "" {
		j = tradebook.NewJournal(a.cfg.Journal.Currency)
		if err := merge(j, in, limits); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if err := a.books.Save(ctx, j); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving journal: %v\n", err)
		return subcommands.ExitFailure
	}
	log.Info().Int("trades", len(in.Trades())).Int("changes", len(in.Capital().Changes())).Bool("replace", c.replace).Msg("journal imported")
	return subcommands.ExitSuccess
}

// merge copies every record of src into dst.
func merge(dst, src *tradebook.Journal, limits tradebook.Limits) error {
	for _, t := range src.Trades() {
		if _, err := dst.PutTrade(t, limits); err != nil {
			return fmt.Errorf("trade %q: %w", t.ID, err)
		}
	}
	capital := dst.Capital()
	for _, y := range src.Capital().Yearly() {
		if err := capital.SetYearly(y); err != nil {
			return err
		}
	}
	for _, o := range src.Capital().Overrides() {
		if err := capital.SetOverride(o); err != nil {
			return err
		}
	}
	for _, ch := range src.Capital().Changes() {
		capital.RemoveChange(ch.ID)
		if _, err := capital.AddChange(ch); err != nil {
			return err
		}
	}
	return nil
}

type exportCmd struct{}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the journal as JSONL" }
func (*exportCmd) Usage() string {
	return `tb export

  Writes the stored journal to the standard output, in the format read by
  import.
`
}

func (*exportCmd) SetFlags(f *flag.FlagSet) {}

func (*exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	j, err := a.journal(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := tradebook.EncodeJournal(stdout, j); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding journal: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
