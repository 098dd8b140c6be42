// Package cmd implements the CLI application to manage a trade journal.
package cmd

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/tradebook"
	"github.com/etnz/tradebook/config"
	"github.com/etnz/tradebook/date"
	"github.com/etnz/tradebook/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var (
	configFile = flag.String("config", "tradebook.yaml", "Path to the configuration file (YAML or JSON)")
	storePath  = flag.String("store", "", "Overrides the store path of the configuration")
	Verbose    = flag.Bool("v", false, "Verbose logging")
)

// stdout is where reports are printed, replaced in tests.
var stdout io.Writer = os.Stdout

// LoadConfig loads the configuration file, or the default configuration if
// there is none.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(*configFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debug().Str("config", *configFile).Msg("no configuration file, using defaults")
		cfg, err = config.Default(), nil
		cfg.ApplyEnv()
	}
	if err != nil {
		return nil, err
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	return cfg, nil
}

// SetupLogging configures the global logger from the configuration.
func SetupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	if *Verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// app is what every command needs: the configuration and the journal books.
type app struct {
	cfg   *config.Config
	kv    store.KV
	books *store.Books
}

// openApp loads the configuration and opens the store.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	kv, err := store.Open(ctx, store.Options{
		Backend:  store.Backend(cfg.Store.Backend),
		Path:     cfg.Store.Path,
		Addr:     cfg.Store.Addr,
		Password: cfg.Store.Password,
		DB:       cfg.Store.DB,
		Prefix:   cfg.Store.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("cannot open %s store: %w", cfg.Store.Backend, err)
	}
	return &app{cfg: cfg, kv: kv, books: store.NewBooks(kv)}, nil
}

func (a *app) Close() error { return a.kv.Close() }

// journal loads the journal from the store.
func (a *app) journal(ctx context.Context) (*tradebook.Journal, error) {
	opts := a.cfg.Options()
	j, err := a.books.Load(ctx, a.cfg.Limits(), opts.Excess)
	if err != nil {
		return nil, fmt.Errorf("cannot load journal: %w", err)
	}
	return j, nil
}

// evalFlags are the flags shared by the report commands.
type evalFlags struct {
	date   string
	method string
	html   bool
}

func (e *evalFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&e.date, "d", date.Today().String(), "Date of the report, open positions are held until this day")
	f.StringVar(&e.method, "method", "", "Accounting method (cash or accrual), defaults to the configuration")
	f.BoolVar(&e.html, "html", false, "Print the report in HTML instead of the terminal")
}

// evaluate loads and evaluates the journal according to the flags.
func (e *evalFlags) evaluate(ctx context.Context, a *app) (*tradebook.Report, error) {
	opts := a.cfg.Options()
	on, err := date.Parse(e.date)
	if err != nil {
		return nil, err
	}
	opts.Now = on
	if e.method != "" {
		if opts.Method, err = tradebook.ParseAccountingMethod(e.method); err != nil {
			return nil, err
		}
	}
	j, err := a.journal(ctx)
	if err != nil {
		return nil, err
	}
	r, err := j.Evaluate(opts)
	if err != nil {
		return nil, err
	}
	if r.Warnings != nil {
		log.Warn().Msg(strings.ReplaceAll(r.Warnings.Error(), "\n", "; "))
	}
	return r, nil
}

// print prints a markdown report, as HTML if requested.
func (e *evalFlags) print(md string) error {
	if e.html {
		return printHTML(stdout, md)
	}
	printMarkdown(md)
	return nil
}

// printMarkdown renders markdown for the terminal, or prints it raw when
// stdout is not a terminal or rendering fails.
func printMarkdown(md string) {
	if f, ok := stdout.(*os.File); ok && isTerminal(f) {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(0))
		if err == nil {
			if out, err := r.Render(md); err == nil {
				fmt.Fprint(stdout, out)
				return
			}
		}
	}
	fmt.Fprint(stdout, md)
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// printHTML converts markdown, tables included, to HTML.
func printHTML(w io.Writer, md string) error {
	var buf bytes.Buffer
	converter := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := converter.Convert([]byte(md), &buf); err != nil {
		return fmt.Errorf("cannot convert report to HTML: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
