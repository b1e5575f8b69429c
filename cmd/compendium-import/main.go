// Command compendium-import loads analyses into the catalog from a YAML
// or JSON file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/compendium/internal/config"
	"github.com/erazemk/compendium/internal/db"
	"github.com/erazemk/compendium/internal/logging"
	"github.com/erazemk/compendium/internal/model"
	"github.com/erazemk/compendium/internal/store"
)

func main() {
	fs := flag.NewFlagSet("compendium-import", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "compendium.yaml", "")
	fs.StringVar(&configPath, "c", "compendium.yaml", "")

	var dsn string
	fs.StringVar(&dsn, "dsn", "", "")
	fs.StringVar(&dsn, "d", "", "")

	var dryRun bool
	fs.BoolVar(&dryRun, "dry-run", false, "")
	fs.BoolVar(&dryRun, "n", false, "")

	var verbose bool
	fs.BoolVar(&verbose, "verbose", false, "")
	fs.BoolVar(&verbose, "v", false, "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: compendium-import [flags] <file>

Reads a YAML or JSON list of analyses and inserts them in one transaction.

Flags:
  -c, -config <path>   YAML config file (default: compendium.yaml, optional)
  -d, -dsn <dsn>       database path or URL (overrides database.dsn)
  -n, -dry-run         validate the file without writing
  -v, -verbose         log at debug level (overrides log.level)
  -h, -help            show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.LookupEnv)
	if dsn != "" {
		cfg.Database.DSN = dsn
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	closeLog, err := logging.Setup(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	analyses, err := readAnalyses(fs.Arg(0))
	if err != nil {
		slog.Error("failed to read analyses", "error", err)
		os.Exit(1)
	}
	if err := validate(analyses); err != nil {
		slog.Error("invalid analyses", "error", err)
		os.Exit(1)
	}
	slog.Debug("analyses parsed", "count", len(analyses), "file", fs.Arg(0))
	if dryRun {
		fmt.Printf("%d analyses are valid, nothing written.\n", len(analyses))
		return
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	n, err := store.ImportAnalyses(ctx, database, analyses)
	if err != nil {
		slog.Error("import failed", "error", err)
		os.Exit(1)
	}

	slog.Info("analyses imported", "count", n, "file", fs.Arg(0))
	fmt.Printf("Imported %d analyses.\n", n)
}

// readAnalyses parses a list of analyses. JSON input is valid YAML.
func readAnalyses(path string) ([]model.Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var analyses []model.Analysis
	if err := yaml.Unmarshal(data, &analyses); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for i := range analyses {
		analyses[i] = analyses[i].Trimmed()
		analyses[i].ID = 0
	}
	return analyses, nil
}

func validate(analyses []model.Analysis) error {
	if len(analyses) == 0 {
		return fmt.Errorf("no analyses in file")
	}
	for i, a := range analyses {
		if missing := a.MissingFields(); len(missing) > 0 {
			return fmt.Errorf("entry %d (%q): missing %v", i+1, a.Name, missing)
		}
	}
	return nil
}
