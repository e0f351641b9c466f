package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
)

type Config struct {
	DatabaseURL  string
	DatabaseType string
	NoBackup     bool
	Partial      bool
	Replace      bool
	Limit        int
}

// ParseFlags validates flags and returns the remaining positional
// arguments (subcommand and its operands).
func ParseFlags(args []string) (Config, []string, error) {
	var cfg Config

	fs := flag.NewFlagSet("nh-election-results", flag.ContinueOnError)

	// Database config (can be CLI args or env)
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database path or URL")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite or postgres)")

	// Behavior toggles
	fs.BoolVar(&cfg.NoBackup, "no-backup", false, "Skip the pre-import database backup")
	fs.BoolVar(&cfg.Partial, "partial", false, "Report races whose data entry is still pending")
	fs.BoolVar(&cfg.Replace, "replace", false, "Allow imports to overwrite existing non-zero vote counts")
	fs.IntVar(&cfg.Limit, "n", 10, "Row limit for ranked analyses")

	if err := fs.Parse(args); err != nil {
		return Config{}, nil, err
	}

	// Fall back to environment variables
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "nh_elections.db" // default
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	if cfg.DatabaseType != "sqlite" && cfg.DatabaseType != "postgres" {
		return Config{}, nil, fmt.Errorf("unsupported database type %q (want sqlite or postgres)", cfg.DatabaseType)
	}

	if cfg.Limit < 1 {
		return Config{}, nil, errors.New("row limit must be at least 1")
	}

	return cfg, fs.Args(), nil
}
