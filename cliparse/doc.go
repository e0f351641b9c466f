// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct plus the positional arguments that
follow the flags (the subcommand and its operands):

	cfg, args, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - DatabaseURL: SQLite file path or PostgreSQL connection string
    (default: nh_elections.db)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - NoBackup: skip the pre-import database backup
  - Partial: allow reporting races whose data entry is still pending
  - Replace: allow imports to overwrite existing non-zero vote counts
  - Limit: row limit for ranked analyses (default: 10)

# CLI Flags

	-d          Database path or URL
	-t          Database type (sqlite or postgres)
	-n          Row limit for ranked analyses
	--no-backup Skip the pre-import database backup
	--partial   Report races whose data entry is still pending
	--replace   Allow imports to overwrite existing non-zero vote counts

# Environment Variables

Flags fall back to environment variables:

	DATABASE_URL  → -d
	DATABASE_TYPE → -t

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if DatabaseType is neither "sqlite" nor
"postgres", or if the row limit is below 1. Unlike a server config, no
field is strictly required: the defaults describe a local SQLite file.

# Example

	// In main.go
	cfg, args, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(driverName(cfg.DatabaseType), cfg.DatabaseURL)
	// ... dispatch on args[0]
*/
package cliparse
