// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the NH election results CLI.

The tool stores New Hampshire election results at municipality
granularity, aggregates them into per-race standings (totals, ranks,
winners, margins), and derives election-wide analyses: party control,
closest races, margin shifts, and turnout trends.

# Running

The default database is a local SQLite file:

	nh-election-results import-results 2024_general.csv
	nh-election-results report race 12
	nh-election-results closest 2024

Or against PostgreSQL:

	DATABASE_URL=postgres://... nh-election-results -t postgres stats

# Configuration

Optional settings (flags take precedence over environment):

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
    (default: nh_elections.db)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)

A .env file in the working directory is loaded when present.

# Architecture

  - tally: pure per-race aggregation (totals, ranks, winners, margins,
    turnout)
  - analysis: election-wide reports built on tally
  - store: read-side database queries
  - importer: bulk CSV import with audit batches and pre-import backup
  - db: schema creation
  - models: domain types
  - cliparse: configuration parsing

See package documentation for each component.
*/
package main
