// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn, cfg.DatabaseType); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and
indexes. The databaseType argument ("sqlite" or "postgres") only selects
the auto-increment primary key flavor; everything else is portable SQL
using $1-style placeholders, which both drivers accept.

# Tables

  - elections: one row per statewide election (year + type)
  - offices: static office reference data
  - races: one contest per election/office/district/county
  - candidates: ballot lines per race
  - results: vote counts per race/candidate/municipality
  - voter_registration: ballots cast per election/municipality
  - district_compositions: which towns vote in which district
  - import_batches: audit trail for bulk imports

# Relationships

	elections 1──* races *──1 offices
	races 1──* candidates
	races 1──* results (also keyed by candidate and municipality)
	elections 1──* voter_registration

All child foreign keys use ON DELETE CASCADE, except offices which are
shared reference data.

# Invariant

For a given race, the municipalities with results rows must equal (or be
a declared subset of, while data entry is pending) the district's
composition in district_compositions. The store package exposes
CheckComposition to verify this.
*/
package db
