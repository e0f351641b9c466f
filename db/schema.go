// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// databaseType selects the auto-increment primary key flavor: "sqlite"
// (the default deployment) or "postgres".
func CreateSchema(db *sql.DB, databaseType string) error {
	pk := "INTEGER PRIMARY KEY"
	if databaseType == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	_, err := db.Exec(strings.ReplaceAll(schema, "{PK}", pk))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Elections (immutable once created; referenced by races)
CREATE TABLE IF NOT EXISTS elections (
    id {PK},
    year INTEGER NOT NULL,
    election_type TEXT NOT NULL DEFAULT 'general',
    UNIQUE (year, election_type)
);

-- Offices (static reference data)
CREATE TABLE IF NOT EXISTS offices (
    id {PK},
    name TEXT NOT NULL UNIQUE
);

-- Races
CREATE TABLE IF NOT EXISTS races (
    id {PK},
    election_id INTEGER NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
    office_id INTEGER NOT NULL REFERENCES offices(id),
    district TEXT,
    county TEXT,
    seats INTEGER NOT NULL DEFAULT 1 CHECK (seats >= 1),
    UNIQUE (election_id, office_id, county, district)
);

CREATE INDEX IF NOT EXISTS idx_races_election ON races(election_id);
CREATE INDEX IF NOT EXISTS idx_races_district ON races(county, district);

-- Candidates
CREATE TABLE IF NOT EXISTS candidates (
    id {PK},
    race_id INTEGER NOT NULL REFERENCES races(id) ON DELETE CASCADE,
    name TEXT NOT NULL,
    party TEXT,
    UNIQUE (race_id, name)
);

CREATE INDEX IF NOT EXISTS idx_candidates_race ON candidates(race_id);

-- Results (one vote count per race/candidate/municipality)
CREATE TABLE IF NOT EXISTS results (
    race_id INTEGER NOT NULL REFERENCES races(id) ON DELETE CASCADE,
    candidate_id INTEGER NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
    municipality TEXT NOT NULL,
    votes INTEGER NOT NULL DEFAULT 0 CHECK (votes >= 0),
    PRIMARY KEY (race_id, candidate_id, municipality)
);

CREATE INDEX IF NOT EXISTS idx_results_municipality ON results(municipality);

-- Ballots cast per municipality per election (turnout denominator only)
CREATE TABLE IF NOT EXISTS voter_registration (
    id {PK},
    election_id INTEGER NOT NULL REFERENCES elections(id) ON DELETE CASCADE,
    municipality TEXT NOT NULL,
    ballots_cast INTEGER NOT NULL DEFAULT 0,
    UNIQUE (election_id, municipality)
);

-- Which municipalities vote in which district
CREATE TABLE IF NOT EXISTS district_compositions (
    office TEXT NOT NULL,
    county TEXT NOT NULL DEFAULT '',
    district TEXT NOT NULL,
    municipality TEXT NOT NULL,
    redistricting_cycle TEXT NOT NULL DEFAULT '2022-2030',
    PRIMARY KEY (office, county, district, municipality, redistricting_cycle)
);

-- Bulk import audit trail
CREATE TABLE IF NOT EXISTS import_batches (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    kind TEXT NOT NULL,
    row_count INTEGER NOT NULL DEFAULT 0,
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP
);
`
