// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"database/sql"
	"testing"

	"github.com/cmaidmentnh/nh-election-results/db"
	_ "modernc.org/sqlite"
)

// SetupTestDB creates a fresh in-memory SQLite database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// In-memory databases vanish if the pool opens a second connection.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn, "sqlite"); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// CreateTestElection creates an election and returns its ID
func CreateTestElection(t *testing.T, conn *sql.DB, year int, electionType string) int64 {
	t.Helper()

	res, err := conn.Exec(`
		INSERT INTO elections (year, election_type)
		VALUES ($1, $2)
	`, year, electionType)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get election ID: %v", err)
	}
	return id
}

// CreateTestOffice creates an office (or returns the existing one) and returns its ID
func CreateTestOffice(t *testing.T, conn *sql.DB, name string) int64 {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO offices (name)
		VALUES ($1)
		ON CONFLICT (name) DO NOTHING
	`, name)
	if err != nil {
		t.Fatalf("Failed to create test office: %v", err)
	}

	// Select by the unique name rather than trusting LastInsertId, which
	// is stale when the insert hit the conflict clause.
	var id int64
	if err := conn.QueryRow(`SELECT id FROM offices WHERE name = $1`, name).Scan(&id); err != nil {
		t.Fatalf("Failed to look up test office: %v", err)
	}
	return id
}

// CreateTestRace creates a race and returns its ID
func CreateTestRace(t *testing.T, conn *sql.DB, electionID, officeID int64, county, district string, seats int) int64 {
	t.Helper()

	res, err := conn.Exec(`
		INSERT INTO races (election_id, office_id, county, district, seats)
		VALUES ($1, $2, $3, $4, $5)
	`, electionID, officeID, county, district, seats)
	if err != nil {
		t.Fatalf("Failed to create test race: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get race ID: %v", err)
	}
	return id
}

// AddTestCandidate adds a candidate to a race and returns the candidate ID
func AddTestCandidate(t *testing.T, conn *sql.DB, raceID int64, name, party string) int64 {
	t.Helper()

	res, err := conn.Exec(`
		INSERT INTO candidates (race_id, name, party)
		VALUES ($1, $2, $3)
	`, raceID, name, party)
	if err != nil {
		t.Fatalf("Failed to create test candidate: %v", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("Failed to get candidate ID: %v", err)
	}
	return id
}

// AddTestResult records a vote count for a candidate in one municipality
func AddTestResult(t *testing.T, conn *sql.DB, raceID, candidateID int64, municipality string, votes int) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO results (race_id, candidate_id, municipality, votes)
		VALUES ($1, $2, $3, $4)
	`, raceID, candidateID, municipality, votes)
	if err != nil {
		t.Fatalf("Failed to create test result: %v", err)
	}
}

// SetTestBallotsCast records the turnout denominator for a municipality
func SetTestBallotsCast(t *testing.T, conn *sql.DB, electionID int64, municipality string, ballotsCast int) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO voter_registration (election_id, municipality, ballots_cast)
		VALUES ($1, $2, $3)
	`, electionID, municipality, ballotsCast)
	if err != nil {
		t.Fatalf("Failed to set test ballots cast: %v", err)
	}
}

// AddTestComposition declares that a municipality votes in a district
func AddTestComposition(t *testing.T, conn *sql.DB, office, county, district, municipality string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO district_compositions (office, county, district, municipality)
		VALUES ($1, $2, $3, $4)
	`, office, county, district, municipality)
	if err != nil {
		t.Fatalf("Failed to create test composition: %v", err)
	}
}
