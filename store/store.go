// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/cmaidmentnh/nh-election-results/models"
)

// ErrNotFound wraps sql.ErrNoRows for lookups by ID or natural key.
var ErrNotFound = errors.New("not found")

// ElectionByYear finds the election of the given type in the given year.
func ElectionByYear(db *sql.DB, year int, electionType string) (models.Election, error) {
	var e models.Election
	err := db.QueryRow(`
		SELECT id, year, election_type
		FROM elections
		WHERE year = $1 AND election_type = $2
	`, year, electionType).Scan(&e.ID, &e.Year, &e.ElectionType)

	if err == sql.ErrNoRows {
		return models.Election{}, fmt.Errorf("%w: no %s election in %d", ErrNotFound, electionType, year)
	}
	if err != nil {
		return models.Election{}, fmt.Errorf("failed to query election: %w", err)
	}
	return e, nil
}

// LoadRace fetches a race with its office name and election year joined in.
func LoadRace(db *sql.DB, raceID int64) (models.Race, error) {
	var r models.Race
	err := db.QueryRow(`
		SELECT r.id, r.election_id, r.office_id, o.name, e.year,
		       COALESCE(r.district, ''), COALESCE(r.county, ''), r.seats
		FROM races r
		JOIN offices o ON o.id = r.office_id
		JOIN elections e ON e.id = r.election_id
		WHERE r.id = $1
	`, raceID).Scan(
		&r.ID, &r.ElectionID, &r.OfficeID, &r.Office, &r.Year,
		&r.District, &r.County, &r.Seats,
	)

	if err == sql.ErrNoRows {
		return models.Race{}, fmt.Errorf("%w: race %d", ErrNotFound, raceID)
	}
	if err != nil {
		return models.Race{}, fmt.Errorf("failed to query race: %w", err)
	}
	return r, nil
}

// RaceCandidates returns a race's ballot lines, pseudo-candidates included.
// Ranking excludes them; callers that want the raw tally sheet get them.
func RaceCandidates(db *sql.DB, raceID int64) ([]models.Candidate, error) {
	rows, err := db.Query(`
		SELECT id, race_id, name, COALESCE(party, '')
		FROM candidates
		WHERE race_id = $1
		ORDER BY id
	`, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	candidates := []models.Candidate{}
	for rows.Next() {
		var c models.Candidate
		if err := rows.Scan(&c.ID, &c.RaceID, &c.Name, &c.Party); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// RaceResults returns every per-municipality result row for a race.
func RaceResults(db *sql.DB, raceID int64) ([]models.Result, error) {
	rows, err := db.Query(`
		SELECT race_id, candidate_id, municipality, votes
		FROM results
		WHERE race_id = $1
		ORDER BY municipality, candidate_id
	`, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.Result{}
	for rows.Next() {
		var r models.Result
		if err := rows.Scan(&r.RaceID, &r.CandidateID, &r.Municipality, &r.Votes); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// RacesForElection returns all races in an election, ordered by office and
// district for stable report output.
func RacesForElection(db *sql.DB, electionID int64) ([]models.Race, error) {
	rows, err := db.Query(`
		SELECT r.id, r.election_id, r.office_id, o.name, e.year,
		       COALESCE(r.district, ''), COALESCE(r.county, ''), r.seats
		FROM races r
		JOIN offices o ON o.id = r.office_id
		JOIN elections e ON e.id = r.election_id
		WHERE r.election_id = $1
		ORDER BY o.name, r.county, r.district
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query races: %w", err)
	}
	defer rows.Close()

	races := []models.Race{}
	for rows.Next() {
		var r models.Race
		if err := rows.Scan(
			&r.ID, &r.ElectionID, &r.OfficeID, &r.Office, &r.Year,
			&r.District, &r.County, &r.Seats,
		); err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		races = append(races, r)
	}
	return races, rows.Err()
}

// Towns returns every real municipality that appears in results, filtering
// tally-sheet artifacts (totals rows, ward subtotals) in Go rather than
// with driver-specific pattern operators.
func Towns(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`SELECT DISTINCT municipality FROM results`)
	if err != nil {
		return nil, fmt.Errorf("failed to query municipalities: %w", err)
	}
	defer rows.Close()

	towns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan municipality: %w", err)
		}
		if !models.IsPseudoMunicipality(name) {
			towns = append(towns, name)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(towns)
	return towns, nil
}

// Counties returns the distinct counties present in races.
func Counties(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT DISTINCT county FROM races
		WHERE county IS NOT NULL AND county != ''
		ORDER BY county
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query counties: %w", err)
	}
	defer rows.Close()

	counties := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan county: %w", err)
		}
		counties = append(counties, name)
	}
	return counties, rows.Err()
}

// BallotsCast returns the turnout denominator for one municipality in one
// election. ok is false when no figure has been recorded, which callers
// must treat as "turnout undefined", not zero.
func BallotsCast(db *sql.DB, electionID int64, municipality string) (int, bool, error) {
	var ballots int
	err := db.QueryRow(`
		SELECT ballots_cast FROM voter_registration
		WHERE election_id = $1 AND municipality = $2
	`, electionID, municipality).Scan(&ballots)

	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to query ballots cast: %w", err)
	}
	return ballots, true, nil
}

// DistrictTowns returns the declared composition of a district: which
// municipalities vote in it. Empty when no composition has been declared.
func DistrictTowns(db *sql.DB, office, county, district string) ([]string, error) {
	rows, err := db.Query(`
		SELECT municipality FROM district_compositions
		WHERE office = $1 AND county = $2 AND district = $3
		ORDER BY municipality
	`, office, county, district)
	if err != nil {
		return nil, fmt.Errorf("failed to query district composition: %w", err)
	}
	defer rows.Close()

	towns := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan composition row: %w", err)
		}
		towns = append(towns, name)
	}
	return towns, rows.Err()
}

// CheckComposition compares the municipalities holding result rows for a
// race against the district's declared composition. Declared is false when
// no composition exists, in which case Missing and Unexpected are empty:
// there is nothing to compare against.
func CheckComposition(db *sql.DB, raceID int64) (models.CompositionCheck, error) {
	race, err := LoadRace(db, raceID)
	if err != nil {
		return models.CompositionCheck{}, err
	}

	declared, err := DistrictTowns(db, race.Office, race.County, race.District)
	if err != nil {
		return models.CompositionCheck{}, err
	}

	check := models.CompositionCheck{
		Declared:   len(declared) > 0,
		Missing:    []string{},
		Unexpected: []string{},
	}
	if !check.Declared {
		return check, nil
	}

	rows, err := db.Query(`
		SELECT DISTINCT municipality FROM results WHERE race_id = $1
	`, raceID)
	if err != nil {
		return models.CompositionCheck{}, fmt.Errorf("failed to query result municipalities: %w", err)
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return models.CompositionCheck{}, fmt.Errorf("failed to scan municipality: %w", err)
		}
		if !models.IsPseudoMunicipality(name) {
			present[name] = true
		}
	}
	if err := rows.Err(); err != nil {
		return models.CompositionCheck{}, err
	}

	declaredSet := map[string]bool{}
	for _, town := range declared {
		declaredSet[town] = true
		if !present[town] {
			check.Missing = append(check.Missing, town)
		}
	}
	for town := range present {
		if !declaredSet[town] {
			check.Unexpected = append(check.Unexpected, town)
		}
	}
	sort.Strings(check.Unexpected)

	return check, nil
}

// Stats summarizes the dataset for the stats subcommand.
func Stats(db *sql.DB) (models.Stats, error) {
	var s models.Stats

	var minYear, maxYear sql.NullInt64
	err := db.QueryRow(`
		SELECT COUNT(DISTINCT year), MIN(year), MAX(year) FROM elections
	`).Scan(&s.Years, &minYear, &maxYear)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to query election years: %w", err)
	}
	if minYear.Valid {
		s.YearRange = fmt.Sprintf("%d-%d", minYear.Int64, maxYear.Int64)
	}

	towns, err := Towns(db)
	if err != nil {
		return models.Stats{}, err
	}
	s.Municipalities = len(towns)

	err = db.QueryRow(`SELECT COUNT(DISTINCT name) FROM candidates`).Scan(&s.Candidates)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count candidates: %w", err)
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM races`).Scan(&s.Races)
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to count races: %w", err)
	}

	return s, nil
}
