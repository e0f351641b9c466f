// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package importer

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrMissingColumns = errors.New("missing required columns")

// Options controls import behavior.
type Options struct {
	// ReplaceExisting overwrites non-zero vote counts already in the
	// database. Without it, a conflicting row is skipped and reported in
	// the summary; a stored zero is always treated as a placeholder and
	// overwritten either way.
	ReplaceExisting bool

	// Source labels the import batch in the audit trail (typically the
	// CSV filename).
	Source string
}

// RowError is one rejected CSV row, with its 1-based line number.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Summary reports what one import run did.
type Summary struct {
	BatchID   string     `json:"batch_id"`
	Rows      int        `json:"rows"`
	Created   int        `json:"created"`
	Updated   int        `json:"updated"`
	Unchanged int        `json:"unchanged"`
	Conflicts int        `json:"conflicts"`
	RowErrors []RowError `json:"row_errors,omitempty"`
}

var resultColumns = []string{
	"year", "election_type", "office", "county", "district", "seats",
	"candidate", "party", "municipality", "votes",
}

// header maps column names to indices, case-insensitively.
func header(record []string, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(record))
	for i, name := range record {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}

	missing := []string{}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

// ImportResults loads per-municipality vote counts from CSV. The whole
// run is one transaction: either every accepted row lands or none do.
// Rows that fail to parse are reported in the summary and skipped, not
// fatal; an unreadable file or missing header is.
//
// Expected columns (any order, extras ignored): year, election_type,
// office, county, district, seats, candidate, party, municipality, votes.
func ImportResults(db *sql.DB, r io.Reader, opts Options) (Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := header(head, resultColumns)
	if err != nil {
		return Summary{}, err
	}

	tx, err := db.Begin()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := Summary{BatchID: uuid.NewString()}
	startedAt := time.Now()
	cache := newIDCache()

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		summary.Rows++

		if err := importResultRow(tx, cache, idx, record, opts, &summary); err != nil {
			summary.RowErrors = append(summary.RowErrors, RowError{Line: line, Message: err.Error()})
		}
	}

	finishedAt := time.Now()
	_, err = tx.Exec(`
		INSERT INTO import_batches (id, source, kind, row_count, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, summary.BatchID, opts.Source, "results", summary.Rows, startedAt, finishedAt)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to record import batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("failed to commit import: %w", err)
	}

	slog.Info("results import finished",
		"batch", summary.BatchID, "rows", summary.Rows,
		"created", summary.Created, "updated", summary.Updated,
		"conflicts", summary.Conflicts, "row_errors", len(summary.RowErrors))

	return summary, nil
}

func importResultRow(tx *sql.Tx, cache *idCache, idx map[string]int, record []string, opts Options, summary *Summary) error {
	field := func(name string) string {
		i := idx[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	year, err := strconv.Atoi(field("year"))
	if err != nil {
		return fmt.Errorf("bad year %q", field("year"))
	}
	seats, err := strconv.Atoi(field("seats"))
	if err != nil || seats < 1 {
		return fmt.Errorf("bad seats %q", field("seats"))
	}
	votes, err := strconv.Atoi(field("votes"))
	if err != nil || votes < 0 {
		return fmt.Errorf("bad votes %q", field("votes"))
	}

	electionType := field("election_type")
	if electionType == "" {
		electionType = "general"
	}
	office := field("office")
	candidate := field("candidate")
	municipality := field("municipality")
	if office == "" || candidate == "" || municipality == "" {
		return errors.New("office, candidate, and municipality are required")
	}

	electionID, err := cache.election(tx, year, electionType)
	if err != nil {
		return err
	}
	officeID, err := cache.office(tx, office)
	if err != nil {
		return err
	}
	raceID, err := cache.race(tx, electionID, officeID, field("county"), field("district"), seats)
	if err != nil {
		return err
	}
	candidateID, err := cache.candidate(tx, raceID, candidate, field("party"))
	if err != nil {
		return err
	}

	var existing int
	err = tx.QueryRow(`
		SELECT votes FROM results
		WHERE race_id = $1 AND candidate_id = $2 AND municipality = $3
	`, raceID, candidateID, municipality).Scan(&existing)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO results (race_id, candidate_id, municipality, votes)
			VALUES ($1, $2, $3, $4)
		`, raceID, candidateID, municipality, votes)
		if err != nil {
			return fmt.Errorf("failed to insert result: %w", err)
		}
		summary.Created++
	case err != nil:
		return fmt.Errorf("failed to check existing result: %w", err)
	case existing == votes:
		summary.Unchanged++
	case existing != 0 && !opts.ReplaceExisting:
		// Never silently clobber entered data.
		summary.Conflicts++
	default:
		_, err = tx.Exec(`
			UPDATE results SET votes = $1
			WHERE race_id = $2 AND candidate_id = $3 AND municipality = $4
		`, votes, raceID, candidateID, municipality)
		if err != nil {
			return fmt.Errorf("failed to update result: %w", err)
		}
		summary.Updated++
	}

	return nil
}

var ballotColumns = []string{"year", "municipality", "ballots_cast"}

// ImportBallotsCast loads per-municipality ballots-cast figures (the
// turnout denominator) from CSV. Figures attach to the general election
// of the given year, creating it if absent.
//
// Expected columns: year, municipality, ballots_cast.
func ImportBallotsCast(db *sql.DB, r io.Reader, opts Options) (Summary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	head, err := reader.Read()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read CSV header: %w", err)
	}
	idx, err := header(head, ballotColumns)
	if err != nil {
		return Summary{}, err
	}

	tx, err := db.Begin()
	if err != nil {
		return Summary{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	summary := Summary{BatchID: uuid.NewString()}
	startedAt := time.Now()
	cache := newIDCache()

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Summary{}, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}
		summary.Rows++

		if err := importBallotRow(tx, cache, idx, record, opts, &summary); err != nil {
			summary.RowErrors = append(summary.RowErrors, RowError{Line: line, Message: err.Error()})
		}
	}

	finishedAt := time.Now()
	_, err = tx.Exec(`
		INSERT INTO import_batches (id, source, kind, row_count, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, summary.BatchID, opts.Source, "ballots", summary.Rows, startedAt, finishedAt)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to record import batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("failed to commit import: %w", err)
	}

	slog.Info("ballots-cast import finished",
		"batch", summary.BatchID, "rows", summary.Rows,
		"created", summary.Created, "updated", summary.Updated,
		"row_errors", len(summary.RowErrors))

	return summary, nil
}

func importBallotRow(tx *sql.Tx, cache *idCache, idx map[string]int, record []string, opts Options, summary *Summary) error {
	field := func(name string) string {
		i := idx[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	year, err := strconv.Atoi(field("year"))
	if err != nil {
		return fmt.Errorf("bad year %q", field("year"))
	}
	ballots, err := strconv.Atoi(field("ballots_cast"))
	if err != nil || ballots < 0 {
		return fmt.Errorf("bad ballots_cast %q", field("ballots_cast"))
	}
	municipality := field("municipality")
	if municipality == "" {
		return errors.New("municipality is required")
	}

	electionID, err := cache.election(tx, year, "general")
	if err != nil {
		return err
	}

	var existing int
	err = tx.QueryRow(`
		SELECT ballots_cast FROM voter_registration
		WHERE election_id = $1 AND municipality = $2
	`, electionID, municipality).Scan(&existing)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(`
			INSERT INTO voter_registration (election_id, municipality, ballots_cast)
			VALUES ($1, $2, $3)
		`, electionID, municipality, ballots)
		if err != nil {
			return fmt.Errorf("failed to insert ballots cast: %w", err)
		}
		summary.Created++
	case err != nil:
		return fmt.Errorf("failed to check existing ballots cast: %w", err)
	case existing == ballots:
		summary.Unchanged++
	case existing != 0 && !opts.ReplaceExisting:
		summary.Conflicts++
	default:
		_, err = tx.Exec(`
			UPDATE voter_registration SET ballots_cast = $1
			WHERE election_id = $2 AND municipality = $3
		`, ballots, electionID, municipality)
		if err != nil {
			return fmt.Errorf("failed to update ballots cast: %w", err)
		}
		summary.Updated++
	}

	return nil
}

// idCache memoizes select-or-insert lookups for parent rows so an import
// does not re-query the same election, office, race, and candidate for
// every CSV line.
type idCache struct {
	elections  map[string]int64
	offices    map[string]int64
	races      map[string]int64
	candidates map[string]int64
}

func newIDCache() *idCache {
	return &idCache{
		elections:  map[string]int64{},
		offices:    map[string]int64{},
		races:      map[string]int64{},
		candidates: map[string]int64{},
	}
}

// selectOrInsert returns the ID for a row identified by its natural key,
// inserting it if absent. Insert-then-select (rather than LastInsertId)
// keeps this portable across the SQLite and PostgreSQL drivers.
func selectOrInsert(tx *sql.Tx, selectSQL, insertSQL string, selectArgs, insertArgs []interface{}) (int64, error) {
	var id int64
	err := tx.QueryRow(selectSQL, selectArgs...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	if _, err := tx.Exec(insertSQL, insertArgs...); err != nil {
		return 0, err
	}
	if err := tx.QueryRow(selectSQL, selectArgs...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (c *idCache) election(tx *sql.Tx, year int, electionType string) (int64, error) {
	key := fmt.Sprintf("%d|%s", year, electionType)
	if id, ok := c.elections[key]; ok {
		return id, nil
	}
	id, err := selectOrInsert(tx,
		`SELECT id FROM elections WHERE year = $1 AND election_type = $2`,
		`INSERT INTO elections (year, election_type) VALUES ($1, $2)`,
		[]interface{}{year, electionType},
		[]interface{}{year, electionType},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve election %d/%s: %w", year, electionType, err)
	}
	c.elections[key] = id
	return id, nil
}

func (c *idCache) office(tx *sql.Tx, name string) (int64, error) {
	if id, ok := c.offices[name]; ok {
		return id, nil
	}
	id, err := selectOrInsert(tx,
		`SELECT id FROM offices WHERE name = $1`,
		`INSERT INTO offices (name) VALUES ($1)`,
		[]interface{}{name},
		[]interface{}{name},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve office %q: %w", name, err)
	}
	c.offices[name] = id
	return id, nil
}

func (c *idCache) race(tx *sql.Tx, electionID, officeID int64, county, district string, seats int) (int64, error) {
	key := fmt.Sprintf("%d|%d|%s|%s", electionID, officeID, county, district)
	if id, ok := c.races[key]; ok {
		return id, nil
	}
	id, err := selectOrInsert(tx,
		`SELECT id FROM races WHERE election_id = $1 AND office_id = $2 AND county = $3 AND district = $4`,
		`INSERT INTO races (election_id, office_id, county, district, seats) VALUES ($1, $2, $3, $4, $5)`,
		[]interface{}{electionID, officeID, county, district},
		[]interface{}{electionID, officeID, county, district, seats},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve race: %w", err)
	}
	c.races[key] = id
	return id, nil
}

func (c *idCache) candidate(tx *sql.Tx, raceID int64, name, party string) (int64, error) {
	key := fmt.Sprintf("%d|%s", raceID, name)
	if id, ok := c.candidates[key]; ok {
		return id, nil
	}
	id, err := selectOrInsert(tx,
		`SELECT id FROM candidates WHERE race_id = $1 AND name = $2`,
		`INSERT INTO candidates (race_id, name, party) VALUES ($1, $2, $3)`,
		[]interface{}{raceID, name},
		[]interface{}{raceID, name, party},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve candidate %q: %w", name, err)
	}
	c.candidates[key] = id
	return id, nil
}
