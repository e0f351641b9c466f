package models

import "time"

// Election type constants
const (
	TypeGeneral = "general"
	TypePrimary = "primary"
)

// Major party names as they appear in state tally sheets
const (
	PartyRepublican = "Republican"
	PartyDemocratic = "Democratic"
)

// Pseudo-candidate rows present in state tally sheets. They are stored
// alongside real candidates but excluded from ranking and winner
// determination.
var PseudoCandidates = map[string]bool{
	"Undervotes": true,
	"Overvotes":  true,
	"Write-Ins":  true,
}

// Pseudo-municipality rows present in state tally sheets (column totals
// and the pseudo-candidate rows doubling as row labels).
var PseudoMunicipalities = map[string]bool{
	"Undervotes": true,
	"Overvotes":  true,
	"Write-Ins":  true,
	"TOTALS":     true,
}

// IsPseudoCandidate reports whether a candidate name is a tally-sheet
// artifact rather than a person on the ballot.
func IsPseudoCandidate(name string) bool {
	return PseudoCandidates[name]
}

// IsPseudoMunicipality reports whether a municipality name is a
// tally-sheet artifact (totals row, ward subtotal) rather than a town.
// Ward subtotals appear as bare numbers ("01", "02").
func IsPseudoMunicipality(name string) bool {
	if PseudoMunicipalities[name] {
		return true
	}
	return len(name) > 0 && name[0] >= '0' && name[0] <= '9'
}

// Domain types

type Election struct {
	ID           int64  `json:"id"`
	Year         int    `json:"year"`
	ElectionType string `json:"election_type"`
}

type Office struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Race struct {
	ID         int64  `json:"id"`
	ElectionID int64  `json:"election_id"`
	OfficeID   int64  `json:"office_id"`
	Office     string `json:"office"`
	Year       int    `json:"year"`
	District   string `json:"district"`
	County     string `json:"county"`
	Seats      int    `json:"seats"`
}

type Candidate struct {
	ID     int64  `json:"id"`
	RaceID int64  `json:"race_id"`
	Name   string `json:"name"`
	Party  string `json:"party"`
}

// Result is one vote count for a (race, candidate, municipality) triple.
type Result struct {
	RaceID       int64  `json:"race_id"`
	CandidateID  int64  `json:"candidate_id"`
	Municipality string `json:"municipality"`
	Votes        int    `json:"votes"`
}

// VoterRegistration holds the ballots-cast figure for one municipality in
// one election. Used only as the turnout denominator, never for winner
// determination.
type VoterRegistration struct {
	ID           int64  `json:"id"`
	ElectionID   int64  `json:"election_id"`
	Municipality string `json:"municipality"`
	BallotsCast  int    `json:"ballots_cast"`
}

// Aggregation result types

// WinnerStatus is a three-valued winner flag. A tie at the seat cutoff
// leaves the contested seat undetermined pending manual resolution.
type WinnerStatus string

const (
	WinnerWon          WinnerStatus = "won"
	WinnerLost         WinnerStatus = "lost"
	WinnerUndetermined WinnerStatus = "undetermined"
)

// Standing is one candidate's line in an aggregated race: district-wide
// total, 1-indexed competition rank, winner status, and the vote margin
// relative to the seat-cutoff threshold.
type Standing struct {
	CandidateID int64        `json:"candidate_id"`
	Name        string       `json:"name"`
	Party       string       `json:"party"`
	Votes       int          `json:"votes"`
	Rank        int          `json:"rank"`
	Winner      WinnerStatus `json:"winner"`
	Margin      int          `json:"margin"`
	Provisional bool         `json:"provisional,omitempty"`
}

// RaceReport bundles a race with its aggregated standings. Turnout is nil
// when no ballots-cast figures exist for the district (undefined, not an
// error).
type RaceReport struct {
	Race       Race       `json:"race"`
	Standings  []Standing `json:"standings"`
	TotalVotes int        `json:"total_votes"`
	Turnout    *float64   `json:"turnout,omitempty"`
}

// Store report types

// CompositionCheck compares the municipalities that have result rows for
// a race against the district's declared composition.
type CompositionCheck struct {
	Declared   bool     `json:"declared"`
	Missing    []string `json:"missing"`
	Unexpected []string `json:"unexpected"`
}

// Stats summarizes the dataset.
type Stats struct {
	Years          int    `json:"years"`
	YearRange      string `json:"year_range"`
	Municipalities int    `json:"municipalities"`
	Candidates     int    `json:"candidates"`
	Races          int    `json:"races"`
}

// ImportBatch is the persisted record of one bulk import run.
type ImportBatch struct {
	ID         string     `json:"id"`
	Source     string     `json:"source"`
	Kind       string     `json:"kind"`
	RowCount   int        `json:"row_count"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}
