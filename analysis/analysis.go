// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/cmaidmentnh/nh-election-results/models"
	"github.com/cmaidmentnh/nh-election-results/store"
	"github.com/cmaidmentnh/nh-election-results/tally"
)

// Lean classification thresholds, in normalized-margin points.
const (
	safeThreshold   = 15
	likelyThreshold = 8
	leanThreshold   = 3
	trendThreshold  = 2
)

// officeOrder puts statewide offices before district ones in reports.
var officeOrder = map[string]int{
	"President":            0,
	"Governor":             1,
	"US Senate":            2,
	"US House":             3,
	"Executive Council":    4,
	"State Senate":         5,
	"State Representative": 6,
}

// OfficeSortKey returns the report ordering for an office name. Unknown
// offices sort last, alphabetically among themselves.
func OfficeSortKey(office string) int {
	if key, ok := officeOrder[office]; ok {
		return key
	}
	return len(officeOrder)
}

// ClassifyLean maps a normalized two-party margin (positive = Republican
// lead, in points) to a competitiveness label.
func ClassifyLean(margin float64) string {
	switch {
	case margin >= safeThreshold:
		return "Safe R"
	case margin >= likelyThreshold:
		return "Likely R"
	case margin >= leanThreshold:
		return "Lean R"
	case margin > -leanThreshold:
		return "Toss-up"
	case margin > -likelyThreshold:
		return "Lean D"
	case margin > -safeThreshold:
		return "Likely D"
	default:
		return "Safe D"
	}
}

// TrendArrow renders a margin change between two elections. Shifts inside
// the trend threshold render as flat.
func TrendArrow(change float64) string {
	switch {
	case change >= trendThreshold:
		return "↗"
	case change <= -trendThreshold:
		return "↘"
	default:
		return "→"
	}
}

// PartySeats is one office's seat count by winning party in an election.
type PartySeats struct {
	Office       string `json:"office"`
	Republican   int    `json:"republican"`
	Democratic   int    `json:"democratic"`
	Other        int    `json:"other"`
	Undetermined int    `json:"undetermined"`
}

// CloseRace is one two-party race with its normalized margin.
type CloseRace struct {
	RaceID   int64   `json:"race_id"`
	Office   string  `json:"office"`
	County   string  `json:"county"`
	District string  `json:"district"`
	RepVotes int     `json:"rep_votes"`
	DemVotes int     `json:"dem_votes"`
	Margin   float64 `json:"margin"`
	Lean     string  `json:"lean"`
}

// Shift is one district's margin movement between two elections.
type Shift struct {
	Office     string  `json:"office"`
	County     string  `json:"county"`
	District   string  `json:"district"`
	MarginFrom float64 `json:"margin_from"`
	MarginTo   float64 `json:"margin_to"`
	Change     float64 `json:"change"`
	Arrow      string  `json:"arrow"`
}

// TurnoutRow is one municipality's turnout figures in one election year.
// Turnout is nil when no ballots-cast figure was recorded.
type TurnoutRow struct {
	Municipality string   `json:"municipality"`
	Year         int      `json:"year"`
	Votes        int      `json:"votes"`
	Ballots      int      `json:"ballots"`
	Turnout      *float64 `json:"turnout,omitempty"`
}

// raceTotals is one race with its SQL-free per-candidate totals, the
// shared input to every election-wide analysis.
type raceTotals struct {
	race   models.Race
	totals []tally.Total
}

// electionTotals loads every race in an election with district-wide
// per-candidate totals. Pseudo-candidates and tally-sheet municipality
// artifacts are excluded before summation, so totals match what the
// aggregator would produce.
func electionTotals(db *sql.DB, electionID int64) ([]raceTotals, error) {
	rows, err := db.Query(`
		SELECT r.id, r.election_id, r.office_id, o.name, e.year,
		       COALESCE(r.district, ''), COALESCE(r.county, ''), r.seats,
		       c.id, c.name, COALESCE(c.party, ''),
		       res.municipality, res.votes
		FROM results res
		JOIN races r ON r.id = res.race_id
		JOIN candidates c ON c.id = res.candidate_id
		JOIN offices o ON o.id = r.office_id
		JOIN elections e ON e.id = r.election_id
		WHERE r.election_id = $1
		ORDER BY r.id, c.id
	`, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query election totals: %w", err)
	}
	defer rows.Close()

	byRace := map[int64]*raceTotals{}
	candIdx := map[int64]map[int64]int{} // race -> candidate -> index in totals
	order := []int64{}

	for rows.Next() {
		var race models.Race
		var candID int64
		var candName, party, municipality string
		var votes int
		if err := rows.Scan(
			&race.ID, &race.ElectionID, &race.OfficeID, &race.Office, &race.Year,
			&race.District, &race.County, &race.Seats,
			&candID, &candName, &party, &municipality, &votes,
		); err != nil {
			return nil, fmt.Errorf("failed to scan election totals row: %w", err)
		}

		if models.IsPseudoCandidate(candName) || models.IsPseudoMunicipality(municipality) {
			continue
		}

		rt, ok := byRace[race.ID]
		if !ok {
			rt = &raceTotals{race: race}
			byRace[race.ID] = rt
			candIdx[race.ID] = map[int64]int{}
			order = append(order, race.ID)
		}

		idx, ok := candIdx[race.ID][candID]
		if !ok {
			idx = len(rt.totals)
			rt.totals = append(rt.totals, tally.Total{CandidateID: candID, Name: candName, Party: party})
			candIdx[race.ID][candID] = idx
		}
		rt.totals[idx].Votes += votes
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]raceTotals, 0, len(order))
	for _, id := range order {
		out = append(out, *byRace[id])
	}
	return out, nil
}

// PartyControl tallies seats won by party, per office, in the general
// election of the given year. A race whose ranking fails (bad seat count,
// no real candidates) is logged and skipped rather than aborting the
// whole report; seats tied at the cutoff count as Undetermined.
func PartyControl(db *sql.DB, year int) ([]PartySeats, error) {
	election, err := store.ElectionByYear(db, year, models.TypeGeneral)
	if err != nil {
		return nil, err
	}

	races, err := electionTotals(db, election.ID)
	if err != nil {
		return nil, err
	}

	byOffice := map[string]*PartySeats{}
	for _, rt := range races {
		standings, err := tally.Rank(rt.race.Seats, rt.totals)
		if err != nil {
			slog.Warn("skipping race in party control tally",
				"race_id", rt.race.ID, "office", rt.race.Office, "error", err)
			continue
		}

		seats, ok := byOffice[rt.race.Office]
		if !ok {
			seats = &PartySeats{Office: rt.race.Office}
			byOffice[rt.race.Office] = seats
		}

		for _, s := range standings {
			switch s.Winner {
			case models.WinnerWon:
				switch s.Party {
				case models.PartyRepublican:
					seats.Republican++
				case models.PartyDemocratic:
					seats.Democratic++
				default:
					seats.Other++
				}
			case models.WinnerUndetermined:
				seats.Undetermined++
			}
		}
	}

	out := make([]PartySeats, 0, len(byOffice))
	for _, seats := range byOffice {
		out = append(out, *seats)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := OfficeSortKey(out[i].Office), OfficeSortKey(out[j].Office)
		if ki != kj {
			return ki < kj
		}
		return out[i].Office < out[j].Office
	})
	return out, nil
}

// closeRace builds the normalized two-party margin for one race. ok is
// false when either major party has no votes: a one-party race has no
// meaningful margin.
func closeRace(rt raceTotals) (CloseRace, bool) {
	rep, dem := 0, 0
	for _, t := range rt.totals {
		switch t.Party {
		case models.PartyRepublican:
			rep += t.Votes
		case models.PartyDemocratic:
			dem += t.Votes
		}
	}
	if rep == 0 || dem == 0 {
		return CloseRace{}, false
	}

	margin := float64(rep-dem) / float64(rep+dem) * 100
	return CloseRace{
		RaceID:   rt.race.ID,
		Office:   rt.race.Office,
		County:   rt.race.County,
		District: rt.race.District,
		RepVotes: rep,
		DemVotes: dem,
		Margin:   margin,
		Lean:     ClassifyLean(margin),
	}, true
}

// ClosestRaces returns the contested two-party races of a general
// election ordered by absolute normalized margin, tightest first.
func ClosestRaces(db *sql.DB, year, limit int) ([]CloseRace, error) {
	election, err := store.ElectionByYear(db, year, models.TypeGeneral)
	if err != nil {
		return nil, err
	}

	races, err := electionTotals(db, election.ID)
	if err != nil {
		return nil, err
	}

	out := []CloseRace{}
	for _, rt := range races {
		if cr, ok := closeRace(rt); ok {
			out = append(out, cr)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].Margin) < math.Abs(out[j].Margin)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// districtKey identifies the same contest across elections.
func districtKey(r models.Race) string {
	return r.Office + "|" + r.County + "|" + r.District
}

// BiggestShifts compares district margins between two general elections
// and returns the largest movements, biggest first. Only districts with a
// two-party margin in both years are comparable.
func BiggestShifts(db *sql.DB, fromYear, toYear, limit int) ([]Shift, error) {
	fromMargins, err := yearMargins(db, fromYear)
	if err != nil {
		return nil, err
	}
	toMargins, err := yearMargins(db, toYear)
	if err != nil {
		return nil, err
	}

	out := []Shift{}
	for key, from := range fromMargins {
		to, ok := toMargins[key]
		if !ok {
			continue
		}
		change := to.Margin - from.Margin
		out = append(out, Shift{
			Office:     to.Office,
			County:     to.County,
			District:   to.District,
			MarginFrom: from.Margin,
			MarginTo:   to.Margin,
			Change:     change,
			Arrow:      TrendArrow(change),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return math.Abs(out[i].Change) > math.Abs(out[j].Change)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func yearMargins(db *sql.DB, year int) (map[string]CloseRace, error) {
	election, err := store.ElectionByYear(db, year, models.TypeGeneral)
	if err != nil {
		return nil, err
	}
	races, err := electionTotals(db, election.ID)
	if err != nil {
		return nil, err
	}

	margins := map[string]CloseRace{}
	for _, rt := range races {
		if cr, ok := closeRace(rt); ok {
			margins[districtKey(rt.race)] = cr
		}
	}
	return margins, nil
}

// TurnoutTrends reports per-municipality turnout for each general
// election between fromYear and toYear inclusive. Votes cast come from
// the presidential race where one exists, the governor's race otherwise
// (every NH general election has one or the other at the top of the
// ticket). Years with no election in the database are skipped.
func TurnoutTrends(db *sql.DB, fromYear, toYear int) ([]TurnoutRow, error) {
	out := []TurnoutRow{}

	for year := fromYear; year <= toYear; year++ {
		election, err := store.ElectionByYear(db, year, models.TypeGeneral)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, err
		}

		votes, err := topTicketVotes(db, election.ID)
		if err != nil {
			return nil, err
		}
		if len(votes) == 0 {
			continue
		}

		towns := make([]string, 0, len(votes))
		for town := range votes {
			towns = append(towns, town)
		}
		sort.Strings(towns)

		for _, town := range towns {
			ballots, ok, err := store.BallotsCast(db, election.ID, town)
			if err != nil {
				return nil, err
			}
			row := TurnoutRow{
				Municipality: town,
				Year:         year,
				Votes:        votes[town],
			}
			if ok {
				row.Ballots = ballots
				row.Turnout = tally.TurnoutPtr(votes[town], ballots)
			}
			out = append(out, row)
		}
	}

	return out, nil
}

// topTicketVotes sums per-municipality votes for the presidential race,
// falling back to the governor's race in midterm years.
func topTicketVotes(db *sql.DB, electionID int64) (map[string]int, error) {
	for _, office := range []string{"President", "Governor"} {
		votes, err := officeVotes(db, electionID, office)
		if err != nil {
			return nil, err
		}
		if len(votes) > 0 {
			return votes, nil
		}
	}
	return map[string]int{}, nil
}

func officeVotes(db *sql.DB, electionID int64, office string) (map[string]int, error) {
	rows, err := db.Query(`
		SELECT c.name, res.municipality, res.votes
		FROM results res
		JOIN races r ON r.id = res.race_id
		JOIN offices o ON o.id = r.office_id
		JOIN candidates c ON c.id = res.candidate_id
		WHERE r.election_id = $1 AND o.name = $2
	`, electionID, office)
	if err != nil {
		return nil, fmt.Errorf("failed to query office votes: %w", err)
	}
	defer rows.Close()

	votes := map[string]int{}
	for rows.Next() {
		var candName, municipality string
		var v int
		if err := rows.Scan(&candName, &municipality, &v); err != nil {
			return nil, fmt.Errorf("failed to scan office votes: %w", err)
		}
		if models.IsPseudoCandidate(candName) || models.IsPseudoMunicipality(municipality) {
			continue
		}
		votes[municipality] += v
	}
	return votes, rows.Err()
}
