// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cmaidmentnh/nh-election-results/models"
)

var (
	// ErrIncompleteData means a candidate has no result rows and the
	// caller did not signal that data entry is finished. Missing rows are
	// never silently treated as zero votes.
	ErrIncompleteData = errors.New("incomplete results data")

	ErrNoCandidates = errors.New("race has no candidates")
	ErrInvalidSeats = errors.New("invalid seat count")
	ErrInvalidVotes = errors.New("negative vote count")
)

// Options carries the caller-supplied completeness signal.
type Options struct {
	// Complete means data entry for the race has finished, so a candidate
	// with no result rows genuinely received zero votes. When false (the
	// default), a candidate with zero rows is an ErrIncompleteData and
	// standings computed from partial rows are marked Provisional.
	Complete bool
}

// Total is one candidate's district-wide vote total, the input to Rank.
type Total struct {
	CandidateID int64
	Name        string
	Party       string
	Votes       int
}

// Aggregate computes a race's standings from its per-municipality result
// rows: district-wide totals, competition ranks, winner status, and the
// margin relative to the seat-cutoff threshold.
//
// Pseudo-candidates (Undervotes, Overvotes, Write-Ins) are dropped before
// ranking. Rows for candidates not in the candidate list are ignored.
//
// Aggregate is a pure function of its inputs: no I/O, no hidden state,
// and identical input always yields identical output.
func Aggregate(race models.Race, candidates []models.Candidate, rows []models.Result, opts Options) ([]models.Standing, error) {
	cands := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !models.IsPseudoCandidate(c.Name) {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		return nil, ErrNoCandidates
	}

	totals := make(map[int64]int, len(cands))
	seen := make(map[int64]bool, len(cands))
	for _, c := range cands {
		totals[c.ID] = 0
	}

	for _, row := range rows {
		if _, ok := totals[row.CandidateID]; !ok {
			continue
		}
		if row.Votes < 0 {
			return nil, fmt.Errorf("%w: candidate %d in %s", ErrInvalidVotes, row.CandidateID, row.Municipality)
		}
		totals[row.CandidateID] += row.Votes
		seen[row.CandidateID] = true
	}

	// A candidate with no rows at all is "not yet entered", which is
	// distinct from "received zero votes". Only the caller knows whether
	// entry has finished.
	if !opts.Complete {
		for _, c := range cands {
			if !seen[c.ID] {
				return nil, fmt.Errorf("%w: no results entered for %q", ErrIncompleteData, c.Name)
			}
		}
	}

	input := make([]Total, 0, len(cands))
	for _, c := range cands {
		input = append(input, Total{
			CandidateID: c.ID,
			Name:        c.Name,
			Party:       c.Party,
			Votes:       totals[c.ID],
		})
	}

	standings, err := Rank(race.Seats, input)
	if err != nil {
		return nil, err
	}

	if !opts.Complete {
		for i := range standings {
			standings[i].Provisional = true
		}
	}

	return standings, nil
}

// Rank orders candidate totals and determines winners and margins for a
// race with the given seat count. It is the shared core of Aggregate and
// of analyses that already hold SQL-aggregated totals.
//
// Winners are the top seats candidates by rank, unless the candidate at
// the cutoff rank ties the first runner-up: then every candidate holding
// the tied total is WinnerUndetermined and the contested seat is left
// open pending manual resolution.
//
// Margins compare against the vote count at the seat boundary (a MAX
// threshold, never a sum of winner totals): a winner carries its lead
// over the first runner-up, a loser its (negative) gap to the lowest
// winner. An unopposed winner carries its own total.
func Rank(seats int, totals []Total) ([]models.Standing, error) {
	if seats < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSeats, seats)
	}
	if len(totals) == 0 {
		return nil, ErrNoCandidates
	}

	sorted := make([]Total, len(totals))
	copy(sorted, totals)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Votes != sorted[j].Votes {
			return sorted[i].Votes > sorted[j].Votes
		}
		return sorted[i].Name < sorted[j].Name
	})

	cutoff := -1   // votes held by the lowest winning rank
	runnerUp := -1 // votes held by the first non-winning rank
	tieAtCutoff := false
	if len(sorted) > seats {
		cutoff = sorted[seats-1].Votes
		runnerUp = sorted[seats].Votes
		tieAtCutoff = cutoff == runnerUp
	}

	standings := make([]models.Standing, len(sorted))
	rank := 0
	for i, t := range sorted {
		if i == 0 || t.Votes != sorted[i-1].Votes {
			rank = i + 1
		}

		s := models.Standing{
			CandidateID: t.CandidateID,
			Name:        t.Name,
			Party:       t.Party,
			Votes:       t.Votes,
			Rank:        rank,
		}

		switch {
		case len(sorted) <= seats:
			// Fewer candidates than seats: everyone is elected.
			s.Winner = models.WinnerWon
			s.Margin = t.Votes
		case tieAtCutoff && t.Votes == cutoff:
			s.Winner = models.WinnerUndetermined
			s.Margin = 0
		case t.Votes > cutoff || (t.Votes == cutoff && !tieAtCutoff):
			s.Winner = models.WinnerWon
			s.Margin = t.Votes - runnerUp
		default:
			s.Winner = models.WinnerLost
			s.Margin = t.Votes - cutoff
		}

		standings[i] = s
	}

	return standings, nil
}

// TotalVotes sums the votes across a race's standings.
func TotalVotes(standings []models.Standing) int {
	total := 0
	for _, s := range standings {
		total += s.Votes
	}
	return total
}

// Winners returns the candidates with WinnerWon status, in rank order.
func Winners(standings []models.Standing) []models.Standing {
	var won []models.Standing
	for _, s := range standings {
		if s.Winner == models.WinnerWon {
			won = append(won, s)
		}
	}
	return won
}
