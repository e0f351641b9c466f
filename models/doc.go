// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines the shared domain types for the election results
module.

# Entity Types

The persisted entities mirror the database schema:

  - Election: one statewide election (year + type)
  - Office: static reference data ("State Representative", "Governor")
  - Race: one contest (election + office + district + county + seats)
  - Candidate: one person on a race's ballot
  - Result: vote count for a (race, candidate, municipality) triple
  - VoterRegistration: ballots cast per (election, municipality)

# Aggregation Types

Standing is the aggregator's per-candidate output line:

	type Standing struct {
		Votes  int
		Rank   int          // 1-indexed, competition ranking
		Winner WinnerStatus // won, lost, or undetermined
		Margin int          // vs the seat-cutoff threshold
	}

WinnerStatus is deliberately three-valued: a tie at the seat cutoff
produces WinnerUndetermined for every tied candidate, never a silent
coin-flip winner.

# Tally-Sheet Artifacts

State tally sheets carry rows that are not real candidates or towns
(Undervotes, Overvotes, Write-Ins, TOTALS, numeric ward subtotals). These
are stored as-is but filtered everywhere votes are ranked or towns are
listed; use IsPseudoCandidate and IsPseudoMunicipality.
*/
package models
