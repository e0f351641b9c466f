// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally implements the result aggregator: per-candidate totals,
ranking, winner determination, and margins for a single race.

# Aggregation

Aggregate consumes a race descriptor, its candidates, and the race's
per-municipality result rows, and returns one Standing per candidate:

	standings, err := tally.Aggregate(race, candidates, rows, tally.Options{Complete: true})

Candidates are summed across municipalities, ranked descending by total
(competition ranking: tied candidates share a rank), and the top S
candidates win, where S is the race's seat count. One exception: when the
candidate at rank S ties the candidate at rank S+1, no tied candidate is
declared a winner. Every candidate holding the tied total gets
WinnerUndetermined and the contested seat stays open pending manual
resolution. A two-way tie in a one-seat race therefore produces two
undetermined candidates and no winner.

# Margins

Margins always compare against the single vote count at the seat
boundary, never the sum of winner totals (summing makes margins
meaningless as soon as seats > 1). With seats=2 and totals A=500, B=400,
C=390: A and B win, B's margin is 10 (400-390), C's margin is -10
(390-400), and A's is 110 (500-390).

# Completeness

The aggregator refuses to guess whether a missing row means "zero votes"
or "not yet entered". Options.Complete is the caller's explicit signal
that entry has finished; without it, a candidate with no rows yields
ErrIncompleteData and partial standings are marked Provisional.

# Turnout

Turnout divides votes cast by ballots cast, guarded against a zero
denominator: an undefined turnout reports ok=false (or a nil pointer via
TurnoutPtr) instead of failing the computation.

# Purity

Everything in this package is a pure, deterministic function over
in-memory rows. Fetching rows is the store package's job; errors here are
local to one race and never abort aggregation of other races.
*/
package tally
