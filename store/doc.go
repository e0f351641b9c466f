// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store holds the read-side database queries: race loading,
candidate and result fetching, turnout denominators, district
compositions, and dataset stats.

Functions take a *sql.DB and return models types. Lookups that miss
return an error wrapping ErrNotFound:

	race, err := store.LoadRace(db, raceID)
	if errors.Is(err, store.ErrNotFound) {
		// race does not exist
	}

All SQL uses $1-style placeholders, which both the SQLite and PostgreSQL
drivers accept. Tally-sheet artifacts (TOTALS rows, ward subtotals,
pseudo-candidate rows doubling as municipalities) are filtered in Go via
models.IsPseudoMunicipality, so no query depends on driver-specific
pattern matching.

BallotsCast deliberately distinguishes "no figure recorded" (ok=false)
from a recorded zero: turnout against a missing denominator is undefined,
not 0%.
*/
package store
