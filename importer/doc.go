// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package importer loads state tally-sheet CSVs into the database.

# Results

ImportResults consumes one row per (race, candidate, municipality) vote
count, resolving parent rows (election, office, race, candidate) by
natural key and creating them on first sight:

	summary, err := importer.ImportResults(db, file, importer.Options{
		Source: "2024_general.csv",
	})

Each run is a single transaction and a single audited batch (a UUID row
in import_batches). Rows that fail to parse are skipped and listed in
Summary.RowErrors with their line numbers; the rest of the file still
imports.

# Conflicts

An import never silently clobbers entered data. A stored non-zero count
that differs from the incoming one is a conflict: skipped and counted in
Summary.Conflicts unless Options.ReplaceExisting is set. A stored zero
is a placeholder and is always overwritten.

# Ballots cast

ImportBallotsCast loads the turnout denominator (per-municipality
ballots-cast figures) with the same transaction, batch, and conflict
semantics.

# Backup

Backup copies a file-backed SQLite database to a timestamped .bak
sibling, for the CLI to run before any import.
*/
package importer
