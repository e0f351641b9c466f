// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"errors"
	"reflect"
	"testing"

	"github.com/cmaidmentnh/nh-election-results/models"
	"github.com/cmaidmentnh/nh-election-results/testutil"
)

func TestLoadRace(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	officeID := testutil.CreateTestOffice(t, db, "State Representative")
	raceID := testutil.CreateTestRace(t, db, electionID, officeID, "Grafton", "12", 2)

	race, err := LoadRace(db, raceID)
	if err != nil {
		t.Fatalf("LoadRace failed: %v", err)
	}

	if race.Office != "State Representative" {
		t.Errorf("Expected joined office name, got %q", race.Office)
	}
	if race.Year != 2024 {
		t.Errorf("Expected joined election year 2024, got %d", race.Year)
	}
	if race.County != "Grafton" || race.District != "12" || race.Seats != 2 {
		t.Errorf("Race fields wrong: %+v", race)
	}
}

func TestLoadRaceNotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := LoadRace(db, 999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestElectionByYear(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	testutil.CreateTestElection(t, db, 2024, models.TypePrimary)

	e, err := ElectionByYear(db, 2024, models.TypePrimary)
	if err != nil {
		t.Fatalf("ElectionByYear failed: %v", err)
	}
	if e.ElectionType != models.TypePrimary {
		t.Errorf("Expected primary, got %q", e.ElectionType)
	}

	_, err = ElectionByYear(db, 2020, models.TypeGeneral)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for missing year, got %v", err)
	}
}

func TestRaceCandidatesAndResults(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	officeID := testutil.CreateTestOffice(t, db, "Governor")
	raceID := testutil.CreateTestRace(t, db, electionID, officeID, "", "", 1)

	aliceID := testutil.AddTestCandidate(t, db, raceID, "Alice", models.PartyDemocratic)
	testutil.AddTestCandidate(t, db, raceID, "Write-Ins", "")
	testutil.AddTestResult(t, db, raceID, aliceID, "Canaan", 400)
	testutil.AddTestResult(t, db, raceID, aliceID, "Orange", 120)

	candidates, err := RaceCandidates(db, raceID)
	if err != nil {
		t.Fatalf("RaceCandidates failed: %v", err)
	}
	// Pseudo-candidates are returned; ranking filters them later.
	if len(candidates) != 2 {
		t.Fatalf("Expected 2 candidates, got %d", len(candidates))
	}

	results, err := RaceResults(db, raceID)
	if err != nil {
		t.Fatalf("RaceResults failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 result rows, got %d", len(results))
	}
	total := 0
	for _, r := range results {
		total += r.Votes
	}
	if total != 520 {
		t.Errorf("Expected 520 total votes across rows, got %d", total)
	}
}

func TestTownsFiltersArtifacts(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	officeID := testutil.CreateTestOffice(t, db, "Governor")
	raceID := testutil.CreateTestRace(t, db, electionID, officeID, "", "", 1)
	aliceID := testutil.AddTestCandidate(t, db, raceID, "Alice", models.PartyDemocratic)

	testutil.AddTestResult(t, db, raceID, aliceID, "Canaan", 400)
	testutil.AddTestResult(t, db, raceID, aliceID, "Lebanon", 900)
	testutil.AddTestResult(t, db, raceID, aliceID, "TOTALS", 1300)
	testutil.AddTestResult(t, db, raceID, aliceID, "01", 250)

	towns, err := Towns(db)
	if err != nil {
		t.Fatalf("Towns failed: %v", err)
	}

	if !reflect.DeepEqual(towns, []string{"Canaan", "Lebanon"}) {
		t.Errorf("Expected artifacts filtered, got %v", towns)
	}
}

func TestBallotsCast(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	testutil.SetTestBallotsCast(t, db, electionID, "Canaan", 2100)

	ballots, ok, err := BallotsCast(db, electionID, "Canaan")
	if err != nil {
		t.Fatalf("BallotsCast failed: %v", err)
	}
	if !ok || ballots != 2100 {
		t.Errorf("Expected 2100 ballots, got %d (ok=%v)", ballots, ok)
	}

	// Missing figure means turnout is undefined, not zero.
	_, ok, err = BallotsCast(db, electionID, "Orange")
	if err != nil {
		t.Fatalf("BallotsCast failed: %v", err)
	}
	if ok {
		t.Error("Expected ok=false for municipality with no recorded figure")
	}
}

func TestCheckComposition(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	officeID := testutil.CreateTestOffice(t, db, "State Representative")
	raceID := testutil.CreateTestRace(t, db, electionID, officeID, "Grafton", "12", 1)
	aliceID := testutil.AddTestCandidate(t, db, raceID, "Alice", models.PartyDemocratic)

	testutil.AddTestComposition(t, db, "State Representative", "Grafton", "12", "Canaan")
	testutil.AddTestComposition(t, db, "State Representative", "Grafton", "12", "Orange")

	testutil.AddTestResult(t, db, raceID, aliceID, "Canaan", 400)
	testutil.AddTestResult(t, db, raceID, aliceID, "Dorchester", 55)

	check, err := CheckComposition(db, raceID)
	if err != nil {
		t.Fatalf("CheckComposition failed: %v", err)
	}

	if !check.Declared {
		t.Fatal("Expected composition to be declared")
	}
	if !reflect.DeepEqual(check.Missing, []string{"Orange"}) {
		t.Errorf("Expected Orange missing, got %v", check.Missing)
	}
	if !reflect.DeepEqual(check.Unexpected, []string{"Dorchester"}) {
		t.Errorf("Expected Dorchester unexpected, got %v", check.Unexpected)
	}
}

func TestCheckCompositionUndeclared(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	officeID := testutil.CreateTestOffice(t, db, "Governor")
	raceID := testutil.CreateTestRace(t, db, electionID, officeID, "", "", 1)

	check, err := CheckComposition(db, raceID)
	if err != nil {
		t.Fatalf("CheckComposition failed: %v", err)
	}
	if check.Declared {
		t.Error("Expected Declared=false with no composition rows")
	}
	if len(check.Missing) != 0 || len(check.Unexpected) != 0 {
		t.Error("Undeclared composition must not report discrepancies")
	}
}

func TestStats(t *testing.T) {
	db := testutil.SetupTestDB(t)

	e2022 := testutil.CreateTestElection(t, db, 2022, models.TypeGeneral)
	e2024 := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	officeID := testutil.CreateTestOffice(t, db, "Governor")

	r1 := testutil.CreateTestRace(t, db, e2022, officeID, "", "", 1)
	r2 := testutil.CreateTestRace(t, db, e2024, officeID, "", "", 1)
	a1 := testutil.AddTestCandidate(t, db, r1, "Alice", models.PartyDemocratic)
	a2 := testutil.AddTestCandidate(t, db, r2, "Alice", models.PartyDemocratic)
	testutil.AddTestResult(t, db, r1, a1, "Canaan", 400)
	testutil.AddTestResult(t, db, r2, a2, "Canaan", 450)
	testutil.AddTestResult(t, db, r2, a2, "Orange", 90)

	stats, err := Stats(db)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.Years != 2 {
		t.Errorf("Expected 2 years, got %d", stats.Years)
	}
	if stats.YearRange != "2022-2024" {
		t.Errorf("Expected year range 2022-2024, got %q", stats.YearRange)
	}
	if stats.Municipalities != 2 {
		t.Errorf("Expected 2 municipalities, got %d", stats.Municipalities)
	}
	if stats.Candidates != 1 {
		t.Errorf("Expected 1 distinct candidate name, got %d", stats.Candidates)
	}
	if stats.Races != 2 {
		t.Errorf("Expected 2 races, got %d", stats.Races)
	}
}
