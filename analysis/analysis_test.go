// Copyright (c) 2025 Chris Maidment.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"database/sql"
	"math"
	"testing"

	"github.com/cmaidmentnh/nh-election-results/models"
	"github.com/cmaidmentnh/nh-election-results/testutil"
)

func TestClassifyLean(t *testing.T) {
	tests := []struct {
		margin float64
		want   string
	}{
		{20, "Safe R"},
		{15, "Safe R"},
		{10, "Likely R"},
		{5, "Lean R"},
		{3, "Lean R"},
		{2.9, "Toss-up"},
		{0, "Toss-up"},
		{-2.9, "Toss-up"},
		{-5, "Lean D"},
		{-10, "Likely D"},
		{-15, "Safe D"},
		{-22, "Safe D"},
	}

	for _, tt := range tests {
		if got := ClassifyLean(tt.margin); got != tt.want {
			t.Errorf("ClassifyLean(%.1f) = %q, want %q", tt.margin, got, tt.want)
		}
	}
}

func TestTrendArrow(t *testing.T) {
	tests := []struct {
		change float64
		want   string
	}{
		{5, "↗"},
		{2, "↗"},
		{1.9, "→"},
		{0, "→"},
		{-1.9, "→"},
		{-2, "↘"},
		{-7, "↘"},
	}

	for _, tt := range tests {
		if got := TrendArrow(tt.change); got != tt.want {
			t.Errorf("TrendArrow(%.1f) = %q, want %q", tt.change, got, tt.want)
		}
	}
}

func TestOfficeSortKey(t *testing.T) {
	if OfficeSortKey("Governor") >= OfficeSortKey("State Senate") {
		t.Error("Governor should sort before State Senate")
	}
	if OfficeSortKey("County Sheriff") <= OfficeSortKey("State Representative") {
		t.Error("Unknown offices should sort after known ones")
	}
}

// seedRace creates a race with district-wide totals, one row per
// candidate in a single municipality.
func seedRace(t *testing.T, db *sql.DB, electionID, officeID int64, county, district string, seats int, cands map[string]struct {
	Party string
	Votes int
}) int64 {
	t.Helper()
	raceID := testutil.CreateTestRace(t, db, electionID, officeID, county, district, seats)
	for name, c := range cands {
		candID := testutil.AddTestCandidate(t, db, raceID, name, c.Party)
		testutil.AddTestResult(t, db, raceID, candID, "Canaan", c.Votes)
	}
	return raceID
}

type entry = struct {
	Party string
	Votes int
}

func TestPartyControl(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	govID := testutil.CreateTestOffice(t, db, "Governor")
	repID := testutil.CreateTestOffice(t, db, "State Representative")

	seedRace(t, db, electionID, govID, "", "", 1, map[string]entry{
		"Rita": {models.PartyRepublican, 900},
		"Dave": {models.PartyDemocratic, 700},
	})
	// Two-seat race: one D clear winner, R and D tied at the cutoff.
	seedRace(t, db, electionID, repID, "Grafton", "12", 2, map[string]entry{
		"Dana":  {models.PartyDemocratic, 500},
		"Ralph": {models.PartyRepublican, 400},
		"Donna": {models.PartyDemocratic, 400},
	})

	control, err := PartyControl(db, 2024)
	if err != nil {
		t.Fatalf("PartyControl failed: %v", err)
	}

	if len(control) != 2 {
		t.Fatalf("Expected 2 offices, got %d", len(control))
	}

	// Governor sorts before State Representative.
	if control[0].Office != "Governor" {
		t.Errorf("Expected Governor first, got %s", control[0].Office)
	}
	if control[0].Republican != 1 || control[0].Democratic != 0 {
		t.Errorf("Governor: expected 1R 0D, got %dR %dD", control[0].Republican, control[0].Democratic)
	}

	rep := control[1]
	if rep.Democratic != 1 {
		t.Errorf("State Rep: expected 1 Democratic seat, got %d", rep.Democratic)
	}
	if rep.Undetermined != 2 {
		t.Errorf("State Rep: expected 2 undetermined (tie at cutoff), got %d", rep.Undetermined)
	}
	if rep.Republican != 0 {
		t.Errorf("State Rep: tied seat must not be assigned, got %dR", rep.Republican)
	}
}

func TestPartyControlSkipsMalformedRace(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	govID := testutil.CreateTestOffice(t, db, "Governor")
	ecID := testutil.CreateTestOffice(t, db, "Executive Council")

	seedRace(t, db, electionID, govID, "", "", 1, map[string]entry{
		"Rita": {models.PartyRepublican, 900},
		"Dave": {models.PartyDemocratic, 700},
	})
	// Race whose only rows are tally-sheet artifacts contributes nothing;
	// the report must still cover the governor's race.
	seedRace(t, db, electionID, ecID, "", "3", 1, map[string]entry{
		"Write-Ins": {"", 40},
	})

	control, err := PartyControl(db, 2024)
	if err != nil {
		t.Fatalf("PartyControl failed: %v", err)
	}
	if len(control) != 1 || control[0].Office != "Governor" {
		t.Errorf("Expected only the governor's race to be tallied, got %+v", control)
	}
}

func TestClosestRaces(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	senID := testutil.CreateTestOffice(t, db, "State Senate")

	// Margin (520-480)/1000*100 = +4.0
	seedRace(t, db, electionID, senID, "", "1", 1, map[string]entry{
		"R1": {models.PartyRepublican, 520},
		"D1": {models.PartyDemocratic, 480},
	})
	// Margin (400-600)/1000*100 = -20.0
	seedRace(t, db, electionID, senID, "", "2", 1, map[string]entry{
		"R2": {models.PartyRepublican, 400},
		"D2": {models.PartyDemocratic, 600},
	})
	// Uncontested: no margin, excluded.
	seedRace(t, db, electionID, senID, "", "3", 1, map[string]entry{
		"R3": {models.PartyRepublican, 700},
	})

	closest, err := ClosestRaces(db, 2024, 10)
	if err != nil {
		t.Fatalf("ClosestRaces failed: %v", err)
	}

	if len(closest) != 2 {
		t.Fatalf("Expected 2 contested races, got %d", len(closest))
	}
	if closest[0].District != "1" {
		t.Errorf("Expected district 1 tightest, got %s", closest[0].District)
	}
	if math.Abs(closest[0].Margin-4.0) > 0.001 {
		t.Errorf("Expected margin +4.0, got %.2f", closest[0].Margin)
	}
	if closest[0].Lean != "Lean R" {
		t.Errorf("Expected Lean R at +4.0, got %q", closest[0].Lean)
	}
	if closest[1].Lean != "Safe D" {
		t.Errorf("Expected Safe D at -20.0, got %q", closest[1].Lean)
	}
}

func TestClosestRacesLimit(t *testing.T) {
	db := testutil.SetupTestDB(t)

	electionID := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	senID := testutil.CreateTestOffice(t, db, "State Senate")

	for i, votes := range []int{510, 530, 550} {
		seedRace(t, db, electionID, senID, "", string(rune('1'+i)), 1, map[string]entry{
			"R": {models.PartyRepublican, votes},
			"D": {models.PartyDemocratic, 1000 - votes},
		})
	}

	closest, err := ClosestRaces(db, 2024, 2)
	if err != nil {
		t.Fatalf("ClosestRaces failed: %v", err)
	}
	if len(closest) != 2 {
		t.Errorf("Expected limit of 2 applied, got %d", len(closest))
	}
}

func TestBiggestShifts(t *testing.T) {
	db := testutil.SetupTestDB(t)

	e2022 := testutil.CreateTestElection(t, db, 2022, models.TypeGeneral)
	e2024 := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	senID := testutil.CreateTestOffice(t, db, "State Senate")

	// District 1: +4 -> -6, change -10.
	seedRace(t, db, e2022, senID, "", "1", 1, map[string]entry{
		"R": {models.PartyRepublican, 520},
		"D": {models.PartyDemocratic, 480},
	})
	seedRace(t, db, e2024, senID, "", "1", 1, map[string]entry{
		"R": {models.PartyRepublican, 470},
		"D": {models.PartyDemocratic, 530},
	})
	// District 2: +10 -> +11, change +1.
	seedRace(t, db, e2022, senID, "", "2", 1, map[string]entry{
		"R": {models.PartyRepublican, 550},
		"D": {models.PartyDemocratic, 450},
	})
	seedRace(t, db, e2024, senID, "", "2", 1, map[string]entry{
		"R": {models.PartyRepublican, 555},
		"D": {models.PartyDemocratic, 445},
	})

	shifts, err := BiggestShifts(db, 2022, 2024, 10)
	if err != nil {
		t.Fatalf("BiggestShifts failed: %v", err)
	}

	if len(shifts) != 2 {
		t.Fatalf("Expected 2 comparable districts, got %d", len(shifts))
	}
	if shifts[0].District != "1" {
		t.Errorf("Expected district 1 to shift most, got %s", shifts[0].District)
	}
	if math.Abs(shifts[0].Change-(-10)) > 0.001 {
		t.Errorf("Expected change -10, got %.2f", shifts[0].Change)
	}
	if shifts[0].Arrow != "↘" {
		t.Errorf("Expected ↘ for a D shift, got %q", shifts[0].Arrow)
	}
	if shifts[1].Arrow != "→" {
		t.Errorf("Expected → inside the trend threshold, got %q", shifts[1].Arrow)
	}
}

func TestTurnoutTrends(t *testing.T) {
	db := testutil.SetupTestDB(t)

	e2024 := testutil.CreateTestElection(t, db, 2024, models.TypeGeneral)
	presID := testutil.CreateTestOffice(t, db, "President")

	raceID := testutil.CreateTestRace(t, db, e2024, presID, "", "", 1)
	rID := testutil.AddTestCandidate(t, db, raceID, "R", models.PartyRepublican)
	dID := testutil.AddTestCandidate(t, db, raceID, "D", models.PartyDemocratic)
	testutil.AddTestResult(t, db, raceID, rID, "Canaan", 800)
	testutil.AddTestResult(t, db, raceID, dID, "Canaan", 700)
	testutil.AddTestResult(t, db, raceID, rID, "Orange", 90)
	testutil.AddTestResult(t, db, raceID, dID, "Orange", 60)

	testutil.SetTestBallotsCast(t, db, e2024, "Canaan", 2000)
	// Orange has no recorded figure: turnout undefined.

	rows, err := TurnoutTrends(db, 2020, 2024)
	if err != nil {
		t.Fatalf("TurnoutTrends failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected 2 municipality rows, got %d", len(rows))
	}

	canaan := rows[0]
	if canaan.Municipality != "Canaan" || canaan.Votes != 1500 {
		t.Errorf("Expected Canaan with 1500 votes, got %s with %d", canaan.Municipality, canaan.Votes)
	}
	if canaan.Turnout == nil || math.Abs(*canaan.Turnout-75.0) > 0.001 {
		t.Errorf("Expected 75%% turnout for Canaan, got %v", canaan.Turnout)
	}

	orange := rows[1]
	if orange.Turnout != nil {
		t.Error("Expected nil turnout for municipality with no ballots-cast figure")
	}
}
