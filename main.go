package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/cmaidmentnh/nh-election-results/analysis"
	"github.com/cmaidmentnh/nh-election-results/cliparse"
	"github.com/cmaidmentnh/nh-election-results/db"
	"github.com/cmaidmentnh/nh-election-results/importer"
	"github.com/cmaidmentnh/nh-election-results/models"
	"github.com/cmaidmentnh/nh-election-results/store"
	"github.com/cmaidmentnh/nh-election-results/tally"
)

const usage = `Usage: nh-election-results [flags] <command>

Commands:
  initdb                       Create the database schema
  import-results <csv>         Import per-municipality vote counts
  import-ballots <csv>         Import ballots-cast figures (turnout denominator)
  report race <race-id>        Aggregated standings for one race
  report election <id>         Standings for every race in an election
  stats                        Dataset summary
  closest <year>               Tightest two-party races of a general election
  shifts <year1> <year2>       Largest margin movements between two generals
  turnout <year1> <year2>      Per-town turnout across general elections
  control <year>               Seats by party per office

Flags:
  -d            Database path or URL (env DATABASE_URL)
  -t            Database type: sqlite or postgres (env DATABASE_TYPE)
  -n            Row limit for ranked analyses
  --partial     Report races whose data entry is still pending
  --replace     Allow imports to overwrite existing non-zero counts
  --no-backup   Skip the pre-import database backup
`

func main() {
	// A missing .env is fine; explicit env and flags still apply.
	godotenv.Load()

	cfg, args, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	driver := "sqlite"
	if cfg.DatabaseType == "postgres" {
		driver = "postgres"
	}

	dbConn, err := sql.Open(driver, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	if err := db.CreateSchema(dbConn, cfg.DatabaseType); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}

	if err := dispatch(dbConn, cfg, args); err != nil {
		slog.Error("command failed", "command", args[0], "error", err)
		os.Exit(1)
	}
}

func dispatch(dbConn *sql.DB, cfg cliparse.Config, args []string) error {
	switch args[0] {
	case "initdb":
		// Schema creation already ran; nothing left to do.
		slog.Info("Database schema ready", "database", cfg.DatabaseURL)
		return nil
	case "import-results":
		if len(args) < 2 {
			return errors.New("usage: import-results <csv>")
		}
		return runImport(dbConn, cfg, args[1], importer.ImportResults)
	case "import-ballots":
		if len(args) < 2 {
			return errors.New("usage: import-ballots <csv>")
		}
		return runImport(dbConn, cfg, args[1], importer.ImportBallotsCast)
	case "report":
		if len(args) < 3 {
			return errors.New("usage: report race <race-id> | report election <id>")
		}
		id, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("bad id %q", args[2])
		}
		switch args[1] {
		case "race":
			return reportRace(dbConn, cfg, id)
		case "election":
			return reportElection(dbConn, cfg, id)
		default:
			return fmt.Errorf("unknown report %q", args[1])
		}
	case "stats":
		return printStats(dbConn)
	case "closest":
		year, err := yearArg(args, 1)
		if err != nil {
			return err
		}
		return printClosest(dbConn, year, cfg.Limit)
	case "shifts":
		y1, err := yearArg(args, 1)
		if err != nil {
			return err
		}
		y2, err := yearArg(args, 2)
		if err != nil {
			return err
		}
		return printShifts(dbConn, y1, y2, cfg.Limit)
	case "turnout":
		y1, err := yearArg(args, 1)
		if err != nil {
			return err
		}
		y2, err := yearArg(args, 2)
		if err != nil {
			return err
		}
		return printTurnout(dbConn, y1, y2)
	case "control":
		year, err := yearArg(args, 1)
		if err != nil {
			return err
		}
		return printControl(dbConn, year)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func yearArg(args []string, i int) (int, error) {
	if len(args) <= i {
		return 0, errors.New("year argument required")
	}
	year, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("bad year %q", args[i])
	}
	return year, nil
}

func runImport(dbConn *sql.DB, cfg cliparse.Config, path string, do func(*sql.DB, io.Reader, importer.Options) (importer.Summary, error)) error {
	if cfg.DatabaseType == "sqlite" && !cfg.NoBackup {
		backupPath, err := importer.Backup(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("pre-import backup failed (use --no-backup to skip): %w", err)
		}
		slog.Info("database backed up", "path", backupPath)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	summary, err := do(dbConn, f, importer.Options{
		ReplaceExisting: cfg.Replace,
		Source:          path,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Imported %s rows: %s created, %s updated, %s unchanged\n",
		humanize.Comma(int64(summary.Rows)),
		humanize.Comma(int64(summary.Created)),
		humanize.Comma(int64(summary.Updated)),
		humanize.Comma(int64(summary.Unchanged)))
	if summary.Conflicts > 0 {
		fmt.Printf("%d conflicting rows skipped (re-run with --replace to overwrite)\n", summary.Conflicts)
	}
	for _, re := range summary.RowErrors {
		fmt.Printf("  line %d: %s\n", re.Line, re.Message)
	}
	return nil
}

func buildRaceReport(dbConn *sql.DB, cfg cliparse.Config, raceID int64) (models.RaceReport, error) {
	race, err := store.LoadRace(dbConn, raceID)
	if err != nil {
		return models.RaceReport{}, err
	}
	candidates, err := store.RaceCandidates(dbConn, raceID)
	if err != nil {
		return models.RaceReport{}, err
	}
	results, err := store.RaceResults(dbConn, raceID)
	if err != nil {
		return models.RaceReport{}, err
	}

	standings, err := tally.Aggregate(race, candidates, results, tally.Options{Complete: !cfg.Partial})
	if err != nil {
		return models.RaceReport{}, err
	}

	report := models.RaceReport{
		Race:       race,
		Standings:  standings,
		TotalVotes: tally.TotalVotes(standings),
	}

	// Turnout needs the district's declared composition to know which
	// ballots-cast figures form the denominator.
	towns, err := store.DistrictTowns(dbConn, race.Office, race.County, race.District)
	if err != nil {
		return models.RaceReport{}, err
	}
	ballots := 0
	haveFigures := false
	for _, town := range towns {
		n, ok, err := store.BallotsCast(dbConn, race.ElectionID, town)
		if err != nil {
			return models.RaceReport{}, err
		}
		if ok {
			ballots += n
			haveFigures = true
		}
	}
	if haveFigures {
		report.Turnout = tally.TurnoutPtr(report.TotalVotes, ballots)
	}

	return report, nil
}

func printRaceReport(report models.RaceReport) {
	race := report.Race
	title := race.Office
	if race.District != "" {
		title += " " + race.District
	}
	if race.County != "" {
		title = fmt.Sprintf("%s (%s)", title, race.County)
	}
	fmt.Printf("%d %s — %d seat(s)\n", race.Year, title, race.Seats)

	for _, s := range report.Standings {
		marker := " "
		switch s.Winner {
		case models.WinnerWon:
			marker = "*"
		case models.WinnerUndetermined:
			marker = "?"
		}
		party := s.Party
		if party == "" {
			party = "-"
		}
		fmt.Printf("  %s %2d. %-30s %-12s %10s  (margin %+d)\n",
			marker, s.Rank, s.Name, party, humanize.Comma(int64(s.Votes)), s.Margin)
	}

	fmt.Printf("Total votes: %s\n", humanize.Comma(int64(report.TotalVotes)))
	if report.Turnout != nil {
		fmt.Printf("Turnout: %.1f%%\n", *report.Turnout)
	}
	if len(report.Standings) > 0 && report.Standings[0].Provisional {
		fmt.Println("(provisional: data entry still pending)")
	}
}

func reportRace(dbConn *sql.DB, cfg cliparse.Config, raceID int64) error {
	report, err := buildRaceReport(dbConn, cfg, raceID)
	if err != nil {
		return err
	}
	printRaceReport(report)

	check, err := store.CheckComposition(dbConn, raceID)
	if err != nil {
		return err
	}
	if check.Declared {
		if len(check.Missing) > 0 {
			fmt.Printf("Missing results from: %v\n", check.Missing)
		}
		if len(check.Unexpected) > 0 {
			fmt.Printf("Results outside declared district: %v\n", check.Unexpected)
		}
	}
	return nil
}

func reportElection(dbConn *sql.DB, cfg cliparse.Config, electionID int64) error {
	races, err := store.RacesForElection(dbConn, electionID)
	if err != nil {
		return err
	}
	if len(races) == 0 {
		return fmt.Errorf("%w: election %d has no races", store.ErrNotFound, electionID)
	}

	for _, race := range races {
		report, err := buildRaceReport(dbConn, cfg, race.ID)
		if err != nil {
			// One bad race never hides the rest of the election.
			slog.Warn("skipping race", "race_id", race.ID, "office", race.Office, "error", err)
			continue
		}
		printRaceReport(report)
		fmt.Println()
	}
	return nil
}

func printStats(dbConn *sql.DB) error {
	stats, err := store.Stats(dbConn)
	if err != nil {
		return err
	}

	fmt.Printf("Election years:  %d (%s)\n", stats.Years, stats.YearRange)
	fmt.Printf("Municipalities:  %s\n", humanize.Comma(int64(stats.Municipalities)))
	fmt.Printf("Candidates:      %s\n", humanize.Comma(int64(stats.Candidates)))
	fmt.Printf("Races:           %s\n", humanize.Comma(int64(stats.Races)))
	return nil
}

func printClosest(dbConn *sql.DB, year, limit int) error {
	races, err := analysis.ClosestRaces(dbConn, year, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Closest races, %d general election\n", year)
	for _, cr := range races {
		name := cr.Office
		if cr.District != "" {
			name += " " + cr.District
		}
		if cr.County != "" {
			name = fmt.Sprintf("%s (%s)", name, cr.County)
		}
		fmt.Printf("  %-45s R %10s  D %10s  %+6.1f  %s\n",
			name,
			humanize.Comma(int64(cr.RepVotes)),
			humanize.Comma(int64(cr.DemVotes)),
			cr.Margin, cr.Lean)
	}
	return nil
}

func printShifts(dbConn *sql.DB, fromYear, toYear, limit int) error {
	shifts, err := analysis.BiggestShifts(dbConn, fromYear, toYear, limit)
	if err != nil {
		return err
	}

	fmt.Printf("Biggest margin shifts, %d → %d\n", fromYear, toYear)
	for _, s := range shifts {
		name := s.Office
		if s.District != "" {
			name += " " + s.District
		}
		if s.County != "" {
			name = fmt.Sprintf("%s (%s)", name, s.County)
		}
		fmt.Printf("  %-45s %+6.1f → %+6.1f  (%+.1f) %s\n",
			name, s.MarginFrom, s.MarginTo, s.Change, s.Arrow)
	}
	return nil
}

func printTurnout(dbConn *sql.DB, fromYear, toYear int) error {
	rows, err := analysis.TurnoutTrends(dbConn, fromYear, toYear)
	if err != nil {
		return err
	}

	fmt.Printf("Turnout, %d–%d general elections\n", fromYear, toYear)
	for _, row := range rows {
		pct := "    n/a"
		if row.Turnout != nil {
			pct = fmt.Sprintf("%6.1f%%", *row.Turnout)
		}
		fmt.Printf("  %d  %-25s %10s votes  %s\n",
			row.Year, row.Municipality, humanize.Comma(int64(row.Votes)), pct)
	}
	return nil
}

func printControl(dbConn *sql.DB, year int) error {
	control, err := analysis.PartyControl(dbConn, year)
	if err != nil {
		return err
	}

	fmt.Printf("Party control, %d general election\n", year)
	fmt.Printf("  %-25s %5s %5s %5s %12s\n", "Office", "R", "D", "Oth", "Undetermined")
	for _, seats := range control {
		fmt.Printf("  %-25s %5d %5d %5d %12d\n",
			seats.Office, seats.Republican, seats.Democratic, seats.Other, seats.Undetermined)
	}
	return nil
}
