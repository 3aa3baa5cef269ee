package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v2"

	"github.com/pkordes/itinerary-core/backend/internal/budget"
	"github.com/pkordes/itinerary-core/backend/internal/currency"
	"github.com/pkordes/itinerary-core/backend/internal/domain"
	"github.com/pkordes/itinerary-core/backend/internal/service"
	"github.com/pkordes/itinerary-core/backend/internal/timeline"
)

// newCLIApp creates the CLI application. Snapshots are read from --file, or
// from in when --file is "-" or omitted; results are written to out.
func newCLIApp(in io.Reader, out io.Writer) *cli.App {
	app := &cli.App{
		Name:  "itinerary",
		Usage: "Expand and price a trip snapshot",
		Commands: []*cli.Command{
			timelineCmd(in, out),
			budgetCmd(in, out),
			exportCmd(in, out),
		},
	}
	// Return errors from Run instead of exiting, so tests can observe them.
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	app.Writer = out
	return app
}

var fileFlag = &cli.StringFlag{
	Name:    "file",
	Aliases: []string{"f"},
	Value:   "-",
	Usage:   "Snapshot JSON file ({\"trip\":…,\"segments\":[…]}), - for stdin",
}

func timelineCmd(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "timeline",
		Usage: "Print the per-day schedule of a trip",
		Flags: []cli.Flag{fileFlag},
		Action: func(c *cli.Context) error {
			snap, err := readSnapshot(c.String("file"), in)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return outputJSON(out, service.TimelineView{
				Trip:         snap.Trip,
				Schedule:     timeline.Expand(snap.Trip, snap.Segments),
				PendingCount: timeline.PendingCount(snap),
			})
		},
	}
}

func budgetCmd(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "budget",
		Usage: "Print the budget analysis of a trip",
		Flags: []cli.Flag{
			fileFlag,
			&cli.StringFlag{Name: "reporting-currency", Value: "USD", Usage: "Currency totals are expressed in"},
			&cli.StringFlag{Name: "rates", Usage: "Fixed rates, e.g. EUR=1.08,JPY=0.0067"},
			&cli.StringFlag{Name: "rates-url", Usage: "Latest-rates service to fetch rates from instead of --rates"},
			&cli.StringFlag{Name: "profile", Usage: "Traveller profile JSON file ([{\"category\",\"subcategory\",\"value\"}])"},
			&cli.StringFlag{Name: "daily-budget", Usage: "0-50|50-100|100-200|200+"},
			&cli.StringFlag{Name: "meal-budget", Usage: "$|$$|$$$|$$$$"},
			&cli.StringFlag{Name: "luxury-level", Usage: "luxury|mid-range|budget|backpacker"},
			&cli.BoolFlag{Name: "private-driver", Usage: "Traveller has a private driver"},
			&cli.IntFlag{Name: "concurrency", Value: 4, Usage: "Concurrent currency conversions"},
		},
		Action: func(c *cli.Context) error {
			snap, err := readSnapshot(c.String("file"), in)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			prefs, err := preferences(c)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			reporting := strings.ToUpper(c.String("reporting-currency"))
			conv, err := converter(c, reporting)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
			analyzer := budget.NewAnalyzer(conv, budget.Config{
				ReportingCurrency: reporting,
				MaxConcurrency:    c.Int("concurrency"),
			}, logger)

			res, err := analyzer.Analyze(c.Context, snap, prefs)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return outputJSON(out, res)
		},
	}
}

func exportCmd(in io.Reader, out io.Writer) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Print the trip as a flat table, one row per reservation",
		Flags: []cli.Flag{
			fileFlag,
			&cli.StringFlag{Name: "format", Value: "csv", Usage: "csv|json"},
		},
		Action: func(c *cli.Context) error {
			snap, err := readSnapshot(c.String("file"), in)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			rows := domain.ExportRows(snap)
			switch c.String("format") {
			case "json":
				return outputJSON(out, rows)
			case "csv":
				return outputCSV(out, rows)
			}
			return cli.Exit("format must be csv or json", 1)
		},
	}
}

// preferences starts from --profile (or the defaults) and applies the
// explicit flags on top.
func preferences(c *cli.Context) (budget.Preferences, error) {
	prefs := budget.DefaultPreferences()
	if path := c.String("profile"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return budget.Preferences{}, fmt.Errorf("read profile: %w", err)
		}
		var items []budget.ProfileItem
		if err := json.Unmarshal(data, &items); err != nil {
			return budget.Preferences{}, fmt.Errorf("decode profile %s: %w", path, err)
		}
		prefs = budget.ParsePreferences(items)
	}
	if v := c.String("daily-budget"); v != "" {
		prefs.DailyBudget = v
	}
	if v := c.String("meal-budget"); v != "" {
		prefs.MealBudget = v
	}
	if v := c.String("luxury-level"); v != "" {
		prefs.LuxuryLevel = strings.ToLower(v)
	}
	if c.IsSet("private-driver") {
		prefs.HasPrivateDriver = c.Bool("private-driver")
	}

	if err := validator.New().Struct(prefs); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fe := verrs[0]
			return budget.Preferences{}, fmt.Errorf("--%s must be one of: %s", flagName(fe.Field()), fe.Param())
		}
		return budget.Preferences{}, err
	}
	return prefs, nil
}

func converter(c *cli.Context, reporting string) (budget.Converter, error) {
	if url := c.String("rates-url"); url != "" {
		return currency.NewRemoteRates(currency.RemoteConfig{BaseURL: url, Reporting: reporting}, nil), nil
	}
	rates, err := currency.ParseRates(c.String("rates"))
	if err != nil {
		return nil, err
	}
	return currency.NewStaticTable(reporting, rates), nil
}

func readSnapshot(path string, stdin io.Reader) (domain.Snapshot, error) {
	var r io.Reader = stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return domain.Snapshot{}, fmt.Errorf("open snapshot: %w", err)
		}
		defer f.Close()
		r = f
	}
	var snap domain.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Trip.StartDate.IsZero() || snap.Trip.EndDate.IsZero() {
		return domain.Snapshot{}, fmt.Errorf("snapshot trip needs start_date and end_date")
	}
	return snap, nil
}

func outputJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputCSV(out io.Writer, rows []domain.ExportRow) error {
	w := csv.NewWriter(out)
	_ = w.Write([]string{"segment_order", "segment_title", "segment_start", "segment_end", "type", "title", "date", "time", "price", "currency_code", "status"})
	for _, r := range rows {
		price := ""
		if r.ReservationID != "" {
			price = strconv.FormatFloat(r.Price, 'f', 2, 64)
		}
		_ = w.Write([]string{
			strconv.Itoa(r.SegmentOrder), r.SegmentTitle, r.SegmentStart, r.SegmentEnd,
			r.Type, r.Title, r.Date, r.Time, price, r.CurrencyCode, r.Status,
		})
	}
	w.Flush()
	return w.Error()
}

// flagName maps a Preferences field name onto its CLI flag.
func flagName(field string) string {
	switch field {
	case "DailyBudget":
		return "daily-budget"
	case "MealBudget":
		return "meal-budget"
	case "LuxuryLevel":
		return "luxury-level"
	}
	return strings.ToLower(field)
}
