// rollcall-log prints the attendance log or current occupancy straight
// from the database file, without connecting to Discord.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/BrandonDHaskell/rollcall/internal/db"
	"github.com/BrandonDHaskell/rollcall/internal/i18n"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/service"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/store/sqlite"
	"github.com/BrandonDHaskell/rollcall/internal/rollcall/types"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var (
		dbPath    string
		limit     int
		occupancy bool
		locale    string
		timezone  string
	)

	flagSet := pflag.NewFlagSet("rollcall-log", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.StringVar(&dbPath, "db", db.DefaultPath, "path to the rollcall SQLite database")
	flagSet.IntVarP(&limit, "limit", "n", service.DefaultLogLimit, "number of log entries to show")
	flagSet.BoolVar(&occupancy, "occupancy", false, "show who is currently present instead of the log")
	flagSet.StringVar(&locale, "locale", i18n.BaseLocale, "message locale")
	flagSet.StringVar(&timezone, "timezone", "Local", "time zone for displayed timestamps")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	loc := time.Local
	if timezone != "Local" && timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return fmt.Errorf("--timezone: %w", err)
		}
		loc = l
	}

	// db.Open creates missing files; a reader must not.
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("--db: %w", err)
	}

	conn, err := db.Open(ctx, db.Config{Path: dbPath, Env: "prod"})
	if err != nil {
		return err
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	printer, err := i18n.Printer(locale)
	if err != nil {
		return err
	}
	render := service.NewRenderer(printer, loc)
	events := sqlite.NewAttendanceStore(conn, writer, sqlite.WithLocation(loc))

	if occupancy {
		latest, err := events.LatestPerUser(ctx)
		if err != nil {
			return err
		}
		return printSummary(out, render.Occupancy(service.Occupancy(latest)))
	}

	if limit <= 0 || limit > service.MaxLogLimit {
		return fmt.Errorf("--limit must be between 1 and %d", service.MaxLogLimit)
	}
	recent, err := events.Recent(ctx, limit)
	if err != nil {
		return err
	}
	return printSummary(out, render.Log(recent))
}

func printSummary(out io.Writer, s types.Summary) error {
	w := &errWriter{w: out}
	w.printf("%s\n\n%s\n", s.Title, s.Description)
	for _, f := range s.Fields {
		w.printf("\n%s: %s\n", f.Name, f.Value)
	}
	return w.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
