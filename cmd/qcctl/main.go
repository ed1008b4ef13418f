package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"qc-analytics/internal/database"
	"qc-analytics/internal/logging"
	"qc-analytics/internal/startup"
)

// Default timeout for database operations
const defaultTimeout = 30 * time.Second

// output decides between aligned tables and JSON.
type output struct {
	w    io.Writer
	json bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Keep the database package's info lines off the terminal unless asked for.
	if os.Getenv("LOG_LEVEL") == "" {
		logging.SetLevel(logging.LevelWarn)
	}

	asJSON := !term.IsTerminal(int(os.Stdout.Fd()))
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr, asJSON))
}

// run executes one qcctl command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, asJSON bool) int {
	if len(args) > 0 && args[0] == "--json" {
		asJSON = true
		args = args[1:]
	}
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	command, rest := args[0], args[1:]
	out := output{w: stdout, json: asJSON}

	if command == "help" || command == "-h" || command == "--help" {
		printUsage(stdout)
		return 0
	}

	dbPath, err := startup.DatabasePath()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if command == "path" {
		return out.value(stderr, dbPath)
	}

	handler, ok := commandHandlers[command]
	if !ok {
		fmt.Fprintf(stderr, "Unknown command: %s\n", sanitizeCommand(command))
		printUsage(stderr)
		return 2
	}
	if len(rest) != handler.args {
		fmt.Fprintf(stderr, "Usage: qcctl %s %s\n", command, handler.usage)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	db, err := database.Open(ctx, dbPath, nil)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "Set %s to choose another location (current: %s)\n", startup.DatabasePathEnv, dbPath)
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	if err := handler.run(ctx, db, rest, out); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, database.ErrQueryPrepare) {
			fmt.Fprintln(stderr, "The database may not be initialized yet; run: qcctl init")
		}
		return 1
	}
	return 0
}

type commandHandler struct {
	args  int
	usage string
	help  string
	run   func(ctx context.Context, db *database.Database, args []string, out output) error
}

var commandHandlers = map[string]commandHandler{
	"init": {
		help: "Create or migrate the database schema",
		run: func(ctx context.Context, db *database.Database, _ []string, out output) error {
			if err := db.InitDatabase(ctx); err != nil {
				return err
			}
			mode, err := db.JournalMode(ctx)
			if err != nil {
				return err
			}
			return out.print(map[string]string{"path": db.Path(), "journalMode": mode}, func(w io.Writer) {
				fmt.Fprintf(w, "Database ready: %s (journal mode %s)\n", db.Path(), mode)
			})
		},
	},
	"history": {
		args:  1,
		usage: "<qcName>",
		help:  "List a reviewer's sessions, newest first",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			sessions, err := db.GetSessionHistory(ctx, args[0])
			if err != nil {
				return err
			}
			return out.print(sessions, func(w io.Writer) {
				tw := newTable(w, "ID", "STARTED", "ENDED", "FOLDER")
				for _, s := range sessions {
					ended := "-"
					if s.SessionEnd != nil {
						ended = *s.SessionEnd
					}
					fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.SessionStart, ended, s.FolderPath)
				}
				tw.Flush()
			})
		},
	},
	"summary": {
		args:  1,
		usage: "<qcName>",
		help:  "Show totals and average time of active measurements",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			summary, err := db.GetAnalyticsData(ctx, args[0])
			if err != nil {
				return err
			}
			return out.print(summary, func(w io.Writer) {
				fmt.Fprintf(w, "Images:        %d\n", summary.TotalImages)
				fmt.Fprintf(w, "Right:         %d\n", summary.TotalRight)
				fmt.Fprintf(w, "Wrong:         %d\n", summary.TotalWrong)
				fmt.Fprintf(w, "Average time:  %s\n", formatSeconds(summary.AverageTimeSeconds))
			})
		},
	},
	"records": {
		args:  1,
		usage: "<qcName>",
		help:  "List active measurements in date order",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			records, err := db.GetAnalyticsRecords(ctx, args[0])
			if err != nil {
				return err
			}
			return out.print(records, func(w io.Writer) {
				tw := newTable(w, "DATE", "FILE", "DECISION", "NEXT ACTION", "TIME")
				for _, r := range records {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						deref(r.QCDate), r.Filename, deref(r.QCDecision), deref(r.NextAction), formatSeconds(r.TimeSpentSeconds))
				}
				tw.Flush()
			})
		},
	},
	"daily": {
		args:  1,
		usage: "<qcName>",
		help:  "Break active measurements down by day",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			days, err := db.GetDailyBreakdown(ctx, args[0])
			if err != nil {
				return err
			}
			return out.print(days, func(w io.Writer) {
				tw := newTable(w, "DAY", "IMAGES", "RIGHT", "WRONG", "RETOUCH/BLUNDER", "AVG TIME")
				for _, d := range days {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%s\n",
						d.Day, d.TotalImages, d.TotalRight, d.TotalWrong, d.RetouchOrBlunder, formatSeconds(d.AverageTimeSeconds))
				}
				tw.Flush()
			})
		},
	},
	"actions": {
		args:  1,
		usage: "<qcName>",
		help:  "Count active measurements by next action",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			counts, err := db.GetNextActionDistribution(ctx, args[0])
			if err != nil {
				return err
			}
			return out.print(counts, func(w io.Writer) {
				tw := newTable(w, "NEXT ACTION", "COUNT")
				for _, c := range counts {
					fmt.Fprintf(tw, "%s\t%d\n", c.NextAction, c.Count)
				}
				tw.Flush()
			})
		},
	},
	"record": {
		args:  2,
		usage: "<sessionId> <filename>",
		help:  "Show one stored QC record",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			rec, err := db.GetQCRecord(ctx, id, args[1])
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no record for %s in session %d", args[1], id)
			}
			return out.print(rec, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintf(tw, "File\t%s\n", rec.Filename)
				fmt.Fprintf(tw, "Reviewer\t%s\n", rec.QCName)
				fmt.Fprintf(tw, "QC date\t%s\n", rec.QCDate)
				fmt.Fprintf(tw, "Decision\t%s\n", rec.QCDecision)
				fmt.Fprintf(tw, "Observations\t%s\n", rec.QCObservations)
				fmt.Fprintf(tw, "Next action\t%s\n", rec.NextAction)
				fmt.Fprintf(tw, "Time\t%s\n", formatSeconds(rec.TimeSpentSeconds))
				fmt.Fprintf(tw, "Updated\t%s\n", rec.UpdatedAt)
				tw.Flush()
			})
		},
	},
	"settings": {
		help: "List stored application settings",
		run: func(ctx context.Context, db *database.Database, _ []string, out output) error {
			settings, err := db.LoadAppSettings(ctx)
			if err != nil {
				return err
			}
			return out.print(settings, func(w io.Writer) {
				tw := newTable(w, "KEY", "VALUE")
				for _, s := range settings {
					fmt.Fprintf(tw, "%s\t%s\n", s.Key, s.Value)
				}
				tw.Flush()
			})
		},
	},
	"end-session": {
		args:  1,
		usage: "<sessionId>",
		help:  "Mark a session as ended",
		run: func(ctx context.Context, db *database.Database, args []string, out output) error {
			id, err := parseSessionID(args[0])
			if err != nil {
				return err
			}
			if err := db.EndSession(ctx, id); err != nil {
				return err
			}
			return out.print(map[string]int64{"ended": id}, func(w io.Writer) {
				fmt.Fprintf(w, "Session %d ended.\n", id)
			})
		},
	},
}

// print writes v as indented JSON, or calls table for terminal output.
func (o output) print(v any, table func(io.Writer)) error {
	if o.json {
		enc := json.NewEncoder(o.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	table(o.w)
	return nil
}

// value prints a single string and returns exit code 0.
func (o output) value(stderr io.Writer, s string) int {
	err := o.print(map[string]string{"path": s}, func(w io.Writer) { fmt.Fprintln(w, s) })
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newTable(w io.Writer, headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func parseSessionID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid session id %q", s)
	}
	return id, nil
}

func formatSeconds(s *float64) string {
	if s == nil {
		return "-"
	}
	return strconv.FormatFloat(*s, 'f', 2, 64) + "s"
}

func deref(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

// sanitizeCommand returns a safe representation of a command string for display.
// It uses an allowlist approach, replacing any character that is not alphanumeric,
// a hyphen, or an underscore with '_'.
func sanitizeCommand(cmd string) string {
	var b strings.Builder
	b.Grow(len(cmd))
	for _, r := range cmd {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "QC Analytics database tool")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage: qcctl [--json] <command> [arguments]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintf(w, "  %-34s %s\n", "path", "Print the database file location")
	for _, name := range []string{"init", "history", "summary", "records", "daily", "actions", "record", "settings", "end-session"} {
		h := commandHandlers[name]
		fmt.Fprintf(w, "  %-34s %s\n", strings.TrimSpace(name+" "+h.usage), h.help)
	}
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Output is a table on a terminal and JSON otherwise; --json forces JSON.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintf(w, "  %s - Path to the database file (default: %s)\n", startup.DatabasePathEnv, database.ResolvePath())
	fmt.Fprintf(w, "  %s - YAML config whose databasePath is used when %s is unset\n", startup.ConfigFileEnv, startup.DatabasePathEnv)
}
