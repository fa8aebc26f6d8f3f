// Command nextstop queries the NextStop backends from a terminal.
//
//	nextstop schedules --from Colombo --to Kandy --date 2025-03-14
//	nextstop seats --schedule 7
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"nextstop/internal/client"
	"nextstop/internal/config"
	"nextstop/internal/entities"
	"nextstop/internal/logging"
	"nextstop/internal/utils"
)

const usage = `usage: nextstop <command> [flags]

commands:
  schedules   list schedules for a route and date
  seats       show seat availability for a schedule
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "nextstop:", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	envFile    string
	configFile string
	asJSON     bool
	verbose    bool
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.envFile, "env-file", ".env", "optional dotenv file")
	fs.StringVar(&g.configFile, "config", "config.yaml", "optional YAML config file")
	fs.BoolVar(&g.asJSON, "json", false, "print raw JSON")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "log backend calls to stderr")
}

func (g *globalFlags) client() (*client.Client, error) {
	cfg, err := config.Load(config.Options{EnvFile: g.envFile, ConfigFile: g.configFile})
	if err != nil {
		return nil, err
	}
	level := "error"
	if g.verbose {
		level = "debug"
	}
	return client.New(client.Config{
		Endpoints: client.Endpoints{
			User:         cfg.Services.UserURL,
			Bus:          cfg.Services.BusURL,
			Booking:      cfg.Services.BookingURL,
			Payment:      cfg.Services.PaymentURL,
			Notification: cfg.Services.NotificationURL,
		},
		Logger:                 logging.New(os.Stderr, level, "text"),
		ScheduleDateOffsetDays: cfg.Services.ScheduleDateOffsetDays,
	}), nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}
	switch args[0] {
	case "schedules":
		return runSchedules(ctx, args[1:], out)
	case "seats":
		return runSeats(ctx, args[1:], out)
	case "help", "-h", "--help":
		fmt.Fprint(out, usage)
		return nil
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runSchedules(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	var q entities.ScheduleQuery
	fs := pflag.NewFlagSet("schedules", pflag.ContinueOnError)
	g.register(fs)
	fs.StringVar(&q.SourceCity, "from", "", "source city")
	fs.StringVar(&q.DestinationCity, "to", "", "destination city")
	fs.StringVar(&q.TravelDate, "date", "", "travel date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if q.SourceCity == "" || q.DestinationCity == "" || q.TravelDate == "" {
		return errors.New("schedules: --from, --to and --date are required")
	}
	if _, err := utils.ParseDate(q.TravelDate); err != nil {
		return fmt.Errorf("schedules: %w", err)
	}

	c, err := g.client()
	if err != nil {
		return err
	}
	schedules, err := c.FetchSchedules(ctx, q)
	if err != nil {
		return err
	}
	if g.asJSON {
		return printJSON(out, schedules)
	}
	if len(schedules) == 0 {
		fmt.Fprintln(out, "No buses found for this route and date.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBUS\tOPERATOR\tDEPARTS\tARRIVES\tFARE\tSTATUS")
	for _, s := range schedules {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%.2f\t%s\n",
			s.ID, s.Bus.BusNumber, s.Bus.OperatorName, s.DepartureTime, s.ArrivalTime, s.Fare, s.Status)
	}
	return tw.Flush()
}

func runSeats(ctx context.Context, args []string, out io.Writer) error {
	var g globalFlags
	var scheduleID int64
	fs := pflag.NewFlagSet("seats", pflag.ContinueOnError)
	g.register(fs)
	fs.Int64Var(&scheduleID, "schedule", 0, "schedule id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if scheduleID <= 0 {
		return errors.New("seats: --schedule is required")
	}

	c, err := g.client()
	if err != nil {
		return err
	}
	seats, err := c.FetchSeatAvailability(ctx, scheduleID)
	if err != nil {
		return err
	}
	if g.asJSON {
		return printJSON(out, seats)
	}
	free := 0
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEAT\tAVAILABLE")
	for _, s := range seats {
		if s.Available {
			free++
		}
		fmt.Fprintf(tw, "%s\t%t\n", s.SeatNumber, s.Available)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d seats free\n", free, len(seats))
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
