package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielhkuo/aadhaar-intel/cliparse"
	"github.com/danielhkuo/aadhaar-intel/db"
	"github.com/danielhkuo/aadhaar-intel/ingest"
	"github.com/danielhkuo/aadhaar-intel/metrics"
	"github.com/danielhkuo/aadhaar-intel/middleware"
	"github.com/danielhkuo/aadhaar-intel/router"
)

const usage = `usage: aadhaar-intel <command> [flags]

commands:
  merge   merge the input extracts into the master table
  serve   serve the dashboard API (default)
`

func main() {
	// .env is optional; real environment variables win
	if err := cliparse.LoadEnvFile(".env"); err != nil {
		slog.Error("Error loading .env", "error", err)
		os.Exit(1)
	}

	args := os.Args[1:]
	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "merge":
		err = runMerge(args)
	case "serve":
		err = runServe(args)
	case "help":
		fmt.Fprint(os.Stdout, usage)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		slog.Error("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func runMerge(args []string) error {
	cfg, err := cliparse.ParseMergeFlags(args)
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.NewPipeline(reg)

	// Handle Ctrl-C during long reads
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, runErr := ingest.Run(ctx, cfg, m)

	// Metrics are written for failed runs too
	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			slog.Error("failed to write metrics file", "path", cfg.MetricsFile, "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	printReport(os.Stdout, report)
	return nil
}

func printReport(w io.Writer, report *ingest.Report) {
	fmt.Fprintf(w, "Data loaded successfully. Total rows: %s\n", humanize.Comma(int64(report.MergedRows)))
	if report.InvalidDates > 0 {
		fmt.Fprintf(w, "Rows with unparsable dates: %s\n", humanize.Comma(int64(report.InvalidDates)))
	}

	fmt.Fprintf(w, "\nTop %d suspicious pincodes (adult biometric updates vs adult enrolments):\n", len(report.Top))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STATE\tPINCODE\tDATE\tSUSPICION SCORE")
	for _, r := range report.Top {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\n", r.State, r.Pincode, r.Date, r.SuspicionScore)
	}
	tw.Flush()

	fmt.Fprintf(w, "\nMaster table saved to %s (%s)\n", report.OutputPath, report.Duration.Round(time.Millisecond))
}

func runServe(args []string) error {
	cfg, err := cliparse.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("error parsing flags: %w", err)
	}

	// Connect to the query store
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.CreateSchema(dbConn); err != nil {
		return err
	}
	slog.Info("Query store ready", "type", cfg.DatabaseType)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	mux := router.NewRouter(dbConn, cfg, reg)

	server := http.Server{
		Handler: middleware.CORS(mux),
		Addr:    ":" + strconv.Itoa(cfg.Port),
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		server.Close()
	}()

	slog.Info("Listening",
		"port", cfg.Port,
		"master_path", cfg.MasterPath,
		"geo_source", cfg.GeoSource,
	)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	slog.Info("Server closed")
	return nil
}
