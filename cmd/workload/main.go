package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"perftracker/internal/config"
	"perftracker/internal/ledger"
	"perftracker/internal/tracker"
	"perftracker/internal/util"
	"perftracker/internal/workload"
)

var (
	cfgFile string
	v       *viper.Viper = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "workload",
	Short: "Run an instrumented SQLite workload and report its timings",
	Long: `workload stores and queries synthetic events in SQLite with every store
call timed into a ledger, then prints per-function call rates and latencies.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml)")
	flags.Int("iterations", 20, "number of ingest/query rounds")
	flags.Int("max-entries", 100, "records kept per function, 0 keeps everything")
	flags.Duration("window", 0, "report only calls within this window, 0 for all")
	flags.String("db", "", "sqlite database path (default from config)")
	flags.Bool("compare", false, "also run untracked and print the tracking overhead")
	flags.String("log-level", "", "error, warn, info or debug")

	_ = v.BindPFlag("iterations", flags.Lookup("iterations"))
	_ = v.BindPFlag("max_entries", flags.Lookup("max-entries"))
	_ = v.BindPFlag("window", flags.Lookup("window"))
	_ = v.BindPFlag("compare", flags.Lookup("compare"))
	_ = v.BindPFlag("db_path", flags.Lookup("db"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
}

func initConfig() {
	if err := config.ReadFile(v, cfgFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}

	var logger util.PerfLogger
	logger.SetLevel(cfg.Level())
	logger.InitWithWriter(os.Stderr)
	defer logger.DeInit()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := workload.Options{Iterations: v.GetInt("iterations")}
	window := v.GetDuration("window")

	l := ledger.Default()
	t := tracker.New(l, tracker.Options{MaxEntries: cfg.Retention(), Logger: &logger})

	logger.LogEvent(util.LOG_LEVEL_INFO, "Running", opts.Iterations, "iterations against", cfg.DBPath)
	tracked, err := workload.Run(ctx, cfg.DBPath, t, opts)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s, window %s\n", l, windowLabel(window))
	if err := workload.Report(out, l, window); err != nil {
		return err
	}

	if !v.GetBool("compare") {
		return nil
	}
	untracked, err := workload.Run(ctx, cfg.DBPath, nil, opts)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	return workload.Compare(out, untracked, tracked)
}

func windowLabel(window time.Duration) string {
	if window <= 0 {
		return "all time"
	}
	return window.String()
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
