// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package cmd provides the command-line interface for dbakit. It implements
// subcommands for inspecting and managing SQL Server instances over plain
// TDS connections using the Cobra CLI framework, with table and JSON output,
// multi-target fan-out and a local run journal.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"dbakit/cli/internal/config"
	"dbakit/cli/internal/logging"
	"dbakit/cli/internal/release"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

var (
	flagOutput    string
	flagLogLevel  string
	flagUser      string
	flagTimeout   int
	flagParallel  int
	flagGroup     string
	flagNoHistory bool
	showVersion   bool

	// defaultDatabase comes from the config file and applies when neither
	// the command nor the target names a database.
	defaultDatabase string

	// runID tags the log lines and journal rows of one invocation.
	runID  string
	appLog *log.Entry
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dbakit",
	Short: "SQL Server administration from the terminal",
	Long: `dbakit inspects and manages SQL Server instances over plain TDS
connections. It finds duplicate indexes, reports services and startup
parameters, exports user permissions, sizes migrations, manages database
snapshots, repairs stale server names, browses server-side directories and
uninstalls SqlWatch, across one target or a whole saved group.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupInvocation(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			printVersion(cmd.Context())
			return nil
		}
		// If no flag is set, show help
		return cmd.Help()
	},
}

// Execute runs the CLI application. It executes the root command and maps
// any error to a nonzero exit, masking credentials on the way out.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, logging.PresentError("", err))
		os.Exit(1)
	}
}

// setupInvocation merges config file defaults under explicit flags and
// prepares the invocation-scoped logger.
func setupInvocation(cmd *cobra.Command) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		cfg = config.Defaults()
	}

	level := flagLogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logging.Setup(level)
	if cfgErr != nil {
		log.Debugf("config not loaded: %v", cfgErr)
	}

	if !cmd.Flags().Changed("output") && cfg.Output != "" {
		flagOutput = cfg.Output
	}
	if flagOutput != outputTable && flagOutput != outputJSON {
		return fmt.Errorf("invalid output format %q: use table or json", flagOutput)
	}
	if flagTimeout <= 0 {
		flagTimeout = cfg.ConnectTimeoutSeconds
	}
	if flagTimeout <= 0 {
		flagTimeout = 15
	}
	if flagParallel <= 0 {
		flagParallel = cfg.Parallel
	}
	if flagParallel < 1 {
		flagParallel = 1
	}
	if cfg.HistoryDisabled {
		flagNoHistory = true
	}
	defaultDatabase = cfg.DefaultDatabase

	runID = uuid.NewString()
	appLog = logging.WithRun(runID)
	return nil
}

func printVersion(ctx context.Context) {
	fmt.Printf("dbakit %s\n", Version)

	stopSpinner := startInlineSpinner(os.Stdout, "checking for updates")
	rel, err := release.Check(ctx)
	stopSpinner()
	if err != nil {
		appLog.Debugf("release check failed: %v", err)
		return
	}
	if !release.IsNewer(Version, rel.Version) {
		return
	}

	fmt.Println()
	fmt.Println("┌──────────────────────────────────────────────────────────┐")
	fmt.Printf("│ ⚠️  A new version of dbakit is available: %-13s │\n", rel.Version)
	fmt.Println("│                                                          │")
	fmt.Println("│ To update, run:                                          │")
	fmt.Println("│   brew upgrade dbakit/tap/dbakit                         │")
	fmt.Println("└──────────────────────────────────────────────────────────┘")
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagOutput, "output", "o", outputTable, "Output format: table or json")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log verbosity: debug, info, warn, error")
	pf.StringVar(&flagUser, "user", "", "SQL login; the password comes from DBAKIT_PASSWORD or a prompt")
	pf.IntVar(&flagTimeout, "timeout", 0, "Connection timeout in seconds")
	pf.IntVar(&flagParallel, "parallel", 0, "Run against up to N targets at once")
	pf.StringVar(&flagGroup, "group", "", "Run against every saved server in this group")
	pf.BoolVar(&flagNoHistory, "no-history", false, "Skip the local run journal")

	rootCmd.Flags().BoolVar(&showVersion, "version", false, "Show version information and check for updates")

	// T-SQL habits bring underscores along; accept both spellings.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}
