// Package main provides the sentinel CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/richinex/supplysentinel/cli"
	"github.com/richinex/supplysentinel/config"
)

var cfgFile string

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Multi-agent supply chain risk monitor",
		Long: `SupplySentinel watches the raw materials a business depends on.

Four agents cooperate:
- Config: maps a business description to materials and source countries
- Watchman: collects recent logistics, weather and political news
- Analyst: scores supply risk from 0 to 10
- Dispatcher: raises at most one alert per material, country and day`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sentinel/config.yaml)")
	flags.StringP("provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	flags.String("model", "", "model name (default depends on provider)")
	flags.String("suppliers", "", "dependency list file (default: suppliers.json)")
	flags.String("history", "", "alert history file (default: alert_history.json)")
	flags.String("db", "", "scan statistics database (default: .sentinel/sentinel.db)")
	flags.String("log-file", "", "log file (default: logs/supplysentinel.log)")
	flags.BoolP("verbose", "v", false, "show debug logs on the console")

	// Bind flags to viper
	_ = viper.BindPFlag(config.KeyProvider, flags.Lookup("provider"))
	_ = viper.BindPFlag(config.KeyModel, flags.Lookup("model"))
	_ = viper.BindPFlag(config.KeySuppliersFile, flags.Lookup("suppliers"))
	_ = viper.BindPFlag(config.KeyHistoryFile, flags.Lookup("history"))
	_ = viper.BindPFlag(config.KeyDBPath, flags.Lookup("db"))
	_ = viper.BindPFlag(config.KeyLogFile, flags.Lookup("log-file"))
	_ = viper.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))

	rootCmd.AddCommand(mapCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(configCmd())

	return rootCmd
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(filepath.Join(home, ".sentinel"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := viper.ReadInConfig(); err == nil && viper.GetBool(config.KeyVerbose) {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	} else if err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config file: %v\n", err)
	}
}

func loadOptions() (cli.Options, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return cli.Options{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cli.Options{Settings: settings}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func mapCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "map [description]",
		Short: "Map a business to the materials it depends on",
		Long: `Ask the Config agent which raw materials the business needs and which
country dominates the export of each. Without a description argument the
command asks for one. The accepted map is written to the dependency file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}
			description := ""
			if len(args) == 1 {
				description = args[0]
			}

			ctx, stop := signalContext()
			defer stop()
			return cli.Map(ctx, description, yes, opts)
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "save the map without asking for confirmation")
	return cmd
}

func monitorCmd() *cobra.Command {
	var mopts cli.MonitorOptions

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Scan every dependency for supply risk, repeating daily",
		Long: `Run the Watchman, Analyst and Dispatcher over the dependency file.
A cycle scans each dependency in order; cycles repeat every interval until
interrupted. --debug runs a single cycle.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()
			return cli.Monitor(ctx, mopts, opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&mopts.Debug, "debug", false, "run a single cycle and exit")
	flags.IntVar(&mopts.Tail, "tail", 0, "print the last N log records on exit")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flags.String("webhook-url", "", "Slack-compatible incoming webhook for alerts")
	flags.Duration("pacing", 0, "delay between dependencies (default 2s)")
	flags.Duration("interval", 0, "delay between cycles (default 24h)")

	_ = viper.BindPFlag(config.KeyMetricsAddr, flags.Lookup("metrics-addr"))
	_ = viper.BindPFlag(config.KeyWebhookURL, flags.Lookup("webhook-url"))
	_ = viper.BindPFlag(config.KeyPacing, flags.Lookup("pacing"))
	_ = viper.BindPFlag(config.KeyInterval, flags.Lookup("interval"))

	return cmd
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List alerts already sent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}
			return cli.History(opts)
		},
	}
}

func statsCmd() *cobra.Command {
	var (
		limit int
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show scan statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}
			return cli.Stats(cmd.Context(), limit, reset, opts)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of recent scans to show (0 for all)")
	cmd.Flags().BoolVar(&reset, "reset", false, "delete all recorded scans")
	return cmd
}

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List the agents in the pipeline",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cli.ListAgents(cli.Options{})
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions()
			if err != nil {
				return err
			}
			return cli.ShowConfig(opts)
		},
	})

	return cmd
}
