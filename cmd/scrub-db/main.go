package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/scrub-db/internal/cli"
	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/config"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string
	var flags rewriteFlags

	rootCmd := &cobra.Command{
		Use:   "scrub-db [dump.sql...]",
		Short: "🧽 Anonymize PII in SQL dumps",
		Long: `scrub-db rewrites SQL dumps so that emails, names, phone numbers, card numbers
and other personal data are replaced with realistic substitutes. Repeated values
map to the same substitute, so relationships between tables survive.

With no files the dump is read from stdin and written to stdout.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(cmd, args, flags)
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./scrub-db.yaml or $HOME/.config/scrub-db/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("dialect", "", "source dialect (postgresql, mysql, sqlite); detected when empty")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("dialect", rootCmd.PersistentFlags().Lookup("dialect"))

	rootCmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file, - for stdout (single input only)")
	rootCmd.Flags().StringVar(&flags.outDir, "out-dir", "", "directory for rewritten dumps when several files are given")
	rootCmd.Flags().BoolVar(&flags.progress, "progress", false, "show a progress bar on stderr")
	rootCmd.Flags().IntVar(&flags.jobs, "jobs", 1, "number of dumps rewritten at once")
	rootCmd.Flags().BoolVar(&flags.force, "force", false, "overwrite existing output files")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	interrupts := cli.NewInterruptHandler(os.Stderr)
	ctx = interrupts.HandleInterrupts(ctx)
	ctx = withInterrupts(ctx, interrupts)

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, cli.FormatError(userErr.UserMessage))
		} else {
			fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
		}
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, cfgFile string) error {
	// A missing .env is fine
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	config.Configure(viper.GetViper())

	if cfgFile != "" {
		path := config.ExpandPath(cfgFile)
		if _, err := os.Stat(path); err != nil {
			return common.NewUserError("config file not found: "+path, common.ErrMissingConfig)
		}
		viper.SetConfigFile(path)
	} else {
		home, _ := os.UserHomeDir()
		if path, ok := config.Discover(".", home); ok {
			viper.SetConfigFile(path)
		}
	}

	if viper.ConfigFileUsed() != "" {
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	if path := viper.ConfigFileUsed(); path != "" {
		common.LogDebug("Loaded configuration", common.Fields{"path": path})
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(os.Stderr, level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "scrub-db %s\n", version)
		},
	}
}
