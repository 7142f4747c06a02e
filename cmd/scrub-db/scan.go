package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/scrub-db/internal/cli"
	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/config"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/tui"
)

func scanCmd() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "scan [dump.sql]",
		Short: "Report which columns hold PII without rewriting anything",
		Long: `Scan reads a dump and reports, per column, which category of personal data
it appears to hold and how many values were seen. Custom rules are ignored:
every column goes through detection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}
			opts, err := cfg.Options()
			if err != nil {
				return common.NewUserError("invalid configuration", err)
			}

			source := "stdin"
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer func() { _ = f.Close() }()
				source, in = args[0], f
			}

			report, err := dump.Scan(cmd.Context(), in, opts)
			if err != nil {
				return err
			}

			if interactive {
				return tui.RunScanBrowser(cmd.Context(), source, report, os.Stdin, cmd.OutOrStdout())
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderScanReport(source, report))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the findings interactively")
	return cmd
}
