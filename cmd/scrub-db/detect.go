package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/scrub-db/internal/cli"
	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
)

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <dump.sql|connection-string>",
		Short: "Show which database a dump or connection string belongs to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := detect(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cli.RenderDetection(args[0], result))
			return nil
		},
	}
}

// detect sniffs a dump file when target names one, falling back to the
// path itself, and otherwise treats target as a connection string.
func detect(target string) (dialect.Result, error) {
	f, err := os.Open(target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return dialect.NewDetector().Detect(target), nil
	case err != nil:
		return dialect.Result{}, fmt.Errorf("failed to open %s: %w", target, err)
	}
	defer func() { _ = f.Close() }()

	result, err := dump.Sniff(bufio.NewReaderSize(f, dump.SampleSize), nil)
	if err != nil {
		return dialect.Result{}, err
	}
	if result.Type == model.DatabaseUnknown {
		if bySource, ok := dialect.DetectSource(target); ok {
			return bySource, nil
		}
	}
	return result, nil
}
