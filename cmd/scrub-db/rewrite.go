package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/scrub-db/internal/cli"
	"github.com/Veraticus/scrub-db/internal/common"
	"github.com/Veraticus/scrub-db/internal/config"
	"github.com/Veraticus/scrub-db/internal/dialect"
	"github.com/Veraticus/scrub-db/internal/dump"
	"github.com/Veraticus/scrub-db/internal/model"
	"github.com/Veraticus/scrub-db/internal/storage"
)

const stdio = "-"

type rewriteFlags struct {
	output   string
	outDir   string
	jobs     int
	progress bool
	force    bool
}

type interruptsKey struct{}

func withInterrupts(ctx context.Context, h *cli.InterruptHandler) context.Context {
	return context.WithValue(ctx, interruptsKey{}, h)
}

func track(ctx context.Context, path string) {
	if h, ok := ctx.Value(interruptsKey{}).(*cli.InterruptHandler); ok && path != stdio {
		h.Track(path)
	}
}

// job is one dump to rewrite.
type job struct {
	source string
	output string
	stats  dump.Stats
}

func runRewrite(cmd *cobra.Command, args []string, flags rewriteFlags) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}
	if cfg.PassesThrough() {
		slog.Warn("No custom rules and auto detection is off; data will pass through unchanged")
	}

	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	if len(args) == 0 {
		output := flags.output
		if output == "" {
			output = stdio
		}
		j := &job{source: "stdin", output: output}
		if err := rewriteOne(ctx, j, cmd.InOrStdin(), cmd.OutOrStdout(), opts, flags); err != nil {
			return err
		}
		fmt.Fprint(stderr, cli.RenderSummary(j.source, displayOutput(j.output), j.stats))
		return nil
	}

	if len(args) > 1 && flags.output != "" && flags.output != stdio {
		return common.NewUserError("--output takes a single input; use --out-dir for several dumps", common.ErrMissingOutputTarget)
	}

	jobs := make([]*job, len(args))
	for i, source := range args {
		jobs[i] = &job{source: source}
	}

	common.LogInfo("Rewriting dumps", common.Fields{"files": len(jobs), "jobs": max(flags.jobs, 1)})

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(flags.jobs, 1))
	for _, j := range jobs {
		g.Go(func() error {
			f, err := os.Open(j.source)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", j.source, err)
			}
			defer func() { _ = f.Close() }()

			var in io.Reader = f
			if flags.progress && len(jobs) == 1 {
				size := int64(-1)
				if info, err := f.Stat(); err == nil {
					size = info.Size()
				}
				var finish func()
				in, finish = cli.NewProgressReader(f, size, filepath.Base(j.source), stderr)
				defer finish()
			}

			return rewriteOne(ctx, j, in, cmd.OutOrStdout(), opts, flags)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, j := range jobs {
		fmt.Fprint(stderr, cli.RenderSummary(j.source, displayOutput(j.output), j.stats))
	}
	return nil
}

// rewriteOne detects the dialect of one dump, resolves where it goes and
// rewrites it there.
func rewriteOne(ctx context.Context, j *job, in io.Reader, stdout io.Writer, opts dump.Options, flags rewriteFlags) error {
	br := bufio.NewReaderSize(in, dump.SampleSize)

	detected := dialect.Result{Type: opts.Dialect, Tier: dialect.TierOverride}
	if opts.Dialect == model.DatabaseUnknown {
		var err error
		if detected, err = dump.Sniff(br, opts.Detector); err != nil {
			return err
		}
	}

	if j.output == "" {
		output, err := resolveOutput(j.source, detected, flags)
		if err != nil {
			return err
		}
		j.output = output
	}

	session, err := dump.NewSession(opts)
	if err != nil {
		return common.NewUserError("invalid configuration", err)
	}
	slog.Debug("Rewriting dump", "session_id", session.ID, "source", j.source, "output", j.output, "dialect", detected.Type)
	track(ctx, j.output)

	if j.output == stdio {
		j.stats, err = session.Rewrite(ctx, br, stdout)
		return err
	}

	if src, ok := dialect.DetectSource(j.output); ok && src.Type.IsFileDatabase() {
		if !detected.Type.IsFileDatabase() {
			return common.NewUserError(
				fmt.Sprintf("%s is a %s dump; only SQLite dumps can be loaded into %s", j.source, detected.Type, j.output),
				common.ErrMissingOutputTarget)
		}
		j.stats, err = rewriteToDatabase(ctx, session, br, j.output, flags.force)
		return err
	}

	j.stats, err = rewriteToFile(ctx, session, br, j.output, flags.force)
	return err
}

func rewriteToFile(ctx context.Context, session *dump.Session, in io.Reader, path string, force bool) (dump.Stats, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return dump.Stats{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flag |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flag, 0o600)
	if errors.Is(err, os.ErrExist) {
		return dump.Stats{}, common.NewUserError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), err)
	}
	if err != nil {
		return dump.Stats{}, fmt.Errorf("failed to create %s: %w", path, err)
	}

	stats, err := session.Rewrite(ctx, in, f)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close %s: %w", path, closeErr)
	}
	return stats, err
}

// rewriteToDatabase pipes the rewritten dump straight into a SQLite file.
func rewriteToDatabase(ctx context.Context, session *dump.Session, in io.Reader, path string, force bool) (dump.Stats, error) {
	sink, err := storage.NewSQLiteSink(path, force)
	if errors.Is(err, storage.ErrOutputExists) {
		return dump.Stats{}, common.NewUserError(fmt.Sprintf("%s already exists (use --force to overwrite)", path), err)
	}
	if err != nil {
		return dump.Stats{}, err
	}
	defer func() {
		if err := sink.Close(); err != nil {
			common.LogError(err, "Failed to close database", common.Fields{"path": sink.Path()})
		}
	}()

	pr, pw := io.Pipe()
	var stats dump.Stats

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = session.Rewrite(ctx, in, pw)
		_ = pw.CloseWithError(err)
		return err
	})
	g.Go(func() error {
		n, err := sink.Load(ctx, pr)
		_ = pr.CloseWithError(err)
		if err == nil {
			common.LogDebug("Loaded database", common.Fields{"path": sink.Path(), "statements": n})
		}
		return err
	})

	return stats, g.Wait()
}

// resolveOutput picks the output path for a file input.
func resolveOutput(source string, detected dialect.Result, flags rewriteFlags) (string, error) {
	if flags.output != "" {
		return flags.output, nil
	}

	name, ok := detected.DefaultOutput()
	if !ok {
		return "", common.NewUserError(
			fmt.Sprintf("could not detect the dialect of %s; pass --dialect or --output", source),
			common.ErrAmbiguousDialect)
	}

	if flags.outDir == "" {
		return name, nil
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	return filepath.Join(flags.outDir, base+filepath.Ext(name)), nil
}

func displayOutput(output string) string {
	if output == stdio {
		return ""
	}
	return output
}
