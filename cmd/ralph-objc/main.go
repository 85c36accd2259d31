package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raymyers/ralph-objc/pkg/config"
	"github.com/raymyers/ralph-objc/pkg/driver"
)

var version = "0.1.0"

// ErrTranslationFailed indicates at least one unit could not be translated
var ErrTranslationFailed = errors.New("translation failed")

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		configFile string
		jobs       int
	)
	rootCmd := &cobra.Command{
		Use:   "ralph-objc [files...]",
		Short: "ralph-objc translates resolved Java compilation units to Objective-C",
		Long: `ralph-objc reads Java compilation units whose names and types have
already been resolved, serialized as YAML, and writes an Objective-C
header and implementation file for each one.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			opts, err := config.Load(cmd.Flags(), configFile)
			if err != nil {
				fmt.Fprintf(errOut, "ralph-objc: %v\n", err)
				return err
			}
			if err := translate(cmd, args, opts, jobs, out, errOut); err != nil {
				fmt.Fprintf(errOut, "ralph-objc: %v\n", err)
				return err
			}
			return nil
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	config.BindFlags(rootCmd.Flags())
	rootCmd.Flags().StringVar(&configFile, "config", "", "Config file (default ./ralph-objc.{yaml,toml,json})")
	rootCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "Units translated in parallel (0 = no limit)")

	return rootCmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelError
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// translate runs one session over the files in args. Units that translate
// are written (or dumped) even when others fail.
func translate(cmd *cobra.Command, args []string, opts config.Options, jobs int, out, errOut io.Writer) error {
	s := driver.New(opts, newLogger(errOut, opts.Verbose))
	units, err := s.Load(args)
	if err != nil {
		return err
	}
	results, err := s.TranslateAll(cmd.Context(), units, jobs)
	if err != nil {
		return err
	}

	for _, r := range results {
		for _, d := range r.Diagnostics {
			fmt.Fprintln(errOut, d.String())
		}
		if r.Err != nil {
			continue
		}
		if opts.Dump {
			for _, f := range r.Files {
				fmt.Fprintf(out, "== %s ==\n%s", f.Path, f.Text)
			}
			continue
		}
		if err := driver.WriteFiles(opts.OutputDir, r.Files); err != nil {
			return err
		}
	}

	if n := driver.Failed(results); n > 0 {
		return fmt.Errorf("%w: %d of %d units", ErrTranslationFailed, n, len(results))
	}
	return nil
}
