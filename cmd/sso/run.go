package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/vango-dev/sso/internal/config"
	"github.com/vango-dev/sso/internal/errors"
	"github.com/vango-dev/sso/internal/scenario"
	"github.com/vango-dev/sso/pkg/middleware"
)

func runCmd(flags *globalFlags) *cobra.Command {
	var (
		quiet   bool
		metrics bool
	)

	cmd := &cobra.Command{
		Use:   "run <path>...",
		Short: "Run scenario files",
		Long: `Run one or more scenario files against fresh stores.

Each path is a .json, .yaml or .yml scenario file, or a directory whose
scenario files are run in name order. The command exits with a non-zero
status when any expectation fails.

Examples:
  sso run testdata/counter.yaml
  sso run scenarios/
  sso run scenarios/ --quiet --metrics
  sso run scenarios/ --log-level debug --log-format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), args, flags, quiet, metrics)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the summary")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Print store metrics after the run")

	return cmd
}

func runScenarios(ctx context.Context, out, errOut io.Writer, paths []string, flags *globalFlags, quiet, metrics bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := newLogger(errOut, flags)
	if err != nil {
		return err
	}

	scenarios, err := loadScenarios(paths)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	instr := middleware.Chain(
		middleware.Prometheus(middleware.WithRegistry(reg)),
		middleware.Logging(logger),
	)

	trace := out
	if quiet {
		trace = io.Discard
	}

	failed := 0
	for _, sc := range scenarios {
		res, err := scenario.Run(ctx, sc, trace,
			scenario.WithLogger(logger),
			scenario.WithInstrumentation(instr),
		)
		if err != nil {
			return err
		}
		if res.OK() {
			success(out, "%s: %d steps passed (%s)", sc.Name, res.Passed, res.Duration)
			continue
		}
		failed++
		failure(out, "%s: %d of %d steps failed", sc.Name, res.Failed, res.Steps)
		for _, f := range res.Failures {
			fmt.Fprintf(out, "    %s\n", f)
		}
	}

	if metrics {
		if err := printMetrics(out, reg); err != nil {
			return err
		}
	}

	if failed > 0 {
		return errors.New("S102").
			WithDetail(fmt.Sprintf("%d of %d scenarios failed", failed, len(scenarios)))
	}
	return nil
}

// loadScenarios expands directories and loads every scenario in order.
func loadScenarios(paths []string) ([]*config.Scenario, error) {
	var scenarios []*config.Scenario
	for _, p := range paths {
		info, err := os.Stat(p)
		if err == nil && info.IsDir() {
			dir, err := config.LoadDir(p)
			if err != nil {
				return nil, err
			}
			scenarios = append(scenarios, dir...)
			continue
		}
		sc, err := config.Load(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// printMetrics writes the non-zero counters of reg, one per line.
func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}

	var lines []string
	for _, f := range families {
		for _, m := range f.GetMetric() {
			c := m.GetCounter()
			if c == nil || c.GetValue() == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			lines = append(lines, fmt.Sprintf("%s{%s} %g", f.GetName(), strings.Join(labels, ","), c.GetValue()))
		}
	}
	sort.Strings(lines)

	fmt.Fprintln(w, "\nMetrics:")
	for _, l := range lines {
		fmt.Fprintf(w, "  %s\n", l)
	}
	return nil
}
