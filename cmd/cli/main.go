package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"edakit/adapters/stats/hypothesis"
	"edakit/app"
	"edakit/domain/dataset"
	"edakit/domain/stats"
	"edakit/internal"
	"edakit/internal/config"
	"edakit/internal/errors"
	"edakit/internal/report"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		os.Exit(1)
	}
}

// formatError prefixes application errors with their code
func formatError(err error) string {
	if errors.IsAppError(err) {
		return fmt.Sprintf("error [%s]: %v", errors.GetCode(err), err)
	}
	return "error: " + err.Error()
}

// cli carries what every subcommand needs once the root has initialized
type cli struct {
	envFile string
	sheet   string
	index   string
	format  string

	logger  *internal.Logger
	service *app.AnalysisService
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:           "edakit",
		Short:         "Exploratory data analysis helpers: frequency tables, outliers, hypothesis tests and plots",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.envFile, "env", ".env", "Environment file to load configuration from")
	flags.StringVar(&c.sheet, "sheet", "", "Worksheet to read from .xlsx files (default: first sheet)")
	flags.StringVar(&c.index, "index", "", "Column holding row labels")
	flags.StringVar(&c.format, "format", "text", "Output format: text, markdown or html")

	rootCmd.AddCommand(
		newFreqCmd(c),
		newOutliersCmd(c),
		newTestCmd(c),
		newBatteryCmd(c),
		newDescribeCmd(c),
		newHistBoxCmd(c),
		newTestsCmd(c),
	)
	return rootCmd
}

func (c *cli) init() error {
	cfg, err := config.Load(c.envFile)
	if err != nil {
		return err
	}
	if _, err := report.ParseFormat(c.format); err != nil {
		return err
	}
	c.logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level))
	c.service = app.NewAnalysisService(cfg, c.logger)
	return nil
}

func (c *cli) load(path string) (*dataset.Table, error) {
	return c.service.Load(path, dataset.ReadOptions{Sheet: c.sheet, IndexColumn: c.index})
}

// print runs fn against a printer on the command's output and flushes it
func (c *cli) print(cmd *cobra.Command, fn func(p *report.Printer) error) error {
	format, err := report.ParseFormat(c.format)
	if err != nil {
		return err
	}
	p := report.NewPrinter(cmd.OutOrStdout(), format)
	if err := fn(p); err != nil {
		return err
	}
	return p.Flush()
}

func newFreqCmd(c *cli) *cobra.Command {
	var counts bool

	cmd := &cobra.Command{
		Use:   "freq FILE COLUMN",
		Short: "Frequency distribution table of a column",
		Long: `Build a frequency table with absolute, relative, cumulative and cumulative
relative frequencies.

By default the distinct values of COLUMN are counted and sorted ascending. With
--counts the column already holds absolute frequencies and rows keep their order.

Example: edakit freq survey.xlsx answer
         edakit freq tallies.csv n --counts --index category`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := c.load(args[0])
			if err != nil {
				return err
			}
			mode := stats.ModeRaw
			if counts {
				mode = stats.ModeCounts
			}
			d, err := c.service.Frequency(tbl, args[1], mode)
			if err != nil {
				return err
			}
			return c.print(cmd, func(p *report.Printer) error { return p.Distribution(d) })
		},
	}

	cmd.Flags().BoolVar(&counts, "counts", false, "Treat the column values as absolute frequencies")
	return cmd
}

func newOutliersCmd(c *cli) *cobra.Command {
	var whisker float64

	cmd := &cobra.Command{
		Use:   "outliers FILE COLUMN",
		Short: "Drop values outside the IQR fences of a column",
		Long: `Keep the values v with Q1 - m*IQR <= v <= Q3 + m*IQR, in their original order.

The multiplier m defaults to EDAKIT_WHISKER (1.5). Applying the filter again to
its own output can remove further values.

Example: edakit outliers measurements.csv weight --whisker 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := c.load(args[0])
			if err != nil {
				return err
			}
			values, err := tbl.Numeric(args[1])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("whisker") {
				whisker = c.service.Config().Analysis.WhiskerMultiplier
			}
			f, err := c.service.Outliers(tbl, args[1], whisker)
			if err != nil {
				return err
			}
			return c.print(cmd, func(p *report.Printer) error { return p.Filtered(args[1], len(values), f) })
		},
	}

	cmd.Flags().Float64Var(&whisker, "whisker", config.DefaultWhiskerMultiplier, "Whisker multiplier, non-negative (default from EDAKIT_WHISKER)")
	return cmd
}

// testFlags holds the hypothesis options a command exposes as flags
type testFlags struct {
	alpha       float64
	alternative string
	equalVar    bool
	center      string
}

func (f *testFlags) registerAlpha(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.alpha, "alpha", config.DefaultAlpha, "Significance level (default from EDAKIT_ALPHA)")
}

func (f *testFlags) registerCenter(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.center, "center", string(stats.CenterMean), "Levene center: mean, median or trimmed")
}

// options overlays the flags onto the configured defaults
func (f *testFlags) options(cmd *cobra.Command, c *cli) (hypothesis.Options, error) {
	opts := c.service.TestOptions()
	if cmd.Flags().Changed("alpha") {
		opts.Alpha = f.alpha
	}
	if cmd.Flags().Lookup("alternative") != nil {
		alt, err := stats.ParseAlternative(f.alternative)
		if err != nil {
			return opts, err
		}
		opts.Alternative = alt
	}
	if cmd.Flags().Lookup("center") != nil {
		ctr, err := stats.ParseCenter(f.center)
		if err != nil {
			return opts, err
		}
		opts.Center = ctr
	}
	if cmd.Flags().Lookup("equal-var") != nil {
		opts.EqualVariances = f.equalVar
	}
	return opts, nil
}

func newTestCmd(c *cli) *cobra.Command {
	f := &testFlags{}

	cmd := &cobra.Command{
		Use:   "test NAME FILE COLUMN...",
		Short: "Run a hypothesis test on columns of a dataset",
		Long: `Run a hypothesis test and print its statistic, p-value and verdict.

Available tests: ` + strings.Join(testNames(), ", ") + `

Example: edakit test ttest_ind scores.csv group_a group_b --equal-var=false
         edakit test levene scores.csv a b c --center median`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(cmd, c)
			if err != nil {
				return err
			}
			tbl, err := c.load(args[1])
			if err != nil {
				return err
			}
			results, err := c.service.Test(stats.TestKind(args[0]), tbl, args[2:], opts)
			if err != nil {
				return err
			}
			return c.print(cmd, func(p *report.Printer) error { return p.Results(results) })
		},
	}

	f.registerAlpha(cmd)
	f.registerCenter(cmd)
	cmd.Flags().StringVar(&f.alternative, "alternative", string(stats.TwoSided), "Alternative hypothesis: two-sided, less or greater")
	cmd.Flags().BoolVar(&f.equalVar, "equal-var", true, "Assume equal variances (ttest_ind)")
	return cmd
}

func newBatteryCmd(c *cli) *cobra.Command {
	f := &testFlags{}

	cmd := &cobra.Command{
		Use:   "battery FILE COLUMN...",
		Short: "Shapiro-Wilk on each column, then Levene across them",
		Long: `Run Shapiro-Wilk on every column, then Levene across all of them.

Example: edakit battery scores.csv a b c --alpha 0.01 --center median`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := f.options(cmd, c)
			if err != nil {
				return err
			}
			tbl, err := c.load(args[0])
			if err != nil {
				return err
			}
			b, err := c.service.Battery(tbl, args[1:], opts)
			if err != nil {
				return err
			}
			return c.print(cmd, func(p *report.Printer) error { return p.Battery(b) })
		},
	}

	f.registerAlpha(cmd)
	f.registerCenter(cmd)
	return cmd
}

func newDescribeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "describe FILE COLUMN",
		Short: "Descriptive statistics of a numeric column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := c.load(args[0])
			if err != nil {
				return err
			}
			s, err := c.service.Describe(tbl, args[1])
			if err != nil {
				return err
			}
			return c.print(cmd, func(p *report.Printer) error { return p.Summary(args[1], s) })
		},
	}
}

func newHistBoxCmd(c *cli) *cobra.Command {
	var (
		bins int
		out  string
	)

	cmd := &cobra.Command{
		Use:   "histbox FILE COLUMN",
		Short: "Render a box plot above a histogram with density curve",
		Long: `Render the box plot (top) and histogram with KDE curve (bottom) of a numeric
column, marking the mean, median and mode.

The format follows the --out extension: png, jpg, tiff, svg or pdf. Without
--out the figure is written to EDAKIT_PLOT_DIR/COLUMN.png.

Example: edakit histbox heights.csv height --bins 20 --out height.svg`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := c.load(args[0])
			if err != nil {
				return err
			}
			fig, err := c.service.HistBox(tbl, args[1], bins)
			if err != nil {
				return err
			}
			path, err := c.service.SaveFigure(fig, out)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().IntVar(&bins, "bins", 0, "Histogram bin count (default: Sturges' rule)")
	cmd.Flags().StringVar(&out, "out", "", "Output file")
	return cmd
}

func newTestsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "tests",
		Short: "List the available hypothesis tests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entries [][2]string
			for _, t := range c.service.Engine().List() {
				entries = append(entries, [2]string{string(t.Kind()), t.Description()})
			}
			return c.print(cmd, func(p *report.Printer) error { return p.Tests(entries) })
		},
	}
}

func testNames() []string {
	return []string{
		string(stats.TestShapiro), string(stats.TestLevene),
		string(stats.TestTTestInd), string(stats.TestTTestRel),
		string(stats.TestANOVA), string(stats.TestWilcoxon),
		string(stats.TestMannWhitneyU), string(stats.TestFriedman),
		string(stats.TestKruskal),
	}
}
