package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"assesstime/internal/config"
	"assesstime/internal/container"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// cliState is shared by every subcommand once the root has loaded config.
type cliState struct {
	envFile      string
	logLevel     string
	variantsFile string
	variant      string

	cfg    *config.Config
	deps   *container.Container
	stdout io.Writer
	stderr io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	st := &cliState{stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "assesstime",
		Short: "Completion-time statistics for assessment action logs",
		Long: `Clean assessment action logs into one session per respondent and report
per-activity completion-time statistics.

Configuration is read, in increasing precedence, from built-in defaults,
ASSESSTIME_* environment variables (optionally from a .env file), the
selected variant of a YAML variants file, and command-line flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load()
		},
	}

	rootCmd.PersistentFlags().StringVar(&st.envFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.PersistentFlags().StringVar(&st.logLevel, "log-level", "", "Log level: debug|info|warn|error (default from ASSESSTIME_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&st.variantsFile, "variants", "", "YAML variants file (default from ASSESSTIME_VARIANTS_FILE)")
	rootCmd.PersistentFlags().StringVar(&st.variant, "variant", "", "Variant to run from the variants file")

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.AddCommand(
		newRunCmd(st),
		newVariantsCmd(st),
		newInspectCmd(st),
	)
	return rootCmd
}

func (st *cliState) load() error {
	// Load environment variables from .env file; a missing file is fine
	if st.envFile != "" {
		if err := godotenv.Load(st.envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to load %s: %w", st.envFile, err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if st.logLevel != "" {
		cfg.Logging.Level = st.logLevel
	}
	if st.variantsFile != "" {
		cfg.Paths.VariantsFile = st.variantsFile
	}
	st.cfg = cfg
	st.deps, err = container.New(cfg, st.stderr)
	return err
}

// variants loads the configured variants file, layered over the env config.
func (st *cliState) variants() (*config.Variants, error) {
	if st.cfg.Paths.VariantsFile == "" {
		return nil, fmt.Errorf("no variants file: set --variants or ASSESSTIME_VARIANTS_FILE")
	}
	return config.LoadVariants(st.cfg.Paths.VariantsFile, st.cfg.Pipeline)
}

// pipeline resolves the configuration for this invocation.
func (st *cliState) pipeline() (config.PipelineConfig, error) {
	if st.variant == "" {
		return st.cfg.Pipeline, nil
	}
	v, err := st.variants()
	if err != nil {
		return config.PipelineConfig{}, err
	}
	return v.Get(st.variant)
}

// inputs picks files from args, then the variant, then ASSESSTIME_INPUT.
func (st *cliState) inputs(args []string, cfg config.PipelineConfig) ([]string, error) {
	switch {
	case len(args) > 0:
		return args, nil
	case len(cfg.Files) > 0:
		return cfg.Files, nil
	case len(st.cfg.Paths.InputFiles) > 0:
		return st.cfg.Paths.InputFiles, nil
	}
	return nil, fmt.Errorf("no input files: pass them as arguments, list them in the variant, or set ASSESSTIME_INPUT")
}

// funnelFlags mirror FunnelConfig. Only flags the user set override config.
type funnelFlags struct {
	filterPauses   bool
	pauseKeyword   string
	pauseMatchCase bool
	completeLabel  string
	completeMatch  string
	spanMode       string
	groupBy        string
	sameDay        bool
	minDuration    time.Duration
	maxDuration    time.Duration
	timeFormat     string
	timezone       string
	sheet          string
	delimiter      string
	binWidth       time.Duration
}

func (f *funnelFlags) register(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.Flags()
	fs.BoolVar(&f.filterPauses, "filter-pauses", d.Funnel.FilterPauses, "Exclude sessions containing a pause action")
	fs.StringVar(&f.pauseKeyword, "pause-keyword", d.Funnel.PauseKeyword, "Substring that marks a pause action")
	fs.BoolVar(&f.pauseMatchCase, "pause-match-case", d.Funnel.PauseMatchCase, "Match the pause keyword case-sensitively")
	fs.StringVar(&f.completeLabel, "complete-label", d.Funnel.CompleteActionLabel, "Action label that marks completion (empty: any end marker)")
	fs.StringVar(&f.completeMatch, "complete-match", string(d.Funnel.CompleteMatch), "Completion label match: exact|contains")
	fs.StringVar(&f.spanMode, "span-mode", string(d.Funnel.SpanMode), "Session span: markers|all_actions")
	fs.StringVar(&f.groupBy, "group-by", string(d.Funnel.GroupBy), "Session key: respondent|respondent_activity")
	fs.BoolVar(&f.sameDay, "same-day", d.Funnel.SameDayOnly, "Require begin and end on the same calendar date")
	fs.DurationVar(&f.minDuration, "min-duration", d.Funnel.MinDuration, "Exclusive lower duration bound")
	fs.DurationVar(&f.maxDuration, "max-duration", d.Funnel.MaxDuration, "Exclusive upper duration bound")
	fs.StringVar(&f.timeFormat, "time-format", d.Schema.TimeFormat, "Timestamp format, Go layout or strftime (empty: auto-detect)")
	fs.StringVar(&f.timezone, "timezone", d.Schema.Timezone, "IANA zone timestamps are recorded in")
	fs.StringVar(&f.sheet, "sheet", d.Schema.Sheet, "Workbook sheet to read (empty: first)")
	fs.StringVar(&f.delimiter, "delimiter", d.Schema.Delimiter, "CSV delimiter")
	fs.DurationVar(&f.binWidth, "bin-width", d.Summary.HistogramBinWidth, "Histogram bin width (0 disables histograms)")
}

func (f *funnelFlags) apply(cmd *cobra.Command, cfg *config.PipelineConfig) {
	changed := cmd.Flags().Changed
	if changed("filter-pauses") {
		cfg.Funnel.FilterPauses = f.filterPauses
	}
	if changed("pause-keyword") {
		cfg.Funnel.PauseKeyword = f.pauseKeyword
	}
	if changed("pause-match-case") {
		cfg.Funnel.PauseMatchCase = f.pauseMatchCase
	}
	if changed("complete-label") {
		cfg.Funnel.CompleteActionLabel = f.completeLabel
	}
	if changed("complete-match") {
		cfg.Funnel.CompleteMatch = config.MatchMode(f.completeMatch)
	}
	if changed("span-mode") {
		cfg.Funnel.SpanMode = config.SpanMode(f.spanMode)
	}
	if changed("group-by") {
		cfg.Funnel.GroupBy = config.GroupBy(f.groupBy)
	}
	if changed("same-day") {
		cfg.Funnel.SameDayOnly = f.sameDay
	}
	if changed("min-duration") {
		cfg.Funnel.MinDuration = f.minDuration
	}
	if changed("max-duration") {
		cfg.Funnel.MaxDuration = f.maxDuration
	}
	if changed("time-format") {
		cfg.Schema.TimeFormat = f.timeFormat
	}
	if changed("timezone") {
		cfg.Schema.Timezone = f.timezone
	}
	if changed("sheet") {
		cfg.Schema.Sheet = f.sheet
	}
	if changed("delimiter") {
		cfg.Schema.Delimiter = f.delimiter
	}
	if changed("bin-width") {
		cfg.Summary.HistogramBinWidth = f.binWidth
	}
}

func newRunCmd(st *cliState) *cobra.Command {
	var flags funnelFlags
	var outDir, metricsFile string
	var workbook bool

	cmd := &cobra.Command{
		Use:   "run [files...]",
		Short: "Clean the action log and summarize completion times",
		Long: `Read one or more action logs (CSV or XLSX), fold them into sessions, apply
the cleaning funnel and write summary.csv, sample.csv, funnel.csv,
exclusions.csv, histogram.csv and manifest.json to the output directory.

Example: assesstime run ms_ddm.xlsx --variants variants.yaml --variant ms-ddm --xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.pipeline()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			files, err := st.inputs(args, cfg)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("out") {
				outDir = st.cfg.Paths.OutputDir
			}
			if !cmd.Flags().Changed("metrics") {
				metricsFile = st.cfg.Paths.MetricsFile
			}

			svc := st.deps.InitPipeline(cfg, &container.Outputs{Dir: outDir, Workbook: workbook, MetricsFile: metricsFile})
			result, written, err := svc.Execute(cmd.Context(), cfg, files)
			if err != nil {
				return err
			}
			return renderRun(st.stdout, result, written)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "out", "Output directory (default from ASSESSTIME_OUTPUT_DIR)")
	cmd.Flags().BoolVar(&workbook, "xlsx", false, "Also write report.xlsx")
	cmd.Flags().StringVar(&metricsFile, "metrics", "", "Write a Prometheus textfile to this path")
	return cmd
}

func newVariantsCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the variants defined in the variants file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := st.variants()
			if err != nil {
				return err
			}
			return renderVariants(st.stdout, v)
		},
	}
}

func newInspectCmd(st *cliState) *cobra.Command {
	var flags funnelFlags

	cmd := &cobra.Command{
		Use:   "inspect [files...]",
		Short: "Report what ingestion reads from the logs without cleaning them",
		Long: `Parse the action logs and print rows read and dropped, sample parse
failures, the covered date range and every distinct action label with its
count. Useful for choosing pause and completion labels for a new variant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := st.pipeline()
			if err != nil {
				return err
			}
			flags.apply(cmd, &cfg)
			files, err := st.inputs(args, cfg)
			if err != nil {
				return err
			}

			log, err := st.deps.InitPipeline(cfg, nil).Ingest(cmd.Context(), cfg.Schema, files)
			if err != nil {
				return err
			}
			return renderIngest(st.stdout, log)
		},
	}
	flags.register(cmd)
	return cmd
}
