package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/assembler"
	"github.com/David-Botos/radiation-fixtures/pkg/audit"
	"github.com/David-Botos/radiation-fixtures/pkg/config"
	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/logging"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
	"github.com/David-Botos/radiation-fixtures/pkg/writer"
)

// maxLoggedIssues caps how many validation issues are logged individually
const maxLoggedIssues = 10

type generateOptions struct {
	*rootOptions
	rows     int
	seed     uint64
	output   string
	sink     string
	workers  int
	validate bool
	metrics  bool
	append   bool
	audit    bool
}

func newGenerateCommand(root *rootOptions) *cobra.Command {
	opts := &generateOptions{rootOptions: root}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset and write it to the configured sink",
		Long: `Generate N synthetic radiation test records, inject missing values into
the configured numeric columns and write the dataset.

Examples:
  # 100k rows to data/raw/synthetic_radiation_100k.csv
  radfixtures generate

  # JSON Lines on stdout
  radfixtures generate --rows 10 --sink jsonl --output -

  # add rows to an existing PostgreSQL table without the audit table
  radfixtures generate --sink postgres --append --audit=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runGenerate(cmd, cfg, opts)
		},
	}

	opts.bindFlags(generateCmd)

	return generateCmd
}

func (o *generateOptions) bindFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.IntVar(&o.rows, "rows", config.DefaultRowCount, "number of records to generate (overrides ROW_COUNT)")
	flags.Uint64Var(&o.seed, "seed", config.DefaultSeed, "random seed (overrides RANDOM_SEED)")
	flags.StringVarP(&o.output, "output", "o", config.DefaultOutputPath, "output file for csv and jsonl sinks, - for stdout (overrides OUTPUT_PATH)")
	flags.StringVar(&o.sink, "sink", config.SinkCSV, "csv, jsonl, postgres or snowflake (overrides OUTPUT_SINK)")
	flags.IntVar(&o.workers, "workers", 1, "generation goroutines, 0 sizes from CPUs (overrides WORKER_POOL_SIZE)")
	flags.BoolVar(&o.validate, "validate", true, "check the dataset invariants before writing")
	flags.BoolVar(&o.metrics, "metrics", false, "print the generation metrics report to stderr")
	flags.BoolVar(&o.append, "append", false, "keep existing table rows instead of truncating (overrides OUTPUT_TRUNCATE)")
	flags.BoolVar(&o.audit, "audit", true, "record the missing-value pass in corrupted_on_generation (overrides RECORD_CORRUPTIONS)")
}

// loadConfig reads the environment and applies the flags that were set explicitly
func (o *generateOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.envFiles...)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("rows") {
		cfg.RowCount = o.rows
	}
	if flags.Changed("seed") {
		cfg.Seed = o.seed
	}
	if flags.Changed("output") {
		cfg.OutputPath = o.output
	}
	if flags.Changed("sink") {
		cfg.Sink = strings.ToLower(o.sink)
	}
	if flags.Changed("workers") {
		cfg.WorkerPoolSize = o.workers
	}
	if flags.Changed("append") {
		cfg.OutputTruncate = !o.append
	}
	if flags.Changed("audit") {
		cfg.RecordCorruptions = o.audit
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}

	if err := cfg.LoadSinkConfig(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, opts *generateOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	gen, err := generator.NewRecordGenerator(cfg.Vocabulary,
		generator.WithReferenceTime(cfg.ReferenceTime),
		generator.WithLookbackDays(cfg.LookbackDays))
	if err != nil {
		return fmt.Errorf("failed to create record generator: %w", err)
	}

	asm, err := assembler.NewDatasetAssembler(gen, generator.NewSource(cfg.Seed), logger,
		assembler.WithWorkerCount(cfg.WorkerPoolSize),
		assembler.WithChunkSize(cfg.ChunkSize),
		assembler.WithMissingPlan(assembler.MissingPlan(cfg.MissingFractions)),
		assembler.WithTableMetadata(model.NewTableMetadata(cfg.OutputSchema, cfg.OutputTable)))
	if err != nil {
		return fmt.Errorf("failed to create dataset assembler: %w", err)
	}

	ds, err := asm.Assemble(cfg.RowCount)
	if err != nil {
		return fmt.Errorf("failed to assemble dataset: %w", err)
	}

	if opts.validate {
		if issues := audit.ValidateDataset(ds); len(issues) > 0 {
			for i, issue := range issues {
				if i == maxLoggedIssues {
					break
				}
				logger.Error("Dataset invariant violated", zap.String("issue", issue.String()))
			}
			return fmt.Errorf("dataset failed validation with %d issues", len(issues))
		}
	}

	w, loader, err := writer.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create %s writer: %w", cfg.Sink, err)
	}
	if loader != nil {
		defer loader.Close()
	}

	result, err := w.Write(ctx, ds)
	if err != nil {
		logger.Error("Failed to write dataset",
			zap.String("category", writer.CategoryOf(err).String()),
			zap.Error(err))
		return err
	}

	logger.Info("Generation complete",
		zap.String("summary", result.Summary()),
		zap.Float64("rowsPerSecond", asm.Metrics().RowsPerSecond()))

	if opts.metrics {
		fmt.Fprintln(cmd.ErrOrStderr(), asm.Metrics().GenerateMetricsReport())
	}
	return nil
}
