// pkg/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

// ErrInvalidConfig is wrapped by every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Output sinks
const (
	SinkCSV       = "csv"
	SinkJSONL     = "jsonl"
	SinkPostgres  = "postgres"
	SinkSnowflake = "snowflake"
)

// Defaults
const (
	DefaultRowCount        = 100_000
	DefaultSeed            = 42
	DefaultMissingFraction = 0.01
	DefaultOutputPath      = "data/raw/synthetic_radiation_100k.csv"
	DefaultOutputTable     = "synthetic_radiation"
	DefaultOutputSchema    = "public"
)

// DefaultMissingColumns are blanked at DefaultMissingFraction unless overridden
var DefaultMissingColumns = []string{
	model.ColumnVoltageV,
	model.ColumnCurrentMA,
	model.ColumnTempC,
	model.ColumnDoseKrad,
	model.ColumnFluenceCm2,
}

// Config represents the application configuration
type Config struct {
	// Generation settings
	RowCount         int
	Seed             uint64
	ReferenceTime    time.Time
	LookbackDays     int
	MissingFractions map[string]float64
	Vocabulary       generator.Vocabulary
	WorkerPoolSize   int
	ChunkSize        int

	// Output
	Sink         string
	OutputPath   string
	OutputSchema string
	OutputTable  string

	// Table sinks: remove existing rows before loading, and record the
	// missing-value pass in corrupted_on_generation
	OutputTruncate    bool
	RecordCorruptions bool

	// Database connections, loaded only for database sinks
	Snowflake *SnowflakeConfig
	Postgres  *PostgresConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// LoadConfig loads configuration from environment variables.
// Variables from the given .env files (default ".env") are loaded first when the files exist;
// variables already set in the environment win.
func LoadConfig(envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	referenceTime, err := getEnvAsTime("REFERENCE_TIME", generator.Now())
	if err != nil {
		return nil, fmt.Errorf("%w: REFERENCE_TIME: %v", ErrInvalidConfig, err)
	}

	missing, err := loadMissingFractions()
	if err != nil {
		return nil, err
	}

	defaults := generator.DefaultVocabulary()
	cfg := &Config{
		RowCount:         getEnvAsInt("ROW_COUNT", DefaultRowCount),
		Seed:             getEnvAsUint64("RANDOM_SEED", DefaultSeed),
		ReferenceTime:    referenceTime,
		LookbackDays:     getEnvAsInt("LOOKBACK_DAYS", generator.DefaultLookbackDays),
		MissingFractions: missing,
		Vocabulary: generator.Vocabulary{
			PartNumbers:   getEnvAsStringSlice("VOCAB_PART_NUMBERS", defaults.PartNumbers),
			Manufacturers: getEnvAsStringSlice("VOCAB_MANUFACTURERS", defaults.Manufacturers),
			TestTypes:     getEnvAsStringSlice("VOCAB_TEST_TYPES", defaults.TestTypes),
			Operators:     getEnvAsStringSlice("VOCAB_OPERATORS", defaults.Operators),
			TestFixtures:  getEnvAsStringSlice("VOCAB_FIXTURES", defaults.TestFixtures),
			Notes:         getEnvAsStringSlice("VOCAB_NOTES", defaults.Notes),
		},
		WorkerPoolSize: getEnvAsInt("WORKER_POOL_SIZE", 1), // 0 means size from runtime.NumCPU()
		ChunkSize:      getEnvAsInt("CHUNK_SIZE", 5000),

		Sink:         strings.ToLower(getEnv("OUTPUT_SINK", SinkCSV)),
		OutputPath:   getEnv("OUTPUT_PATH", DefaultOutputPath),
		OutputSchema: getEnv("OUTPUT_SCHEMA", DefaultOutputSchema),
		OutputTable:  getEnv("OUTPUT_TABLE", DefaultOutputTable),

		OutputTruncate:    getEnvAsBool("OUTPUT_TRUNCATE", true),
		RecordCorruptions: getEnvAsBool("RECORD_CORRUPTIONS", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.LoadSinkConfig(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadSinkConfig loads the database configuration the selected sink needs
func (c *Config) LoadSinkConfig() error {
	switch c.Sink {
	case SinkSnowflake:
		if c.Snowflake != nil {
			return nil
		}
		snowConfig, err := LoadSnowflakeConfig()
		if err != nil {
			return errors.New("failed to load Snowflake configuration: " + err.Error())
		}
		c.Snowflake = snowConfig
	case SinkPostgres:
		if c.Postgres != nil {
			return nil
		}
		pgConfig, err := LoadPostgresConfig()
		if err != nil {
			return errors.New("failed to load PostgreSQL configuration: " + err.Error())
		}
		c.Postgres = pgConfig
	}
	return nil
}

// Validate ensures all required configuration is present and valid
func (c *Config) Validate() error {
	if c.RowCount < 0 {
		return fmt.Errorf("%w: row count cannot be negative", ErrInvalidConfig)
	}

	if c.LookbackDays < 0 {
		return fmt.Errorf("%w: lookback days cannot be negative", ErrInvalidConfig)
	}

	if c.WorkerPoolSize < 0 {
		return fmt.Errorf("%w: worker pool size cannot be negative", ErrInvalidConfig)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive", ErrInvalidConfig)
	}

	for col, frac := range c.MissingFractions {
		if !model.IsNumericColumn(col) {
			return fmt.Errorf("%w: %q is not a numeric column", ErrInvalidConfig, col)
		}
		if math.IsNaN(frac) || frac < 0 || frac > 1 {
			return fmt.Errorf("%w: missing fraction for %s must be within [0, 1]", ErrInvalidConfig, col)
		}
	}

	if err := c.Vocabulary.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	switch c.Sink {
	case SinkCSV, SinkJSONL:
		if c.OutputPath == "" {
			return fmt.Errorf("%w: output path is required for the %s sink", ErrInvalidConfig, c.Sink)
		}
	case SinkPostgres:
		if c.Postgres == nil {
			return fmt.Errorf("%w: postgreSQL configuration is required", ErrInvalidConfig)
		}
	case SinkSnowflake:
		if c.Snowflake == nil {
			return fmt.Errorf("%w: snowflake configuration is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown output sink %q", ErrInvalidConfig, c.Sink)
	}

	if (c.Sink == SinkPostgres || c.Sink == SinkSnowflake) && c.OutputTable == "" {
		return fmt.Errorf("%w: output table is required for the %s sink", ErrInvalidConfig, c.Sink)
	}

	return nil
}

func loadEnvFiles(files ...string) error {
	if len(files) == 0 {
		files = []string{getEnv("ENV_FILE", ".env")}
	}

	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// loadMissingFractions builds the column->fraction plan from
// MISSING_COLUMNS/MISSING_FRACTION and applies MISSING_FRACTIONS overrides
func loadMissingFractions() (map[string]float64, error) {
	fraction, err := getEnvAsFloat("MISSING_FRACTION", DefaultMissingFraction)
	if err != nil {
		return nil, fmt.Errorf("%w: MISSING_FRACTION: %v", ErrInvalidConfig, err)
	}

	plan := make(map[string]float64)
	for _, col := range getEnvAsStringSlice("MISSING_COLUMNS", DefaultMissingColumns) {
		plan[col] = fraction
	}

	for _, pair := range getEnvAsStringSlice("MISSING_FRACTIONS", nil) {
		col, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: MISSING_FRACTIONS entry %q must be column=fraction", ErrInvalidConfig, pair)
		}
		frac, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: MISSING_FRACTIONS entry %q: %v", ErrInvalidConfig, pair, err)
		}
		plan[strings.TrimSpace(col)] = frac
	}

	return plan, nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	return strconv.ParseFloat(valueStr, 64)
}

func getEnvAsTime(key string, defaultValue time.Time) (time.Time, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue, nil
	}
	return time.Parse(time.RFC3339, valueStr)
}

// getEnvAsStringSlice parses a comma-separated list, trimming whitespace and dropping empty entries
func getEnvAsStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}
	return result
}
