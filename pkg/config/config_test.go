package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/snowflakedb/gosnowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/David-Botos/radiation-fixtures/pkg/generator"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadConfig_Defaults(t *testing.T) {
	before := time.Now().UTC().Truncate(time.Microsecond)
	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)
	after := time.Now().UTC()

	assert.Equal(t, DefaultRowCount, cfg.RowCount)
	assert.Equal(t, uint64(DefaultSeed), cfg.Seed)
	assert.Equal(t, generator.DefaultLookbackDays, cfg.LookbackDays)
	assert.Equal(t, SinkCSV, cfg.Sink)
	assert.Equal(t, DefaultOutputPath, cfg.OutputPath)
	assert.Equal(t, 1, cfg.WorkerPoolSize)
	assert.Equal(t, 5000, cfg.ChunkSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Nil(t, cfg.Postgres)
	assert.Nil(t, cfg.Snowflake)

	assert.True(t, cfg.OutputTruncate)
	assert.True(t, cfg.RecordCorruptions)

	// dates count back from the load time itself, not from midnight
	assert.False(t, cfg.ReferenceTime.Before(before))
	assert.False(t, cfg.ReferenceTime.After(after))
	assert.Equal(t, generator.DefaultVocabulary(), cfg.Vocabulary)

	require.Len(t, cfg.MissingFractions, len(DefaultMissingColumns))
	for _, col := range DefaultMissingColumns {
		assert.Equal(t, DefaultMissingFraction, cfg.MissingFractions[col])
	}
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("ROW_COUNT", "250")
	t.Setenv("RANDOM_SEED", "7")
	t.Setenv("REFERENCE_TIME", "2025-01-02T00:00:00Z")
	t.Setenv("MISSING_COLUMNS", "temp_C, voltage_V")
	t.Setenv("MISSING_FRACTION", "0.2")
	t.Setenv("MISSING_FRACTIONS", "temp_C=0.5,error_count=0.1")
	t.Setenv("VOCAB_OPERATORS", "Ada, Grace")
	t.Setenv("OUTPUT_SINK", "JSONL")
	t.Setenv("OUTPUT_PATH", "out/rows.jsonl")
	t.Setenv("OUTPUT_TRUNCATE", "false")
	t.Setenv("RECORD_CORRUPTIONS", "0")

	cfg, err := LoadConfig(noEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.RowCount)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), cfg.ReferenceTime)
	assert.Equal(t, map[string]float64{
		model.ColumnTempC:      0.5,
		model.ColumnVoltageV:   0.2,
		model.ColumnErrorCount: 0.1,
	}, cfg.MissingFractions)
	assert.Equal(t, []string{"Ada", "Grace"}, cfg.Vocabulary.Operators)
	assert.Equal(t, SinkJSONL, cfg.Sink)
	assert.Equal(t, "out/rows.jsonl", cfg.OutputPath)
	assert.False(t, cfg.OutputTruncate)
	assert.False(t, cfg.RecordCorruptions)
}

func TestLoadConfig_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ROW_COUNT=12\nRANDOM_SEED=99\n"), 0o600))

	// already-set variables take precedence over the file
	t.Setenv("RANDOM_SEED", "5")
	t.Cleanup(func() { os.Unsetenv("ROW_COUNT") })

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.RowCount)
	assert.Equal(t, uint64(5), cfg.Seed)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"negative rows", map[string]string{"ROW_COUNT": "-1"}},
		{"bad reference time", map[string]string{"REFERENCE_TIME": "yesterday"}},
		{"bad fraction", map[string]string{"MISSING_FRACTION": "lots"}},
		{"fraction out of range", map[string]string{"MISSING_FRACTION": "1.5"}},
		{"malformed override", map[string]string{"MISSING_FRACTIONS": "temp_C"}},
		{"text column", map[string]string{"MISSING_COLUMNS": "notes"}},
		{"unknown sink", map[string]string{"OUTPUT_SINK": "parquet"}},
		{"zero chunk", map[string]string{"CHUNK_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig(noEnvFile(t))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfig_DatabaseSinks(t *testing.T) {
	t.Run("postgres requires credentials", func(t *testing.T) {
		t.Setenv("OUTPUT_SINK", SinkPostgres)
		_, err := LoadConfig(noEnvFile(t))
		assert.ErrorContains(t, err, "POSTGRES_USER")
	})

	t.Run("postgres", func(t *testing.T) {
		t.Setenv("OUTPUT_SINK", SinkPostgres)
		t.Setenv("POSTGRES_USER", "fixtures")
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("POSTGRES_DB", "lab")
		t.Setenv("POSTGRES_DRIVER", "pgx")

		cfg, err := LoadConfig(noEnvFile(t))
		require.NoError(t, err)
		require.NotNil(t, cfg.Postgres)
		assert.Equal(t, DriverPGX, cfg.Postgres.Driver)
		assert.Equal(t, "host=localhost port=5432 user=fixtures password=secret dbname=lab sslmode=disable",
			cfg.Postgres.ConnectionString())
		assert.Nil(t, cfg.Snowflake)
	})

	t.Run("postgres unknown driver", func(t *testing.T) {
		t.Setenv("OUTPUT_SINK", SinkPostgres)
		t.Setenv("POSTGRES_USER", "fixtures")
		t.Setenv("POSTGRES_PASSWORD", "secret")
		t.Setenv("POSTGRES_DB", "lab")
		t.Setenv("POSTGRES_DRIVER", "odbc")

		_, err := LoadConfig(noEnvFile(t))
		assert.ErrorContains(t, err, "POSTGRES_DRIVER")
	})

	t.Run("snowflake", func(t *testing.T) {
		t.Setenv("OUTPUT_SINK", SinkSnowflake)
		t.Setenv("SNOWFLAKE_USER", "loader")
		t.Setenv("SNOWFLAKE_PASSWORD", "secret")
		t.Setenv("SNOWFLAKE_ACCOUNT", "acme-lab")
		t.Setenv("SNOWFLAKE_WAREHOUSE", "WH")
		t.Setenv("SNOWFLAKE_ROLE", "LOADER")

		cfg, err := LoadConfig(noEnvFile(t))
		require.NoError(t, err)
		require.NotNil(t, cfg.Snowflake)
		assert.Equal(t, gosnowflake.AuthTypeSnowflake, cfg.Snowflake.Authenticator)
		assert.Contains(t, cfg.Snowflake.ConnectionString(), "loader:secret@acme-lab/RADIATION_FIXTURES/PUBLIC?warehouse=WH")
		assert.Contains(t, cfg.Snowflake.ConnectionString(), "&role=LOADER")
	})
}

func TestParseAuthenticator(t *testing.T) {
	assert.Equal(t, gosnowflake.AuthTypeJwt, parseAuthenticator("JWT"))
	assert.Equal(t, gosnowflake.AuthTypeOAuth, parseAuthenticator("oauth"))
	assert.Equal(t, gosnowflake.AuthTypeSnowflake, parseAuthenticator("unheard-of"))
}

func TestGetEnvAsStringSlice(t *testing.T) {
	t.Setenv("LIST", " a, ,b ,")
	assert.Equal(t, []string{"a", "b"}, getEnvAsStringSlice("LIST", nil))

	t.Setenv("LIST", " , ")
	assert.Equal(t, []string{"x"}, getEnvAsStringSlice("LIST", []string{"x"}))
}
