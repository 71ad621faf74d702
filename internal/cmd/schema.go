package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/David-Botos/radiation-fixtures/pkg/audit"
	"github.com/David-Botos/radiation-fixtures/pkg/config"
	"github.com/David-Botos/radiation-fixtures/pkg/converter"
	"github.com/David-Botos/radiation-fixtures/pkg/model"
)

func newSchemaCommand() *cobra.Command {
	var (
		schema    string
		table     string
		withAudit bool
	)

	schemaCmd := &cobra.Command{
		Use:   "schema [postgres|snowflake]",
		Short: "Print the CREATE TABLE statement for a database sink",
		Long: `Print the DDL of the dataset table, and optionally of the
corrupted_on_generation tracking table, for PostgreSQL or Snowflake.

Examples:
  radfixtures schema postgres
  radfixtures schema snowflake --schema LAB --audit`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(converter.DialectPostgres), string(converter.DialectSnowflake)},
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect := converter.Dialect(args[0])
			if dialect != converter.DialectPostgres && dialect != converter.DialectSnowflake {
				return fmt.Errorf("unknown dialect %q", args[0])
			}

			cfg := converter.DefaultConfig()
			cfg.Dialect = dialect
			conv := converter.NewTypeConverterWithConfig(zap.NewNop(), cfg)

			tables := []*model.TableMetadata{model.NewTableMetadata(schema, table)}
			if withAudit {
				tables = append(tables, audit.Metadata(schema))
			}

			for _, md := range tables {
				stmt, err := conv.CreateTableStatement(md)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n\n", stmt)
			}
			return nil
		},
	}

	schemaCmd.Flags().StringVar(&schema, "schema", config.DefaultOutputSchema, "schema of the table")
	schemaCmd.Flags().StringVar(&table, "table", config.DefaultOutputTable, "table name")
	schemaCmd.Flags().BoolVar(&withAudit, "audit", false, "also print the corruption tracking table")

	return schemaCmd
}
