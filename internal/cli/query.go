package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Run a query and print the rows it returns",
	Long: `Query runs one SQL statement and prints the returned rows as a table
(default) or as JSON.

Every column is rendered from its runtime type: text, integers, floats,
booleans and timestamps print as values, NULL prints as an empty cell
(null in JSON), and any other type prints as CANNOT PARSE.

Examples:
  # Query using a connection string from the environment
  export NEONSQL_DATABASE_URL="postgresql://alex@ep-x.us-east-2.aws.neon.tech/neondb"
  neonsql query --sql "SELECT id, name FROM users LIMIT 5"

  # JSON output for scripts
  neonsql query -s "SELECT now()" -o json

  # Read the statement from a file
  neonsql query --file report.sql -h ep-x.us-east-2.aws.neon.tech -U alex -d neondb`,
	Args: cobra.NoArgs,
	RunE: runQueryCmd,
}

type queryFlagValues struct {
	conn connectionFlags
	sql  string
	file string
}

var queryFlags queryFlagValues

func init() {
	rootCmd.AddCommand(queryCmd)

	addConnectionFlags(queryCmd, &queryFlags.conn)
	queryCmd.Flags().StringVarP(&queryFlags.sql, "sql", "s", "", "SQL statement to run")
	queryCmd.Flags().StringVarP(&queryFlags.file, "file", "f", "", "Read the SQL from a file ('-' for stdin)")
	queryCmd.MarkFlagsMutuallyExclusive("sql", "file")
	queryCmd.MarkFlagsOneRequired("sql", "file")
	_ = queryCmd.RegisterFlagCompletionFunc("file", completeSQLFiles)
}

func runQueryCmd(cmd *cobra.Command, args []string) error {
	env, err := prepareCommand(cmd)
	if err != nil {
		return err
	}

	sql, err := resolveSQL(queryFlags.sql, queryFlags.file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withSession(env, &queryFlags.conn, func(ctx context.Context, exec neonsql.QueryExecutor) error {
		env.logger.Verbose("Executing query: %s", neonsql.PreviewSQL(sql))
		return runQuery(ctx, exec, sql, env.format, env.stdout)
	})
}

// runQuery executes sql and prints the result set in format.
func runQuery(ctx context.Context, exec neonsql.QueryExecutor, sql string, format output.Format, w io.Writer) error {
	rs, err := exec.Query(ctx, sql)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.ResultJSON(w, rs)
	}
	return output.ResultTable(w, rs)
}

// resolveSQL returns the statement given inline or read from file.
func resolveSQL(inline, file string, stdin io.Reader) (string, error) {
	switch {
	case inline != "" && file != "":
		return "", fmt.Errorf("--sql and --file cannot be used together: %w", neonsql.ErrInvalidConfig)
	case inline != "":
		return inline, nil
	case file == "":
		return "", fmt.Errorf("either --sql or --file is required: %w", neonsql.ErrInvalidConfig)
	}

	var (
		data []byte
		err  error
	)
	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read SQL file '%s': %w", file, err)
	}

	sql := string(data)
	if strings.TrimSpace(sql) == "" {
		return "", fmt.Errorf("SQL file '%s' is empty: %w", file, neonsql.ErrInvalidConfig)
	}
	return sql, nil
}
