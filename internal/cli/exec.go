package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

var execCmd = &cobra.Command{
	Use:   "exec",
	Short: "Run SQL statements and report affected rows",
	Long: `Exec runs SQL that returns no rows: DDL, DML or a whole script.

Without bind parameters the statements go over the simple query protocol,
so a file may hold several statements separated by semicolons. They run as
one implicit transaction unless the script manages its own.

Examples:
  neonsql exec --sql "CREATE TABLE t (a text, b integer)"
  neonsql exec --file schema.sql --connection "$DATABASE_URL"
  cat seed.sql | neonsql exec --file -`,
	Args: cobra.NoArgs,
	RunE: runExecCmd,
}

type execFlagValues struct {
	conn connectionFlags
	sql  string
	file string
}

var execFlags execFlagValues

func init() {
	rootCmd.AddCommand(execCmd)

	addConnectionFlags(execCmd, &execFlags.conn)
	execCmd.Flags().StringVarP(&execFlags.sql, "sql", "s", "", "SQL to run")
	execCmd.Flags().StringVarP(&execFlags.file, "file", "f", "", "Read the SQL from a file ('-' for stdin)")
	execCmd.MarkFlagsMutuallyExclusive("sql", "file")
	execCmd.MarkFlagsOneRequired("sql", "file")
	_ = execCmd.RegisterFlagCompletionFunc("file", completeSQLFiles)
}

func runExecCmd(cmd *cobra.Command, args []string) error {
	env, err := prepareCommand(cmd)
	if err != nil {
		return err
	}

	sql, err := resolveSQL(execFlags.sql, execFlags.file, cmd.InOrStdin())
	if err != nil {
		return err
	}

	return withSession(env, &execFlags.conn, func(ctx context.Context, exec neonsql.QueryExecutor) error {
		env.logger.Verbose("Executing: %s", neonsql.PreviewSQL(sql))
		return runExec(ctx, exec, sql, env.format, env.stdout)
	})
}

// runExec executes sql and prints the affected row count.
func runExec(ctx context.Context, exec neonsql.QueryExecutor, sql string, format output.Format, w io.Writer) error {
	n, err := exec.Exec(ctx, sql)
	if err != nil {
		return err
	}
	if format == output.FormatJSON {
		return output.JSON(w, struct {
			RowsAffected int64 `json:"rows_affected"`
		}{n})
	}
	_, err = fmt.Fprintf(w, "%d rows affected\n", n)
	return err
}
