package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// resetFlags restores every flag in the command tree to its default.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// executeCommand runs the root command with args and captures its output.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	resetFlags(rootCmd)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeExecutor answers catalog queries from columns and everything else from result.
type fakeExecutor struct {
	columns  [][2]string
	result   *neonsql.ResultSet
	queryErr error

	affected int64
	execErr  error
	failExec int // fail the nth Exec call (1-based); 0 fails every call when execErr is set

	queries []string
	execs   []string
}

func (f *fakeExecutor) Query(_ context.Context, sql string, _ ...any) (*neonsql.ResultSet, error) {
	f.queries = append(f.queries, sql)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	if strings.Contains(sql, "information_schema.columns") {
		rs := &neonsql.ResultSet{Fields: []neonsql.Field{{Name: "column_name", TypeName: "name"}, {Name: "data_type", TypeName: "varchar"}}}
		for _, c := range f.columns {
			rs.Rows = append(rs.Rows, []any{c[0], c[1]})
		}
		return rs, nil
	}
	return f.result, nil
}

func (f *fakeExecutor) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	f.execs = append(f.execs, sql)
	if f.execErr != nil && (f.failExec == 0 || f.failExec == len(f.execs)) {
		return 0, f.execErr
	}
	if f.affected != 0 {
		return f.affected, nil
	}
	return int64(strings.Count(sql, "),(") + 1), nil
}
