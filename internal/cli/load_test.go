package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neonsql/internal/bulkload"
	"github.com/vvka-141/neonsql/internal/config"
	"github.com/vvka-141/neonsql/internal/logging"
	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// parseLoadFlags resets the load flags and parses args against loadCmd.
func parseLoadFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	resetFlags(loadCmd)
	t.Cleanup(func() { resetFlags(loadCmd) })
	require.NoError(t, loadCmd.ParseFlags(args))
	return loadCmd
}

func intPtr(n int) *int { return &n }

func TestBuildLoadConfig_Defaults(t *testing.T) {
	cmd := parseLoadFlags(t, "--table", "events", "--file", "events.csv")

	lc, err := buildLoadConfig(cmd, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, "events", lc.Table)
	assert.Equal(t, "events.csv", lc.FilePath)
	assert.Equal(t, byte(','), lc.Delimiter)
	assert.Equal(t, neonsql.DefaultBatchSize, lc.BatchSize)
}

func TestBuildLoadConfig_ProjectFile(t *testing.T) {
	project := &config.ProjectConfig{Load: config.LoadConfig{Delimiter: "tab", BatchSize: intPtr(0)}}

	cmd := parseLoadFlags(t, "-t", "events", "-f", "events.tsv")
	lc, err := buildLoadConfig(cmd, project, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, byte('\t'), lc.Delimiter)
	assert.Equal(t, 0, lc.BatchSize, "batch_size 0 from the file is honoured")
	assert.Equal(t, time.Minute, lc.Timeout)

	cmd = parseLoadFlags(t, "-t", "events", "-f", "events.tsv", "--delimiter", ";", "--batch-size", "50")
	lc, err = buildLoadConfig(cmd, project, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(';'), lc.Delimiter, "flags beat the file")
	assert.Equal(t, 50, lc.BatchSize)
}

func TestBuildLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"quote delimiter", []string{"-t", "t", "-f", "f", "--delimiter", `"`}},
		{"multi-byte delimiter", []string{"-t", "t", "-f", "f", "--delimiter", "ab"}},
		{"negative batch size", []string{"-t", "t", "-f", "f", "--batch-size", "-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := parseLoadFlags(t, tt.args...)
			_, err := buildLoadConfig(cmd, nil, 0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, neonsql.ErrInvalidConfig))
		})
	}
}

func TestRunLoad(t *testing.T) {
	exec := &fakeExecutor{columns: [][2]string{{"a", "text"}, {"b", "integer"}}}
	lc := &neonsql.LoadConfig{Table: "t", Delimiter: ',', BatchSize: 2}

	var batches []int
	res, err := runLoad(context.Background(), exec, lc,
		strings.NewReader("a,b\nhello,5\nworld,6\nagain,7\n"),
		logging.NewNullLogger(), func(n int) { batches = append(batches, n) })
	require.NoError(t, err)

	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 2, res.Batches)
	assert.Equal(t, int64(3), res.RowsAffected)
	assert.Equal(t, []int{2, 1}, batches)
	require.Len(t, exec.execs, 2)
	assert.Equal(t, `INSERT INTO "t" ("a", "b") VALUES ($1,$2),($3,$4)`, exec.execs[0])
}

func TestRunLoad_PartialFailureIsReported(t *testing.T) {
	exec := &fakeExecutor{
		columns:  [][2]string{{"a", "text"}, {"b", "integer"}},
		execErr:  errors.New("duplicate key value violates unique constraint"),
		failExec: 2,
	}
	lc := &neonsql.LoadConfig{Table: "t", Delimiter: ',', BatchSize: 1}

	var logBuf bytes.Buffer
	res, err := runLoad(context.Background(), exec, lc,
		strings.NewReader("a,b\nx,1\ny,2\nz,3\n"),
		logging.NewWriterLogger(&logBuf, false), func(int) {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, neonsql.ErrExecutionFailed))
	assert.Equal(t, 1, res.Batches)
	assert.Contains(t, logBuf.String(), "1 rows in 1 batches were committed")
}

func TestRunLoad_CoercionErrorBeforeAnyStatement(t *testing.T) {
	exec := &fakeExecutor{columns: [][2]string{{"a", "text"}, {"b", "integer"}}}
	lc := &neonsql.LoadConfig{Table: "t", Delimiter: ',', BatchSize: neonsql.DefaultBatchSize}

	var logBuf bytes.Buffer
	_, err := runLoad(context.Background(), exec, lc,
		strings.NewReader("a,b\nhello,notanumber\n"),
		logging.NewWriterLogger(&logBuf, false), func(int) {})

	var coerceErr *neonsql.TypeCoercionError
	require.True(t, errors.As(err, &coerceErr))
	assert.Equal(t, 1, coerceErr.Row)
	assert.Equal(t, "b", coerceErr.Column)
	assert.Empty(t, exec.execs)
	assert.Empty(t, logBuf.String(), "nothing was committed, so nothing is reported")
	assert.Equal(t, neonsql.ExitDataError, neonsql.ExitCodeForError(err))
}

func TestPrintLoadResult(t *testing.T) {
	res := &bulkload.Result{Table: "public.events", Columns: []string{"a", "b"}, Rows: 7, Batches: 3, RowsAffected: 7}

	var buf bytes.Buffer
	require.NoError(t, printLoadResult(&buf, res, output.FormatJSON))
	assert.JSONEq(t, `{"table":"public.events","columns":["a","b"],"rows":7,"batches":3,"rows_affected":7}`, buf.String())

	buf.Reset()
	require.NoError(t, printLoadResult(&buf, res, output.FormatTable))
	assert.Contains(t, buf.String(), "public.events")
	assert.Contains(t, buf.String(), "rows_affected")
}

func TestOpenSource(t *testing.T) {
	stdin := strings.NewReader("a\n1\n")
	r, closeFn, err := openSource("-", stdin)
	require.NoError(t, err)
	assert.Same(t, stdin, r)
	closeFn()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1\n"), 0o644))
	r, closeFn, err = openSource(path, nil)
	require.NoError(t, err)
	assert.NotNil(t, r)
	closeFn()

	_, _, err = openSource(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.True(t, errors.Is(err, neonsql.ErrInvalidConfig))
}
