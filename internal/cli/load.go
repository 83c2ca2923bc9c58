package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neonsql/internal/bulkload"
	"github.com/vvka-141/neonsql/internal/config"
	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/internal/progress"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk load a delimited text file into an existing table",
	Long: `Load reads a delimited text file whose first line is a header and inserts
every following record into an existing table.

Fields are matched to columns by position, in the table's column order, and
parsed according to each column's declared type. Supported column types are
text, varchar, char, name, smallint, integer, bigint, real, double precision
and boolean. Tables with any other column type are rejected before the file
is read.

Records are sent in batches of --batch-size rows, one INSERT per batch.
Each batch commits on its own: if a later batch fails, earlier batches stay
in the table. --batch-size 0 sends the whole file as a single statement
(still capped at 65535 bind parameters per statement).

Examples:
  neonsql load --table events --file events.csv
  neonsql load -t analytics.visits -f visits.tsv --delimiter tab
  neonsql load -t events -f big.csv --batch-size 5000 -o json`,
	Args: cobra.NoArgs,
	RunE: runLoadCmd,
}

type loadFlagValues struct {
	conn       connectionFlags
	table      string
	file       string
	delimiter  string
	batchSize  int
	noProgress bool
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)

	addConnectionFlags(loadCmd, &loadFlags.conn)
	loadCmd.Flags().StringVarP(&loadFlags.table, "table", "t", "",
		"Destination table, optionally schema-qualified (public.events)")
	loadCmd.Flags().StringVarP(&loadFlags.file, "file", "f", "",
		"Delimited source file; the first line is a header ('-' for stdin)")
	loadCmd.Flags().StringVar(&loadFlags.delimiter, "delimiter", "",
		"Field delimiter, a single character or 'tab' (default: load.delimiter from neonsql.yaml, else ',')")
	loadCmd.Flags().IntVar(&loadFlags.batchSize, "batch-size", neonsql.DefaultBatchSize,
		"Records per INSERT statement; 0 sends the whole file at once")
	loadCmd.Flags().BoolVar(&loadFlags.noProgress, "no-progress", false,
		"Do not draw the progress bar")

	_ = loadCmd.MarkFlagRequired("table")
	_ = loadCmd.MarkFlagRequired("file")
	_ = loadCmd.RegisterFlagCompletionFunc("delimiter", completeDelimiters)
	_ = loadCmd.RegisterFlagCompletionFunc("file", completeDataFiles)
}

// buildLoadConfig merges the load flags with the load section of neonsql.yaml.
// Flags given on the command line win.
func buildLoadConfig(cmd *cobra.Command, projectCfg *config.ProjectConfig, timeout time.Duration) (*neonsql.LoadConfig, error) {
	delimiter := loadFlags.delimiter
	if delimiter == "" && projectCfg != nil {
		delimiter = projectCfg.Load.Delimiter
	}
	d, err := neonsql.ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}

	batchSize := loadFlags.batchSize
	if !flagChanged(cmd, "batch-size") && projectCfg != nil && projectCfg.Load.BatchSize != nil {
		batchSize = *projectCfg.Load.BatchSize
	}

	lc := &neonsql.LoadConfig{
		Table:     loadFlags.table,
		FilePath:  loadFlags.file,
		Delimiter: d,
		BatchSize: batchSize,
		Timeout:   timeout,
		Verbose:   globalFlags.verbose,
	}
	if err := lc.Validate(); err != nil {
		return nil, err
	}
	return lc, nil
}

func runLoadCmd(cmd *cobra.Command, args []string) error {
	env, err := prepareCommand(cmd)
	if err != nil {
		return err
	}

	lc, err := buildLoadConfig(cmd, env.project, env.timeout)
	if err != nil {
		return err
	}

	src, closeSrc, err := openSource(lc.FilePath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer closeSrc()

	showBar := !loadFlags.noProgress && isTerminal(os.Stderr)
	tracker := progress.New(env.stderr, showBar)

	return withSession(env, &loadFlags.conn, func(ctx context.Context, exec neonsql.QueryExecutor) error {
		env.logger.Verbose("Loading %s into %s (delimiter %q, batch size %d)",
			lc.FilePath, lc.Table, lc.Delimiter, lc.BatchSize)

		res, err := runLoad(ctx, exec, lc, src, env.logger, tracker.AddBatch)
		if showBar {
			tracker.Finish()
		}
		if err != nil {
			return err
		}
		return printLoadResult(env.stdout, res, env.format)
	})
}

// runLoad loads src into lc.Table through exec. When the load fails after
// some batches committed, the partial progress is logged.
func runLoad(
	ctx context.Context,
	exec neonsql.QueryExecutor,
	lc *neonsql.LoadConfig,
	src io.Reader,
	logger neonsql.Logger,
	onBatch func(rows int),
) (*bulkload.Result, error) {
	loader := bulkload.New(exec, logger,
		bulkload.WithBatchSize(lc.BatchSize),
		bulkload.WithOnBatch(onBatch),
	)

	res, err := loader.Load(ctx, lc.Table, src, lc.Delimiter)
	if err != nil {
		if res != nil && res.Batches > 0 {
			logger.Error("%d rows in %d batches were committed to %s before the failure", res.RowsAffected, res.Batches, res.Table)
		}
		return res, err
	}
	return res, nil
}

func printLoadResult(w io.Writer, res *bulkload.Result, format output.Format) error {
	if format == output.FormatJSON {
		return output.JSON(w, struct {
			Table        string   `json:"table"`
			Columns      []string `json:"columns"`
			Rows         int      `json:"rows"`
			Batches      int      `json:"batches"`
			RowsAffected int64    `json:"rows_affected"`
		}{res.Table, res.Columns, res.Rows, res.Batches, res.RowsAffected})
	}
	return output.Table(w,
		[]string{"table", "rows", "batches", "rows_affected"},
		[][]string{{
			res.Table,
			strconv.Itoa(res.Rows),
			strconv.Itoa(res.Batches),
			strconv.FormatInt(res.RowsAffected, 10),
		}},
	)
}

// openSource opens path for reading; "-" is stdin.
func openSource(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open source file '%s': %w: %w", path, neonsql.ErrInvalidConfig, err)
	}
	return f, func() { _ = f.Close() }, nil
}
