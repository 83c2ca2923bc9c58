// Package bulkload loads delimited text files into a table through batched,
// parameterised multi-row INSERT statements.
//
// The destination schema is fetched once per load and drives how each field
// is coerced. Every column type is checked before the first record is read.
package bulkload

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5"

	"github.com/vvka-141/neonsql/internal/schema"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// Option configures a Loader.
type Option func(*Loader)

// WithBatchSize sets the number of records per INSERT. Zero sends the whole
// file in one statement, subject to the bind parameter limit.
func WithBatchSize(n int) Option {
	return func(l *Loader) {
		l.batchSize = n
	}
}

// WithOnBatch registers a callback invoked after each statement succeeds.
// rows is the number of records in that statement.
func WithOnBatch(fn func(rows int)) Option {
	return func(l *Loader) {
		l.onBatch = fn
	}
}

// Loader runs loads against a single executor. It is not safe for concurrent use.
type Loader struct {
	exec      neonsql.QueryExecutor
	logger    neonsql.Logger
	batchSize int
	onBatch   func(rows int)
}

// New creates a Loader.
func New(exec neonsql.QueryExecutor, logger neonsql.Logger, opts ...Option) *Loader {
	l := &Loader{
		exec:      exec,
		logger:    logger,
		batchSize: neonsql.DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result summarises a completed load.
type Result struct {
	Table        string
	Columns      []string
	Rows         int
	Batches      int
	RowsAffected int64
}

// Load reads src, whose first line is a header, and inserts every data record
// into table. Statements already executed stay committed if a later record or
// statement fails.
func (l *Loader) Load(ctx context.Context, table string, src io.Reader, delimiter byte) (*Result, error) {
	if err := neonsql.ValidateDelimiter(delimiter); err != nil {
		return nil, err
	}
	if l.batchSize < 0 {
		return nil, fmt.Errorf("batch size cannot be negative: %w", neonsql.ErrInvalidConfig)
	}

	name, err := schema.ParseTableName(table)
	if err != nil {
		return nil, err
	}

	columns, err := schema.Lookup(ctx, l.exec, name)
	if err != nil {
		return nil, err
	}
	if err := schema.CheckLoadable(columns); err != nil {
		return nil, err
	}
	names := schema.Names(columns)
	l.logger.Verbose("Loading %s with %d columns: %v", name, len(columns), names)

	chunk := chunkSize(l.batchSize, len(columns))
	l.logger.Verbose("Sending up to %d records per statement", chunk)

	result := &Result{Table: name.String(), Columns: names}
	ident := pgx.Identifier(name.Parts())
	pending := make([][]Param, 0, min(chunk, neonsql.DefaultBatchSize))

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		batch := NewBatch(ident, names, pending)
		sql := batch.SQL()
		affected, err := l.exec.Exec(ctx, sql, batch.Args()...)
		if err != nil {
			var execErr *neonsql.ExecutionError
			if !errors.As(err, &execErr) {
				err = &neonsql.ExecutionError{SQL: sql, Err: err}
			}
			return err
		}
		result.Batches++
		result.RowsAffected += affected
		l.logger.Verbose("Batch %d: %d records, %d rows affected", result.Batches, len(pending), affected)
		if l.onBatch != nil {
			l.onBatch(len(pending))
		}
		pending = pending[:0]
		return nil
	}

	rr := newRecordReader(src, delimiter)
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("%w: %w", neonsql.ErrInvalidRecord, err)
		}

		row, err := coerceRecord(columns, rec)
		if err != nil {
			return result, err
		}
		pending = append(pending, row)
		result.Rows++

		if len(pending) == chunk {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}

	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

func coerceRecord(columns []schema.Column, rec record) ([]Param, error) {
	if len(rec.Fields) != len(columns) {
		return nil, &neonsql.RecordError{Row: rec.Row, Line: rec.Line, Want: len(columns), Got: len(rec.Fields)}
	}
	row := make([]Param, len(columns))
	for i, col := range columns {
		p, err := Coerce(col.Kind, rec.Fields[i])
		if err != nil {
			return nil, &neonsql.TypeCoercionError{
				Row:    rec.Row,
				Line:   rec.Line,
				Column: col.Name,
				Type:   col.DataType,
				Value:  rec.Fields[i],
				Err:    err,
			}
		}
		row[i] = p
	}
	return row, nil
}

// chunkSize returns the records per statement for batchSize, never exceeding
// the protocol's bind parameter limit.
func chunkSize(batchSize, numColumns int) int {
	limit := neonsql.MaxBindParameters / numColumns
	if batchSize == 0 || batchSize > limit {
		return limit
	}
	return batchSize
}
