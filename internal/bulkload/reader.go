package bulkload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// recordReader yields the data records of a delimited file. The first line is
// the header and is consumed on the first call to next.
type recordReader struct {
	r          *csv.Reader
	headerRead bool
	row        int
}

func newRecordReader(src io.Reader, delimiter byte) *recordReader {
	r := csv.NewReader(src)
	r.Comma = rune(delimiter)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false
	return &recordReader{r: r}
}

// record is one data line. Row counts data records from 1; Line is the
// 1-based source line the record starts on.
type record struct {
	Row    int
	Line   int
	Fields []string
}

// next returns io.EOF once the source is exhausted.
func (rr *recordReader) next() (record, error) {
	if !rr.headerRead {
		rr.headerRead = true
		if _, err := rr.r.Read(); err != nil {
			if errors.Is(err, io.EOF) {
				return record{}, io.EOF
			}
			return record{}, fmt.Errorf("failed to read header: %w", err)
		}
	}

	fields, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return record{}, io.EOF
		}
		return record{}, fmt.Errorf("failed to read record %d: %w", rr.row+1, err)
	}
	rr.row++
	line, _ := rr.r.FieldPos(0)
	return record{Row: rr.row, Line: line, Fields: fields}, nil
}
