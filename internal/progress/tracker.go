package progress

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Tracker counts loaded rows and, when a bar is attached, draws it.
// The total is unknown while the file streams, so the bar is a spinner with a count.
type Tracker struct {
	out       io.Writer
	bar       *progressbar.ProgressBar
	current   atomic.Int64
	batches   atomic.Int64
	startTime time.Time
}

// New creates a tracker writing to out. With showBar false only the
// counters are kept and Finish prints the summary line alone.
func New(out io.Writer, showBar bool) *Tracker {
	t := &Tracker{
		out:       out,
		startTime: time.Now(),
	}
	if showBar {
		t.bar = progressbar.NewOptions64(
			-1,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("Loading"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(40),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("rows"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	}
	return t
}

// AddBatch records one executed batch of n rows. It matches the
// bulkload.WithOnBatch callback signature.
func (t *Tracker) AddBatch(n int) {
	t.batches.Add(1)
	t.current.Add(int64(n))
	if t.bar != nil {
		_ = t.bar.Add(n)
	}
}

// Current returns the number of rows recorded so far.
func (t *Tracker) Current() int64 {
	return t.current.Load()
}

// Batches returns the number of batches recorded so far.
func (t *Tracker) Batches() int64 {
	return t.batches.Load()
}

// Finish stops the bar and prints the summary.
func (t *Tracker) Finish() {
	if t.bar != nil {
		_ = t.bar.Finish()
		fmt.Fprintln(t.out)
	}

	elapsed := time.Since(t.startTime)
	rowsPerSec := 0.0
	if s := elapsed.Seconds(); s > 0 {
		rowsPerSec = float64(t.current.Load()) / s
	}

	fmt.Fprintf(t.out, "Loaded %d rows in %d batches in %s (%.0f rows/sec)\n",
		t.current.Load(), t.batches.Load(), elapsed.Round(time.Millisecond), rowsPerSec)
}
