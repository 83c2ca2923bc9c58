package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// ForcedApprover approves without a prompt after a short countdown.
// It backs the --force flag.
type ForcedApprover struct {
	verbose bool
	output  io.Writer
	sleepFn func(time.Duration)
}

// NewForcedApprover creates a new ForcedApprover writing to stderr.
func NewForcedApprover(verbose bool) neonsql.Approver {
	return &ForcedApprover{verbose: verbose, output: os.Stderr, sleepFn: time.Sleep}
}

// RequestApproval counts down and then approves. Cancelling ctx aborts.
func (a *ForcedApprover) RequestApproval(ctx context.Context, action, resource string) (bool, error) {
	fmt.Fprintf(a.output, "\nDANGER: --force given, about to %s '%s'\n", action, resource)

	countdownSeconds := int(neonsql.DefaultForceApprovalCountdown.Seconds())
	for i := countdownSeconds; i > 0; i-- {
		select {
		case <-ctx.Done():
			fmt.Fprintln(a.output)
			return false, ctx.Err()
		default:
			fmt.Fprintf(a.output, "\rProceeding in: %d seconds... (Press Ctrl+C to cancel)", i)
			a.sleepFn(time.Second)
		}
	}
	if err := ctx.Err(); err != nil {
		fmt.Fprintln(a.output)
		return false, err
	}

	fmt.Fprintf(a.output, "\r✓ Proceeding to %s...                              \n", action)
	return true, nil
}

var _ neonsql.Approver = (*ForcedApprover)(nil)
