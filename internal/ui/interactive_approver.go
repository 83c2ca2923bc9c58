package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// InteractiveApprover asks the user to type the resource name before a
// destructive operation.
type InteractiveApprover struct {
	verbose bool
	input   io.Reader
	output  io.Writer
}

// NewInteractiveApprover creates a new InteractiveApprover on stdin/stderr.
func NewInteractiveApprover(verbose bool) neonsql.Approver {
	return &InteractiveApprover{verbose: verbose, input: os.Stdin, output: os.Stderr}
}

// RequestApproval prompts for the resource name and approves only on an exact match.
func (a *InteractiveApprover) RequestApproval(ctx context.Context, action, resource string) (bool, error) {
	fmt.Fprintf(a.output, "\n⚠️  WARNING: You are about to %s '%s'\n", action, resource)
	fmt.Fprintln(a.output, "This will permanently delete its data and cannot be undone!")
	fmt.Fprintf(a.output, "\nTo confirm, type '%s' and press Enter: ", resource)

	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		reader := bufio.NewReader(a.input)
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			errChan <- err
			return
		}
		inputChan <- strings.TrimSpace(input)
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case err := <-errChan:
		return false, fmt.Errorf("failed to read input: %w", err)
	case input := <-inputChan:
		if input == resource {
			fmt.Fprintln(a.output, "✓ Confirmed.")
			return true, nil
		}
		fmt.Fprintf(a.output, "✗ Input '%s' does not match '%s'. Operation cancelled.\n", input, resource)
		return false, nil
	}
}

var _ neonsql.Approver = (*InteractiveApprover)(nil)
