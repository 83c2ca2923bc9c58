package neonsql

import "context"

// Approver handles user confirmation for destructive control-plane operations
// such as deleting a branch.
type Approver interface {
	// RequestApproval asks the user to confirm the operation on the named resource.
	// Returns true if approved, false if denied.
	RequestApproval(ctx context.Context, action, resource string) (bool, error)
}
