package testinfra

import (
	"context"
	"os"
	"sync"
	"testing"
)

// ConnEnvVar overrides the shared container with an existing server.
const ConnEnvVar = "NEONSQL_TEST_CONN"

var (
	sharedOnce sync.Once
	sharedConn string
	sharedErr  error
)

// ConnString returns a connection string for a scratch database shared by
// every test in the binary. It skips the test in -short mode, or when neither
// $NEONSQL_TEST_CONN nor Docker is available.
func ConnString(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if s := os.Getenv(ConnEnvVar); s != "" {
		return s
	}

	sharedOnce.Do(func() {
		ctr, err := StartPostgres(context.Background())
		if err != nil {
			sharedErr = err
			return
		}
		sharedConn = ctr.ConnString
	})
	if sharedErr != nil {
		t.Skipf("%s not set and Docker unavailable: %v", ConnEnvVar, sharedErr)
	}
	return sharedConn
}
