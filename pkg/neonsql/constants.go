package neonsql

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Command completed successfully
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Invalid configuration or parameters
	ExitConnectionError = 11 // Failed to connect to database
	ExitApprovalDenied  = 12 // User denied a destructive operation
	ExitExecutionFailed = 13 // SQL execution failed
	ExitSchemaError     = 14 // Destination table could not be resolved
	ExitDataError       = 15 // Source data could not be coerced
	ExitAPIError        = 16 // Neon control-plane request failed
)

const (
	// DefaultSSLMode is used when no sslmode is configured.
	// Neon only accepts TLS connections.
	DefaultSSLMode = "require"

	// DefaultPort is the PostgreSQL server port used when none is configured.
	DefaultPort = 5432

	// DefaultDatabase is the database used when none is configured.
	DefaultDatabase = "postgres"

	// DefaultAppName is reported as application_name to the server.
	DefaultAppName = "neonsql"

	// DefaultDelimiter separates fields in load source files.
	DefaultDelimiter = ','

	// DefaultBatchSize is the number of source records sent per INSERT statement.
	DefaultBatchSize = 1000

	// MaxBindParameters is the PostgreSQL protocol limit on parameters per statement.
	MaxBindParameters = 65535

	// DefaultConnectTimeout bounds the TCP/TLS handshake.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultAPITimeout bounds a single Neon control-plane request.
	DefaultAPITimeout = 30 * time.Second

	// DefaultForceApprovalCountdown is how long --force waits before a
	// destructive control-plane call, leaving time for Ctrl+C.
	DefaultForceApprovalCountdown = 3 * time.Second

	// MaxErrorPreviewLength is the maximum number of characters shown
	// in error messages when previewing a failed statement.
	MaxErrorPreviewLength = 200
)
