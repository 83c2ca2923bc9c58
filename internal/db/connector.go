package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// configureConn applies settings shared by every connector.
// Server notices (RAISE NOTICE and friends) are forwarded to the logger.
func configureConn(connConfig *pgx.ConnConfig, logger neonsql.Logger) {
	connConfig.OnNotice = func(_ *pgconn.PgConn, notice *pgconn.Notice) {
		logger.Info("%s: %s", notice.Severity, notice.Message)
	}
}

// StandardConnector connects with a password, a client certificate or no
// credentials at all. TLS settings come from the sslmode, sslrootcert,
// sslcert and sslkey parameters.
type StandardConnector struct {
	config *neonsql.ConnectionConfig
	logger neonsql.Logger
}

// NewStandardConnector creates a new StandardConnector with the given configuration.
func NewStandardConnector(config *neonsql.ConnectionConfig, logger neonsql.Logger) *StandardConnector {
	return &StandardConnector{config: config, logger: logger}
}

// Connect opens a single connection. There is no retry; a failed attempt is
// reported immediately.
func (c *StandardConnector) Connect(ctx context.Context) (*pgx.Conn, error) {
	return connect(ctx, c.config, c.logger)
}

func connect(ctx context.Context, config *neonsql.ConnectionConfig, logger neonsql.Logger) (*pgx.Conn, error) {
	connConfig, err := pgx.ParseConfig(BuildConnectionString(config))
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %v: %w", err, neonsql.ErrInvalidConfig)
	}
	configureConn(connConfig, logger)

	logger.Verbose("Connecting to %s", RedactedConnectionString(config))
	conn, err := pgx.ConnectConfig(ctx, connConfig)
	if err != nil {
		return nil, wrapConnectionError(err, config.Host, config.Port, config.Database)
	}
	return conn, nil
}

// NewConnector is a factory function that creates the appropriate Connector
// based on the ConnectionConfig's AuthMethod.
func NewConnector(config *neonsql.ConnectionConfig, logger neonsql.Logger) (neonsql.Connector, error) {
	switch config.AuthMethod {
	case neonsql.AuthMethodStandard, neonsql.AuthMethodCertificate:
		return NewStandardConnector(config, logger), nil
	case neonsql.AuthMethodAWSIAM:
		return newAWSConnector(config, logger)
	case neonsql.AuthMethodGoogleIAM:
		return newGoogleConnector(config, logger)
	case neonsql.AuthMethodAzureEntraID:
		return newAzureConnector(config, logger)
	default:
		return nil, fmt.Errorf("unsupported auth method %v: %w", config.AuthMethod, neonsql.ErrUnsupportedAuthMethod)
	}
}

// connectionError keeps the guidance text separate from the pgx error so
// that both errors.Is(err, ErrConnectionFailed) and the pgx cause are reachable.
type connectionError struct {
	msg string
	err error
}

func (e *connectionError) Error() string {
	return fmt.Sprintf("%s\n\nOriginal error: %v", e.msg, e.err)
}

func (e *connectionError) Unwrap() []error { return []error{neonsql.ErrConnectionFailed, e.err} }

// wrapConnectionError wraps raw pgx connection errors with actionable guidance.
func wrapConnectionError(err error, host string, port int, database string) error {
	if errors.Is(err, context.Canceled) {
		return err
	}

	errStr := strings.ToLower(err.Error())
	addr := fmt.Sprintf("%s:%d", host, port)

	var msg string
	switch {
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "actively refused"):
		msg = fmt.Sprintf(`connection refused to %s

Possible causes:
  - PostgreSQL is not running (check: pg_isready -h %s -p %d)
  - Wrong host or port`, addr, host, port)

	case strings.Contains(errStr, "no such host") || strings.Contains(errStr, "no host"):
		msg = fmt.Sprintf(`cannot resolve host "%s"

Possible causes:
  - Hostname is misspelled (Neon hosts look like ep-name-123456.region.aws.neon.tech)
  - DNS is not configured or reachable`, host)

	case strings.Contains(errStr, "password authentication failed"):
		msg = fmt.Sprintf(`password authentication failed for database "%s"

Possible causes:
  - Wrong password (check $PGPASSWORD or the connection string)
  - Wrong username or role`, database)

	case strings.Contains(errStr, "endpoint") && strings.Contains(errStr, "not found"):
		msg = fmt.Sprintf(`Neon endpoint for %s was not found

Possible causes:
  - The endpoint or branch was deleted
  - The client does not send SNI; pass options=endpoint%%3D<endpoint-id>`, host)

	case strings.Contains(errStr, "does not exist"):
		msg = fmt.Sprintf(`database "%s" does not exist

List databases with: neonsql query -d postgres --sql "SELECT datname FROM pg_database"`, database)

	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(errStr, "timeout") || strings.Contains(errStr, "timed out"):
		msg = fmt.Sprintf(`connection timed out to %s

Possible causes:
  - The compute endpoint is waking up from suspend (retry or raise --timeout)
  - Firewall silently dropping packets`, addr)

	case strings.Contains(errStr, "ssl") || strings.Contains(errStr, "tls"):
		msg = `SSL/TLS connection error

Possible causes:
  - Server requires SSL but --sslmode is wrong
  - Certificate verification failed (check --sslrootcert or try --sslmode=require)
  - Client certificates missing (check --sslcert, --sslkey)`

	case strings.Contains(errStr, "too many connections"):
		msg = fmt.Sprintf(`too many connections to database "%s"

Possible causes:
  - max_connections reached for the compute size
  - Use the pooled (-pooler) hostname for short-lived clients`, database)

	default:
		msg = "failed to connect to database"
	}

	return &connectionError{msg: msg, err: err}
}

// newAWSConnector creates a token-based connector with the AWS IAM token provider.
func newAWSConnector(config *neonsql.ConnectionConfig, logger neonsql.Logger) (neonsql.Connector, error) {
	endpoint := fmt.Sprintf("%s:%d", config.Host, config.Port)

	tokenProvider, err := NewAWSIAMTokenProvider(endpoint, config.AWSRegion, config.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS IAM token provider: %v: %w", err, neonsql.ErrInvalidConfig)
	}

	return NewTokenBasedConnector(config, tokenProvider, "AWS IAM", logger), nil
}

// newGoogleConnector creates a GoogleCloudSQLConnector for Google Cloud SQL IAM authentication.
func newGoogleConnector(config *neonsql.ConnectionConfig, logger neonsql.Logger) (neonsql.Connector, error) {
	if config.GoogleInstance == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires --google-instance (project:region:instance): %w", neonsql.ErrInvalidConfig)
	}
	if config.Username == "" {
		return nil, fmt.Errorf("Google Cloud SQL IAM auth requires username (-U): %w", neonsql.ErrInvalidConfig)
	}

	return NewGoogleCloudSQLConnector(config, config.GoogleInstance, logger), nil
}

// newAzureConnector uses Service Principal auth when tenant, client and secret
// are all present and the DefaultAzureCredential chain otherwise.
func newAzureConnector(config *neonsql.ConnectionConfig, logger neonsql.Logger) (neonsql.Connector, error) {
	var tokenProvider TokenProvider
	var err error

	if config.AzureTenantID != "" && config.AzureClientID != "" && config.AzureClientSecret != "" {
		tokenProvider, err = NewAzureServicePrincipalProvider(
			config.AzureTenantID,
			config.AzureClientID,
			config.AzureClientSecret,
		)
	} else {
		tokenProvider, err = NewAzureDefaultCredentialProvider()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure token provider: %v: %w", err, neonsql.ErrInvalidConfig)
	}

	return NewTokenBasedConnector(config, tokenProvider, "Azure", logger), nil
}
