package cli

import (
	"context"
	"io"

	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/vvka-141/neonsql/internal/config"
	"github.com/vvka-141/neonsql/internal/db"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// connectionFlags holds the common connection-related flag values.
type connectionFlags struct {
	connection     string
	host           string
	port           int
	username       string
	database       string
	sslMode        string
	sslCert        string
	sslKey         string
	sslRootCert    string
	aws            bool
	awsRegion      string
	azure          bool
	azureTenantID  string
	azureClientID  string
	google         bool
	googleInstance string
}

// addConnectionFlags registers the connection flags shared by every command
// that talks to a database.
func addConnectionFlags(cmd *cobra.Command, f *connectionFlags) {
	flags := cmd.Flags()

	// Connection string flag (mutually exclusive with granular flags)
	flags.StringVar(&f.connection, "connection", "",
		"PostgreSQL connection string (URI or ADO.NET format).\n"+
			"Mutually exclusive with granular flags (--host, --port, --username, --sslmode).\n"+
			"Alternative: $NEONSQL_DATABASE_URL or $DATABASE_URL.\n"+
			"Example: postgresql://alex@ep-cool-darkness-123456.us-east-2.aws.neon.tech/neondb")

	// Granular connection flags (PostgreSQL standard)
	flags.StringVarP(&f.host, "host", "h", "",
		"PostgreSQL server host\n"+
			"Precedence: --host > $PGHOST > neonsql.yaml > localhost")
	flags.IntVarP(&f.port, "port", "p", 0,
		"PostgreSQL server port\n"+
			"Precedence: --port > $PGPORT > neonsql.yaml > 5432")
	flags.StringVarP(&f.username, "username", "U", "",
		"PostgreSQL user (default: $PGUSER or current OS user)")
	flags.StringVarP(&f.database, "database", "d", "",
		"Database name; overrides the database of a connection string\n"+
			"(default: $PGDATABASE, neonsql.yaml, or postgres)")
	flags.StringVar(&f.sslMode, "sslmode", "",
		"SSL mode: disable|allow|prefer|require|verify-ca|verify-full\n"+
			"(default: require, or $PGSSLMODE)")

	// Certificate flags
	flags.StringVar(&f.sslCert, "sslcert", "", "Client certificate file for mTLS (or $PGSSLCERT)")
	flags.StringVar(&f.sslKey, "sslkey", "", "Client private key file for mTLS (or $PGSSLKEY)")
	flags.StringVar(&f.sslRootCert, "sslrootcert", "", "CA certificate used to verify the server (or $PGSSLROOTCERT)")

	// Cloud IAM flags
	flags.BoolVar(&f.aws, "aws", false,
		"Use AWS IAM database authentication (RDS/Aurora)\n"+
			"Credentials come from the default AWS credential chain")
	flags.StringVar(&f.awsRegion, "aws-region", "", "AWS region (overrides $AWS_REGION)")
	flags.BoolVar(&f.azure, "azure", false,
		"Use Azure Entra ID authentication\n"+
			"Service principal when $AZURE_CLIENT_SECRET is set, else DefaultAzureCredential")
	flags.StringVar(&f.azureTenantID, "azure-tenant-id", "", "Azure AD tenant/directory ID (overrides $AZURE_TENANT_ID)")
	flags.StringVar(&f.azureClientID, "azure-client-id", "", "Azure AD application/client ID (overrides $AZURE_CLIENT_ID)")
	flags.BoolVar(&f.google, "google", false, "Use Google Cloud SQL IAM authentication")
	flags.StringVar(&f.googleInstance, "google-instance", "", "Cloud SQL instance connection name (project:region:instance)")

	cmd.MarkFlagsMutuallyExclusive("aws", "azure", "google")
	_ = cmd.RegisterFlagCompletionFunc("sslmode", completeSSLModes)
}

// resolveInput maps the flag values onto the resolver's input.
func (f *connectionFlags) resolveInput(env *db.EnvVars, projectCfg *config.ProjectConfig) db.ResolveInput {
	return db.ResolveInput{
		ConnectionString: f.connection,
		Granular: &db.GranularConnFlags{
			Host:     f.host,
			Port:     f.port,
			Username: f.username,
			Database: f.database,
			SSLMode:  f.sslMode,
		},
		Certs: &db.CertFlags{
			SSLCert:     f.sslCert,
			SSLKey:      f.sslKey,
			SSLRootCert: f.sslRootCert,
		},
		Auth: &db.AuthFlags{
			AWS:            f.aws,
			AWSRegion:      f.awsRegion,
			Azure:          f.azure,
			AzureTenantID:  f.azureTenantID,
			AzureClientID:  f.azureClientID,
			Google:         f.google,
			GoogleInstance: f.googleInstance,
		},
		Env:     env,
		Project: projectCfg,
	}
}

// resolveConnectionFromFlags resolves connection configuration from flags,
// environment and project config.
func resolveConnectionFromFlags(
	flags *connectionFlags,
	projectCfg *config.ProjectConfig,
	logger neonsql.Logger,
) (*neonsql.ConnectionConfig, error) {
	connConfig, err := db.ResolveConnectionParams(flags.resolveInput(db.LoadFromEnvironment(), projectCfg))
	if err != nil {
		return nil, err
	}
	logConnectionVerbose(logger, connConfig)
	return connConfig, nil
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger neonsql.Logger, connConfig *neonsql.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Database: %s", connConfig.Database)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	if connConfig.SSLCert != "" {
		logger.Verbose("  SSL Cert: %s", connConfig.SSLCert)
	}
	if connConfig.SSLKey != "" {
		logger.Verbose("  SSL Key: %s", connConfig.SSLKey)
	}
	if connConfig.SSLRootCert != "" {
		logger.Verbose("  SSL Root Cert: %s", connConfig.SSLRootCert)
	}
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
	logger.Verbose("  URL: %s", db.RedactedConnectionString(connConfig))
}

// newConnector is replaced in tests.
var newConnector = db.NewConnector

// session is one open database connection and the executor over it.
type session struct {
	conn      *pgx.Conn
	exec      *db.ConnExecutor
	connector neonsql.Connector
}

func openSession(ctx context.Context, connConfig *neonsql.ConnectionConfig, logger neonsql.Logger) (*session, error) {
	connector, err := newConnector(connConfig, logger)
	if err != nil {
		return nil, err
	}

	conn, err := connector.Connect(ctx)
	if err != nil {
		if c, ok := connector.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	logger.Verbose("Connected to %s:%d/%s", connConfig.Host, connConfig.Port, connConfig.Database)

	return &session{conn: conn, exec: db.NewConnExecutor(conn), connector: connector}, nil
}

// Close closes the connection, and the connector when it holds resources of its own.
func (s *session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), neonsql.DefaultConnectTimeout)
	defer cancel()
	_ = s.conn.Close(ctx)
	if c, ok := s.connector.(io.Closer); ok {
		_ = c.Close()
	}
}

// withSession resolves the connection, opens it, runs fn and closes it.
func withSession(env *commandEnv, flags *connectionFlags, fn func(ctx context.Context, exec neonsql.QueryExecutor) error) error {
	connConfig, err := resolveConnectionFromFlags(flags, env.project, env.logger)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(env.timeout, env.stderr)
	defer cancel()

	sess, err := openSession(ctx, connConfig, env.logger)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(ctx, sess.exec)
}
