package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/vvka-141/neonsql/internal/config"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// GranularConnFlags represents connection parameters from CLI flags.
// These follow PostgreSQL standard flag conventions (-h, -p, -U, -d).
//
// Password is not a flag. Use $PGPASSWORD or a connection string.
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no server-selecting flag was given. Database is
// excluded because -d may override the database of a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.SSLMode == ""
}

// CertFlags carries the TLS file flags.
type CertFlags struct {
	SSLCert     string
	SSLKey      string
	SSLRootCert string
}

// AuthFlags selects a cloud authentication method. At most one of AWS, Azure
// and Google may be set.
type AuthFlags struct {
	AWS       bool
	AWSRegion string

	Azure         bool
	AzureTenantID string // overrides AZURE_TENANT_ID
	AzureClientID string // overrides AZURE_CLIENT_ID

	Google         bool
	GoogleInstance string
}

func (a *AuthFlags) count() int {
	n := 0
	for _, set := range []bool{a.AWS, a.Azure, a.Google} {
		if set {
			n++
		}
	}
	return n
}

// EnvVars represents the environment consulted during resolution.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	NEONSQL_DATABASE_URL string
	DATABASE_URL         string

	PGHOST        string
	PGPORT        string
	PGUSER        string
	PGPASSWORD    string
	PGDATABASE    string
	PGSSLMODE     string
	PGSSLCERT     string
	PGSSLKEY      string
	PGSSLROOTCERT string
	PGAPPNAME     string

	AWS_REGION string

	AZURE_TENANT_ID     string
	AZURE_CLIENT_ID     string
	AZURE_CLIENT_SECRET string
}

// LoadFromEnvironment reads EnvVars from the process environment.
func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		NEONSQL_DATABASE_URL: os.Getenv("NEONSQL_DATABASE_URL"),
		DATABASE_URL:         os.Getenv("DATABASE_URL"),
		PGHOST:               os.Getenv("PGHOST"),
		PGPORT:               os.Getenv("PGPORT"),
		PGUSER:               os.Getenv("PGUSER"),
		PGPASSWORD:           os.Getenv("PGPASSWORD"),
		PGDATABASE:           os.Getenv("PGDATABASE"),
		PGSSLMODE:            os.Getenv("PGSSLMODE"),
		PGSSLCERT:            os.Getenv("PGSSLCERT"),
		PGSSLKEY:             os.Getenv("PGSSLKEY"),
		PGSSLROOTCERT:        os.Getenv("PGSSLROOTCERT"),
		PGAPPNAME:            os.Getenv("PGAPPNAME"),
		AWS_REGION:           os.Getenv("AWS_REGION"),
		AZURE_TENANT_ID:      os.Getenv("AZURE_TENANT_ID"),
		AZURE_CLIENT_ID:      os.Getenv("AZURE_CLIENT_ID"),
		AZURE_CLIENT_SECRET:  os.Getenv("AZURE_CLIENT_SECRET"),
	}
}

// ConnectionURL returns the first non-empty connection string variable.
func (e *EnvVars) ConnectionURL() string {
	if e.NEONSQL_DATABASE_URL != "" {
		return e.NEONSQL_DATABASE_URL
	}
	return e.DATABASE_URL
}

// ResolveInput gathers every source consulted by ResolveConnectionParams.
// Nil members are treated as empty.
type ResolveInput struct {
	ConnectionString string
	Granular         *GranularConnFlags
	Certs            *CertFlags
	Auth             *AuthFlags
	Env              *EnvVars
	Project          *config.ProjectConfig
}

// ResolveConnectionParams resolves connection parameters with this precedence:
//
//  1. --connection flag
//  2. Granular flags (-h, -p, -U, --sslmode)
//  3. $NEONSQL_DATABASE_URL, then $DATABASE_URL, when no granular flag is set
//  4. PG* environment variables
//  5. neonsql.yaml
//  6. Defaults (localhost:5432/postgres, sslmode=require)
//
// -d always overrides the database of a connection string. Giving both
// --connection and granular flags is a configuration error.
func ResolveConnectionParams(in ResolveInput) (*neonsql.ConnectionConfig, error) {
	granular := in.Granular
	if granular == nil {
		granular = &GranularConnFlags{}
	}
	certs := in.Certs
	if certs == nil {
		certs = &CertFlags{}
	}
	auth := in.Auth
	if auth == nil {
		auth = &AuthFlags{}
	}
	env := in.Env
	if env == nil {
		env = &EnvVars{}
	}
	var pc config.ConnectionConfig
	if in.Project != nil {
		pc = in.Project.Connection
	}

	if in.ConnectionString != "" && !granular.IsEmpty() {
		return nil, fmt.Errorf(
			"cannot specify both --connection and granular flags (-h, -p, -U, --sslmode)\n"+
				"Choose one approach:\n"+
				"  1. Connection string: --connection \"postgresql://user@ep-example.neon.tech/neondb\"\n"+
				"  2. Granular flags: -h ep-example.neon.tech -U myuser -d neondb\n"+
				"  3. Environment variables: export PGHOST=ep-example.neon.tech PGUSER=myuser: %w",
			neonsql.ErrInvalidConfig,
		)
	}

	connStr := in.ConnectionString
	if connStr == "" && granular.IsEmpty() {
		connStr = env.ConnectionURL()
	}

	var cfg *neonsql.ConnectionConfig
	var err error
	if connStr != "" {
		cfg, err = ParseConnectionString(connStr)
		if err != nil {
			return nil, fmt.Errorf("invalid connection string: %v: %w", err, neonsql.ErrInvalidConfig)
		}
		if granular.Database != "" {
			cfg.Database = granular.Database
		}
	} else {
		cfg, err = resolveFromGranularParams(granular, env, pc)
		if err != nil {
			return nil, err
		}
	}

	cfg.SSLMode = firstNonEmpty(cfg.SSLMode, env.PGSSLMODE, pc.SSLMode, neonsql.DefaultSSLMode)
	cfg.SSLCert = firstNonEmpty(certs.SSLCert, cfg.SSLCert, env.PGSSLCERT, pc.SSLCert)
	cfg.SSLKey = firstNonEmpty(certs.SSLKey, cfg.SSLKey, env.PGSSLKEY, pc.SSLKey)
	cfg.SSLRootCert = firstNonEmpty(certs.SSLRootCert, cfg.SSLRootCert, env.PGSSLROOTCERT, pc.SSLRootCert)
	cfg.AppName = firstNonEmpty(cfg.AppName, env.PGAPPNAME, neonsql.DefaultAppName)
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = neonsql.DefaultConnectTimeout
	}
	if cfg.Password == "" {
		cfg.Password = env.PGPASSWORD
	}

	if err := applyAuthMethod(cfg, auth, env, pc); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveFromGranularParams builds a config parameter by parameter:
// flag > environment variable > neonsql.yaml > default.
func resolveFromGranularParams(
	flags *GranularConnFlags,
	env *EnvVars,
	pc config.ConnectionConfig,
) (*neonsql.ConnectionConfig, error) {
	cfg := newDefaultConfig()

	cfg.Host = firstNonEmpty(flags.Host, env.PGHOST, pc.Host, cfg.Host)

	switch {
	case flags.Port != 0:
		cfg.Port = flags.Port
	case env.PGPORT != "":
		port, err := strconv.Atoi(env.PGPORT)
		if err != nil {
			return nil, fmt.Errorf("invalid $PGPORT value '%s': must be an integer: %w", env.PGPORT, neonsql.ErrInvalidConfig)
		}
		cfg.Port = port
	case pc.Port != 0:
		cfg.Port = pc.Port
	}

	cfg.Username = firstNonEmpty(flags.Username, env.PGUSER, pc.Username, os.Getenv("USER"), os.Getenv("USERNAME"))
	cfg.Database = firstNonEmpty(flags.Database, env.PGDATABASE, pc.Database, cfg.Database)
	cfg.SSLMode = flags.SSLMode

	return cfg, nil
}

// applyAuthMethod picks the authentication method from flags, falling back to
// auth_method in neonsql.yaml. A client certificate upgrades standard auth to
// certificate auth.
func applyAuthMethod(cfg *neonsql.ConnectionConfig, flags *AuthFlags, env *EnvVars, pc config.ConnectionConfig) error {
	if flags.count() > 1 {
		return fmt.Errorf("--aws, --azure and --google are mutually exclusive: %w", neonsql.ErrInvalidConfig)
	}

	method := neonsql.AuthMethodStandard
	switch {
	case flags.AWS:
		method = neonsql.AuthMethodAWSIAM
	case flags.Azure:
		method = neonsql.AuthMethodAzureEntraID
	case flags.Google:
		method = neonsql.AuthMethodGoogleIAM
	case pc.AuthMethod != "":
		m, err := neonsql.ParseAuthMethod(pc.AuthMethod)
		if err != nil {
			return err
		}
		method = m
	}

	if method == neonsql.AuthMethodStandard && cfg.SSLCert != "" {
		method = neonsql.AuthMethodCertificate
	}
	if method == neonsql.AuthMethodCertificate && (cfg.SSLCert == "" || cfg.SSLKey == "") {
		return fmt.Errorf("certificate auth requires both --sslcert and --sslkey: %w", neonsql.ErrInvalidConfig)
	}
	cfg.AuthMethod = method

	switch method {
	case neonsql.AuthMethodAWSIAM:
		cfg.AWSRegion = firstNonEmpty(flags.AWSRegion, env.AWS_REGION, pc.AWSRegion)
	case neonsql.AuthMethodAzureEntraID:
		cfg.AzureTenantID = firstNonEmpty(flags.AzureTenantID, env.AZURE_TENANT_ID, pc.AzureTenantID)
		cfg.AzureClientID = firstNonEmpty(flags.AzureClientID, env.AZURE_CLIENT_ID, pc.AzureClientID)
		// The secret only ever comes from the environment.
		cfg.AzureClientSecret = env.AZURE_CLIENT_SECRET
	case neonsql.AuthMethodGoogleIAM:
		cfg.GoogleInstance = firstNonEmpty(flags.GoogleInstance, pc.GoogleInstance)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
