package neonsql

import (
	"errors"
	"fmt"
	"time"
)

// ConnectionConfig represents parsed connection parameters.
type ConnectionConfig struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string

	// Client certificate authentication (mTLS) and server verification.
	SSLRootCert string
	SSLCert     string
	SSLKey      string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	// Additional connection parameters
	AppName          string
	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS RDS IAM authentication (used when AuthMethod is AuthMethodAWSIAM)
	AWSRegion string

	// Google Cloud SQL IAM authentication (used when AuthMethod is AuthMethodGoogleIAM).
	// Instance connection name in the form project:region:instance.
	GoogleInstance string

	// Azure Entra ID authentication parameters (used when AuthMethod is AuthMethodAzureEntraID)
	// If all three are provided, Service Principal authentication is used.
	// If none are provided, DefaultAzureCredential chain is used (env vars, managed identity, CLI, etc.)
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodCertificate                    // mTLS
	AuthMethodAWSIAM                         // AWS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodCertificate:
		return "Certificate"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod converts a configuration value ("standard", "aws", ...) to an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch s {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "cert", "certificate", "mtls":
		return AuthMethodCertificate, nil
	case "aws", "aws-iam":
		return AuthMethodAWSIAM, nil
	case "google", "google-iam", "gcp":
		return AuthMethodGoogleIAM, nil
	case "azure", "azure-entra-id", "entra":
		return AuthMethodAzureEntraID, nil
	default:
		return AuthMethodStandard, fmt.Errorf("unknown auth method %q: %w", s, ErrUnsupportedAuthMethod)
	}
}

// LoadConfig contains all parameters needed for a bulk load.
type LoadConfig struct {
	// Table is the destination table, optionally schema-qualified ("public.events").
	Table string

	// FilePath is the delimited source file. Its first line is a header.
	FilePath string

	// Delimiter separates fields; a single ASCII byte.
	Delimiter byte

	// BatchSize is the number of records per INSERT statement. Zero sends the
	// whole file as one statement.
	BatchSize int

	// Timeout bounds the whole load. Zero means no timeout.
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the LoadConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *LoadConfig) Validate() error {
	var errs []error

	if c.Table == "" {
		errs = append(errs, fmt.Errorf("table is required: %w", ErrInvalidConfig))
	}

	if c.FilePath == "" {
		errs = append(errs, fmt.Errorf("file is required: %w", ErrInvalidConfig))
	}

	if err := ValidateDelimiter(c.Delimiter); err != nil {
		errs = append(errs, err)
	}

	if c.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch size cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ValidateDelimiter checks that d can separate fields of a delimited file.
func ValidateDelimiter(d byte) error {
	switch {
	case d == 0:
		return fmt.Errorf("delimiter is required: %w", ErrInvalidConfig)
	case d >= 0x80:
		return fmt.Errorf("delimiter must be an ASCII character: %w", ErrInvalidConfig)
	case d == '"' || d == '\r' || d == '\n':
		return fmt.Errorf("delimiter %q is not allowed: %w", d, ErrInvalidConfig)
	}
	return nil
}

// ParseDelimiter converts a command-line delimiter value to a byte.
// Besides a literal single character, `\t` and `tab` select a tab.
func ParseDelimiter(s string) (byte, error) {
	switch s {
	case "":
		return DefaultDelimiter, nil
	case `\t`, "tab", "\t":
		return '\t', nil
	}
	if len(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single byte, got %q: %w", s, ErrInvalidConfig)
	}
	if err := ValidateDelimiter(s[0]); err != nil {
		return 0, err
	}
	return s[0], nil
}
