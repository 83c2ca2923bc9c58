// Package config reads the optional neonsql.yaml project file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// FileName is the config file looked up in the working directory.
const FileName = "neonsql.yaml"

type ConnectionConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	SSLMode        string `yaml:"sslmode"`
	SSLCert        string `yaml:"sslcert,omitempty"`
	SSLKey         string `yaml:"sslkey,omitempty"`
	SSLRootCert    string `yaml:"sslrootcert,omitempty"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
}

// NeonConfig holds control-plane settings. The API key is never read from
// the file; use --api-key or $NEON_API_KEY.
type NeonConfig struct {
	APIURL    string `yaml:"api_url,omitempty"`
	ProjectID string `yaml:"project_id,omitempty"`
}

type LoadConfig struct {
	Delimiter string `yaml:"delimiter,omitempty"`
	BatchSize *int   `yaml:"batch_size,omitempty"`
}

type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
}

type ProjectConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	Neon       NeonConfig       `yaml:"neon"`
	Load       LoadConfig       `yaml:"load"`
	Output     OutputConfig     `yaml:"output"`
	Timeout    string           `yaml:"timeout"`
}

// Load reads path. A directory is searched for FileName.
func Load(path string) (*ProjectConfig, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

// Validate checks the values that can be checked without a connection.
func (c *ProjectConfig) Validate() error {
	var errs []error

	switch c.Output.Format {
	case "", "table", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format must be table or json, got %q", c.Output.Format))
	}

	if c.Load.BatchSize != nil && *c.Load.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("load.batch_size cannot be negative"))
	}

	if c.Connection.Port < 0 || c.Connection.Port > 65535 {
		errs = append(errs, fmt.Errorf("connection.port %d is out of range", c.Connection.Port))
	}

	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout cannot be negative")
	}
	return d, nil
}
