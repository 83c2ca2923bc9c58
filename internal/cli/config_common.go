package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/neonsql/internal/config"
	"github.com/vvka-141/neonsql/internal/logging"
	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// commandEnv is the configuration every command resolves before doing work.
type commandEnv struct {
	project *config.ProjectConfig // nil when there is no neonsql.yaml
	logger  *logging.ConsoleLogger
	format  output.Format
	timeout time.Duration
	stdout  io.Writer
	stderr  io.Writer
}

// prepareCommand loads .env and neonsql.yaml and resolves the global flags
// against the file.
func prepareCommand(cmd *cobra.Command) (*commandEnv, error) {
	_ = godotenv.Load()

	project, err := loadProjectConfig(globalFlags.configPath)
	if err != nil {
		return nil, err
	}

	format, err := resolveOutputFormat(globalFlags.output, project)
	if err != nil {
		return nil, err
	}

	timeout, err := resolveEffectiveTimeout(cmd, project, globalFlags.timeout)
	if err != nil {
		return nil, err
	}

	return &commandEnv{
		project: project,
		logger:  logging.NewWriterLogger(cmd.ErrOrStderr(), globalFlags.verbose),
		format:  format,
		timeout: timeout,
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
	}, nil
}

// loadProjectConfig loads neonsql.yaml. Without an explicit path a missing
// file in the working directory is not an error and yields nil.
func loadProjectConfig(path string) (*config.ProjectConfig, error) {
	explicit := path != ""
	if !explicit {
		path = "."
	}

	projectCfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && !explicit {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w: %w", path, neonsql.ErrInvalidConfig, err)
	}
	return projectCfg, nil
}

// resolveOutputFormat prefers --output, then output.format from neonsql.yaml.
func resolveOutputFormat(flagValue string, projectCfg *config.ProjectConfig) (output.Format, error) {
	if flagValue == "" && projectCfg != nil {
		flagValue = projectCfg.Output.Format
	}
	return output.ParseFormat(flagValue)
}

// resolveEffectiveTimeout returns the effective timeout, preferring neonsql.yaml if the flag wasn't set.
func resolveEffectiveTimeout(
	cmd *cobra.Command,
	projectCfg *config.ProjectConfig,
	flagTimeout time.Duration,
) (time.Duration, error) {
	if flagTimeout < 0 {
		return 0, fmt.Errorf("--timeout cannot be negative: %w", neonsql.ErrInvalidConfig)
	}
	if projectCfg != nil && projectCfg.Timeout != "" && !flagChanged(cmd, "timeout") {
		d, err := projectCfg.TimeoutDuration()
		if err != nil {
			return 0, fmt.Errorf("invalid timeout in %s: %w: %w", config.FileName, neonsql.ErrInvalidConfig, err)
		}
		return d, nil
	}
	return flagTimeout, nil
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// commandContext returns a context cancelled on SIGINT/SIGTERM and, when
// timeout is positive, after timeout.
func commandContext(timeout time.Duration, stderr io.Writer) (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(stderr, "\n[INTERRUPT] Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// authMethodToString is the neonsql.yaml spelling of an auth method.
// Standard auth is the default and is left out of the file.
func authMethodToString(m neonsql.AuthMethod) string {
	switch m {
	case neonsql.AuthMethodCertificate:
		return "certificate"
	case neonsql.AuthMethodAWSIAM:
		return "aws"
	case neonsql.AuthMethodGoogleIAM:
		return "google"
	case neonsql.AuthMethodAzureEntraID:
		return "azure"
	default:
		return ""
	}
}

// saveConnectionToConfig writes connConfig into dir/neonsql.yaml, keeping the
// other sections of an existing file. The password and Azure secret are never written.
func saveConnectionToConfig(dir string, connConfig *neonsql.ConnectionConfig) (string, error) {
	configPath := filepath.Join(dir, config.FileName)

	cfg, err := config.Load(configPath)
	if err != nil {
		if !errors.Is(err, config.ErrConfigNotFound) {
			return "", fmt.Errorf("refusing to overwrite %s: %w", configPath, err)
		}
		cfg = &config.ProjectConfig{}
	}

	cfg.Connection = config.ConnectionConfig{
		Host:           connConfig.Host,
		Port:           connConfig.Port,
		Username:       connConfig.Username,
		Database:       connConfig.Database,
		SSLMode:        connConfig.SSLMode,
		SSLCert:        connConfig.SSLCert,
		SSLKey:         connConfig.SSLKey,
		SSLRootCert:    connConfig.SSLRootCert,
		AuthMethod:     authMethodToString(connConfig.AuthMethod),
		AzureTenantID:  connConfig.AzureTenantID,
		AzureClientID:  connConfig.AzureClientID,
		AWSRegion:      connConfig.AWSRegion,
		GoogleInstance: connConfig.GoogleInstance,
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}
	return configPath, os.WriteFile(configPath, data, 0o644)
}
