package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/neonsql/internal/config"
	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

func writeProjectFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadProjectConfig(t *testing.T) {
	t.Run("missing file in working directory is not an error", func(t *testing.T) {
		t.Chdir(t.TempDir())
		cfg, err := loadProjectConfig("")
		require.NoError(t, err)
		assert.Nil(t, cfg)
	})

	t.Run("file in working directory is picked up", func(t *testing.T) {
		dir := t.TempDir()
		writeProjectFile(t, dir, "output:\n  format: json\n")
		t.Chdir(dir)

		cfg, err := loadProjectConfig("")
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "json", cfg.Output.Format)
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		_, err := loadProjectConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, neonsql.ErrInvalidConfig))
		assert.True(t, errors.Is(err, config.ErrConfigNotFound))
	})

	t.Run("invalid file is a config error", func(t *testing.T) {
		path := writeProjectFile(t, t.TempDir(), "load:\n  batch_size: -1\n")
		_, err := loadProjectConfig(path)
		require.Error(t, err)
		assert.Equal(t, neonsql.ExitConfigError, neonsql.ExitCodeForError(err))
	})
}

func TestResolveOutputFormat(t *testing.T) {
	project := &config.ProjectConfig{Output: config.OutputConfig{Format: "json"}}

	f, err := resolveOutputFormat("", nil)
	require.NoError(t, err)
	assert.Equal(t, output.FormatTable, f)

	f, err = resolveOutputFormat("", project)
	require.NoError(t, err)
	assert.Equal(t, output.FormatJSON, f)

	f, err = resolveOutputFormat("table", project)
	require.NoError(t, err)
	assert.Equal(t, output.FormatTable, f, "flag beats file")

	_, err = resolveOutputFormat("yaml", nil)
	assert.True(t, errors.Is(err, neonsql.ErrInvalidConfig))
}

func newTimeoutCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Duration("timeout", 0, "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestResolveEffectiveTimeout(t *testing.T) {
	project := &config.ProjectConfig{Timeout: "45s"}

	d, err := resolveEffectiveTimeout(newTimeoutCmd(t), nil, 0)
	require.NoError(t, err)
	assert.Zero(t, d, "no timeout by default")

	d, err = resolveEffectiveTimeout(newTimeoutCmd(t), project, 0)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, d)

	d, err = resolveEffectiveTimeout(newTimeoutCmd(t, "--timeout", "2m"), project, 2*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, d, "flag beats file")

	_, err = resolveEffectiveTimeout(newTimeoutCmd(t), &config.ProjectConfig{Timeout: "soon"}, 0)
	assert.True(t, errors.Is(err, neonsql.ErrInvalidConfig))

	_, err = resolveEffectiveTimeout(newTimeoutCmd(t), nil, -time.Second)
	assert.True(t, errors.Is(err, neonsql.ErrInvalidConfig))
}

func TestCommandContext(t *testing.T) {
	var stderr bytes.Buffer

	ctx, cancel := commandContext(0, &stderr)
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)
	cancel()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)

	ctx, cancel = commandContext(time.Millisecond, &stderr)
	defer cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	assert.Empty(t, stderr.String())
}

func TestAuthMethodToString(t *testing.T) {
	tests := []struct {
		method neonsql.AuthMethod
		want   string
	}{
		{neonsql.AuthMethodStandard, ""},
		{neonsql.AuthMethodCertificate, "certificate"},
		{neonsql.AuthMethodAzureEntraID, "azure"},
		{neonsql.AuthMethodAWSIAM, "aws"},
		{neonsql.AuthMethodGoogleIAM, "google"},
	}

	for _, tt := range tests {
		got := authMethodToString(tt.method)
		if got != tt.want {
			t.Errorf("authMethodToString(%v) = %q, want %q", tt.method, got, tt.want)
		}
		if tt.want != "" {
			parsed, err := neonsql.ParseAuthMethod(got)
			require.NoError(t, err)
			assert.Equal(t, tt.method, parsed, "written value parses back")
		}
	}
}

func readProjectFile(t *testing.T, dir string) config.ProjectConfig {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	var cfg config.ProjectConfig
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	return cfg
}

func TestSaveConnectionToConfig_CloudAuth(t *testing.T) {
	dir := t.TempDir()

	connConfig := &neonsql.ConnectionConfig{
		Host:              "myhost.postgres.database.azure.com",
		Port:              5432,
		Username:          "admin@myhost",
		Password:          "never-written",
		Database:          "mydb",
		SSLMode:           "require",
		SSLRootCert:       "/path/ca.crt",
		AuthMethod:        neonsql.AuthMethodAzureEntraID,
		AzureTenantID:     "my-tenant",
		AzureClientID:     "my-client",
		AzureClientSecret: "also-never-written",
	}

	path, err := saveConnectionToConfig(dir, connConfig)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, config.FileName), path)

	cfg := readProjectFile(t, dir)
	assert.Equal(t, "azure", cfg.Connection.AuthMethod)
	assert.Equal(t, "my-tenant", cfg.Connection.AzureTenantID)
	assert.Equal(t, "my-client", cfg.Connection.AzureClientID)
	assert.Equal(t, "/path/ca.crt", cfg.Connection.SSLRootCert)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "never-written")
}

func TestSaveConnectionToConfig_AWSAuth(t *testing.T) {
	dir := t.TempDir()

	_, err := saveConnectionToConfig(dir, &neonsql.ConnectionConfig{
		Host:       "myhost.rds.amazonaws.com",
		Port:       5432,
		Username:   "admin",
		Database:   "mydb",
		SSLMode:    "require",
		AuthMethod: neonsql.AuthMethodAWSIAM,
		AWSRegion:  "us-east-1",
	})
	require.NoError(t, err)

	cfg := readProjectFile(t, dir)
	assert.Equal(t, "aws", cfg.Connection.AuthMethod)
	assert.Equal(t, "us-east-1", cfg.Connection.AWSRegion)
}

func TestSaveConnectionToConfig_StandardAuth_KeepsOtherSections(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "neon:\n  project_id: late-bar-123456\nload:\n  delimiter: \";\"\ntimeout: 1m\n")

	_, err := saveConnectionToConfig(dir, &neonsql.ConnectionConfig{
		Host:       "ep-x.neon.tech",
		Port:       5432,
		Username:   "alex",
		Database:   "neondb",
		SSLMode:    "require",
		AuthMethod: neonsql.AuthMethodStandard,
	})
	require.NoError(t, err)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "ep-x.neon.tech", cfg.Connection.Host)
	assert.Empty(t, cfg.Connection.AuthMethod, "standard auth is the default")
	assert.Equal(t, "late-bar-123456", cfg.Neon.ProjectID)
	assert.Equal(t, ";", cfg.Load.Delimiter)
	assert.Equal(t, "1m", cfg.Timeout)
}

func TestSaveConnectionToConfig_RefusesToClobberInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "connection: [not, a, map]\n")

	_, err := saveConnectionToConfig(dir, &neonsql.ConnectionConfig{Host: "h"})
	require.Error(t, err)

	raw, readErr := os.ReadFile(filepath.Join(dir, config.FileName))
	require.NoError(t, readErr)
	assert.Equal(t, "connection: [not, a, map]\n", string(raw))
}
