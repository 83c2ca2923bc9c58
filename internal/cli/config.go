package cli

import (
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage neonsql.yaml",
}

var configSaveCmd = &cobra.Command{
	Use:   "save [dir]",
	Short: "Write the resolved connection settings to neonsql.yaml",
	Long: `Save resolves the connection exactly as query, exec and load would and
writes the result to the connection section of neonsql.yaml in dir
(default: the current directory). Other sections of an existing file are kept.

Passwords and client secrets are never written; keep them in $PGPASSWORD,
~/.pgpass, $AZURE_CLIENT_SECRET or a .env file.

Examples:
  neonsql config save -h ep-x.us-east-2.aws.neon.tech -U alex -d neondb
  neonsql config save ./project --connection "$DATABASE_URL"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigSave,
}

type configSaveFlagValues struct {
	conn connectionFlags
}

var configSaveFlags configSaveFlagValues

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configSaveCmd)
	addConnectionFlags(configSaveCmd, &configSaveFlags.conn)
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	env, err := prepareCommand(cmd)
	if err != nil {
		return err
	}

	connConfig, err := resolveConnectionFromFlags(&configSaveFlags.conn, env.project, env.logger)
	if err != nil {
		return err
	}

	path, err := saveConnectionToConfig(targetDir, connConfig)
	if err != nil {
		return err
	}
	env.logger.Info("Saved connection settings to %s", path)
	return nil
}
