package cli

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "neonsql",
	Short: "Query, bulk load and manage Neon Postgres databases",
	Long: `neonsql runs SQL against a Neon (or any PostgreSQL) database over TLS,
loads delimited text files into existing tables with typed, batched INSERTs,
and manages projects, branches and endpoints through the Neon API.

Connection settings come from flags, $NEONSQL_DATABASE_URL / $DATABASE_URL,
the PG* environment variables and neonsql.yaml, in that order. A .env file in
the working directory is loaded first.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Database connection failed
  12 - User denied a destructive operation
  13 - SQL execution failed
  14 - Destination table could not be resolved
  15 - Source data could not be coerced
  16 - Neon API request failed`,
	SilenceUsage: true,
}

type globalFlagValues struct {
	verbose    bool
	configPath string
	output     string
	timeout    time.Duration
}

var globalFlags globalFlagValues

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo(os.Stdout, os.Stderr)
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()

	// -h is the host shorthand, so help gets a long flag only.
	pf.Bool("help", false, "Help for neonsql")
	pf.BoolVarP(&globalFlags.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	pf.StringVar(&globalFlags.configPath, "config", "",
		"Path to neonsql.yaml or its directory (default: ./neonsql.yaml if present)")
	pf.StringVarP(&globalFlags.output, "output", "o", "",
		"Output format: table|json (default: output.format from neonsql.yaml, else table)")
	pf.DurationVar(&globalFlags.timeout, "timeout", 0,
		"Abort the command after this long, e.g. 30s, 5m (default: timeout from neonsql.yaml, else none)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", completeOutputFormats)
}
