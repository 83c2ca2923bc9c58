package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neonsql/internal/neon"
	"github.com/vvka-141/neonsql/internal/output"
	"github.com/vvka-141/neonsql/internal/ui"
	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// ProjectIDEnvVar selects the project when neither --project nor neon.project_id is set.
const ProjectIDEnvVar = "NEON_PROJECT_ID"

var neonCmd = &cobra.Command{
	Use:   "neon",
	Short: "Manage Neon projects, branches and endpoints",
	Long: `Neon calls the Neon control-plane API.

Authentication uses an API key from --api-key or $NEON_API_KEY. Commands that
work inside a project take it from --project, neon.project_id in
neonsql.yaml, or $NEON_PROJECT_ID.

Examples:
  neonsql neon projects list
  neonsql neon branches list --project late-bar-123456
  neonsql neon branches create --name feature-x
  neonsql neon branches delete br-wispy-dew-123456 --force
  neonsql neon endpoints list -o json`,
}

type neonFlagValues struct {
	apiKey    string
	apiURL    string
	projectID string
	wide      bool
}

var neonFlags neonFlagValues

var neonProjectsCmd = &cobra.Command{Use: "projects", Short: "List and inspect projects"}
var neonBranchesCmd = &cobra.Command{Use: "branches", Short: "List, create and delete branches"}
var neonEndpointsCmd = &cobra.Command{Use: "endpoints", Short: "List compute endpoints"}

var neonProjectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects visible to the API key",
	Args:  cobra.NoArgs,
	RunE:  runNeonProjectsList,
}

var neonProjectsGetCmd = &cobra.Command{
	Use:   "get <project_id>",
	Short: "Show one project",
	Args:  requireArg("project_id", "late-bar-123456"),
	RunE:  runNeonProjectsGet,
}

var neonBranchesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the branches of a project",
	Args:  cobra.NoArgs,
	RunE:  runNeonBranchesList,
}

var neonBranchesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a branch with a read-write endpoint",
	Args:  cobra.NoArgs,
	RunE:  runNeonBranchesCreate,
}

var neonBranchesDeleteCmd = &cobra.Command{
	Use:   "delete <branch_id>",
	Short: "Delete a branch and its endpoints",
	Long: `Delete removes a branch, its data and its compute endpoints.

You are asked to type the branch id to confirm. --force skips the prompt
after a short countdown and is required when stdin is not a terminal.`,
	Args: requireArg("branch_id", "br-wispy-dew-123456"),
	RunE: runNeonBranchesDelete,
}

var neonEndpointsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the compute endpoints of a project",
	Args:  cobra.NoArgs,
	RunE:  runNeonEndpointsList,
}

var branchCreateFlags struct {
	name     string
	parentID string
}

var branchDeleteFlags struct {
	force bool
}

func init() {
	rootCmd.AddCommand(neonCmd)
	neonCmd.AddCommand(neonProjectsCmd, neonBranchesCmd, neonEndpointsCmd)
	neonProjectsCmd.AddCommand(neonProjectsListCmd, neonProjectsGetCmd)
	neonBranchesCmd.AddCommand(neonBranchesListCmd, neonBranchesCreateCmd, neonBranchesDeleteCmd)
	neonEndpointsCmd.AddCommand(neonEndpointsListCmd)

	pf := neonCmd.PersistentFlags()
	pf.StringVar(&neonFlags.apiKey, "api-key", "", "Neon API key (default: $NEON_API_KEY)")
	pf.StringVar(&neonFlags.apiURL, "api-url", "",
		"Neon API base URL (default: neon.api_url from neonsql.yaml, else "+neon.DefaultBaseURL+")")
	pf.StringVar(&neonFlags.projectID, "project", "",
		"Project id (default: neon.project_id from neonsql.yaml, else $"+ProjectIDEnvVar+")")
	pf.BoolVar(&neonFlags.wide, "wide", false, "Show every field the API returns in table output")

	neonBranchesCreateCmd.Flags().StringVar(&branchCreateFlags.name, "name", "", "Branch name (default: generated by Neon)")
	neonBranchesCreateCmd.Flags().StringVar(&branchCreateFlags.parentID, "parent", "", "Parent branch id (default: the project's default branch)")

	neonBranchesDeleteCmd.Flags().BoolVar(&branchDeleteFlags.force, "force", false,
		"Skip the interactive confirmation\n"+
			"Use in CI/CD pipelines")
}

// Columns shown in table output unless --wide is given.
var (
	projectColumns  = []string{"id", "name", "region_id", "pg_version", "created_at"}
	branchColumns   = []string{"id", "name", "parent_id", "current_state", "default", "created_at"}
	endpointColumns = []string{"id", "host", "branch_id", "type", "current_state"}
)

// newNeonClient is replaced in tests.
var newNeonClient = func(env *commandEnv) (*neon.Client, error) {
	apiKey := neonFlags.apiKey
	if apiKey == "" {
		apiKey = os.Getenv(neon.APIKeyEnvVar)
	}
	apiURL := neonFlags.apiURL
	if apiURL == "" && env.project != nil {
		apiURL = env.project.Neon.APIURL
	}
	return neon.NewClient(apiKey, neon.WithBaseURL(apiURL), neon.WithLogger(env.logger))
}

// newApprover picks the confirmation strategy for destructive calls; replaced in tests.
var newApprover = func(force, verbose bool) (neonsql.Approver, error) {
	if force {
		return ui.NewForcedApprover(verbose), nil
	}
	if !isTerminal(os.Stdin) {
		return nil, fmt.Errorf("stdin is not a terminal; pass --force to delete without confirmation: %w", neonsql.ErrApprovalDenied)
	}
	return ui.NewInteractiveApprover(verbose), nil
}

func resolveProjectID(env *commandEnv) (string, error) {
	switch {
	case neonFlags.projectID != "":
		return neonFlags.projectID, nil
	case env.project != nil && env.project.Neon.ProjectID != "":
		return env.project.Neon.ProjectID, nil
	case os.Getenv(ProjectIDEnvVar) != "":
		return os.Getenv(ProjectIDEnvVar), nil
	}
	return "", fmt.Errorf("project id is required (--project, neon.project_id or $%s): %w", ProjectIDEnvVar, neonsql.ErrInvalidConfig)
}

// neonCall prepares the environment and client and runs fn under the command context.
func neonCall(cmd *cobra.Command, fn func(ctx context.Context, env *commandEnv, client *neon.Client) error) error {
	env, err := prepareCommand(cmd)
	if err != nil {
		return err
	}
	client, err := newNeonClient(env)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(env.timeout, env.stderr)
	defer cancel()
	return fn(ctx, env, client)
}

func runNeonProjectsList(cmd *cobra.Command, args []string) error {
	return neonCall(cmd, func(ctx context.Context, env *commandEnv, client *neon.Client) error {
		projects, err := client.ListProjects(ctx)
		if err != nil {
			return err
		}
		objects := make([]map[string]any, len(projects))
		for i, p := range projects {
			objects[i] = p.Fields
		}
		return printResources(env, projects, objects, projectColumns)
	})
}

func runNeonProjectsGet(cmd *cobra.Command, args []string) error {
	return neonCall(cmd, func(ctx context.Context, env *commandEnv, client *neon.Client) error {
		project, err := client.GetProject(ctx, args[0])
		if err != nil {
			return err
		}
		return printResources(env, project, []map[string]any{project.Fields}, projectColumns)
	})
}

func runNeonBranchesList(cmd *cobra.Command, args []string) error {
	return neonCall(cmd, func(ctx context.Context, env *commandEnv, client *neon.Client) error {
		projectID, err := resolveProjectID(env)
		if err != nil {
			return err
		}
		branches, err := client.ListBranches(ctx, projectID)
		if err != nil {
			return err
		}
		objects := make([]map[string]any, len(branches))
		for i, b := range branches {
			objects[i] = b.Fields
		}
		return printResources(env, branches, objects, branchColumns)
	})
}

func runNeonBranchesCreate(cmd *cobra.Command, args []string) error {
	return neonCall(cmd, func(ctx context.Context, env *commandEnv, client *neon.Client) error {
		projectID, err := resolveProjectID(env)
		if err != nil {
			return err
		}
		branch, endpoints, err := client.CreateBranch(ctx, projectID, neon.CreateBranchRequest{
			Name:     branchCreateFlags.name,
			ParentID: branchCreateFlags.parentID,
		})
		if err != nil {
			return err
		}
		env.logger.Info("Created branch %s (%s)", branch.Name, branch.ID)
		for _, ep := range endpoints {
			env.logger.Info("  endpoint %s: %s", ep.ID, ep.Host)
		}
		return printResources(env, branch, []map[string]any{branch.Fields}, branchColumns)
	})
}

func runNeonBranchesDelete(cmd *cobra.Command, args []string) error {
	branchID := args[0]
	return neonCall(cmd, func(ctx context.Context, env *commandEnv, client *neon.Client) error {
		projectID, err := resolveProjectID(env)
		if err != nil {
			return err
		}

		approver, err := newApprover(branchDeleteFlags.force, globalFlags.verbose)
		if err != nil {
			return err
		}
		approved, err := approver.RequestApproval(ctx, "delete branch", branchID)
		if err != nil {
			return err
		}
		if !approved {
			return fmt.Errorf("deletion of branch %s was not confirmed: %w", branchID, neonsql.ErrApprovalDenied)
		}

		branch, err := client.DeleteBranch(ctx, projectID, branchID)
		if err != nil {
			return err
		}
		env.logger.Info("Deleted branch %s", branch.ID)
		return printResources(env, branch, []map[string]any{branch.Fields}, branchColumns)
	})
}

func runNeonEndpointsList(cmd *cobra.Command, args []string) error {
	return neonCall(cmd, func(ctx context.Context, env *commandEnv, client *neon.Client) error {
		projectID, err := resolveProjectID(env)
		if err != nil {
			return err
		}
		endpoints, err := client.ListEndpoints(ctx, projectID)
		if err != nil {
			return err
		}
		objects := make([]map[string]any, len(endpoints))
		for i, ep := range endpoints {
			objects[i] = ep.Fields
		}
		return printResources(env, endpoints, objects, endpointColumns)
	})
}

// printResources writes v as JSON, or objects as a table restricted to
// columns unless --wide is set.
func printResources(env *commandEnv, v any, objects []map[string]any, columns []string) error {
	if env.format == output.FormatJSON {
		return output.JSON(env.stdout, v)
	}
	if !neonFlags.wide {
		objects = selectColumns(objects, columns)
	}
	return writeObjects(env.stdout, objects)
}

func writeObjects(w io.Writer, objects []map[string]any) error {
	if len(objects) == 0 {
		_, err := fmt.Fprintln(w, "(none)")
		return err
	}
	return output.JSONTable(w, objects)
}

// selectColumns projects each object onto columns. Missing keys become "".
func selectColumns(objects []map[string]any, columns []string) []map[string]any {
	out := make([]map[string]any, len(objects))
	for i, obj := range objects {
		row := make(map[string]any, len(columns))
		for _, c := range columns {
			if v, ok := obj[c]; ok {
				row[c] = v
			} else {
				row[c] = ""
			}
		}
		out[i] = row
	}
	return out
}
