package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

type neonRequest struct {
	method string
	path   string
	auth   string
	body   string
}

// neonServer fakes the Neon API for command tests.
type neonServer struct {
	mu       sync.Mutex
	requests []neonRequest
	routes   map[string]string
	url      string
}

func newNeonServer(t *testing.T) *neonServer {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv(ProjectIDEnvVar, "")
	t.Setenv("NEON_API_KEY", "")

	s := &neonServer{routes: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, neonRequest{r.Method, r.URL.Path, r.Header.Get("Authorization"), string(body)})
		resp, ok := s.routes[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"code":"","message":"not found"}`)
			return
		}
		fmt.Fprint(w, resp)
	}))
	t.Cleanup(srv.Close)
	s.url = srv.URL + "/api/v2/"
	return s
}

func (s *neonServer) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeCommand(t, append(args, "--api-url", s.url, "--api-key", "test-key")...)
}

func (s *neonServer) calls() []neonRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]neonRequest(nil), s.requests...)
}

type stubApprover struct {
	approve  bool
	resource string
}

func (a *stubApprover) RequestApproval(_ context.Context, _, resource string) (bool, error) {
	a.resource = resource
	return a.approve, nil
}

func useApprover(t *testing.T, a neonsql.Approver) {
	t.Helper()
	orig := newApprover
	newApprover = func(force, verbose bool) (neonsql.Approver, error) { return a, nil }
	t.Cleanup(func() { newApprover = orig })
}

const branchJSON = `{"id":"br-dev-1","project_id":"p-1","parent_id":"br-main","name":"dev",` +
	`"current_state":"ready","default":false,"created_at":"2024-01-01T00:00:00Z","logical_size":1024}`

func TestNeonProjectsList(t *testing.T) {
	s := newNeonServer(t)
	s.routes["GET /api/v2/projects"] = `{"projects":[{"id":"p-1","name":"shop","region_id":"aws-us-east-2","pg_version":16,"created_at":"2024-01-01T00:00:00Z","owner_id":"o-1"}],"pagination":{"cursor":"p-1"}}`

	stdout, _, err := s.run(t, "neon", "projects", "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "p-1")
	assert.Contains(t, stdout, "aws-us-east-2")
	assert.NotContains(t, stdout, "owner_id", "only the default columns without --wide")

	calls := s.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer test-key", calls[0].auth)
}

func TestNeonProjectsList_Wide(t *testing.T) {
	s := newNeonServer(t)
	s.routes["GET /api/v2/projects"] = `{"projects":[{"id":"p-1","name":"shop","owner_id":"o-1"}]}`

	stdout, _, err := s.run(t, "neon", "projects", "list", "--wide")
	require.NoError(t, err)
	assert.Contains(t, stdout, "owner_id")
	assert.Contains(t, stdout, "o-1")
}

func TestNeonProjectsList_Empty(t *testing.T) {
	s := newNeonServer(t)
	s.routes["GET /api/v2/projects"] = `{"projects":[]}`

	stdout, _, err := s.run(t, "neon", "projects", "list")
	require.NoError(t, err)
	assert.Equal(t, "(none)\n", stdout)
}

func TestNeonProjectsGet_JSON(t *testing.T) {
	s := newNeonServer(t)
	s.routes["GET /api/v2/projects/p-1"] = `{"project":{"id":"p-1","name":"shop","pg_version":16,"owner_id":"o-1"}}`

	stdout, _, err := s.run(t, "neon", "projects", "get", "p-1", "-o", "json")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, "p-1", got["id"])
	assert.Equal(t, "o-1", got["owner_id"], "fields the client does not model survive")
}

func TestNeonBranchesList_ProjectFromEnv(t *testing.T) {
	s := newNeonServer(t)
	t.Setenv(ProjectIDEnvVar, "p-1")
	s.routes["GET /api/v2/projects/p-1/branches"] = `{"branches":[` + branchJSON + `]}`

	stdout, _, err := s.run(t, "neon", "branches", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "br-dev-1")
	assert.Contains(t, stdout, "ready")
	assert.NotContains(t, stdout, "logical_size")
}

func TestNeonBranchesList_MissingProject(t *testing.T) {
	s := newNeonServer(t)

	_, _, err := s.run(t, "neon", "branches", "list")
	require.Error(t, err)
	assert.Equal(t, neonsql.ExitConfigError, neonsql.ExitCodeForError(err))
	assert.Empty(t, s.calls())
}

func TestNeonBranchesCreate(t *testing.T) {
	s := newNeonServer(t)
	s.routes["POST /api/v2/projects/p-1/branches"] = `{"branch":` + branchJSON + `,"endpoints":[{"id":"ep-1","host":"ep-1.neon.tech","branch_id":"br-dev-1","type":"read_write"}]}`

	stdout, stderr, err := s.run(t, "neon", "branches", "create", "--project", "p-1", "--name", "dev", "--parent", "br-main")
	require.NoError(t, err)

	assert.Contains(t, stdout, "br-dev-1")
	assert.Contains(t, stderr, "Created branch dev (br-dev-1)")
	assert.Contains(t, stderr, "ep-1.neon.tech")

	calls := s.calls()
	require.Len(t, calls, 1)
	assert.JSONEq(t,
		`{"branch":{"name":"dev","parent_id":"br-main"},"endpoints":[{"type":"read_write"}]}`,
		calls[0].body)
}

func TestNeonBranchesDelete_Approved(t *testing.T) {
	s := newNeonServer(t)
	s.routes["DELETE /api/v2/projects/p-1/branches/br-dev-1"] = `{"branch":` + branchJSON + `}`
	approver := &stubApprover{approve: true}
	useApprover(t, approver)

	_, stderr, err := s.run(t, "neon", "branches", "delete", "br-dev-1", "--project", "p-1")
	require.NoError(t, err)

	assert.Equal(t, "br-dev-1", approver.resource)
	assert.Contains(t, stderr, "Deleted branch br-dev-1")
	require.Len(t, s.calls(), 1)
	assert.Equal(t, http.MethodDelete, s.calls()[0].method)
}

func TestNeonBranchesDelete_Denied(t *testing.T) {
	s := newNeonServer(t)
	useApprover(t, &stubApprover{approve: false})

	_, _, err := s.run(t, "neon", "branches", "delete", "br-dev-1", "--project", "p-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, neonsql.ErrApprovalDenied))
	assert.Equal(t, neonsql.ExitApprovalDenied, neonsql.ExitCodeForError(err))
	assert.Empty(t, s.calls(), "nothing is deleted without approval")
}

func TestNeonAPIErrorExitCode(t *testing.T) {
	s := newNeonServer(t)

	_, _, err := s.run(t, "neon", "projects", "get", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.Equal(t, neonsql.ExitAPIError, neonsql.ExitCodeForError(err))
}

func TestNeonMissingAPIKey(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEON_API_KEY", "")

	_, _, err := executeCommand(t, "neon", "projects", "list")
	require.Error(t, err)
	assert.Equal(t, neonsql.ExitConfigError, neonsql.ExitCodeForError(err))
}

func TestSelectColumns(t *testing.T) {
	objects := []map[string]any{{"id": "a", "name": "x", "extra": 1}, {"id": "b"}}

	got := selectColumns(objects, []string{"id", "name"})
	assert.Equal(t, []map[string]any{
		{"id": "a", "name": "x"},
		{"id": "b", "name": ""},
	}, got)
}
