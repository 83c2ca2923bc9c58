package neon

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/vvka-141/neonsql/pkg/neonsql"
)

// ListProjects returns every project visible to the API key, following
// cursor pagination.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var all []Project
	cursor := ""
	for {
		q := url.Values{"limit": {strconv.Itoa(projectsPageLimit)}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page struct {
			Projects   []Project `json:"projects"`
			Pagination *struct {
				Cursor string `json:"cursor"`
			} `json:"pagination"`
		}
		if err := c.do(ctx, http.MethodGet, c.endpoint(q, "projects"), nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Projects...)

		if len(page.Projects) < projectsPageLimit || page.Pagination == nil ||
			page.Pagination.Cursor == "" || page.Pagination.Cursor == cursor {
			return all, nil
		}
		cursor = page.Pagination.Cursor
	}
}

// GetProject returns one project.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, err
	}
	var resp struct {
		Project Project `json:"project"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "projects", projectID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Project, nil
}

// ListBranches returns the branches of a project.
func (c *Client) ListBranches(ctx context.Context, projectID string) ([]Branch, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, err
	}
	var resp struct {
		Branches []Branch `json:"branches"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "projects", projectID, "branches"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Branches, nil
}

// CreateBranch creates a branch with a read-write endpoint and returns both.
func (c *Client) CreateBranch(ctx context.Context, projectID string, req CreateBranchRequest) (*Branch, []Endpoint, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, nil, err
	}

	var body createBranchBody
	body.Branch.Name = req.Name
	body.Branch.ParentID = req.ParentID
	body.Endpoints = []endpointSpec{{Type: "read_write"}}

	var resp struct {
		Branch    Branch     `json:"branch"`
		Endpoints []Endpoint `json:"endpoints"`
	}
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "projects", projectID, "branches"), body, &resp); err != nil {
		return nil, nil, err
	}
	return &resp.Branch, resp.Endpoints, nil
}

// DeleteBranch deletes a branch and its endpoints.
func (c *Client) DeleteBranch(ctx context.Context, projectID, branchID string) (*Branch, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, err
	}
	if err := requireID("branch", branchID); err != nil {
		return nil, err
	}
	var resp struct {
		Branch Branch `json:"branch"`
	}
	if err := c.do(ctx, http.MethodDelete, c.endpoint(nil, "projects", projectID, "branches", branchID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Branch, nil
}

// ListEndpoints returns the compute endpoints of a project.
func (c *Client) ListEndpoints(ctx context.Context, projectID string) ([]Endpoint, error) {
	if err := requireID("project", projectID); err != nil {
		return nil, err
	}
	var resp struct {
		Endpoints []Endpoint `json:"endpoints"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "projects", projectID, "endpoints"), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Endpoints, nil
}

func requireID(kind, id string) error {
	if id == "" {
		return fmt.Errorf("%s id is required: %w", kind, neonsql.ErrInvalidConfig)
	}
	return nil
}
