package neon

import (
	"encoding/json"
)

// Project is a Neon project. Fields holds the full object as returned by the API.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	RegionID  string `json:"region_id"`
	PGVersion int    `json:"pg_version"`
	CreatedAt string `json:"created_at"`

	Fields map[string]any `json:"-"`
}

// Branch is a copy-on-write branch of a project's data.
type Branch struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	ParentID     string `json:"parent_id"`
	Name         string `json:"name"`
	CurrentState string `json:"current_state"`
	Default      bool   `json:"default"`
	CreatedAt    string `json:"created_at"`

	Fields map[string]any `json:"-"`
}

// Endpoint is a compute endpoint attached to a branch.
type Endpoint struct {
	ID           string `json:"id"`
	Host         string `json:"host"`
	BranchID     string `json:"branch_id"`
	Type         string `json:"type"`
	CurrentState string `json:"current_state"`

	Fields map[string]any `json:"-"`
}

// Keep the raw object next to the typed view; printers show whatever the API returned.

func (p *Project) UnmarshalJSON(b []byte) error {
	type plain Project
	return unmarshalWithFields(b, (*plain)(p), &p.Fields)
}

func (p Project) MarshalJSON() ([]byte, error) {
	type plain Project
	return marshalWithFields(plain(p), p.Fields)
}

func (br *Branch) UnmarshalJSON(b []byte) error {
	type plain Branch
	return unmarshalWithFields(b, (*plain)(br), &br.Fields)
}

func (br Branch) MarshalJSON() ([]byte, error) {
	type plain Branch
	return marshalWithFields(plain(br), br.Fields)
}

func (e *Endpoint) UnmarshalJSON(b []byte) error {
	type plain Endpoint
	return unmarshalWithFields(b, (*plain)(e), &e.Fields)
}

func (e Endpoint) MarshalJSON() ([]byte, error) {
	type plain Endpoint
	return marshalWithFields(plain(e), e.Fields)
}

func unmarshalWithFields(b []byte, typed any, fields *map[string]any) error {
	if err := json.Unmarshal(b, typed); err != nil {
		return err
	}
	return json.Unmarshal(b, fields)
}

func marshalWithFields(typed any, fields map[string]any) ([]byte, error) {
	if fields != nil {
		return json.Marshal(fields)
	}
	return json.Marshal(typed)
}

// CreateBranchRequest describes a new branch. An empty ParentID branches from
// the project's default branch.
type CreateBranchRequest struct {
	Name     string
	ParentID string
}

type createBranchBody struct {
	Branch struct {
		Name     string `json:"name,omitempty"`
		ParentID string `json:"parent_id,omitempty"`
	} `json:"branch"`
	Endpoints []endpointSpec `json:"endpoints"`
}

type endpointSpec struct {
	Type string `json:"type"`
}
