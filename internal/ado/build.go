package ado

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListProjects returns the first page of projects visible to the token.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out listResponse[Project]
	if err := c.getJSON(ctx, OpListProjects, "_apis/projects", nil, &out); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out.Value, nil
}

// ListDefinitions returns every build definition reference under project.
func (c *Client) ListDefinitions(ctx context.Context, project string) ([]DefinitionRef, error) {
	var out listResponse[DefinitionRef]
	if err := c.getJSON(ctx, OpListDefinitions, projectPath(project, "_apis/build/definitions"), nil, &out); err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	return out.Value, nil
}

// GetDefinition fetches a single definition including its latest completed build.
func (c *Client) GetDefinition(ctx context.Context, project string, id int) (Definition, error) {
	query := url.Values{}
	query.Set("includeLatestBuilds", "true")
	var def Definition
	path := projectPath(project, "_apis/build/definitions/"+strconv.Itoa(id))
	if err := c.getJSON(ctx, OpGetDefinition, path, query, &def); err != nil {
		return Definition{}, fmt.Errorf("get definition %d: %w", id, err)
	}
	return def, nil
}

// GetBuildReport fetches the report attached to a completed build.
func (c *Client) GetBuildReport(ctx context.Context, project string, buildID int) (BuildReport, error) {
	var report BuildReport
	path := projectPath(project, "_apis/build/builds/"+strconv.Itoa(buildID)+"/report")
	if err := c.getJSON(ctx, OpGetBuildReport, path, nil, &report); err != nil {
		return BuildReport{}, fmt.Errorf("get build report %d: %w", buildID, err)
	}
	return report, nil
}

// SetQueueStatus re-submits definition id with a new queue status and returns
// the status the definition had before the update. The definition is round-tripped
// as raw JSON so fields this package does not model are preserved.
func (c *Client) SetQueueStatus(ctx context.Context, project string, id int, status QueueStatus) (QueueStatus, error) {
	if _, err := ParseQueueStatus(string(status)); err != nil {
		return "", err
	}

	path := projectPath(project, "_apis/build/definitions/"+strconv.Itoa(id))
	body, err := c.do(ctx, http.MethodGet, OpGetDefinition, path, nil, nil)
	if err != nil {
		return "", fmt.Errorf("get definition %d: %w", id, err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("decode definition %d: %w", id, err)
	}

	var previous QueueStatus
	if v, ok := raw["queueStatus"]; ok {
		if err := json.Unmarshal(v, &previous); err != nil {
			return "", fmt.Errorf("decode queue status of definition %d: %w", id, err)
		}
	}
	encoded, err := json.Marshal(status)
	if err != nil {
		return "", err
	}
	raw["queueStatus"] = encoded

	if err := c.putJSON(ctx, OpUpdateDefinition, path, raw, nil); err != nil {
		return previous, fmt.Errorf("update definition %d: %w", id, err)
	}
	return previous, nil
}
