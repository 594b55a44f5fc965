package ado

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ListTestRuns returns the test runs recorded against buildURI, in service order.
func (c *Client) ListTestRuns(ctx context.Context, project, buildURI string) ([]TestRun, error) {
	query := url.Values{}
	query.Set("buildUri", buildURI)
	query.Set("includeRunDetails", "true")
	var out listResponse[TestRun]
	if err := c.getJSON(ctx, OpListTestRuns, projectPath(project, "_apis/test/runs"), query, &out); err != nil {
		return nil, fmt.Errorf("list test runs for %s: %w", buildURI, err)
	}
	return out.Value, nil
}

// GetTestRunStatistics returns outcome counts for runID.
func (c *Client) GetTestRunStatistics(ctx context.Context, project string, runID int) (TestRunStatistics, error) {
	var stats TestRunStatistics
	path := projectPath(project, "_apis/test/runs/"+strconv.Itoa(runID)+"/Statistics")
	if err := c.getJSON(ctx, OpGetTestRunStatistics, path, nil, &stats); err != nil {
		return TestRunStatistics{}, fmt.Errorf("get test run statistics %d: %w", runID, err)
	}
	return stats, nil
}
