package ado

import (
	"fmt"
	"strings"
)

// Project mirrors a TeamProjectReference.
type Project struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state,omitempty"`
}

// QueueStatus controls whether a pipeline can be triggered.
type QueueStatus string

const (
	QueueEnabled  QueueStatus = "enabled"
	QueueDisabled QueueStatus = "disabled"
	QueuePaused   QueueStatus = "paused"
)

// ParseQueueStatus accepts only the three states the service defines.
func ParseQueueStatus(s string) (QueueStatus, error) {
	switch QueueStatus(strings.ToLower(strings.TrimSpace(s))) {
	case QueueEnabled:
		return QueueEnabled, nil
	case QueueDisabled:
		return QueueDisabled, nil
	case QueuePaused:
		return QueuePaused, nil
	default:
		return "", fmt.Errorf("invalid queue status %q: choose enabled, disabled or paused", s)
	}
}

// DefinitionRef mirrors a BuildDefinitionReference. Folder entries come back
// with no id or name.
type DefinitionRef struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	QueueStatus QueueStatus `json:"queueStatus"`
}

// IsPipeline reports whether the reference describes a pipeline rather than a folder.
func (d DefinitionRef) IsPipeline() bool {
	return d.ID != 0 && d.Name != ""
}

// BuildRef is the subset of a Build the report needs.
type BuildRef struct {
	ID          int    `json:"id"`
	URI         string `json:"uri"`
	BuildNumber string `json:"buildNumber,omitempty"`
	Result      string `json:"result,omitempty"`
	FinishTime  string `json:"finishTime,omitempty"`
}

// Definition is a full BuildDefinition fetched with its latest builds.
type Definition struct {
	DefinitionRef
	LatestCompletedBuild *BuildRef `json:"latestCompletedBuild"`
}

// BuildReport mirrors BuildReportMetadata. Content is an opaque HTML blob.
type BuildReport struct {
	BuildID int    `json:"buildId"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// TestRun mirrors the fields of a test run the report keeps.
type TestRun struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	State              string `json:"state"`
	TotalTests         int    `json:"totalTests"`
	PassedTests        int    `json:"passedTests"`
	IncompleteTests    int    `json:"incompleteTests"`
	UnanalyzedTests    int    `json:"unanalyzedTests"`
	NotApplicableTests int    `json:"notApplicableTests"`
	URL                string `json:"url"`
	StartedDate        string `json:"startedDate"`
	CompletedDate      string `json:"completedDate"`
}

// RunStatistic is the count of results for a single outcome.
type RunStatistic struct {
	Outcome string `json:"outcome"`
	State   string `json:"state"`
	Count   int    `json:"count"`
}

// TestRunStatistics mirrors TestRunStatistic.
type TestRunStatistics struct {
	Run           TestRunRef     `json:"run"`
	RunStatistics []RunStatistic `json:"runStatistics"`
}

// TestRunRef identifies the run the statistics belong to.
type TestRunRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
