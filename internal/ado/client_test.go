package ado

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type recorded struct {
	method  string
	path    string
	version string
	query   string
}

type fakeService struct {
	mu       sync.Mutex
	requests []recorded
	mux      *http.ServeMux
	putBody  map[string]any
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	f := &fakeService{mux: http.NewServeMux()}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, recorded{
			method:  r.Method,
			path:    r.URL.Path,
			version: r.URL.Query().Get("api-version"),
			query:   r.URL.RawQuery,
		})
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeService) last(t *testing.T) recorded {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		t.Fatalf("no requests recorded")
	}
	return f.requests[len(f.requests)-1]
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := New(Config{OrganizationURL: baseURL + "/myorg", Token: "secret", RateLimit: 1000, RateBurst: 100})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewValidatesConfig(t *testing.T) {
	if _, err := New(Config{Token: "x"}); err == nil {
		t.Fatalf("expected error for missing organization URL")
	}
	if _, err := New(Config{OrganizationURL: "https://dev.azure.com/org"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := New(Config{OrganizationURL: "dev.azure.com/org", Token: "x"}); err == nil {
		t.Fatalf("expected error for relative URL")
	}
}

func TestClientSendsPATBasicAuth(t *testing.T) {
	f, srv := newFakeService(t)
	var gotAuth string
	f.mux.HandleFunc("/myorg/_apis/projects", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, map[string]any{"count": 1, "value": []Project{{ID: "p1", Name: "Proj"}}})
	})

	c := newTestClient(t, srv.URL)
	projects, err := c.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 1 || projects[0].Name != "Proj" {
		t.Fatalf("unexpected projects: %+v", projects)
	}

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte(":secret"))
	if gotAuth != want {
		t.Fatalf("authorization = %q, want %q", gotAuth, want)
	}
	if v := f.last(t).version; v != DefaultReleasedVersion {
		t.Fatalf("projects api-version = %q, want %q", v, DefaultReleasedVersion)
	}
}

func TestClientRoutesOperationsToVersions(t *testing.T) {
	f, srv := newFakeService(t)
	f.mux.HandleFunc("/myorg/Proj/_apis/build/definitions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"count": 2, "value": []map[string]any{
			{"id": 7, "name": "SF_CloudTests_staging_X", "path": `\Automation\MyDelivery`, "queueStatus": "enabled"},
			{"path": `\Automation\MyDelivery\Folder`},
		}})
	})
	f.mux.HandleFunc("/myorg/Proj/_apis/build/definitions/7", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("includeLatestBuilds") != "true" {
			t.Errorf("includeLatestBuilds not requested: %s", r.URL.RawQuery)
		}
		writeJSON(w, map[string]any{
			"id": 7, "name": "SF_CloudTests_staging_X",
			"latestCompletedBuild": map[string]any{"id": 901, "uri": "vstfs:///Build/Build/901"},
		})
	})
	f.mux.HandleFunc("/myorg/Proj/_apis/build/builds/901/report", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"buildId": 901, "content": "<html>ok</html>", "type": "html"})
	})

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	defs, err := c.ListDefinitions(ctx, "Proj")
	if err != nil {
		t.Fatalf("list definitions: %v", err)
	}
	if len(defs) != 2 || !defs[0].IsPipeline() || defs[1].IsPipeline() {
		t.Fatalf("unexpected definitions: %+v", defs)
	}
	if v := f.last(t).version; v != DefaultPinnedVersion {
		t.Fatalf("definitions api-version = %q, want pinned", v)
	}

	def, err := c.GetDefinition(ctx, "Proj", 7)
	if err != nil {
		t.Fatalf("get definition: %v", err)
	}
	if def.LatestCompletedBuild == nil || def.LatestCompletedBuild.ID != 901 {
		t.Fatalf("latest completed build not decoded: %+v", def)
	}
	if v := f.last(t).version; v != DefaultReleasedVersion {
		t.Fatalf("definition api-version = %q, want released", v)
	}

	report, err := c.GetBuildReport(ctx, "Proj", 901)
	if err != nil {
		t.Fatalf("get build report: %v", err)
	}
	if report.BuildID != 901 || report.Content != "<html>ok</html>" {
		t.Fatalf("unexpected report: %+v", report)
	}
	if v := f.last(t).version; v != DefaultPinnedVersion {
		t.Fatalf("report api-version = %q, want pinned", v)
	}
}

func TestClientTestRunEndpoints(t *testing.T) {
	f, srv := newFakeService(t)
	f.mux.HandleFunc("/myorg/Proj/_apis/test/runs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("buildUri"); got != "vstfs:///Build/Build/901" {
			t.Errorf("buildUri = %q", got)
		}
		writeJSON(w, map[string]any{"count": 1, "value": []map[string]any{
			{"id": 55, "name": "run", "state": "Completed", "totalTests": 10, "passedTests": 8},
		}})
	})
	f.mux.HandleFunc("/myorg/Proj/_apis/test/runs/55/Statistics", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"run": map[string]any{"id": "55"},
			"runStatistics": []map[string]any{
				{"state": "Completed", "outcome": "Passed", "count": 8},
				{"state": "Completed", "outcome": "Failed", "count": 2},
			},
		})
	})

	c := newTestClient(t, srv.URL)
	ctx := context.Background()

	runs, err := c.ListTestRuns(ctx, "Proj", "vstfs:///Build/Build/901")
	if err != nil {
		t.Fatalf("list test runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != 55 || runs[0].PassedTests != 8 {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if !strings.Contains(f.last(t).query, "includeRunDetails=true") {
		t.Fatalf("includeRunDetails not requested: %s", f.last(t).query)
	}

	stats, err := c.GetTestRunStatistics(ctx, "Proj", 55)
	if err != nil {
		t.Fatalf("get statistics: %v", err)
	}
	if len(stats.RunStatistics) != 2 || stats.RunStatistics[1].Outcome != "Failed" || stats.RunStatistics[1].Count != 2 {
		t.Fatalf("unexpected statistics: %+v", stats)
	}
}

func TestClientAuthenticationErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"unauthorized", http.StatusUnauthorized},
		{"sign-in page", http.StatusNonAuthoritativeInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeService(t)
			f.mux.HandleFunc("/myorg/_apis/projects", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, "<html>sign in</html>")
			})

			c := newTestClient(t, srv.URL)
			err := c.Verify(context.Background())
			if !errors.Is(err, ErrAuthentication) {
				t.Fatalf("expected ErrAuthentication, got %v", err)
			}
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) || httpErr.StatusCode != tt.status {
				t.Fatalf("expected HTTPError with status %d, got %v", tt.status, err)
			}
		})
	}
}

func TestClientNotFound(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv.URL)
	_, err := c.GetDefinition(context.Background(), "Proj", 404)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if errors.Is(err, ErrAuthentication) {
		t.Fatalf("404 must not look like an authentication failure")
	}
}

func TestSetQueueStatusPreservesDefinition(t *testing.T) {
	f, srv := newFakeService(t)
	f.mux.HandleFunc("/myorg/Proj/_apis/build/definitions/5", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, map[string]any{"id": 5, "name": "pipe", "queueStatus": "enabled", "revision": 3})
		case http.MethodPut:
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type = %q", ct)
			}
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode put body: %v", err)
			}
			f.putBody = body
			writeJSON(w, body)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	c := newTestClient(t, srv.URL)
	previous, err := c.SetQueueStatus(context.Background(), "Proj", 5, QueueDisabled)
	if err != nil {
		t.Fatalf("set queue status: %v", err)
	}
	if previous != QueueEnabled {
		t.Fatalf("previous = %q, want enabled", previous)
	}
	if f.putBody["queueStatus"] != "disabled" {
		t.Fatalf("queueStatus not updated: %+v", f.putBody)
	}
	if f.putBody["revision"] != float64(3) {
		t.Fatalf("unmodelled fields dropped: %+v", f.putBody)
	}
	if v := f.last(t).version; v != DefaultReleasedVersion {
		t.Fatalf("update api-version = %q, want released", v)
	}
}

func TestSetQueueStatusMalformedStatus(t *testing.T) {
	f, srv := newFakeService(t)
	puts := 0
	f.mux.HandleFunc("/myorg/Proj/_apis/build/definitions/5", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			puts++
		}
		writeJSON(w, map[string]any{"id": 5, "name": "pipe", "queueStatus": 2})
	})

	c := newTestClient(t, srv.URL)
	_, err := c.SetQueueStatus(context.Background(), "Proj", 5, QueuePaused)
	if err == nil || !strings.Contains(err.Error(), "decode queue status of definition 5") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if puts != 0 {
		t.Fatalf("definition must not be updated after a decode failure, got %d puts", puts)
	}
}

func TestParseQueueStatus(t *testing.T) {
	for _, in := range []string{"enabled", "Disabled", " paused "} {
		if _, err := ParseQueueStatus(in); err != nil {
			t.Fatalf("ParseQueueStatus(%q): %v", in, err)
		}
	}
	if _, err := ParseQueueStatus("stopped"); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestCapabilities(t *testing.T) {
	caps := NewCapabilities("7.1", "6.0-preview", OpGetBuildReport, OpListTestRuns)
	if got := caps.VersionFor(OpGetBuildReport); got != "6.0-preview" {
		t.Fatalf("report version = %q", got)
	}
	if got := caps.VersionFor(OpListProjects); got != "7.1" {
		t.Fatalf("projects version = %q", got)
	}
	ops := caps.PinnedOperations()
	if len(ops) != 2 || ops[0] != OpGetBuildReport || ops[1] != OpListTestRuns {
		t.Fatalf("pinned operations = %v", ops)
	}
	if _, ok := ParseOperation("get-build-report"); !ok {
		t.Fatalf("expected known operation")
	}
	if _, ok := ParseOperation("delete-everything"); ok {
		t.Fatalf("expected unknown operation")
	}
}
