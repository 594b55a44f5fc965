package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
)

const testProject = "My Default Project Name"

// fakeADO serves the subset of the REST API the commands call.
type fakeADO struct {
	t *testing.T

	mu          sync.Mutex
	token       string
	definitions []map[string]any
	latest      map[int]map[string]any
	runs        map[string][]map[string]any
	stats       map[int][]map[string]any
	failStats   bool
	puts        []map[string]any
}

func newFakeADO(t *testing.T) *fakeADO {
	t.Helper()
	return &fakeADO{
		t:      t,
		token:  "secret",
		latest: map[int]map[string]any{},
		runs:   map[string][]map[string]any{},
		stats:  map[int][]map[string]any{},
	}
}

func (f *fakeADO) addPipeline(id int, name, path string) {
	f.definitions = append(f.definitions, map[string]any{
		"id": id, "name": name, "path": path, "queueStatus": "enabled",
	})
}

func (f *fakeADO) addBuild(defID, buildID int) string {
	uri := fmt.Sprintf("vstfs:///Build/Build/%d", buildID)
	f.latest[defID] = map[string]any{"id": buildID, "uri": uri}
	return uri
}

func (f *fakeADO) start() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /org/_apis/projects", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"count": 2, "value": []map[string]any{
			{"id": "other-id", "name": "Other"},
			{"id": "proj-id", "name": testProject},
		}})
	})
	mux.HandleFunc("GET /org/proj-id/_apis/build/definitions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"count": len(f.definitions), "value": f.definitions})
	})
	mux.HandleFunc("GET /org/proj-id/_apis/build/definitions/{id}", func(w http.ResponseWriter, r *http.Request) {
		def, ok := f.definition(r.PathValue("id"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, def)
	})
	mux.HandleFunc("PUT /org/proj-id/_apis/build/definitions/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		data, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(data, &body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.puts = append(f.puts, body)
		f.mu.Unlock()
		writeJSON(w, body)
	})
	mux.HandleFunc("GET /org/proj-id/_apis/build/builds/{id}/report", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(r.PathValue("id"))
		writeJSON(w, map[string]any{"buildId": id, "content": fmt.Sprintf("<html>%d</html>", id), "type": "html"})
	})
	mux.HandleFunc("GET /org/proj-id/_apis/test/runs", func(w http.ResponseWriter, r *http.Request) {
		runs := f.runs[r.URL.Query().Get("buildUri")]
		writeJSON(w, map[string]any{"count": len(runs), "value": runs})
	})
	mux.HandleFunc("GET /org/proj-id/_apis/test/runs/{id}/Statistics", func(w http.ResponseWriter, r *http.Request) {
		if f.failStats {
			http.Error(w, "stats unavailable", http.StatusInternalServerError)
			return
		}
		id, _ := strconv.Atoi(r.PathValue("id"))
		writeJSON(w, map[string]any{"run": map[string]any{"id": r.PathValue("id")}, "runStatistics": f.stats[id]})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "" || pass != f.token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	f.t.Cleanup(srv.Close)
	return srv
}

func (f *fakeADO) definition(raw string) (map[string]any, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return nil, false
	}
	for _, d := range f.definitions {
		if d["id"] == id {
			out := map[string]any{"revision": 3}
			for k, v := range d {
				out[k] = v
			}
			if b, ok := f.latest[id]; ok {
				out["latestCompletedBuild"] = b
			}
			return out, true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// workspace switches into a temp dir holding a config that points at srv.
func workspace(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	dir := t.TempDir()
	cfg := fmt.Sprintf("org_url: %s/org\nrate_limit: 1000\n", srv.URL)
	if err := os.WriteFile(filepath.Join(dir, ".adoreport.yml"), []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	chdir(t, dir)
	t.Setenv("ADO_PAT", "")
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(args)
	out := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errBuf)
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %q: %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore dir: %v", err)
		}
	})
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %q: %v", path, err)
	}
	return string(data)
}
