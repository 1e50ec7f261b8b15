package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crimson-sun/splinter/internal/capability/generation"
	"github.com/crimson-sun/splinter/internal/capability/vectorstore"
	"github.com/crimson-sun/splinter/internal/cluster"
	"github.com/crimson-sun/splinter/internal/engine"
	"github.com/crimson-sun/splinter/internal/engine/testdata"
	"github.com/crimson-sun/splinter/internal/incident"
	"github.com/crimson-sun/splinter/internal/retrieval"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(context.Context, string) ([]float32, error) { return []float32{1}, nil }
func (s stubEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}
func (stubEmbedder) Close() error { return nil }

type stubStore struct{}

func (stubStore) Upsert(context.Context, []vectorstore.Point) error { return nil }
func (stubStore) Query(context.Context, []float32, int) ([]vectorstore.Match, error) {
	return nil, nil
}

type stubGenerator struct{ fail bool }

func (g stubGenerator) Generate(context.Context, string) (string, error) {
	if g.fail {
		return "", fmt.Errorf("%w: model offline", generation.ErrUnavailable)
	}
	return "The run failed because config.yaml is missing.", nil
}

func newTestServer(gen generation.Generator) *Server {
	idx := cluster.NewMemoryIndex()
	retr := retrieval.New(stubEmbedder{}, stubStore{}, retrieval.Config{}, zerolog.Nop())
	analyzer := engine.New(engine.Config{}, idx, retr, zerolog.Nop())
	return New(":0", Deps{
		Analyzer:  analyzer,
		Incidents: incident.NewStore(),
		Clusters:  idx,
		Generator: gen,
	}, zerolog.Nop())
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
			t.Fatalf("response not JSON: %v\n%s", err, rec.Body.String())
		}
	}
	return rec, payload
}

func webhookBody(t *testing.T, log string) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"repo":   "acme/shop",
		"run_id": "run-1",
		"status": "failure",
		"log":    log,
	})
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestWebhookAnalyzesFailure(t *testing.T) {
	s := newTestServer(stubGenerator{})
	entry := testdata.MustEntry("python-traceback")

	rec, payload := doJSON(t, s, http.MethodPost, "/webhook/ci", webhookBody(t, entry.Log))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["status"] != "analysis_completed" {
		t.Fatalf("status = %v", payload["status"])
	}
	if payload["incident_id"] == "" {
		t.Error("no incident id")
	}
	if !strings.Contains(payload["explanation"].(string), "config.yaml") {
		t.Errorf("explanation = %v", payload["explanation"])
	}
	result := payload["result"].(map[string]any)
	if result["outcome"] != "analyzed" {
		t.Errorf("outcome = %v", result["outcome"])
	}
}

func TestWebhookNeverFailsThePipeline(t *testing.T) {
	s := newTestServer(stubGenerator{})

	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "ignored"},
		{"invalid json", "{not json", "ignored"},
		{"no log", `{"repo": "acme/shop", "status": "failure"}`, "ignored"},
		{"successful run", `{"log": "all good", "status": "success"}`, "ignored"},
	}
	for _, c := range cases {
		rec, payload := doJSON(t, s, http.MethodPost, "/webhook/ci", c.body)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", c.name, rec.Code)
		}
		if payload["status"] != c.want {
			t.Errorf("%s: status field = %v, want %q", c.name, payload["status"], c.want)
		}
	}
}

func TestWebhookCleanLogCompletesWithoutIncident(t *testing.T) {
	s := newTestServer(stubGenerator{})
	entry := testdata.MustEntry("clean-build")

	rec, payload := doJSON(t, s, http.MethodPost, "/webhook/ci", webhookBody(t, entry.Log))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["status"] != "analysis_completed" {
		t.Fatalf("status = %v", payload["status"])
	}
	result := payload["result"].(map[string]any)
	if result["outcome"] != "clean_log" {
		t.Errorf("outcome = %v", result["outcome"])
	}

	_, incidents := doJSON(t, s, http.MethodGet, "/incidents", "")
	if incidents["count"].(float64) != 0 {
		t.Errorf("clean log recorded an incident")
	}
}

func TestWebhookGenerationOutageStillCompletes(t *testing.T) {
	s := newTestServer(stubGenerator{fail: true})
	entry := testdata.MustEntry("go-panic")

	rec, payload := doJSON(t, s, http.MethodPost, "/webhook/ci", webhookBody(t, entry.Log))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["status"] != "analysis_completed" {
		t.Fatalf("status = %v", payload["status"])
	}
	expl := payload["explanation"].(string)
	if !strings.Contains(expl, "Unable to generate") {
		t.Errorf("explanation = %q", expl)
	}
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := newTestServer(stubGenerator{})
	entry := testdata.MustEntry("jvm-caused-by")

	body, _ := json.Marshal(map[string]string{"run_id": "run-9", "log": entry.Log})
	rec, payload := doJSON(t, s, http.MethodPost, "/analyze", string(body))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	result := payload["result"].(map[string]any)
	if result["run_id"] != "run-9" || result["language"] != "jvm" {
		t.Errorf("result = %v", result)
	}
}

func TestAnalyzeEndpointRejectsMissingLog(t *testing.T) {
	s := newTestServer(stubGenerator{})
	rec, _ := doJSON(t, s, http.MethodPost, "/analyze", `{"run_id": "x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestIncidentEndpoints(t *testing.T) {
	s := newTestServer(stubGenerator{})
	entry := testdata.MustEntry("node-unhandled-rejection")

	_, payload := doJSON(t, s, http.MethodPost, "/webhook/ci", webhookBody(t, entry.Log))
	id := payload["incident_id"].(string)

	rec, list := doJSON(t, s, http.MethodGet, "/incidents?limit=10", "")
	if rec.Code != http.StatusOK || list["count"].(float64) != 1 {
		t.Fatalf("list = %v", list)
	}

	rec, inc := doJSON(t, s, http.MethodGet, "/incidents/"+id, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if inc["incident_id"] != id {
		t.Errorf("incident id = %v", inc["incident_id"])
	}

	rec, _ = doJSON(t, s, http.MethodGet, "/incidents/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing incident status = %d", rec.Code)
	}
}

func TestClustersEndpoint(t *testing.T) {
	s := newTestServer(stubGenerator{})
	entry := testdata.MustEntry("go-panic")

	doJSON(t, s, http.MethodPost, "/webhook/ci", webhookBody(t, entry.Log))
	doJSON(t, s, http.MethodPost, "/webhook/ci", webhookBody(t, entry.Log))

	rec, payload := doJSON(t, s, http.MethodGet, "/clusters", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload["count"].(float64) != 1 {
		t.Fatalf("count = %v", payload["count"])
	}
	clusters := payload["clusters"].([]any)
	first := clusters[0].(map[string]any)
	if first["count"].(float64) != 2 {
		t.Errorf("cluster count = %v", first["count"])
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(stubGenerator{})
	rec, payload := doJSON(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK || payload["status"] != "ok" {
		t.Fatalf("health = %d %v", rec.Code, payload)
	}
}
