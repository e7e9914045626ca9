package httptransport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (s *HandlerSuite) patchJSON(path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	payload, err := json.Marshal(body)
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPatch, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var resp map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func (s *HandlerSuite) TestRegistryLifecycle() {
	rec, _ := s.postJSON("/registry", map[string]any{
		"module_name": "planner",
		"version":     "1.0.0",
		"status":      "beta",
		"owner":       "core-team",
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	rec, _ = s.patchJSON("/registry/planner", map[string]any{"status": "active"})
	require.Equal(s.T(), http.StatusOK, rec.Code)

	rec, resp := s.getJSON("/registry/planner")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "active", resp["status"])
	assert.Equal(s.T(), "core-team", resp["owner"])
	assert.Equal(s.T(), "1.0.0", resp["version"])
}

func (s *HandlerSuite) TestRegistry_DuplicateConflicts() {
	entry := map[string]any{"module_name": "planner", "version": "1.0.0", "status": "active"}

	rec, _ := s.postJSON("/registry", entry)
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	rec, _ = s.postJSON("/registry", entry)
	assert.Equal(s.T(), http.StatusConflict, rec.Code)
}

func (s *HandlerSuite) TestRegistry_NotFound() {
	rec, _ := s.getJSON("/registry/ghost")
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)

	rec, _ = s.patchJSON("/registry/ghost", map[string]any{"status": "active"})
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestRegistry_MissingRequired() {
	rec, _ := s.postJSON("/registry", map[string]any{"module_name": "planner"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestWorkflowLifecycle() {
	rec, _ := s.postJSON("/workflows", map[string]any{
		"workflow_id": "wf-1",
		"name":        "deploy",
		"status":      "created",
		"phases": []map[string]any{
			{"phase_id": "p1", "name": "build"},
		},
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code)

	rec, _ = s.patchJSON("/workflows/wf-1", map[string]any{"status": "running", "current_phase_id": "p1"})
	require.Equal(s.T(), http.StatusOK, rec.Code)

	rec, resp := s.getJSON("/workflows/wf-1")
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "running", resp["status"])
	assert.Equal(s.T(), "p1", resp["current_phase_id"])
	assert.Equal(s.T(), "deploy", resp["name"])
}

func (s *HandlerSuite) TestWorkflow_MissingPhases() {
	rec, _ := s.postJSON("/workflows", map[string]any{
		"workflow_id": "wf-1",
		"name":        "deploy",
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestArchiveEndpoints() {
	rec, _ := s.postJSON("/archive/chat", map[string]any{
		"message_id": "m-1",
		"session_id": "s-1",
		"timestamp":  "2026-02-01T08:00:00Z",
		"sender":     "user",
		"content":    "hello",
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code)
	assert.Len(s.T(), s.durable.List("chat_history"), 1)

	rec, _ = s.postJSON("/archive/ccwj-snapshot", map[string]any{
		"snapshot_id": "snap-1",
		"timestamp":   "2026-02-01T08:00:00Z",
		"data":        map[string]any{"focus": "testing"},
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code)
	assert.Len(s.T(), s.durable.List("ccwj_snapshots"), 1)

	rec, _ = s.postJSON("/archive/analytics", map[string]any{
		"report_name": "daily",
		"timestamp":   "2026-02-01T08:00:00Z",
		"metrics":     map[string]any{"publishes": 42},
	})
	require.Equal(s.T(), http.StatusCreated, rec.Code)
	assert.Len(s.T(), s.durable.List("analytics"), 1)
}

func (s *HandlerSuite) TestArchiveChat_MissingFields() {
	rec, _ := s.postJSON("/archive/chat", map[string]any{"message_id": "m-1"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}
