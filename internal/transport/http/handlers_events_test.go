package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poma/internal/archive"
	"poma/internal/event"
	"poma/internal/lock"
	"poma/internal/platform/config"
	"poma/internal/ratelimit"
	"poma/internal/registry"
	"poma/internal/store/durable"
	"poma/internal/store/ephemeral"
	"poma/internal/workflow"
)

func (s *HandlerSuite) topicDocs(topic string) []map[string]any {
	entries, err := s.ephemeral.Range(context.Background(), topic, 0)
	require.NoError(s.T(), err)

	docs := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		var doc map[string]any
		require.NoError(s.T(), json.Unmarshal(entry.Data, &doc))
		docs = append(docs, doc)
	}
	return docs
}

func (s *HandlerSuite) TestPublishAudit() {
	rec, resp := s.postJSON("/events/audit", map[string]any{
		"log_id":    "log-1",
		"timestamp": "2026-03-01T12:00:00Z",
		"module":    "planner",
		"procedure": "decompose",
		"inputs":    map[string]any{"goal": "ship"},
		"outputs":   map[string]any{"steps": 3},
		"status":    "success",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), "published", resp["status"])
	assert.Equal(s.T(), event.TopicAuditLog, resp["topic"])
	assert.Equal(s.T(), string(event.MirrorWritten), resp["mirror"])
	assert.NotEmpty(s.T(), resp["entry_id"])

	docs := s.topicDocs(event.TopicAuditLog)
	require.Len(s.T(), docs, 1)
	assert.Equal(s.T(), "log-1", docs[0]["log_id"])

	mirrored := s.durable.List(event.CollectionAuditLogs)
	require.Len(s.T(), mirrored, 1)
	assert.Equal(s.T(), "log-1", mirrored[0]["log_id"])
}

func (s *HandlerSuite) TestPublishAudit_MissingRequired() {
	rec, _ := s.postJSON("/events/audit", map[string]any{
		"log_id": "log-1",
		"module": "planner",
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
	assert.Empty(s.T(), s.topicDocs(event.TopicAuditLog), "rejected records never reach the log")
}

func (s *HandlerSuite) TestPublishContextPatch() {
	rec, resp := s.postJSON("/events/ccwj", map[string]any{
		"patch_type": "replace",
		"target_id":  "ccwj-7",
		"changes":    map[string]any{"focus": "testing"},
		"origin":     "agent-2",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), string(event.MirrorSkipped), resp["mirror"])

	docs := s.topicDocs(event.TopicContextPatch)
	require.Len(s.T(), docs, 1)
	assert.Equal(s.T(), "agent-2", docs[0]["origin"])
}

func (s *HandlerSuite) TestPublishFeedback_DefaultsTimestamp() {
	rec, resp := s.postJSON("/events/feedback", map[string]any{
		"feedback_type": "bug_report",
		"message":       "release endpoint 500s",
		"rating":        2,
	})
	require.Equal(s.T(), http.StatusOK, rec.Code)
	assert.Equal(s.T(), string(event.MirrorWritten), resp["mirror"])

	docs := s.topicDocs(event.TopicFeedback)
	require.Len(s.T(), docs, 1)
	assert.Equal(s.T(), 2.0, docs[0]["rating"])
	assert.NotEmpty(s.T(), docs[0]["timestamp"])

	assert.Len(s.T(), s.durable.List(event.CollectionFeedback), 1)
}

func (s *HandlerSuite) TestPublishFeedback_BadTimestamp() {
	rec, _ := s.postJSON("/events/feedback", map[string]any{
		"feedback_type": "general",
		"message":       "hello",
		"timestamp":     "yesterday",
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestPublishWorkflowEvents_Ordered() {
	for _, name := range []string{"workflow_started", "step_completed"} {
		rec, _ := s.postJSON("/events/workflow", map[string]any{
			"event_name":  name,
			"workflow_id": "wf-1",
			"status":      "running",
		})
		require.Equal(s.T(), http.StatusOK, rec.Code)
	}

	docs := s.topicDocs(event.TopicWorkflow)
	require.Len(s.T(), docs, 2)
	assert.Equal(s.T(), "workflow_started", docs[0]["event_name"])
	assert.Equal(s.T(), "step_completed", docs[1]["event_name"])
}

// brokenDurable fails every write, simulating a durable store outage.
type brokenDurable struct {
	*durable.MemoryStore
}

func (b *brokenDurable) Insert(context.Context, string, string, durable.Document) error {
	return errors.New("durable store down")
}

func (s *HandlerSuite) TestPublishFeedback_MirrorOutage() {
	eph := ephemeral.NewMemoryStore()
	broken := &brokenDurable{durable.NewMemoryStore()}
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	handler := New(
		lock.NewManager(eph),
		ratelimit.NewLimiter(eph),
		event.NewPublisher(eph, broken, event.WithLogger(logger)),
		registry.New(broken, logger),
		workflow.New(broken, logger),
		archive.New(broken),
		eph,
		broken,
		logger,
		Config{DefaultLockTTL: 30 * time.Second, DefaultRateWindow: 60 * time.Second, Version: config.Version},
	)
	router := NewRouter(handler)

	payload, _ := json.Marshal(map[string]any{
		"feedback_type": "bug_report",
		"message":       "mirror is down",
	})
	req := httptest.NewRequest(http.MethodPost, "/events/feedback", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(s.T(), http.StatusBadGateway, rec.Code)

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(s.T(), true, resp["log_appended"], "partial failure must be visible to the caller")
	assert.Equal(s.T(), string(event.MirrorFailed), resp["mirror"])

	entries, err := eph.Range(context.Background(), event.TopicFeedback, 0)
	require.NoError(s.T(), err)
	assert.Len(s.T(), entries, 1, "topic append is unaffected by the mirror outage")
}
