package workflow

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poma/internal/store/durable"
)

func newService() *Service {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(durable.NewMemoryStore(), logger)
}

func TestCreateAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	err := svc.Create(ctx, Workflow{
		WorkflowID: "wf-1",
		Name:       "deploy",
		Status:     "created",
		Phases: []map[string]any{
			{"phase_id": "p1", "name": "build"},
			{"phase_id": "p2", "name": "release"},
		},
	})
	require.NoError(t, err)

	doc, err := svc.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "deploy", doc["name"])
	assert.Equal(t, "created", doc["status"])
	assert.Len(t, doc["phases"], 2)
	assert.NotEmpty(t, doc["created_at"])
}

func TestCreate_Duplicate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	wf := Workflow{WorkflowID: "wf-1", Name: "deploy", Phases: []map[string]any{}}
	require.NoError(t, svc.Create(ctx, wf))
	assert.ErrorIs(t, svc.Create(ctx, wf), durable.ErrDuplicate)
}

func TestUpdate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	require.NoError(t, svc.Create(ctx, Workflow{
		WorkflowID: "wf-1",
		Name:       "deploy",
		Status:     "created",
		Phases:     []map[string]any{},
	}))

	require.NoError(t, svc.Update(ctx, "wf-1", durable.Document{
		"status":           "running",
		"current_phase_id": "p1",
	}))

	doc, err := svc.Get(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "running", doc["status"])
	assert.Equal(t, "p1", doc["current_phase_id"])
	assert.Equal(t, "deploy", doc["name"])
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newService()

	err := svc.Update(context.Background(), "ghost", durable.Document{"status": "running"})
	assert.ErrorIs(t, err, durable.ErrNotFound)
}
