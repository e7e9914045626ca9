package durable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InsertFindOne(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.Insert(ctx, "module_registry", "planner", Document{"module_name": "planner", "version": "1.0"})
	require.NoError(t, err)

	doc, err := store.FindOne(ctx, "module_registry", "planner")
	require.NoError(t, err)
	assert.Equal(t, "planner", doc["module_name"])
}

func TestMemoryStore_DuplicateKey(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "module_registry", "planner", Document{"v": 1}))

	err := store.Insert(ctx, "module_registry", "planner", Document{"v": 2})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemoryStore_KeylessInsertsNeverCollide(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "audit_logs", "", Document{"log_id": "a"}))
	require.NoError(t, store.Insert(ctx, "audit_logs", "", Document{"log_id": "b"}))

	assert.Len(t, store.List("audit_logs"), 2)
}

func TestMemoryStore_FindOne_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.FindOne(context.Background(), "module_registry", "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Merge(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "workflows", "wf-1", Document{
		"workflow_id": "wf-1",
		"status":      "created",
		"name":        "deploy",
	}))

	err := store.Merge(ctx, "workflows", "wf-1", Document{"status": "running"})
	require.NoError(t, err)

	doc, err := store.FindOne(ctx, "workflows", "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "running", doc["status"])
	assert.Equal(t, "deploy", doc["name"], "merge must preserve unpatched fields")
}

func TestMemoryStore_Merge_NotFound(t *testing.T) {
	store := NewMemoryStore()

	err := store.Merge(context.Background(), "workflows", "ghost", Document{"status": "running"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CollectionsAreIsolated(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, "module_registry", "planner", Document{"v": 1}))

	_, err := store.FindOne(ctx, "workflows", "planner")
	assert.ErrorIs(t, err, ErrNotFound)
}
