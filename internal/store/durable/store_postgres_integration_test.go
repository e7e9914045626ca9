//go:build integration

package durable

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poma/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	pc := containers.NewPostgresContainer(t)
	store := NewPostgresStore(pc.DB)
	ctx := context.Background()

	require.NoError(t, store.EnsureSchema(ctx))

	t.Run("insert and find", func(t *testing.T) {
		err := store.Insert(ctx, "module_registry", "planner", Document{
			"module_name": "planner",
			"version":     "1.0.0",
			"status":      "active",
		})
		require.NoError(t, err)

		doc, err := store.FindOne(ctx, "module_registry", "planner")
		require.NoError(t, err)
		assert.Equal(t, "planner", doc["module_name"])
		assert.Equal(t, "active", doc["status"])
	})

	t.Run("duplicate key", func(t *testing.T) {
		err := store.Insert(ctx, "module_registry", "planner", Document{"version": "2.0.0"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("keyless inserts never collide", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, "audit_logs", "", Document{"log_id": "a"}))
		require.NoError(t, store.Insert(ctx, "audit_logs", "", Document{"log_id": "b"}))
	})

	t.Run("merge", func(t *testing.T) {
		require.NoError(t, store.Insert(ctx, "workflows", "wf-1", Document{
			"workflow_id": "wf-1",
			"name":        "deploy",
			"status":      "created",
		}))

		require.NoError(t, store.Merge(ctx, "workflows", "wf-1", Document{"status": "running"}))

		doc, err := store.FindOne(ctx, "workflows", "wf-1")
		require.NoError(t, err)
		assert.Equal(t, "running", doc["status"])
		assert.Equal(t, "deploy", doc["name"], "merge must preserve unpatched fields")
	})

	t.Run("merge not found", func(t *testing.T) {
		err := store.Merge(ctx, "workflows", "ghost", Document{"status": "running"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find not found", func(t *testing.T) {
		_, err := store.FindOne(ctx, "module_registry", "ghost")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("collections are isolated", func(t *testing.T) {
		_, err := store.FindOne(ctx, "workflows", "planner")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("health", func(t *testing.T) {
		assert.NoError(t, store.Health(ctx))
	})
}
