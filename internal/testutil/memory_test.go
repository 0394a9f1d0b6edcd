package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/tasktrail/internal/domain"
)

func TestTaskStore_ListForUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewTaskStore()
	base := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

	store.Put(&domain.Task{ID: "old", CreatorID: "a", CreatedAt: base})
	store.Put(&domain.Task{ID: "new", CreatorID: "a", CreatedAt: base.Add(time.Hour)})
	store.Put(&domain.Task{ID: "tie-b", CreatorID: "b", AssigneeIDs: []string{"a"}, CreatedAt: base.Add(30 * time.Minute)})
	store.Put(&domain.Task{ID: "tie-a", CreatorID: "a", CreatedAt: base.Add(30 * time.Minute)})
	store.Put(&domain.Task{ID: "other", CreatorID: "c", CreatedAt: base.Add(2 * time.Hour)})

	tasks, total, err := store.ListForUser(ctx, "a", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, total)

	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	assert.Equal(t, []string{"new", "tie-a", "tie-b", "old"}, ids)

	tasks, _, err = store.ListForUser(ctx, "a", 2, 3)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "old", tasks[0].ID)
}
