package taskstore_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	domain "github.com/yash-jain-1224/crm-dashboard/internal/domain/upload"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/taskstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := taskstore.NewMemoryStore(taskstore.WithIDGenerator(func() string { return "task-1" }))

	task, err := store.Create(ctx, crm.KindContacts, 2)
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.ID)
	assert.Equal(t, domain.StatusQueued, task.Status)

	require.NoError(t, store.Start(ctx, task.ID))
	require.NoError(t, store.ApplyBatch(ctx, task.ID, domain.BatchResult{
		Processed:    2,
		SuccessCount: 1,
		FailedCount:  1,
		Errors:       []domain.RowError{{Row: 3, Error: "Duplicate email within uploaded file"}},
	}))
	require.NoError(t, store.Complete(ctx, task.ID))

	got, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, got.Status)
	assert.Equal(t, 2, got.Processed)
	assert.Len(t, got.Errors, got.FailedCount)

	assert.ErrorIs(t, store.ApplyBatch(ctx, task.ID, domain.BatchResult{}), domain.ErrTaskFinalized)
	assert.ErrorIs(t, store.Fail(ctx, task.ID, "boom"), domain.ErrTaskFinalized)

	again, err := store.Get(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestMemoryStoreUnknownTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := taskstore.NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	assert.ErrorIs(t, store.Start(ctx, "missing"), domain.ErrTaskNotFound)
	assert.ErrorIs(t, store.ApplyBatch(ctx, "missing", domain.BatchResult{}), domain.ErrTaskNotFound)
}

func TestMemoryStoreRejectedUpdateLeavesTaskUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := taskstore.NewMemoryStore()
	task, _ := store.Create(ctx, crm.KindLeads, 1)
	require.NoError(t, store.Start(ctx, task.ID))

	err := store.ApplyBatch(ctx, task.ID, domain.BatchResult{Processed: 5, SuccessCount: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidBatch)

	got, _ := store.Get(ctx, task.ID)
	assert.Equal(t, 0, got.Processed)
}

func TestMemoryStoreSnapshotsAreIsolated(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := taskstore.NewMemoryStore()
	task, _ := store.Create(ctx, crm.KindContacts, 2)
	require.NoError(t, store.Start(ctx, task.ID))
	require.NoError(t, store.ApplyBatch(ctx, task.ID, domain.BatchResult{
		Processed:   1,
		FailedCount: 1,
		Errors:      []domain.RowError{{Row: 2, Error: "bad"}},
	}))

	snapshot, _ := store.Get(ctx, task.ID)
	require.NoError(t, store.ApplyBatch(ctx, task.ID, domain.BatchResult{
		Processed:   1,
		FailedCount: 1,
		Errors:      []domain.RowError{{Row: 3, Error: "bad"}},
	}))

	assert.Equal(t, 1, snapshot.Processed)
	assert.Len(t, snapshot.Errors, 1)
}

func TestMemoryStoreConcurrentReadersAndWriters(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := taskstore.NewMemoryStore()

	const writers = 8
	const batches = 50

	ids := make([]string, writers)
	for i := range ids {
		task, err := store.Create(ctx, crm.KindAccounts, batches)
		require.NoError(t, err)
		require.NoError(t, store.Start(ctx, task.ID))
		ids[i] = task.ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		id := id
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < batches; i++ {
				_ = store.ApplyBatch(ctx, id, domain.BatchResult{
					Processed:   1,
					FailedCount: 1,
					Errors:      []domain.RowError{{Row: i + 2, Error: fmt.Sprintf("row %d", i)}},
				})
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < batches; i++ {
				snapshot, err := store.Get(ctx, id)
				if err != nil {
					continue
				}
				if snapshot.SuccessCount+snapshot.FailedCount != snapshot.Processed || len(snapshot.Errors) != snapshot.FailedCount {
					t.Errorf("inconsistent snapshot: %+v", snapshot)
					return
				}
			}
		}()
	}
	wg.Wait()

	for _, id := range ids {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, batches, got.Processed)
	}
}

func TestMemoryStoreEvict(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	clock := &fakeClock{now: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)}
	store := taskstore.NewMemoryStore(taskstore.WithClock(clock.Now))

	finished, _ := store.Create(ctx, crm.KindTasks, 0)
	require.NoError(t, store.Start(ctx, finished.ID))
	require.NoError(t, store.Complete(ctx, finished.ID))

	running, _ := store.Create(ctx, crm.KindTasks, 10)
	require.NoError(t, store.Start(ctx, running.ID))

	clock.Advance(30 * time.Minute)
	assert.Equal(t, 0, store.Evict(clock.Now(), time.Hour))

	clock.Advance(31 * time.Minute)
	assert.Equal(t, 1, store.Evict(clock.Now(), time.Hour))
	assert.Equal(t, 1, store.Len())

	_, err := store.Get(ctx, finished.ID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
	_, err = store.Get(ctx, running.ID)
	assert.NoError(t, err)
}

func TestSweeperEvictsOnSweep(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := taskstore.NewMemoryStore(taskstore.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))
	task, _ := store.Create(ctx, crm.KindEmailCampaigns, 0)
	require.NoError(t, store.Start(ctx, task.ID))
	require.NoError(t, store.Complete(ctx, task.ID))

	sweeper := taskstore.NewSweeper(store, time.Hour, "@every 1h", zaptest.NewLogger(t))
	require.NoError(t, sweeper.Start())
	defer sweeper.Stop()

	sweeper.Sweep()
	assert.Equal(t, 0, store.Len())
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	t.Parallel()

	sweeper := taskstore.NewSweeper(taskstore.NewMemoryStore(), time.Hour, "every now and then", nil)
	assert.Error(t, sweeper.Start())
}
