package history

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/grycap/onetrigger/internal/common"
	"github.com/grycap/onetrigger/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "nested", "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RecordCycle(t *testing.T) {
	store := newTestStore(t)
	started := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	report := models.CycleReport{
		RunID:      "run-1",
		Cycle:      2,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		FilesSeen:  5,
		NewFiles:   []models.FilePathInfo{{ID: "obj-1", Path: "/s/a"}, {ID: "obj-2", Path: "/s/b"}},
		Deliveries: []models.DeliveryResult{
			{
				DeliveryID:  "d-1",
				Event:       models.WebhookEvent{ID: "obj-1", Path: "/s/a"},
				WebhookURL:  "http://hook",
				StatusCode:  200,
				DeliveredAt: started.Add(time.Second),
			},
			{
				DeliveryID:  "d-2",
				Event:       models.WebhookEvent{ID: "obj-2", Path: "/s/b"},
				WebhookURL:  "http://hook",
				StatusCode:  503,
				Err:         &common.DeliveryError{URL: "http://hook", StatusCode: 503},
				DeliveredAt: started.Add(2 * time.Second),
			},
		},
	}
	store.CycleCompleted(report)

	cycles, err := store.recentCycles("run-1", 10)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, StatusCompleted, cycles[0].Status)
	assert.Equal(t, 2, cycles[0].Cycle)
	assert.Equal(t, 5, cycles[0].FilesSeen)
	assert.Equal(t, 2, cycles[0].NewFiles)
	assert.False(t, cycles[0].Bootstrap)
	assert.True(t, cycles[0].StartedAt.Equal(started))
	assert.False(t, cycles[0].Error.Valid)

	ok, err := store.deliveriesFor("obj-1")
	require.NoError(t, err)
	require.Len(t, ok, 1)
	assert.True(t, ok[0].Success)
	assert.Equal(t, "d-1", ok[0].DeliveryID)
	assert.Equal(t, 200, ok[0].StatusCode)

	failed, err := store.deliveriesFor("obj-2")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.False(t, failed[0].Success)
	assert.Equal(t, 503, failed[0].StatusCode)
	assert.Contains(t, failed[0].Error.String, "503")
}

func TestStore_RecordFailure(t *testing.T) {
	store := newTestStore(t)
	now := time.Now().UTC()

	store.CycleCompleted(models.CycleReport{RunID: "run-2", Cycle: 1, Bootstrap: true, StartedAt: now, FinishedAt: now})
	store.CycleFailed(models.CycleFailure{
		RunID:     "run-2",
		Cycle:     2,
		Attempt:   1,
		StartedAt: now,
		FailedAt:  now,
		Err:       errors.New("connection refused"),
	})

	cycles, err := store.recentCycles("run-2", 10)
	require.NoError(t, err)
	require.Len(t, cycles, 2)

	assert.Equal(t, StatusFailed, cycles[0].Status)
	assert.Equal(t, "connection refused", cycles[0].Error.String)
	assert.Equal(t, StatusCompleted, cycles[1].Status)
	assert.True(t, cycles[1].Bootstrap)

	other, err := store.recentCycles("unknown", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_ReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	store, err := NewStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, store.RecordCycle(models.CycleReport{RunID: "run-3", Cycle: 1, StartedAt: time.Now(), FinishedAt: time.Now()}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	cycles, err := reopened.recentCycles("run-3", 10)
	require.NoError(t, err)
	assert.Len(t, cycles, 1)
}
