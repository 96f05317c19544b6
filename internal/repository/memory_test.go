package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.com/crmbridge/contacts-sync/internal/integration"
	"gitlab.com/crmbridge/contacts-sync/internal/model"
)

// TestMemoryUpsertCreatesAndOverwrites verifies the create-or-overwrite
// semantics keyed on the external id.
func TestMemoryUpsertCreatesAndOverwrites(t *testing.T) {
	store := NewMemoryStore()

	first := model.Contact{FirstName: "Jane", ExternalId: "1"}
	assert.NoError(t, store.Upsert(context.Background(), &first))
	assert.Equal(t, int64(1), first.Id)

	second := model.Contact{FirstName: "Janet", ExternalId: "1"}
	assert.NoError(t, store.Upsert(context.Background(), &second))
	assert.Equal(t, first.Id, second.Id)

	all, err := store.FindAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, len(all))
	assert.Equal(t, "Janet", all[0].FirstName)
}

// TestMemoryUpsertKeepsLastSyncedAt verifies that overwriting a contact does
// not clear its sync timestamp.
func TestMemoryUpsertKeepsLastSyncedAt(t *testing.T) {
	store := NewMemoryStore()

	contact := model.Contact{FirstName: "Jane", ExternalId: "1"}
	assert.NoError(t, store.Upsert(context.Background(), &contact))
	syncedAt := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	assert.NoError(t, store.MarkSynced(context.Background(), contact.Id, syncedAt))

	overwrite := model.Contact{FirstName: "Janet", ExternalId: "1"}
	assert.NoError(t, store.Upsert(context.Background(), &overwrite))

	stored, err := store.FindByExternalId(context.Background(), "1")
	assert.NoError(t, err)
	assert.Equal(t, "Janet", stored.FirstName)
	assert.NotNil(t, stored.LastSyncedAt)
	assert.Equal(t, syncedAt, *stored.LastSyncedAt)
}

// TestMemoryFindUnknown verifies the not-found sentinels.
func TestMemoryFindUnknown(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.FindById(context.Background(), 42)
	assert.True(t, errors.Is(err, integration.ErrContactNotFound))

	_, err = store.FindByExternalId(context.Background(), "42")
	assert.True(t, errors.Is(err, integration.ErrContactNotFound))

	err = store.MarkSynced(context.Background(), 42, time.Now())
	assert.True(t, errors.Is(err, integration.ErrContactNotFound))
}

// TestMemoryFindAllOrdered verifies that listing returns contacts in id
// order.
func TestMemoryFindAllOrdered(t *testing.T) {
	store := NewMemoryStore()
	store.Add(model.Contact{FirstName: "Aaron"})
	store.Add(model.Contact{FirstName: "Berta"})
	store.Add(model.Contact{FirstName: "Carla"})

	all, err := store.FindAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 3, len(all))
	assert.Equal(t, "Aaron", all[0].FirstName)
	assert.Equal(t, "Berta", all[1].FirstName)
	assert.Equal(t, "Carla", all[2].FirstName)
}
