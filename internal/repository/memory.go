package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"gitlab.com/crmbridge/contacts-sync/internal/integration"
	"gitlab.com/crmbridge/contacts-sync/internal/model"
)

// MemoryStore is a thread-safe in-memory contact store. It backs tests and
// database-less runs of the daemon.
type MemoryStore struct {
	mu       sync.RWMutex
	contacts map[int64]model.Contact
	byExtId  map[string]int64
	nextId   int64
}

var _ integration.ContactStore = (*MemoryStore)(nil)

// NewMemoryStore initializes an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		contacts: make(map[int64]model.Contact),
		byExtId:  make(map[string]int64),
		nextId:   1,
	}
}

func (m *MemoryStore) FindById(ctx context.Context, id int64) (*model.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	contact, ok := m.contacts[id]
	if !ok {
		return nil, integration.ErrContactNotFound
	}
	return &contact, nil
}

func (m *MemoryStore) FindByExternalId(ctx context.Context, externalId string) (*model.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byExtId[externalId]
	if !ok {
		return nil, integration.ErrContactNotFound
	}
	contact := m.contacts[id]
	return &contact, nil
}

func (m *MemoryStore) FindAll(ctx context.Context) ([]model.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]model.Contact, 0, len(m.contacts))
	for _, contact := range m.contacts {
		all = append(all, contact)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Id < all[j].Id })
	return all, nil
}

// Upsert creates the contact if its external id is unknown and overwrites
// the existing record otherwise. The stored lastSyncedAt survives an
// overwrite.
func (m *MemoryStore) Upsert(ctx context.Context, contact *model.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.byExtId[contact.ExternalId]; ok {
		contact.Id = id
		contact.LastSyncedAt = m.contacts[id].LastSyncedAt
	} else {
		contact.Id = m.nextId
		m.nextId++
		m.byExtId[contact.ExternalId] = contact.Id
	}
	m.contacts[contact.Id] = *contact
	return nil
}

func (m *MemoryStore) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	contact, ok := m.contacts[id]
	if !ok {
		return integration.ErrContactNotFound
	}
	contact.LastSyncedAt = &at
	m.contacts[id] = contact
	return nil
}

// Add stores a contact directly, bypassing the external-id keying. It exists
// for seeding tests and demo data.
func (m *MemoryStore) Add(contact model.Contact) model.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()

	contact.Id = m.nextId
	m.nextId++
	m.contacts[contact.Id] = contact
	if contact.ExternalId != "" {
		m.byExtId[contact.ExternalId] = contact.Id
	}
	return contact
}
