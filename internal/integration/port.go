package integration

import (
	"context"
	"errors"
	"time"

	"gitlab.com/crmbridge/contacts-sync/internal/model"
	"gitlab.com/crmbridge/contacts-sync/pkg/dummyjson"
)

// ErrContactNotFound is returned by a ContactStore when a lookup matches no
// record.
var ErrContactNotFound = errors.New("contact not found")

// Directory is the outbound port to the remote user directory.
type Directory interface {
	FetchUser(ctx context.Context, id string) (*dummyjson.User, error)
	CreateUser(ctx context.Context, payload dummyjson.UserPayload) (*dummyjson.User, error)
}

// ContactStore is the port to the local contact record store. Upsert is keyed
// on ExternalId: it creates the record if no contact carries that external id
// and overwrites the existing record otherwise.
type ContactStore interface {
	FindById(ctx context.Context, id int64) (*model.Contact, error)
	FindByExternalId(ctx context.Context, externalId string) (*model.Contact, error)
	FindAll(ctx context.Context) ([]model.Contact, error)
	Upsert(ctx context.Context, contact *model.Contact) error
	MarkSynced(ctx context.Context, id int64, at time.Time) error
}
