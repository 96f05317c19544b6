// Package integration synchronizes local contact records with the remote
// user directory. Both directions are single-attempt: remote failures are
// logged and swallowed so that a failed sync never breaks the trigger that
// requested it, while malformed remote data and local store failures
// propagate.
package integration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"gitlab.com/crmbridge/contacts-sync/pkg/dummyjson"
)

// Service runs the inbound and outbound sync operations.
type Service struct {
	store     ContactStore
	directory Directory
	logger    *zap.Logger
	now       func() time.Time
}

// New creates a sync service. The now function is injectable for tests; nil
// selects time.Now.
func New(store ContactStore, directory Directory, logger *zap.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, directory: directory, logger: logger, now: now}
}

// SyncInbound fetches the directory user with the given external id and
// upserts the mapped contact keyed on that id. A rejected or failed fetch is
// logged and swallowed; local state stays untouched. A user record with a
// malformed birthDate is a hard error. The operation is idempotent: repeated
// calls with unchanged remote data converge on the same local record.
func (s *Service) SyncInbound(ctx context.Context, externalId string) error {
	user, err := s.directory.FetchUser(ctx, externalId)
	if err != nil {
		if errors.Is(err, dummyjson.ErrMalformedResponse) {
			return err
		}
		var statusErr *dummyjson.StatusError
		if errors.As(err, &statusErr) {
			s.logger.Warn("user fetch rejected by directory",
				zap.String("external_id", externalId),
				zap.Int("status", statusErr.StatusCode),
				zap.String("body", statusErr.Body))
			return nil
		}
		s.logger.Warn("user fetch failed",
			zap.String("external_id", externalId),
			zap.Error(err))
		return nil
	}

	contact, err := ContactFromUser(user)
	if err != nil {
		return err
	}
	if err := s.store.Upsert(ctx, &contact); err != nil {
		return fmt.Errorf("upsert contact for external id %s: %w", externalId, err)
	}
	s.logger.Info("contact synced from directory",
		zap.String("external_id", externalId),
		zap.Int64("contact_id", contact.Id))
	return nil
}

// PushOutbound looks up the contact with the given local id and submits it to
// the directory. On a 2xx answer the contact's lastSyncedAt is set to the
// current date; on any remote failure the record stays unchanged and the
// failure is only logged. Store failures, including an unknown contact id,
// propagate.
func (s *Service) PushOutbound(ctx context.Context, contactId int64) error {
	contact, err := s.store.FindById(ctx, contactId)
	if err != nil {
		return fmt.Errorf("look up contact %d: %w", contactId, err)
	}

	payload := PayloadFromContact(contact)
	if _, err := s.directory.CreateUser(ctx, payload); err != nil {
		var statusErr *dummyjson.StatusError
		if errors.As(err, &statusErr) {
			s.logger.Warn("user create rejected by directory",
				zap.Int64("contact_id", contactId),
				zap.Int("status", statusErr.StatusCode),
				zap.String("body", statusErr.Body))
		} else {
			s.logger.Warn("user create failed",
				zap.Int64("contact_id", contactId),
				zap.Error(err))
		}
		return nil
	}

	syncedAt := truncateToDate(s.now())
	if err := s.store.MarkSynced(ctx, contact.Id, syncedAt); err != nil {
		return fmt.Errorf("mark contact %d synced: %w", contactId, err)
	}
	s.logger.Info("contact pushed to directory",
		zap.Int64("contact_id", contactId),
		zap.String("external_id", contact.ExternalId),
		zap.Time("synced_at", syncedAt))
	return nil
}

// truncateToDate drops the time-of-day part; lastSyncedAt is a date.
func truncateToDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
