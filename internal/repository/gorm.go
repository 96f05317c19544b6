package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gitlab.com/crmbridge/contacts-sync/internal/integration"
	"gitlab.com/crmbridge/contacts-sync/internal/model"
)

// contactRecord is the gorm persistence shape of a contact.
type contactRecord struct {
	Id                int64  `gorm:"primaryKey"`
	FirstName         string `gorm:"column:firstname"`
	LastName          string `gorm:"column:lastname"`
	Email             string
	Phone             string
	Birthdate         time.Time
	MailingStreet     string
	MailingCity       string
	MailingPostalCode string
	MailingState      string
	MailingCountry    string
	ExternalId        string `gorm:"uniqueIndex"`
	LastSyncedAt      *time.Time
}

func (contactRecord) TableName() string {
	return "contacts"
}

func recordFromContact(contact *model.Contact) contactRecord {
	return contactRecord{
		Id:                contact.Id,
		FirstName:         contact.FirstName,
		LastName:          contact.LastName,
		Email:             contact.Email,
		Phone:             contact.Phone,
		Birthdate:         contact.Birthdate,
		MailingStreet:     contact.MailingStreet,
		MailingCity:       contact.MailingCity,
		MailingPostalCode: contact.MailingPostalCode,
		MailingState:      contact.MailingState,
		MailingCountry:    contact.MailingCountry,
		ExternalId:        contact.ExternalId,
		LastSyncedAt:      contact.LastSyncedAt,
	}
}

func (r contactRecord) toContact() model.Contact {
	return model.Contact{
		Id:                r.Id,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Phone:             r.Phone,
		Birthdate:         r.Birthdate,
		MailingStreet:     r.MailingStreet,
		MailingCity:       r.MailingCity,
		MailingPostalCode: r.MailingPostalCode,
		MailingState:      r.MailingState,
		MailingCountry:    r.MailingCountry,
		ExternalId:        r.ExternalId,
		LastSyncedAt:      r.LastSyncedAt,
	}
}

// PostgresStore implements the contact store on Postgres via the gorm object
// relational mapper.
type PostgresStore struct {
	db *gorm.DB
}

var _ integration.ContactStore = (*PostgresStore)(nil)

// NewPostgresStore opens the database and defines the schema.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&contactRecord{}); err != nil {
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) FindById(ctx context.Context, id int64) (*model.Contact, error) {
	var record contactRecord
	err := s.db.WithContext(ctx).First(&record, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, integration.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	contact := record.toContact()
	return &contact, nil
}

func (s *PostgresStore) FindByExternalId(ctx context.Context, externalId string) (*model.Contact, error) {
	var record contactRecord
	err := s.db.WithContext(ctx).Where("external_id = ?", externalId).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, integration.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	contact := record.toContact()
	return &contact, nil
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]model.Contact, error) {
	var records []contactRecord
	if err := s.db.WithContext(ctx).Order("id").Find(&records).Error; err != nil {
		return nil, err
	}
	contacts := make([]model.Contact, 0, len(records))
	for _, record := range records {
		contacts = append(contacts, record.toContact())
	}
	return contacts, nil
}

// Upsert inserts the contact or, on an external_id conflict, overwrites the
// mapped columns of the existing row. last_synced_at is excluded from the
// conflict assignment so an inbound sync never clears it.
func (s *PostgresStore) Upsert(ctx context.Context, contact *model.Contact) error {
	record := recordFromContact(contact)
	record.Id = 0
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"firstname", "lastname", "email", "phone", "birthdate",
			"mailing_street", "mailing_city", "mailing_postal_code",
			"mailing_state", "mailing_country",
		}),
	}).Create(&record).Error
	if err != nil {
		return err
	}

	var stored contactRecord
	if err := s.db.WithContext(ctx).Where("external_id = ?", contact.ExternalId).First(&stored).Error; err != nil {
		return err
	}
	contact.Id = stored.Id
	contact.LastSyncedAt = stored.LastSyncedAt
	return nil
}

func (s *PostgresStore) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&contactRecord{}).Where("id = ?", id).
		Update("last_synced_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrContactNotFound
	}
	return nil
}
