// Package repository provides the contact record stores: a MySQL store built
// on sqlx prepared statements, a Postgres store built on gorm, and an
// in-memory store for tests and database-less runs.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"gitlab.com/crmbridge/contacts-sync/internal/integration"
	"gitlab.com/crmbridge/contacts-sync/internal/model"
)

// CreateDatabase initializes a MySQL database connection. The connection
// parameters are taken from the system's environment variables.
func CreateDatabase() (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), os.Getenv("DBHOST"), os.Getenv("DBNAME"))
	return sql.Open("mysql", dsn)
}

// MySQLStore implements the contact store on MySQL via sqlx.
type MySQLStore struct {
	db *sqlx.DB

	// Prepared statements offer a significant speed increase if executed
	// many times.
	upsert               *sqlx.NamedStmt
	selectWhereId        *sqlx.Stmt
	selectWhereExternal  *sqlx.Stmt
	updateLastSyncedAtId *sqlx.Stmt
}

var _ integration.ContactStore = (*MySQLStore)(nil)

// NewMySQLStore wraps the specified sql database and prepares all
// statements. The database argument can be a real database for production
// use or a mock database within unit tests.
func NewMySQLStore(sqlDB *sql.DB) (*MySQLStore, error) {
	db := sqlx.NewDb(sqlDB, "mysql")
	store := &MySQLStore{db: db}

	var err error
	store.upsert, err = db.PrepareNamed(`
		INSERT INTO contacts (firstname, lastname, email, phone, birthdate,
			mailing_street, mailing_city, mailing_postal_code, mailing_state,
			mailing_country, external_id)
		VALUES (:firstname, :lastname, :email, :phone, :birthdate,
			:mailing_street, :mailing_city, :mailing_postal_code, :mailing_state,
			:mailing_country, :external_id)
		ON DUPLICATE KEY UPDATE
			firstname = VALUES(firstname),
			lastname = VALUES(lastname),
			email = VALUES(email),
			phone = VALUES(phone),
			birthdate = VALUES(birthdate),
			mailing_street = VALUES(mailing_street),
			mailing_city = VALUES(mailing_city),
			mailing_postal_code = VALUES(mailing_postal_code),
			mailing_state = VALUES(mailing_state),
			mailing_country = VALUES(mailing_country)
	`)
	if err != nil {
		return nil, err
	}
	store.selectWhereId, err = db.Preparex(`
		SELECT * FROM contacts WHERE id = ?
	`)
	if err != nil {
		return nil, err
	}
	store.selectWhereExternal, err = db.Preparex(`
		SELECT * FROM contacts WHERE external_id = ?
	`)
	if err != nil {
		return nil, err
	}
	store.updateLastSyncedAtId, err = db.Preparex(`
		UPDATE contacts SET last_synced_at = ? WHERE id = ?
	`)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// FindById returns the contact with the given local id.
func (s *MySQLStore) FindById(ctx context.Context, id int64) (*model.Contact, error) {
	var contact model.Contact
	err := s.selectWhereId.GetContext(ctx, &contact, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, integration.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindByExternalId returns the contact carrying the given external id.
func (s *MySQLStore) FindByExternalId(ctx context.Context, externalId string) (*model.Contact, error) {
	var contact model.Contact
	err := s.selectWhereExternal.GetContext(ctx, &contact, externalId)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, integration.ErrContactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindAll returns all contacts ordered by id.
func (s *MySQLStore) FindAll(ctx context.Context) ([]model.Contact, error) {
	contacts := []model.Contact{}
	if err := s.db.SelectContext(ctx, &contacts, `SELECT * FROM contacts ORDER BY id`); err != nil {
		return nil, err
	}
	return contacts, nil
}

// Upsert creates or overwrites the contact keyed on its external id. The
// contacts table carries a unique index on external_id, so the statement is
// an insert-or-update in a single round trip. last_synced_at is not part of
// the column list and survives an overwrite. The contact's local id is
// filled in from the stored row.
func (s *MySQLStore) Upsert(ctx context.Context, contact *model.Contact) error {
	if _, err := s.upsert.ExecContext(ctx, contact); err != nil {
		return err
	}
	var id int64
	if err := s.db.GetContext(ctx, &id, `SELECT id FROM contacts WHERE external_id = ?`, contact.ExternalId); err != nil {
		return err
	}
	contact.Id = id
	return nil
}

// MarkSynced stamps the contact's last_synced_at.
func (s *MySQLStore) MarkSynced(ctx context.Context, id int64, at time.Time) error {
	result, err := s.updateLastSyncedAtId.ExecContext(ctx, at, id)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return integration.ErrContactNotFound
	}
	return nil
}

// Close releases the prepared statements and the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
