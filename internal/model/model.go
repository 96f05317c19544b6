package model

import "time"

// Contact is the local CRM record for a person. A contact that was imported
// from or pushed to the remote user directory carries the directory's user id
// in ExternalId. At most one contact exists per external id.
type Contact struct {
	Id                int64      `json:"id"                       db:"id"`
	FirstName         string     `json:"firstname"                db:"firstname"`
	LastName          string     `json:"lastname"                 db:"lastname"`
	Email             string     `json:"email"                    db:"email"`
	Phone             string     `json:"phone"                    db:"phone"`
	Birthdate         time.Time  `json:"birthdate"                db:"birthdate"`
	MailingStreet     string     `json:"mailing_street"           db:"mailing_street"`
	MailingCity       string     `json:"mailing_city"             db:"mailing_city"`
	MailingPostalCode string     `json:"mailing_postal_code"      db:"mailing_postal_code"`
	MailingState      string     `json:"mailing_state"            db:"mailing_state"`
	MailingCountry    string     `json:"mailing_country"          db:"mailing_country"`
	ExternalId        string     `json:"external_id"              db:"external_id"`
	LastSyncedAt      *time.Time `json:"last_synced_at,omitempty" db:"last_synced_at"`
}
