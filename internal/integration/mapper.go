package integration

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gitlab.com/crmbridge/contacts-sync/internal/model"
	"gitlab.com/crmbridge/contacts-sync/pkg/dummyjson"
)

// birthDateLayout is the date format the directory uses for birthDate.
const birthDateLayout = "2006-01-02"

// unknownValue is substituted for blank identity fields when pushing a
// contact to the directory, which rejects empty values on create.
const unknownValue = "unknown"

// ContactFromUser maps a directory user to a local contact. The directory's
// numeric user id becomes the contact's external id. A birthDate that does
// not parse as YYYY-MM-DD is a hard error; malformed remote data must not be
// silently written to the store.
func ContactFromUser(user *dummyjson.User) (model.Contact, error) {
	birthdate, err := time.Parse(birthDateLayout, user.BirthDate)
	if err != nil {
		return model.Contact{}, fmt.Errorf("parse birthDate %q of user %d: %w", user.BirthDate, user.Id, err)
	}
	return model.Contact{
		FirstName:         user.FirstName,
		LastName:          user.LastName,
		Email:             user.Email,
		Phone:             user.Phone,
		Birthdate:         birthdate,
		MailingStreet:     user.Address.Street,
		MailingCity:       user.Address.City,
		MailingPostalCode: user.Address.PostalCode,
		MailingState:      user.Address.State,
		MailingCountry:    user.Address.Country,
		ExternalId:        strconv.FormatInt(user.Id, 10),
	}, nil
}

// PayloadFromContact builds the directory create payload for a contact. Blank
// identity fields are replaced with "unknown"; the id is taken verbatim.
func PayloadFromContact(contact *model.Contact) dummyjson.UserPayload {
	return dummyjson.UserPayload{
		Id:        contact.Id,
		FirstName: orUnknown(contact.FirstName),
		LastName:  orUnknown(contact.LastName),
		Email:     orUnknown(contact.Email),
		Phone:     orUnknown(contact.Phone),
	}
}

// EncodePayload renders the directory create payload as JSON. It exists so
// the outbound request body can be inspected without performing a network
// call.
func EncodePayload(contact *model.Contact) ([]byte, error) {
	return json.Marshal(PayloadFromContact(contact))
}

func orUnknown(value string) string {
	if value == "" {
		return unknownValue
	}
	return value
}
