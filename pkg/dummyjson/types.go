package dummyjson

// Address is the nested address object of a directory user.
type Address struct {
	Street     string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	State      string `json:"state"`
	Country    string `json:"country"`
}

// User is a user record as returned by the DummyJSON directory.
type User struct {
	Id        int64   `json:"id"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	BirthDate string  `json:"birthDate"`
	Address   Address `json:"address"`
}

// UserPayload is the request body for creating a user in the directory.
// The directory only accepts the flat identity fields on create.
type UserPayload struct {
	Id        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}
