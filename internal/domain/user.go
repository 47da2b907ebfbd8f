package domain

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateEmail is returned when a record with the same email key already exists.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrRecordNotFound is returned when no record matches a lookup.
	ErrRecordNotFound = errors.New("record not found")
)

// UserRecord is one user's registration data as held by the record store.
type UserRecord struct {
	FullName   string     `json:"fullName" yaml:"fullName"`
	Email      string     `json:"email" yaml:"email"`
	Phone      string     `json:"phone" yaml:"phone"`
	BloodGroup BloodGroup `json:"bloodGroup" yaml:"bloodGroup"`
	Location   string     `json:"location" yaml:"location"`
	Password   string     `json:"password,omitempty" yaml:"password,omitempty"`
}

// EmailKey returns the uniqueness key for an email address.
func EmailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Key returns the record's uniqueness key.
func (r UserRecord) Key() string {
	return EmailKey(r.Email)
}

// Fields returns the record values in storage column order.
func (r UserRecord) Fields() []string {
	return []string{r.FullName, r.Email, r.Phone, string(r.BloodGroup), r.Location, r.Password}
}

// RecordFromFields builds a record from values in storage column order.
// Missing trailing values are left empty and extra values are ignored.
func RecordFromFields(fields []string) UserRecord {
	get := func(i int) string {
		if i < len(fields) {
			return fields[i]
		}
		return ""
	}
	return UserRecord{
		FullName:   get(0),
		Email:      get(1),
		Phone:      get(2),
		BloodGroup: BloodGroup(get(3)),
		Location:   get(4),
		Password:   get(5),
	}
}

// WithoutPassword returns a copy safe to hand to callers outside the store.
func (r UserRecord) WithoutPassword() UserRecord {
	r.Password = ""
	return r
}

// ColumnNames lists the storage columns in order.
var ColumnNames = []string{"fullName", "email", "phone", "bloodGroup", "location", "password"}
