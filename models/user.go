package models

import (
	"strings"
	"unicode"
)

// NotAvailable is what the directory itself puts into fields it has no data for.
const NotAvailable = "N/A"

type Geo struct {
	Lat string `json:"lat"`
	Lng string `json:"lng"`
}

type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Phone    string   `json:"phone"`
	Website  string   `json:"website"`
	Address  *Address `json:"address,omitempty"`
	Company  *Company `json:"company,omitempty"`
}

// CompanyName returns "" when the record has no company.
func (u User) CompanyName() string {
	if u.Company == nil {
		return ""
	}
	return u.Company.Name
}

// Clone returns a copy that shares no nested objects with u.
func (u User) Clone() User {
	if u.Address != nil {
		a := *u.Address
		u.Address = &a
	}
	if u.Company != nil {
		c := *u.Company
		u.Company = &c
	}
	return u
}

// DeriveUsername lowercases name and drops every whitespace rune.
func DeriveUsername(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(name) {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func orNotAvailable(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}
