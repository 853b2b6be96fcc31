package models

import (
	"regexp"
	"strings"
)

const (
	FieldName  = "name"
	FieldEmail = "email"
)

// Not RFC 5322, only the local@domain.tld shape.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// UserForm is the raw operator input of the add and edit forms.
type UserForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Website string `json:"website"`
	Company string `json:"company"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// FieldErrors maps a form field to its message. Empty means the form is valid.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func ValidateUserForm(f UserForm) FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Name) == "" {
		errs[FieldName] = "Name is required"
	}

	if strings.TrimSpace(f.Email) == "" {
		errs[FieldEmail] = "Email is required"
	} else if !emailPattern.MatchString(f.Email) {
		errs[FieldEmail] = "Email is invalid"
	}

	return errs
}

// FormFromUser pre-fills the edit form.
func FormFromUser(u User) UserForm {
	f := UserForm{
		Name:    u.Name,
		Email:   u.Email,
		Phone:   u.Phone,
		Website: u.Website,
	}
	if u.Company != nil {
		f.Company = u.Company.Name
	}
	if u.Address != nil {
		f.Address = u.Address.Street
		f.City = u.Address.City
	}
	return f
}

// NewUser builds the record for the add flow. The form must already be valid.
func (f UserForm) NewUser(id int64) User {
	return User{
		ID:       id,
		Name:     f.Name,
		Username: DeriveUsername(f.Name),
		Email:    f.Email,
		Phone:    orNotAvailable(f.Phone),
		Website:  orNotAvailable(f.Website),
		Address: &Address{
			Street: orNotAvailable(f.Address),
			City:   orNotAvailable(f.City),
			Geo:    Geo{Lat: "0", Lng: "0"},
		},
		Company: &Company{
			Name: orNotAvailable(f.Company),
		},
	}
}

// Patch builds the partial record for the edit flow. Sub-fields of address and
// company that the form does not show are carried over from existing.
func (f UserForm) Patch(existing User) UserPatch {
	username := DeriveUsername(f.Name)
	phone := orNotAvailable(f.Phone)
	website := orNotAvailable(f.Website)

	var addr Address
	if existing.Address != nil {
		addr = *existing.Address
	}
	addr.Street = orNotAvailable(f.Address)
	addr.City = orNotAvailable(f.City)

	var company Company
	if existing.Company != nil {
		company = *existing.Company
	}
	company.Name = orNotAvailable(f.Company)

	return UserPatch{
		ID:       existing.ID,
		Name:     &f.Name,
		Username: &username,
		Email:    &f.Email,
		Phone:    &phone,
		Website:  &website,
		Address:  &addr,
		Company:  &company,
	}
}
