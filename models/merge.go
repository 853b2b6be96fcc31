package models

// UserPatch is a partial record. A nil field is absent from the partial and
// leaves the existing value alone.
type UserPatch struct {
	ID       int64    `json:"id"`
	Name     *string  `json:"name,omitempty"`
	Username *string  `json:"username,omitempty"`
	Email    *string  `json:"email,omitempty"`
	Phone    *string  `json:"phone,omitempty"`
	Website  *string  `json:"website,omitempty"`
	Address  *Address `json:"address,omitempty"`
	Company  *Company `json:"company,omitempty"`
}

// Merge applies patch over existing one level deep. Top-level fields present
// in the patch overwrite the existing ones; Address and Company are replaced
// as a whole when present and never merged field by field. The identifier of
// existing is kept.
func Merge(existing User, patch UserPatch) User {
	out := existing.Clone()

	if patch.Name != nil {
		out.Name = *patch.Name
	}
	if patch.Username != nil {
		out.Username = *patch.Username
	}
	if patch.Email != nil {
		out.Email = *patch.Email
	}
	if patch.Phone != nil {
		out.Phone = *patch.Phone
	}
	if patch.Website != nil {
		out.Website = *patch.Website
	}
	if patch.Address != nil {
		a := *patch.Address
		out.Address = &a
	}
	if patch.Company != nil {
		c := *patch.Company
		out.Company = &c
	}

	return out
}
