package models

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleUser() User {
	return User{
		ID:       1,
		Name:     "Leanne Graham",
		Username: "Bret",
		Email:    "Sincere@april.biz",
		Phone:    "1-770-736-8031 x56442",
		Website:  "hildegard.org",
		Address:  &Address{Street: "Kulas Light", Suite: "Apt. 556", City: "Gwenborough"},
		Company:  &Company{Name: "Romaguera-Crona"},
	}
}

func TestMerge_AbsentAddressIsKept(t *testing.T) {
	existing := sampleUser()

	got := Merge(existing, UserPatch{ID: 1, Name: ptr("New")})

	assert.Equal(t, "New", got.Name)
	assert.Empty(t, cmp.Diff(existing.Address, got.Address))
	assert.Equal(t, existing.Email, got.Email)
}

func TestMerge_PresentAddressReplacesWholesale(t *testing.T) {
	existing := sampleUser()

	got := Merge(existing, UserPatch{ID: 1, Name: ptr("New"), Address: &Address{City: "Paris"}})

	require.NotNil(t, got.Address)
	assert.Equal(t, Address{City: "Paris"}, *got.Address)
	assert.Equal(t, "Kulas Light", existing.Address.Street)
}

func TestMerge_KeepsIdentifier(t *testing.T) {
	got := Merge(sampleUser(), UserPatch{ID: 99, Email: ptr("x@y.z")})

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, "x@y.z", got.Email)
}

func TestMerge_DoesNotAliasPatch(t *testing.T) {
	c := &Company{Name: "Acme"}
	got := Merge(sampleUser(), UserPatch{ID: 1, Company: c})

	c.Name = "changed"
	assert.Equal(t, "Acme", got.Company.Name)
}

func TestUser_CompanyName(t *testing.T) {
	assert.Equal(t, "", User{}.CompanyName())
	assert.Equal(t, "Romaguera-Crona", sampleUser().CompanyName())
}
