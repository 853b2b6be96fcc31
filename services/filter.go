package services

import (
	"slices"
	"strings"

	"go-usermanager/models"
)

const DefaultPageSize = 10

const (
	SortByName    = "name"
	SortByEmail   = "email"
	SortByCompany = "company"
)

// Filter keeps the users whose name, email or company name contains query,
// ignoring case. An empty query returns users itself.
func Filter(users []models.User, query string) []models.User {
	if query == "" {
		return users
	}

	q := strings.ToLower(query)
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Email), q) ||
			(u.Company != nil && strings.Contains(strings.ToLower(u.Company.Name), q)) {
			out = append(out, u)
		}
	}
	return out
}

// SortUsers orders users in place by one of the listing columns. Unknown
// fields leave the order as is.
func SortUsers(users []models.User, field string, desc bool) {
	var key func(models.User) string
	switch field {
	case SortByName:
		key = func(u models.User) string { return u.Name }
	case SortByEmail:
		key = func(u models.User) string { return u.Email }
	case SortByCompany:
		key = models.User.CompanyName
	default:
		return
	}

	slices.SortStableFunc(users, func(a, b models.User) int {
		c := strings.Compare(strings.ToLower(key(a)), strings.ToLower(key(b)))
		if desc {
			return -c
		}
		return c
	})
}

type Page struct {
	Users    []models.User
	Page     int
	Pages    int
	PageSize int
	Total    int
}

// Paginate cuts a 1-based page out of users. Out of range pages are clamped.
func Paginate(users []models.User, page, size int) Page {
	if size < 1 {
		size = DefaultPageSize
	}
	total := len(users)
	// size comes straight from the query string; no sums with it
	pages := total / size
	if total%size != 0 || pages == 0 {
		pages++
	}
	page = max(1, min(page, pages))

	start := (page - 1) * size
	end := total
	if total-start > size {
		end = start + size
	}

	return Page{
		Users:    users[start:end],
		Page:     page,
		Pages:    pages,
		PageSize: size,
		Total:    total,
	}
}
