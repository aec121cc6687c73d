package auth

import (
	"strings"
	"time"

	"saha.org/internal/session"
)

// User is a panel account.
type User struct {
	ID                  int64
	UserTypeID          int
	CompanyID           int64
	PermissionProfileID int64
	Firstname           string
	Lastname            string
	Email               string
	Phone               string
	PasswordHash        string
	Active              bool
	LoginEnabled        bool
	CreatedAt           time.Time
	LastLogin           *time.Time
}

// Identity is the public view of the user returned to the panel.
func (u *User) Identity() session.Identity {
	return session.Identity{
		ID:                  u.ID,
		UserTypeID:          u.UserTypeID,
		CompanyID:           u.CompanyID,
		PermissionProfileID: u.PermissionProfileID,
		Firstname:           u.Firstname,
		Lastname:            u.Lastname,
		Email:               u.Email,
		Phone:               u.Phone,
	}
}

// NormalizeLogin lowercases e-mail addresses and strips spaces from phone
// numbers so both can be used as lookup keys.
func NormalizeLogin(emailOrPhone string) string {
	s := strings.TrimSpace(emailOrPhone)
	if strings.Contains(s, "@") {
		return strings.ToLower(s)
	}
	return strings.Join(strings.Fields(s), "")
}
