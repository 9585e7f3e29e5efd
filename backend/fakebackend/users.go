package fakebackend

import (
	"slices"

	"golang.org/x/crypto/bcrypt"
)

// User is a backend login. ClientID links a ROLE_CLIENT user to its client record.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	ClientID     int64
}

func (u *User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
