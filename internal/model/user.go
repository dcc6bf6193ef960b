// Package model defines the data structures used throughout the application.
package model

import "time"

// User is a registered account. Users own students; deleting a user
// cascades to their students in the store.
//
// PasswordHash carries the bcrypt hash between the credential store and the
// login comparator only. The `json:"-"` tag keeps it out of every response.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// PublicUser is the login/me response shape.
type PublicUser struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Public strips everything but id, name and email.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}
