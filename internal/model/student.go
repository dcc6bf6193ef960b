package model

import (
	"strings"
	"time"
)

// StudentStatus is stored as free text. The three constants are the values
// the UI offers; anything else a client sends is kept as-is.
type StudentStatus string

const (
	StatusActive    StudentStatus = "Active"
	StatusInactive  StudentStatus = "Inactive"
	StatusGraduated StudentStatus = "Graduated"
)

// DefaultStatus is applied when a create or update omits status.
const DefaultStatus = StatusActive

// EnrollmentDateLayout is the calendar-date format of Student.EnrollmentDate.
const EnrollmentDateLayout = "2006-01-02"

// Known reports whether s is one of the predefined statuses (case-insensitive).
func (s StudentStatus) Known() bool {
	switch StudentStatus(strings.ToLower(string(s))) {
	case "active", "inactive", "graduated":
		return true
	}
	return false
}

// Student is one enrolled student, always owned by exactly one user.
//
// Phone and Address are optional: nil pointers serialise as JSON null and
// are stored as SQL NULL.
type Student struct {
	ID             int64         `json:"id"`
	UserID         int64         `json:"userId"`
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Phone          *string       `json:"phone"`
	Address        *string       `json:"address"`
	EnrollmentDate string        `json:"enrollmentDate"`
	Status         StudentStatus `json:"status"`
	CreatedAt      time.Time     `json:"createdAt"`
}

// StudentInput holds the client-supplied mutable fields for create and
// update. The owner never comes from here.
type StudentInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	EnrollmentDate string  `json:"enrollmentDate"`
	Status         string  `json:"status"`
}
