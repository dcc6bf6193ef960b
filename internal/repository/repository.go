// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage implements them.
//
// WHY INTERFACES HERE?
// Services accept these interfaces, so their tests can swap in in-memory
// fakes without touching a database.
package repository

import (
	"context"

	"github.com/sakif/student-roster/internal/model"
)

// UserRepository stores accounts. Email lookups are case-insensitive.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// StudentRepository stores students. Every method is scoped to ownerID:
// a row owned by another user behaves exactly like a missing row.
type StudentRepository interface {
	List(ctx context.Context, ownerID int64) ([]model.Student, error)
	GetByID(ctx context.Context, ownerID, id int64) (*model.Student, error)
	Create(ctx context.Context, student *model.Student) error
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, ownerID, id int64) error
	Search(ctx context.Context, ownerID int64, term string) ([]model.Student, error)
	Count(ctx context.Context, ownerID int64) (int, error)
}
