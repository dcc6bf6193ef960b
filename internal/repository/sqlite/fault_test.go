package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/student-roster/internal/apperror"
	"github.com/sakif/student-roster/internal/model"
)

// STORAGE FAULTS:
// go-sqlmock stands in for the driver so we can make any statement fail and
// check that the failure surfaces as a plain (unclassified) error.

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
	})
	return Wrap(conn), mock
}

var errDisk = errors.New("disk I/O error")

func assertStorageFault(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		t.Fatalf("storage fault was classified as %v", appErr.Err)
	}
	if !errors.Is(err, errDisk) {
		t.Errorf("error %v does not wrap the driver error", err)
	}
}

func TestStorageFaults(t *testing.T) {
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT .* FROM students WHERE user_id = \\?").WillReturnError(errDisk)
		_, err := db.Students().List(ctx, 1)
		assertStorageFault(t, err)
	})

	t.Run("get", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT .* FROM students WHERE id = \\? AND user_id = \\?").WillReturnError(errDisk)
		_, err := db.Students().GetByID(ctx, 1, 2)
		assertStorageFault(t, err)
	})

	t.Run("create", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO students").WillReturnError(errDisk)
		err := db.Students().Create(ctx, &model.Student{UserID: 1, Name: "n", Email: "e"})
		assertStorageFault(t, err)
	})

	t.Run("update", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE students").WillReturnError(errDisk)
		err := db.Students().Update(ctx, &model.Student{ID: 2, UserID: 1})
		assertStorageFault(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM students").WillReturnError(errDisk)
		assertStorageFault(t, db.Students().Delete(ctx, 1, 2))
	})

	t.Run("search", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT .* FROM students").WillReturnError(errDisk)
		_, err := db.Students().Search(ctx, 1, "x")
		assertStorageFault(t, err)
	})

	t.Run("count", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT COUNT").WillReturnError(errDisk)
		_, err := db.Students().Count(ctx, 1)
		assertStorageFault(t, err)
	})

	t.Run("user lookup", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT .* FROM users WHERE email = \\?").WillReturnError(errDisk)
		_, err := db.Users().GetByEmail(ctx, "a@x.com")
		assertStorageFault(t, err)
	})

	t.Run("user insert", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO users").WillReturnError(errDisk)
		err := db.Users().Create(ctx, &model.User{Name: "n", Email: "e", PasswordHash: "h"})
		assertStorageFault(t, err)
	})
}

// Statements are always scoped to the owner; the mock fails the test if
// the arguments differ.
func TestStudentDelete_BindsOwner(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("DELETE FROM students WHERE id = \\? AND user_id = \\?").
		WithArgs(int64(9), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := db.Students().Delete(context.Background(), 3, 9); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestPing(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer conn.Close()

	mock.ExpectPing().WillReturnError(errDisk)
	if err := Wrap(conn).Ping(context.Background()); !errors.Is(err, errDisk) {
		t.Errorf("Ping() error = %v, want wrapped disk error", err)
	}
}

// =========================================================================
// ERROR MAPPING TESTS
// =========================================================================

type codedErr struct{ code int }

func (e codedErr) Error() string { return fmt.Sprintf("sqlite error %d", e.code) }
func (e codedErr) Code() int     { return e.code }

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unique code", codedErr{sqlite3.SQLITE_CONSTRAINT_UNIQUE}, true},
		{"wrapped unique code", fmt.Errorf("insert: %w", codedErr{sqlite3.SQLITE_CONSTRAINT_UNIQUE}), true},
		{"foreign key code", codedErr{sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY}, false},
		{"message only", errors.New("UNIQUE constraint failed: users.email"), true},
		{"other", errDisk, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Errorf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCreate_UniqueMessageFromDriverMapsToDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec("INSERT INTO students").
		WillReturnError(errors.New("constraint failed: UNIQUE constraint failed: students.user_id, students.email (2067)"))

	err := db.Students().Create(context.Background(), &model.Student{UserID: 1, Name: "n", Email: "e"})
	if !errors.Is(err, apperror.ErrDuplicateEmail) {
		t.Fatalf("Create() error = %v, want ErrDuplicateEmail", err)
	}
}
