package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/student-roster/internal/apperror"
	"github.com/sakif/student-roster/internal/model"
	"github.com/sakif/student-roster/internal/repository"
)

// MsgStudentEmailExists is returned when the owner already has a student
// with the same email.
const MsgStudentEmailExists = "Email already exists"

// compile-time check that *StudentDB implements repository.StudentRepository
var _ repository.StudentRepository = (*StudentDB)(nil)

// StudentDB is the tenant-scoped student store.
//
// ROW-LEVEL OWNERSHIP:
// Every statement carries "user_id = ?". A student id that exists but
// belongs to someone else produces the same NotFound as an id that does not
// exist, so callers cannot probe for other tenants' rows.
type StudentDB struct {
	conn *sql.DB
}

const studentColumns = `id, user_id, name, email, phone, address, enrollment_date, status, created_at`

// List returns the owner's students, newest first.
func (s *StudentDB) List(ctx context.Context, ownerID int64) ([]model.Student, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+studentColumns+`
		 FROM students WHERE user_id = ?
		 ORDER BY id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing students: %w", err)
	}
	return collectStudents(rows)
}

// GetByID returns one of the owner's students.
func (s *StudentDB) GetByID(ctx context.Context, ownerID, id int64) (*model.Student, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+studentColumns+`
		 FROM students WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)

	st, err := scanStudent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NotFound("student")
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: getting student %d: %w", id, err)
	}
	return st, nil
}

// Create inserts student under student.UserID and fills in ID and
// CreatedAt.
func (s *StudentDB) Create(ctx context.Context, student *model.Student) error {
	now := time.Now().UTC()

	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO students
		   (user_id, name, email, phone, address, enrollment_date, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		student.UserID,
		student.Name,
		student.Email,
		nullable(student.Phone),
		nullable(student.Address),
		student.EnrollmentDate,
		string(student.Status),
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail(MsgStudentEmailExists)
		}
		return fmt.Errorf("sqlite: inserting student: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading student id: %w", err)
	}

	student.ID = id
	student.CreatedAt = now
	return nil
}

// Update replaces every mutable field of the student identified by
// (student.ID, student.UserID). The owner and created_at never change.
func (s *StudentDB) Update(ctx context.Context, student *model.Student) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE students
		 SET name = ?, email = ?, phone = ?, address = ?, enrollment_date = ?, status = ?
		 WHERE id = ? AND user_id = ?`,
		student.Name,
		student.Email,
		nullable(student.Phone),
		nullable(student.Address),
		student.EnrollmentDate,
		string(student.Status),
		student.ID,
		student.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail(MsgStudentEmailExists)
		}
		return fmt.Errorf("sqlite: updating student %d: %w", student.ID, err)
	}

	return requireRowAffected(res, student.ID)
}

// Delete removes one of the owner's students.
func (s *StudentDB) Delete(ctx context.Context, ownerID, id int64) error {
	res, err := s.conn.ExecContext(ctx,
		`DELETE FROM students WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting student %d: %w", id, err)
	}

	return requireRowAffected(res, id)
}

// Search returns the owner's students whose name or email contains term,
// ignoring ASCII case, newest first. SQLite's LIKE does not fold non-ASCII
// letters, so "élise" does not find "Élise". term is matched literally:
// "%" and "_" are not wildcards. An empty term matches every row.
func (s *StudentDB) Search(ctx context.Context, ownerID int64, term string) ([]model.Student, error) {
	pattern := "%" + escapeLike(term) + "%"

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+studentColumns+`
		 FROM students
		 WHERE user_id = ?
		   AND (name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\')
		 ORDER BY id DESC`,
		ownerID, pattern, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: searching students: %w", err)
	}
	return collectStudents(rows)
}

// Count returns how many students the owner has.
func (s *StudentDB) Count(ctx context.Context, ownerID int64) (int, error) {
	var n int
	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM students WHERE user_id = ?`,
		ownerID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting students: %w", err)
	}
	return n, nil
}

// nullable maps an absent optional field to SQL NULL.
func nullable(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

func requireRowAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected for student %d: %w", id, err)
	}
	if n == 0 {
		return apperror.NotFound("student")
	}
	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanStudent(sc scanner) (*model.Student, error) {
	var (
		st     model.Student
		status string
	)
	err := sc.Scan(
		&st.ID,
		&st.UserID,
		&st.Name,
		&st.Email,
		&st.Phone,
		&st.Address,
		&st.EnrollmentDate,
		&status,
		&st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	st.Status = model.StudentStatus(status)
	return &st, nil
}

// collectStudents drains rows. It always returns a non-nil slice on
// success so the JSON encoding is [] rather than null.
func collectStudents(rows *sql.Rows) ([]model.Student, error) {
	defer rows.Close()

	students := []model.Student{}
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning student: %w", err)
		}
		students = append(students, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating students: %w", err)
	}
	return students, nil
}
