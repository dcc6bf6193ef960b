package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/student-roster/internal/apperror"
	"github.com/sakif/student-roster/internal/model"
	"github.com/sakif/student-roster/internal/repository"
)

const (
	MsgStudentFieldsRequired = "Name, email, and enrollment date are required"
	MsgInvalidEnrollmentDate = "Enrollment date must be in YYYY-MM-DD format"
)

// StudentService validates student input and delegates to the repository.
// The owner id always comes from the caller (the auth gate), never from
// the input.
type StudentService struct {
	repo   repository.StudentRepository
	logger *slog.Logger
}

// NewStudentService creates a StudentService backed by repo.
func NewStudentService(repo repository.StudentRepository, logger *slog.Logger) *StudentService {
	return &StudentService{
		repo:   repo,
		logger: logger,
	}
}

// List returns the owner's students, newest first.
func (s *StudentService) List(ctx context.Context, ownerID int64) ([]model.Student, error) {
	students, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("service/student: listing: %w", err)
	}
	return students, nil
}

// Count returns how many students the owner has.
func (s *StudentService) Count(ctx context.Context, ownerID int64) (int, error) {
	n, err := s.repo.Count(ctx, ownerID)
	if err != nil {
		return 0, fmt.Errorf("service/student: counting: %w", err)
	}
	return n, nil
}

// Get returns one of the owner's students. Another owner's row is reported
// as not found.
func (s *StudentService) Get(ctx context.Context, ownerID, id int64) (*model.Student, error) {
	st, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("service/student: getting %d: %w", id, err)
	}
	return st, nil
}

// Create validates in and stores it under ownerID.
func (s *StudentService) Create(ctx context.Context, ownerID int64, in model.StudentInput) (*model.Student, error) {
	st, err := s.build(in)
	if err != nil {
		return nil, err
	}
	st.UserID = ownerID

	if err := s.repo.Create(ctx, st); err != nil {
		return nil, fmt.Errorf("service/student: creating: %w", err)
	}

	s.logger.Info("student created",
		slog.Int64("ownerID", ownerID),
		slog.Int64("studentID", st.ID),
	)
	return st, nil
}

// Update replaces every mutable field of one of the owner's students.
// Omitted optional fields are cleared and an omitted status resets to the
// default.
func (s *StudentService) Update(ctx context.Context, ownerID, id int64, in model.StudentInput) (*model.Student, error) {
	st, err := s.build(in)
	if err != nil {
		return nil, err
	}
	st.ID = id
	st.UserID = ownerID

	if err := s.repo.Update(ctx, st); err != nil {
		return nil, fmt.Errorf("service/student: updating %d: %w", id, err)
	}

	s.logger.Info("student updated",
		slog.Int64("ownerID", ownerID),
		slog.Int64("studentID", id),
	)
	return st, nil
}

// Delete removes one of the owner's students.
func (s *StudentService) Delete(ctx context.Context, ownerID, id int64) error {
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("service/student: deleting %d: %w", id, err)
	}

	s.logger.Info("student deleted",
		slog.Int64("ownerID", ownerID),
		slog.Int64("studentID", id),
	)
	return nil
}

// Search matches term against name or email. An empty term is passed
// through and matches everything; rejecting it is the HTTP layer's call.
func (s *StudentService) Search(ctx context.Context, ownerID int64, term string) ([]model.Student, error) {
	students, err := s.repo.Search(ctx, ownerID, strings.TrimSpace(term))
	if err != nil {
		return nil, fmt.Errorf("service/student: searching: %w", err)
	}
	return students, nil
}

// build normalises and validates client input into a Student without
// owner or id.
func (s *StudentService) build(in model.StudentInput) (*model.Student, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	date := strings.TrimSpace(in.EnrollmentDate)

	if name == "" || email == "" || date == "" {
		return nil, apperror.ValidationFailed("", MsgStudentFieldsRequired)
	}
	if _, err := time.Parse(model.EnrollmentDateLayout, date); err != nil {
		return nil, apperror.ValidationFailed("enrollmentDate", MsgInvalidEnrollmentDate)
	}

	status := model.StudentStatus(strings.TrimSpace(in.Status))
	if status == "" {
		status = model.DefaultStatus
	}
	if !status.Known() {
		// Free-text statuses are stored as sent.
		s.logger.Debug("storing non-standard student status", slog.String("status", string(status)))
	}

	return &model.Student{
		Name:           name,
		Email:          email,
		Phone:          optional(in.Phone),
		Address:        optional(in.Address),
		EnrollmentDate: date,
		Status:         status,
	}, nil
}

// optional trims p and maps blank to nil.
func optional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
