package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/student-roster/internal/apperror"
	"github.com/sakif/student-roster/internal/auth"
	"github.com/sakif/student-roster/internal/model"
	"github.com/sakif/student-roster/internal/service"
)

const MsgSearchRequired = "Search query is required"

// StudentManager is the part of service.StudentService the handlers call.
type StudentManager interface {
	List(ctx context.Context, ownerID int64) ([]model.Student, error)
	Count(ctx context.Context, ownerID int64) (int, error)
	Get(ctx context.Context, ownerID, id int64) (*model.Student, error)
	Create(ctx context.Context, ownerID int64, in model.StudentInput) (*model.Student, error)
	Update(ctx context.Context, ownerID, id int64, in model.StudentInput) (*model.Student, error)
	Delete(ctx context.Context, ownerID, id int64) error
	Search(ctx context.Context, ownerID int64, term string) ([]model.Student, error)
}

var _ StudentManager = (*service.StudentService)(nil)

// StudentHandler serves /api/students. Every route sits behind
// auth.RequireAuth and takes the owner from the request context; nothing in
// the URL or body can choose a different owner.
type StudentHandler struct {
	students StudentManager
	logger   *slog.Logger
}

func NewStudentHandler(students StudentManager, logger *slog.Logger) *StudentHandler {
	return &StudentHandler{students: students, logger: logger}
}

// HandleList returns the caller's students, newest first, with the total in
// the X-Total-Count header.
//
// HTTP: GET /api/students
func (h *StudentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	students, err := h.students.List(r.Context(), owner)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	total, err := h.students.Count(r.Context(), owner)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	writeJSON(w, http.StatusOK, students)
}

// HandleGet returns one student.
//
// HTTP: GET /api/students/{id}
func (h *StudentHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	st, err := h.students.Get(r.Context(), owner, id)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, st)
}

// HandleCreate adds a student.
//
// HTTP: POST /api/students
// 201 {id, message}
func (h *StudentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var in model.StudentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	st, err := h.students.Create(r.Context(), owner, in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{
		ID:      st.ID,
		Message: "Student added successfully",
	})
}

// HandleUpdate replaces a student's fields.
//
// HTTP: PUT /api/students/{id}
func (h *StudentHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	var in model.StudentInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if _, err := h.students.Update(r.Context(), owner, id, in); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Student updated successfully"})
}

// HandleDelete removes a student.
//
// HTTP: DELETE /api/students/{id}
func (h *StudentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id, ok := h.studentID(w, r)
	if !ok {
		return
	}

	if err := h.students.Delete(r.Context(), owner, id); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Student deleted successfully"})
}

// HandleSearch matches the path term against name or email.
//
// HTTP: GET /api/students/search/{query}
// A blank term is rejected here even though the store would accept it.
func (h *StudentHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	// chi routes on RawPath when the client sent escapes that differ from
	// the default encoding; the parameter is still escaped in that case.
	term := chi.URLParam(r, "query")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(term); err == nil {
			term = unescaped
		}
	}
	if strings.TrimSpace(term) == "" {
		writeError(w, r, h.logger, apperror.ValidationFailed("query", MsgSearchRequired))
		return
	}

	students, err := h.students.Search(r.Context(), owner, term)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) owner(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, r, h.logger, apperror.NoToken())
	}
	return id, ok
}

// studentID parses {id}. A non-numeric id cannot name any row, so it is
// answered like a missing one.
func (h *StudentHandler) studentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: MsgStudentMissing})
		return 0, false
	}
	return id, true
}
