package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/codegrade/internal/domain"
	"github.com/kailas-cloud/codegrade/internal/grader"
	logpkg "github.com/kailas-cloud/codegrade/internal/logger"
	gradinguc "github.com/kailas-cloud/codegrade/internal/usecase/grading"
	healthuc "github.com/kailas-cloud/codegrade/internal/usecase/health"
	questionuc "github.com/kailas-cloud/codegrade/internal/usecase/question"
)

const maxConstructItems = 1000

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	grading       *gradinguc.Service
	questions     *questionuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	grading *gradinguc.Service,
	questions *questionuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		grading:   grading,
		questions: questions,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		referenceParseHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeAlreadyExists),
		sentinelHandler(domain.ErrInvalidQuestion, http.StatusUnprocessableEntity, CodeValidationFailed),
		sentinelHandler(domain.ErrSourceTooLarge, http.StatusRequestEntityTooLarge, CodeSourceTooLarge),
		sentinelHandler(domain.ErrInternalScoring, http.StatusInternalServerError, CodeInternalError),
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "OK"})
}

// CheckAnswer handles POST /v1/check-answer.
func (s *Server) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req CheckAnswerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.grading.CheckAnswer(r.Context(), gradinguc.CheckRequest{
		QuestionID:  *req.QuestionID,
		UserCode:    *req.UserCode,
		CorrectCode: req.CorrectCode,
		CorrectDump: req.CorrectAST,
	})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ConstructAnswers handles POST /v1/construct-answers.
func (s *Server) ConstructAnswers(w http.ResponseWriter, r *http.Request) {
	var items []ReferenceItem
	if !decodeBody(w, r, &items) {
		return
	}
	if len(items) > maxConstructItems {
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed,
			fmt.Sprintf("at most %d items per request", maxConstructItems))
		return
	}

	refs := make([]gradinguc.Reference, 0, len(items))
	for i, item := range items {
		if err := item.validate(); err != nil {
			writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed,
				fmt.Sprintf("item %d: %s", i, err))
			return
		}
		refs = append(refs, gradinguc.Reference{QuestionID: *item.QuestionID, CorrectCode: *item.CorrectCode})
	}

	dumps, err := s.grading.ConstructAnswers(r.Context(), refs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dumps)
}

// ListQuestions handles GET /v1/questions.
func (s *Server) ListQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := s.questions.List(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]QuestionResponse, len(qs))
	for i, q := range qs {
		items[i] = questionToResponse(q)
	}
	writeJSON(w, http.StatusOK, QuestionListResponse{Items: items, Total: len(items)})
}

// CreateQuestion handles POST /v1/questions.
func (s *Server) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	q, err := s.questions.Create(r.Context(), req.ID, req.Title, req.ReferenceCode)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/v1/questions/"+q.ID())
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(q.Revision())))
	writeJSON(w, http.StatusCreated, questionToResponse(q))
}

// GetQuestion handles GET /v1/questions/{id}.
func (s *Server) GetQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.questions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(q.Revision())))
	writeJSON(w, http.StatusOK, questionToResponse(q))
}

// UpdateQuestion handles PUT /v1/questions/{id}. An If-Match header carrying
// the revision enables optimistic locking.
func (s *Server) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	expected, err := parseIfMatch(r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	q, err := s.questions.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.ReferenceCode, expected)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(q.Revision())))
	writeJSON(w, http.StatusOK, questionToResponse(q))
}

// DeleteQuestion handles DELETE /v1/questions/{id}.
func (s *Server) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := s.questions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func parseIfMatch(h string) (int, error) {
	if h == "" {
		return 0, nil
	}
	v := strings.TrimPrefix(strings.TrimSpace(h), "W/")
	if unq, err := strconv.Unquote(v); err == nil {
		v = unq
	}
	rev, err := strconv.Atoi(v)
	if err != nil || rev <= 0 {
		return 0, fmt.Errorf("invalid If-Match revision %q", h)
	}
	return rev, nil
}

// decodeBody decodes the JSON body into v and writes a 422 when it is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, CodeSourceTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit))
			return false
		}
		writeError(w, http.StatusUnprocessableEntity, CodeValidationFailed, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors carry their own detail.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidQuestion) || errors.Is(err, domain.ErrSourceTooLarge) {
		return err.Error()
	}
	if errors.Is(err, domain.ErrInternalScoring) {
		return "Internal error checking code"
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrRevisionConflict,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// referenceParseHandler reports a reference solution that does not parse.
// Columns are reported 1-based.
func referenceParseHandler(w http.ResponseWriter, err error, _ string) bool {
	perr, ok := grader.AsReferenceParseError(err)
	if !ok {
		return false
	}
	writeError(w, http.StatusBadRequest, CodeSyntaxError,
		fmt.Sprintf("Syntax error on line %d, col %d: %s", perr.Line, perr.Column+1, perr.Message))
	return true
}

// revisionConflictHandler handles ErrRevisionConflict with ETag header and extra fields.
func revisionConflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) {
		w.Header().Set("ETag", strconv.Quote(strconv.Itoa(rce.CurrentRevision)))
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":             CodeRevisionConflict,
			"message":          msg,
			"current_revision": rce.CurrentRevision,
		})
		return true
	}
	writeError(w, http.StatusConflict, CodeRevisionConflict, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := logpkg.FromContext(r.Context(), s.logger)
	logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
