package chi

import (
	"errors"
	"time"

	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest       ErrorCode = "bad_request"
	CodeValidationFailed ErrorCode = "validation_failed"
	CodeSyntaxError      ErrorCode = "syntax_error"
	CodeNotFound         ErrorCode = "not_found"
	CodeAlreadyExists    ErrorCode = "already_exists"
	CodeRevisionConflict ErrorCode = "revision_conflict"
	CodeSourceTooLarge   ErrorCode = "source_too_large"
	CodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// CheckAnswerRequest is the body of POST /v1/check-answer. Pointer fields are
// required; correct_code falls back to the stored question.
type CheckAnswerRequest struct {
	QuestionID  *string `json:"question_id"`
	UserCode    *string `json:"user_code"`
	CorrectCode string  `json:"correct_code,omitempty"`
	CorrectAST  string  `json:"correct_ast,omitempty"`
}

func (r CheckAnswerRequest) validate() error {
	if r.QuestionID == nil || *r.QuestionID == "" {
		return errors.New("question_id is required")
	}
	if r.UserCode == nil {
		return errors.New("user_code is required")
	}
	return nil
}

// ReferenceItem is one element of POST /v1/construct-answers.
type ReferenceItem struct {
	QuestionID  *string `json:"question_id"`
	CorrectCode *string `json:"correct_code"`
}

func (r ReferenceItem) validate() error {
	if r.QuestionID == nil || *r.QuestionID == "" {
		return errors.New("question_id is required")
	}
	if r.CorrectCode == nil {
		return errors.New("correct_code is required")
	}
	return nil
}

// CreateQuestionRequest is the body of POST /v1/questions.
type CreateQuestionRequest struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	ReferenceCode string `json:"reference_code"`
}

// UpdateQuestionRequest is the body of PUT /v1/questions/{id}.
type UpdateQuestionRequest struct {
	Title         string `json:"title"`
	ReferenceCode string `json:"reference_code"`
}

// QuestionResponse is a stored question.
type QuestionResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	ReferenceCode string    `json:"reference_code"`
	ReferenceDump string    `json:"reference_dump"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Revision      int       `json:"revision"`
}

// QuestionListResponse wraps GET /v1/questions.
type QuestionListResponse struct {
	Items []QuestionResponse `json:"items"`
	Total int                `json:"total"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func questionToResponse(q domq.Question) QuestionResponse {
	return QuestionResponse{
		ID:            q.ID(),
		Title:         q.Title(),
		ReferenceCode: q.ReferenceCode(),
		ReferenceDump: q.ReferenceDump(),
		CreatedAt:     time.UnixMilli(q.CreatedAt()).UTC(),
		UpdatedAt:     time.UnixMilli(q.UpdatedAt()).UTC(),
		Revision:      q.Revision(),
	}
}
