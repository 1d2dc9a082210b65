// Package question holds the graded exercise aggregate.
package question

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kailas-cloud/codegrade/internal/domain"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]{1,64}$`)

const maxTitleLen = 200

// Question is an exercise with its reference solution (immutable value object).
// ReferenceDump is the canonical dump of the parsed reference, kept alongside
// the code so graders can take the exact-match fast path.
type Question struct {
	id            string
	title         string
	referenceCode string
	referenceDump string
	createdAt     int64
	updatedAt     int64
	revision      int
}

// ValidateID checks the identifier format: 1-64 of [a-zA-Z0-9_.-].
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: question id is required", domain.ErrInvalidQuestion)
	}
	if !idRegex.MatchString(id) {
		return fmt.Errorf("%w: question id must be 1-64 characters of [a-zA-Z0-9_.-]", domain.ErrInvalidQuestion)
	}
	return nil
}

func validateContent(title, code, dump string) error {
	if len(title) > maxTitleLen {
		return fmt.Errorf("%w: title too long (max %d)", domain.ErrInvalidQuestion, maxTitleLen)
	}
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: reference code is required", domain.ErrInvalidQuestion)
	}
	if dump == "" {
		return fmt.Errorf("%w: reference dump is required", domain.ErrInvalidQuestion)
	}
	return nil
}

// New validates and creates a Question at revision 1.
func New(id, title, referenceCode, referenceDump string) (Question, error) {
	if err := ValidateID(id); err != nil {
		return Question{}, err
	}
	if err := validateContent(title, referenceCode, referenceDump); err != nil {
		return Question{}, err
	}
	now := time.Now().UnixMilli()
	return Question{
		id:            id,
		title:         title,
		referenceCode: referenceCode,
		referenceDump: referenceDump,
		createdAt:     now,
		updatedAt:     now,
		revision:      1,
	}, nil
}

// Reconstruct creates a Question without validation (storage hydration).
func Reconstruct(
	id, title, referenceCode, referenceDump string,
	createdAt, updatedAt int64, revision int,
) Question {
	return Question{
		id:            id,
		title:         title,
		referenceCode: referenceCode,
		referenceDump: referenceDump,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
		revision:      revision,
	}
}

// Revise returns a copy with new content and the next revision.
func (q Question) Revise(title, referenceCode, referenceDump string) (Question, error) {
	if err := validateContent(title, referenceCode, referenceDump); err != nil {
		return Question{}, err
	}
	next := q
	next.title = title
	next.referenceCode = referenceCode
	next.referenceDump = referenceDump
	next.updatedAt = max(time.Now().UnixMilli(), q.updatedAt)
	next.revision = q.revision + 1
	return next, nil
}

// ID returns the question identifier.
func (q Question) ID() string { return q.id }

// Title returns the human title.
func (q Question) Title() string { return q.title }

// ReferenceCode returns the reference solution source.
func (q Question) ReferenceCode() string { return q.referenceCode }

// ReferenceDump returns the canonical dump of the reference solution.
func (q Question) ReferenceDump() string { return q.referenceDump }

// CreatedAt returns the creation timestamp (unix millis).
func (q Question) CreatedAt() int64 { return q.createdAt }

// UpdatedAt returns the last modification timestamp (unix millis).
func (q Question) UpdatedAt() int64 { return q.updatedAt }

// Revision returns the optimistic concurrency version.
func (q Question) Revision() int { return q.revision }
