package question

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/codegrade/internal/domain"
	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

// DefaultMaxSourceBytes caps reference solutions.
const DefaultMaxSourceBytes = 64 << 10

// Service manages questions and keeps their reference dumps current.
type Service struct {
	repo           Repository
	dumper         Dumper
	maxSourceBytes int
}

// New creates a question service.
func New(repo Repository, dumper Dumper) *Service {
	return &Service{repo: repo, dumper: dumper, maxSourceBytes: DefaultMaxSourceBytes}
}

// WithMaxSourceBytes overrides the reference size limit.
func (s *Service) WithMaxSourceBytes(n int) *Service {
	if n > 0 {
		s.maxSourceBytes = n
	}
	return s
}

// Create validates and stores a new question. The reference must parse.
func (s *Service) Create(ctx context.Context, id, title, referenceCode string) (domq.Question, error) {
	if err := domq.ValidateID(id); err != nil {
		return domq.Question{}, err
	}
	dump, err := s.dump(referenceCode)
	if err != nil {
		return domq.Question{}, err
	}

	q, err := domq.New(id, title, referenceCode, dump)
	if err != nil {
		return domq.Question{}, err
	}
	if err := s.repo.Create(ctx, q); err != nil {
		return domq.Question{}, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Get returns a question by ID.
func (s *Service) Get(ctx context.Context, id string) (domq.Question, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return domq.Question{}, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// List returns all questions, oldest first.
func (s *Service) List(ctx context.Context) ([]domq.Question, error) {
	qs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return qs, nil
}

// Update replaces title and reference, recomputing the dump.
// expectedRevision of 0 skips the optimistic check.
func (s *Service) Update(
	ctx context.Context, id, title, referenceCode string, expectedRevision int,
) (domq.Question, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return domq.Question{}, fmt.Errorf("get question: %w", err)
	}
	if expectedRevision > 0 && current.Revision() != expectedRevision {
		return domq.Question{}, domain.NewRevisionConflict(current.Revision())
	}

	dump, err := s.dump(referenceCode)
	if err != nil {
		return domq.Question{}, err
	}
	next, err := current.Revise(title, referenceCode, dump)
	if err != nil {
		return domq.Question{}, err
	}
	if err := s.repo.Update(ctx, next); err != nil {
		return domq.Question{}, fmt.Errorf("update question: %w", err)
	}
	return next, nil
}

// Delete removes a question.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

func (s *Service) dump(referenceCode string) (string, error) {
	if len(referenceCode) > s.maxSourceBytes {
		return "", fmt.Errorf("reference is %d bytes, limit %d: %w",
			len(referenceCode), s.maxSourceBytes, domain.ErrSourceTooLarge)
	}
	dump, err := s.dumper.Dump(referenceCode)
	if err != nil {
		return "", fmt.Errorf("dump reference: %w", err)
	}
	return dump, nil
}
