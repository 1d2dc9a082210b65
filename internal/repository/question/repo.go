// Package question persists questions in a hash store or a SQL database.
package question

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/kailas-cloud/codegrade/internal/db"
	"github.com/kailas-cloud/codegrade/internal/domain"
	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

// store is the consumer interface for questions (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Repo stores each question as a hash at {prefix}question:{id}.
type Repo struct {
	store  store
	prefix string
}

// New creates a hash-backed question repository.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Create stores a new question.
func (r *Repo) Create(ctx context.Context, q domq.Question) error {
	key := r.key(q.ID())
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return domain.ErrAlreadyExists
	}
	if err := r.store.HSet(ctx, key, questionToHash(q)); err != nil {
		return fmt.Errorf("hset question %s: %w", q.ID(), err)
	}
	return nil
}

// Get loads a question by id.
func (r *Repo) Get(ctx context.Context, id string) (domq.Question, error) {
	m, err := r.store.HGetAll(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domq.Question{}, domain.ErrNotFound
		}
		return domq.Question{}, fmt.Errorf("hgetall question %s: %w", id, err)
	}
	if len(m) == 0 {
		return domq.Question{}, domain.ErrNotFound
	}
	return questionFromHash(m)
}

// List returns all questions sorted by CreatedAt, then id.
func (r *Repo) List(ctx context.Context) ([]domq.Question, error) {
	keys, err := r.store.Scan(ctx, r.key("*"))
	if err != nil {
		return nil, fmt.Errorf("scan questions: %w", err)
	}
	if len(keys) == 0 {
		return []domq.Question{}, nil
	}

	results, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall multi questions: %w", err)
	}

	questions := make([]domq.Question, 0, len(results))
	for i, m := range results {
		if len(m) == 0 {
			continue
		}
		q, err := questionFromHash(m)
		if err != nil {
			return nil, fmt.Errorf("parse question %s: %w", keys[i], err)
		}
		questions = append(questions, q)
	}
	sortQuestions(questions)
	return questions, nil
}

// Update replaces a question whose stored revision is q.Revision()-1.
func (r *Repo) Update(ctx context.Context, q domq.Question) error {
	current, err := r.Get(ctx, q.ID())
	if err != nil {
		return err
	}
	if current.Revision() != q.Revision()-1 {
		return domain.NewRevisionConflict(current.Revision())
	}
	if err := r.store.HSet(ctx, r.key(q.ID()), questionToHash(q)); err != nil {
		return fmt.Errorf("hset question %s: %w", q.ID(), err)
	}
	return nil
}

// Delete removes a question.
func (r *Repo) Delete(ctx context.Context, id string) error {
	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if !exists {
		return domain.ErrNotFound
	}
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del question %s: %w", id, err)
	}
	return nil
}

func (r *Repo) key(id string) string {
	return fmt.Sprintf("%squestion:%s", r.prefix, id)
}

func sortQuestions(qs []domq.Question) {
	sort.Slice(qs, func(i, j int) bool {
		if qs[i].CreatedAt() != qs[j].CreatedAt() {
			return qs[i].CreatedAt() < qs[j].CreatedAt()
		}
		return qs[i].ID() < qs[j].ID()
	})
}
