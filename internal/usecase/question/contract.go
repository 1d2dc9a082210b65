package question

import (
	"context"

	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

// Repository defines the storage contract for questions.
type Repository interface {
	Create(ctx context.Context, q domq.Question) error
	Get(ctx context.Context, id string) (domq.Question, error)
	List(ctx context.Context) ([]domq.Question, error)
	Update(ctx context.Context, q domq.Question) error
	Delete(ctx context.Context, id string) error
}

// Dumper parses a reference solution into its canonical dump.
type Dumper interface {
	Dump(reference string) (string, error)
}
