package grading

import (
	"context"

	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
	"github.com/kailas-cloud/codegrade/internal/failurelog"
	"github.com/kailas-cloud/codegrade/internal/grader"
	"github.com/kailas-cloud/codegrade/internal/repository/resultcache"
)

// Grader compares a submission with a reference solution.
type Grader interface {
	Compare(submission, reference, referenceDump string) (grader.ScoreResult, error)
	Dump(reference string) (string, error)
}

// QuestionReader loads stored references.
type QuestionReader interface {
	Get(ctx context.Context, id string) (domq.Question, error)
}

// ResultCache memoizes grading results.
type ResultCache interface {
	GetOrCompute(
		ctx context.Context, k resultcache.Key, compute func() (grader.ScoreResult, error),
	) (grader.ScoreResult, error)
}

// FailureLogger records submissions that could not be graded normally.
type FailureLogger interface {
	Log(e failurelog.Entry)
}
