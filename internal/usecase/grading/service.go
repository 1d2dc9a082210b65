package grading

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/codegrade/internal/domain"
	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
	"github.com/kailas-cloud/codegrade/internal/failurelog"
	"github.com/kailas-cloud/codegrade/internal/grader"
	"github.com/kailas-cloud/codegrade/internal/metrics"
	"github.com/kailas-cloud/codegrade/internal/repository/resultcache"
)

// DefaultMaxSourceBytes caps submissions and references.
const DefaultMaxSourceBytes = 64 << 10

// CheckRequest is one submission to grade. When CorrectCode is empty the
// reference is loaded from the question store by QuestionID.
type CheckRequest struct {
	QuestionID  string
	UserCode    string
	CorrectCode string
	CorrectDump string
}

// Reference is one reference solution to dump.
type Reference struct {
	QuestionID  string
	CorrectCode string
}

// Service grades submissions and prepares reference dumps.
type Service struct {
	engine         Grader
	questions      QuestionReader
	cache          ResultCache
	failures       FailureLogger
	maxSourceBytes int
	logger         *zap.Logger
}

// New creates a grading service. questions may be nil when every request
// carries its reference.
func New(engine Grader, questions QuestionReader, logger *zap.Logger) *Service {
	return &Service{
		engine:         engine,
		questions:      questions,
		maxSourceBytes: DefaultMaxSourceBytes,
		logger:         logger,
	}
}

// WithCache enables result caching.
func (s *Service) WithCache(c ResultCache) *Service {
	s.cache = c
	return s
}

// WithFailureLog enables failure logging.
func (s *Service) WithFailureLog(f FailureLogger) *Service {
	s.failures = f
	return s
}

// WithMaxSourceBytes overrides the source size limit.
func (s *Service) WithMaxSourceBytes(n int) *Service {
	if n > 0 {
		s.maxSourceBytes = n
	}
	return s
}

// CheckAnswer grades one submission.
func (s *Service) CheckAnswer(ctx context.Context, req CheckRequest) (grader.ScoreResult, error) {
	if err := s.checkSize("user_code", req.UserCode); err != nil {
		return grader.ScoreResult{}, err
	}

	reference, dump, err := s.reference(ctx, req)
	if err != nil {
		return grader.ScoreResult{}, err
	}

	// Parse failures are recorded inside compute so a cached result is
	// counted and logged once, not on every repeat request.
	compute := func() (grader.ScoreResult, error) {
		res, err := s.compare(req.UserCode, reference, dump)
		if err == nil {
			s.recordParseFailure(req, res)
		}
		return res, err
	}

	var res grader.ScoreResult
	if s.cache != nil {
		res, err = s.cache.GetOrCompute(ctx, resultcache.Key{
			QuestionID: req.QuestionID,
			Reference:  reference + "\x00" + dump,
			Submission: req.UserCode,
		}, compute)
	} else {
		res, err = compute()
	}
	if err != nil {
		s.recordError(req, err)
		return grader.ScoreResult{}, err
	}

	metrics.GradingTotal.WithLabelValues(res.Tier.String()).Inc()
	return res, nil
}

func (s *Service) recordParseFailure(req CheckRequest, res grader.ScoreResult) {
	is, ok := res.SyntaxError()
	if !ok {
		return
	}
	metrics.SubmissionParseFailuresTotal.Inc()
	details := map[string]any{"line": is.Line, "tier": res.Tier.String()}
	if is.Column != nil {
		details["column"] = *is.Column
	}
	s.logFailure(req, is.Message, details)
}

// ConstructAnswers dumps every reference, keyed by question ID. The first
// reference that does not parse fails the whole batch.
func (s *Service) ConstructAnswers(_ context.Context, refs []Reference) (map[string]string, error) {
	out := make(map[string]string, len(refs))
	for _, r := range refs {
		if err := s.checkSize("correct_code", r.CorrectCode); err != nil {
			return nil, fmt.Errorf("question %s: %w", r.QuestionID, err)
		}
		dump, err := s.engine.Dump(r.CorrectCode)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", r.QuestionID, err)
		}
		out[r.QuestionID] = dump
	}
	return out, nil
}

func (s *Service) reference(ctx context.Context, req CheckRequest) (code, dump string, err error) {
	if req.CorrectCode != "" {
		if err := s.checkSize("correct_code", req.CorrectCode); err != nil {
			return "", "", err
		}
		return req.CorrectCode, req.CorrectDump, nil
	}

	if s.questions == nil {
		return "", "", fmt.Errorf("%w: correct_code is required", domain.ErrInvalidQuestion)
	}
	if err := domq.ValidateID(req.QuestionID); err != nil {
		return "", "", err
	}
	q, err := s.questions.Get(ctx, req.QuestionID)
	if err != nil {
		return "", "", fmt.Errorf("get question: %w", err)
	}
	dump = req.CorrectDump
	if dump == "" {
		dump = q.ReferenceDump()
	}
	return q.ReferenceCode(), dump, nil
}

func (s *Service) compare(submission, reference, dump string) (grader.ScoreResult, error) {
	start := time.Now()
	res, err := s.engine.Compare(submission, reference, dump)
	if err != nil {
		return grader.ScoreResult{}, fmt.Errorf("compare: %w", err)
	}

	path := "parsed"
	if !res.Parsed {
		path = "unparsed"
	}
	metrics.GradingDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	return res, nil
}

func (s *Service) checkSize(field, src string) error {
	if len(src) > s.maxSourceBytes {
		return fmt.Errorf("%s is %d bytes, limit %d: %w",
			field, len(src), s.maxSourceBytes, domain.ErrSourceTooLarge)
	}
	return nil
}

func (s *Service) recordError(req CheckRequest, err error) {
	switch {
	case errors.Is(err, domain.ErrReferenceParse):
		metrics.GradingErrorsTotal.WithLabelValues("reference_parse").Inc()
	case errors.Is(err, domain.ErrInternalScoring):
		metrics.GradingErrorsTotal.WithLabelValues("internal").Inc()
		s.logger.Error("Grading failed",
			zap.String("question_id", req.QuestionID),
			zap.Error(err),
		)
		s.logFailure(req, err.Error(), map[string]any{"stage": "grading"})
	default:
		metrics.GradingErrorsTotal.WithLabelValues("other").Inc()
	}
}

func (s *Service) logFailure(req CheckRequest, msg string, details map[string]any) {
	if s.failures == nil {
		return
	}
	s.failures.Log(failurelog.Entry{
		QuestionID: req.QuestionID,
		UserCode:   req.UserCode,
		Error:      msg,
		Context:    details,
	})
}
