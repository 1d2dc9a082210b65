package question

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/codegrade/internal/domain"
	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
	"github.com/kailas-cloud/codegrade/internal/grader"
	"github.com/kailas-cloud/codegrade/internal/syntax/python"
)

// --- Mocks ---

type mockRepo struct {
	createFn func(ctx context.Context, q domq.Question) error
	getFn    func(ctx context.Context, id string) (domq.Question, error)
	listFn   func(ctx context.Context) ([]domq.Question, error)
	updateFn func(ctx context.Context, q domq.Question) error
	deleteFn func(ctx context.Context, id string) error
}

func (m *mockRepo) Create(ctx context.Context, q domq.Question) error {
	if m.createFn != nil {
		return m.createFn(ctx, q)
	}
	return nil
}

func (m *mockRepo) Get(ctx context.Context, id string) (domq.Question, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return domq.Question{}, domain.ErrNotFound
}

func (m *mockRepo) List(ctx context.Context) ([]domq.Question, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockRepo) Update(ctx context.Context, q domq.Question) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, q)
	}
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func newService(repo Repository) *Service {
	return New(repo, grader.New(python.NewParser()))
}

// --- Tests ---

func TestCreate_ComputesDump(t *testing.T) {
	var stored domq.Question
	repo := &mockRepo{createFn: func(_ context.Context, q domq.Question) error {
		stored = q
		return nil
	}}

	q, err := newService(repo).Create(context.Background(), "q1", "Double", "def f(x):\n    return 2 * x\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Revision() != 1 {
		t.Errorf("revision = %d, want 1", q.Revision())
	}
	if !strings.HasPrefix(stored.ReferenceDump(), "Module(FunctionDef(") {
		t.Errorf("unexpected dump %q", stored.ReferenceDump())
	}
}

func TestCreate_InvalidID(t *testing.T) {
	_, err := newService(&mockRepo{}).Create(context.Background(), "bad id!", "", "x = 1")
	if !errors.Is(err, domain.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
}

func TestCreate_ReferenceDoesNotParse(t *testing.T) {
	called := false
	repo := &mockRepo{createFn: func(context.Context, domq.Question) error {
		called = true
		return nil
	}}
	_, err := newService(repo).Create(context.Background(), "q1", "", "def (")
	if !errors.Is(err, domain.ErrReferenceParse) {
		t.Fatalf("expected ErrReferenceParse, got %v", err)
	}
	if _, ok := grader.AsReferenceParseError(err); !ok {
		t.Error("parse location must survive wrapping")
	}
	if called {
		t.Error("repository must not be called")
	}
}

func TestCreate_TooLarge(t *testing.T) {
	svc := newService(&mockRepo{}).WithMaxSourceBytes(4)
	_, err := svc.Create(context.Background(), "q1", "", "x = 12345")
	if !errors.Is(err, domain.ErrSourceTooLarge) {
		t.Fatalf("expected ErrSourceTooLarge, got %v", err)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	repo := &mockRepo{createFn: func(context.Context, domq.Question) error {
		return domain.ErrAlreadyExists
	}}
	_, err := newService(repo).Create(context.Background(), "q1", "", "x = 1")
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	_, err := newService(&mockRepo{}).Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestList(t *testing.T) {
	want := []domq.Question{
		domq.Reconstruct("a", "", "x = 1", "d", 1, 1, 1),
		domq.Reconstruct("b", "", "x = 2", "d", 2, 2, 1),
	}
	repo := &mockRepo{listFn: func(context.Context) ([]domq.Question, error) { return want, nil }}
	got, err := newService(repo).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID() != "a" {
		t.Errorf("unexpected list %+v", got)
	}
}

func TestUpdate_BumpsRevision(t *testing.T) {
	current := domq.Reconstruct("q1", "Old", "x = 1", "old-dump", 1, 1, 3)
	var stored domq.Question
	repo := &mockRepo{
		getFn: func(context.Context, string) (domq.Question, error) { return current, nil },
		updateFn: func(_ context.Context, q domq.Question) error {
			stored = q
			return nil
		},
	}

	q, err := newService(repo).Update(context.Background(), "q1", "New", "y = 2", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Revision() != 4 || stored.Revision() != 4 {
		t.Errorf("revision = %d/%d, want 4", q.Revision(), stored.Revision())
	}
	if stored.ReferenceDump() == "old-dump" {
		t.Error("dump must be recomputed")
	}
	if stored.Title() != "New" {
		t.Errorf("title = %q", stored.Title())
	}
}

func TestUpdate_RevisionConflict(t *testing.T) {
	current := domq.Reconstruct("q1", "", "x = 1", "d", 1, 1, 5)
	repo := &mockRepo{getFn: func(context.Context, string) (domq.Question, error) { return current, nil }}

	_, err := newService(repo).Update(context.Background(), "q1", "", "x = 2", 4)
	if !errors.Is(err, domain.ErrRevisionConflict) {
		t.Fatalf("expected ErrRevisionConflict, got %v", err)
	}
	var rce *domain.RevisionConflictError
	if !errors.As(err, &rce) || rce.CurrentRevision != 5 {
		t.Errorf("expected current revision 5, got %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	_, err := newService(&mockRepo{}).Update(context.Background(), "q1", "", "x = 2", 0)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	var deleted string
	repo := &mockRepo{deleteFn: func(_ context.Context, id string) error {
		deleted = id
		return nil
	}}
	if err := newService(repo).Delete(context.Background(), "q1"); err != nil {
		t.Fatal(err)
	}
	if deleted != "q1" {
		t.Errorf("deleted %q", deleted)
	}
}
