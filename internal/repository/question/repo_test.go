package question

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/codegrade/internal/db"
	"github.com/kailas-cloud/codegrade/internal/db/memory"
	"github.com/kailas-cloud/codegrade/internal/domain"
	domq "github.com/kailas-cloud/codegrade/internal/domain/question"
)

func TestCreate_WritesHash(t *testing.T) {
	var gotKey string
	var gotFields map[string]string
	ms := &mockStore{
		hsetFn: func(_ context.Context, key string, fields map[string]string) error {
			gotKey, gotFields = key, fields
			return nil
		},
	}
	r := New(ms, "cg:")
	if err := r.Create(context.Background(), makeQuestion(t, "q1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "cg:question:q1" {
		t.Errorf("key = %q", gotKey)
	}
	if gotFields["revision"] != "1" || gotFields["reference_code"] == "" {
		t.Errorf("fields = %v", gotFields)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	ms := &mockStore{existsFn: func(context.Context, string) (bool, error) { return true, nil }}
	err := New(ms, "").Create(context.Background(), makeQuestion(t, "q1"))
	if !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	for _, hgetErr := range []error{nil, db.ErrKeyNotFound} {
		ms := &mockStore{hgetAllFn: func(context.Context, string) (map[string]string, error) {
			return nil, hgetErr
		}}
		_, err := New(ms, "").Get(context.Background(), "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("store err %v: expected ErrNotFound, got %v", hgetErr, err)
		}
	}
}

func TestGet_StoreError(t *testing.T) {
	storeErr := &db.Error{Op: db.OpHGetAll, Err: errors.New("timeout")}
	ms := &mockStore{hgetAllFn: func(context.Context, string) (map[string]string, error) {
		return nil, storeErr
	}}
	_, err := New(ms, "").Get(context.Background(), "q1")
	if !errors.Is(err, storeErr) || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestGet_CorruptHash(t *testing.T) {
	ms := &mockStore{hgetAllFn: func(context.Context, string) (map[string]string, error) {
		return map[string]string{"id": "q1", "created_at": "not-a-number"}, nil
	}}
	if _, err := New(ms, "").Get(context.Background(), "q1"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestList_SortsAndSkipsEmpty(t *testing.T) {
	a := questionToHash(domq.Reconstruct("a", "", "x", "d", 200, 200, 1))
	b := questionToHash(domq.Reconstruct("b", "", "x", "d", 100, 100, 1))
	ms := &mockStore{
		scanFn: func(_ context.Context, pattern string) ([]string, error) {
			if pattern != "p:question:*" {
				t.Errorf("pattern = %q", pattern)
			}
			return []string{"p:question:a", "p:question:gone", "p:question:b"}, nil
		},
		hgetAllMultiFn: func(context.Context, []string) ([]map[string]string, error) {
			return []map[string]string{a, {}, b}, nil
		},
	}
	qs, err := New(ms, "p:").List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 2 || qs[0].ID() != "b" || qs[1].ID() != "a" {
		t.Errorf("unexpected order: %v", qs)
	}
}

func TestList_Empty(t *testing.T) {
	qs, err := New(&mockStore{}, "").List(context.Background())
	if err != nil || qs == nil || len(qs) != 0 {
		t.Errorf("List = %v, %v", qs, err)
	}
}

func TestRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	r := New(memory.NewStore(), "t:")

	q := makeQuestion(t, "q1")
	if err := r.Create(ctx, q); err != nil {
		t.Fatal(err)
	}

	next, err := q.Revise("renamed", "def foo():\n    return 2", "dump2")
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Update(ctx, next); err != nil {
		t.Fatalf("Update: %v", err)
	}

	// Replaying the same revision conflicts.
	var conflict *domain.RevisionConflictError
	if err := r.Update(ctx, next); !errors.As(err, &conflict) || conflict.CurrentRevision != 2 {
		t.Errorf("expected revision conflict at 2, got %v", err)
	}

	got, err := r.Get(ctx, "q1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title() != "renamed" || got.Revision() != 2 || got.ReferenceDump() != "dump2" {
		t.Errorf("unexpected stored question %+v", got)
	}

	if err := r.Delete(ctx, "q1"); err != nil {
		t.Fatal(err)
	}
	if err := r.Delete(ctx, "q1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := r.Update(ctx, next); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
