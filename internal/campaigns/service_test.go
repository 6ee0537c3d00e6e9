package campaigns

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func newTestService() (*Service, *MemoryStore) {
	store := NewMemoryStore()
	return NewService(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func validNew() New {
	return New{
		Name:     "Q3 Outreach",
		Industry: "recruiting",
		Goal:     "screen applicants",
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*New)
		fields []string
	}{
		{"missing name", func(n *New) { n.Name = "  " }, []string{"name"}},
		{"missing industry and goal", func(n *New) { n.Industry = ""; n.Goal = "" }, []string{"industry", "goal"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := validNew()
			tt.mutate(&n)
			_, err := svc.Create(context.Background(), n)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Fatalf("field errors = %+v, want fields %v", verr.Fields, tt.fields)
			}
			for i, f := range tt.fields {
				if verr.Fields[i].Field != f {
					t.Errorf("field[%d] = %q, want %q", i, verr.Fields[i].Field, f)
				}
			}
		})
	}
}

func TestCreateDuplicateNameInsensitive(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, validNew()); err != nil {
		t.Fatalf("first create: %v", err)
	}

	dup := validNew()
	dup.Name = "  q3   OUTREACH "
	if _, err := svc.Create(ctx, dup); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestDeleteMany(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	a, _ := svc.Create(ctx, validNew())
	second := validNew()
	second.Name = "Q4 Outreach"
	b, _ := svc.Create(ctx, second)

	n, err := svc.Delete(ctx, []int64{a.ID, b.ID, 999})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 2 {
		t.Fatalf("deleted = %d, want 2", n)
	}
	left, _ := store.List(ctx)
	if len(left) != 0 {
		t.Fatalf("campaigns left = %d", len(left))
	}
}

func TestNameKey(t *testing.T) {
	if NameKey(" Sales   Q3 ") != "sales q3" {
		t.Fatalf("NameKey = %q", NameKey(" Sales   Q3 "))
	}
}
