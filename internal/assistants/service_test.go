package assistants

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"outdial-platform/internal/vapi"
)

type stubProvider struct {
	listed  []vapi.Assistant
	listErr error
	upErr   error
	lastID  string
}

func (p *stubProvider) ListAssistants(ctx context.Context) ([]vapi.Assistant, error) {
	return p.listed, p.listErr
}

func (p *stubProvider) UpdateAssistant(ctx context.Context, id string, firstMessage, instructions *string) (vapi.Assistant, error) {
	if p.upErr != nil {
		return vapi.Assistant{}, p.upErr
	}
	p.lastID = id
	a := vapi.Assistant{ID: id, Name: "Recruiter"}
	if firstMessage != nil {
		a.FirstMessage = *firstMessage
	}
	return a, nil
}

func TestListMapsProviderShape(t *testing.T) {
	prov := &stubProvider{listed: []vapi.Assistant{
		{ID: "a-1", Name: "Recruiter", FirstMessage: "Hello!"},
	}}
	svc := NewService(prov, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a-1" || got[0].FirstMessage != "Hello!" {
		t.Fatalf("mapped assistants = %+v", got)
	}
}

func TestListProviderError(t *testing.T) {
	prov := &stubProvider{listErr: errors.New("boom")}
	svc := NewService(prov, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := svc.List(context.Background()); err == nil {
		t.Fatal("expected provider error")
	}
}

func TestSetForwardsEdits(t *testing.T) {
	prov := &stubProvider{}
	svc := NewService(prov, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	msg := "Hi, this is the recruiting line."
	got, err := svc.Set(context.Background(), "a-1", Update{FirstMessage: &msg})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if prov.lastID != "a-1" || got.FirstMessage != msg {
		t.Fatalf("update did not reach provider: %+v", got)
	}
}
