package dialer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"outdial-platform/internal/callops"
	"outdial-platform/internal/candidate"
	"outdial-platform/internal/credits"
	"outdial-platform/internal/vapi"
)

type stubProvider struct {
	createdReqs []vapi.CreateCallRequest
	createErr   error
	call        vapi.Call
	getErr      error
}

func (p *stubProvider) CreateCall(ctx context.Context, req vapi.CreateCallRequest) (vapi.Call, error) {
	if p.createErr != nil {
		return vapi.Call{}, p.createErr
	}
	p.createdReqs = append(p.createdReqs, req)
	return vapi.Call{ID: "call-new", Status: "queued"}, nil
}

func (p *stubProvider) GetCall(ctx context.Context, id string) (vapi.Call, error) {
	if p.getErr != nil {
		return vapi.Call{}, p.getErr
	}
	return p.call, nil
}

type stubLock struct {
	held     bool
	acquired int
	released int
	err      error
}

func (l *stubLock) Acquire(ctx context.Context, candidateID int64) (func(), bool, error) {
	if l.err != nil {
		return nil, false, l.err
	}
	if l.held {
		return nil, false, nil
	}
	l.acquired++
	return func() { l.released++ }, true, nil
}

type fixture struct {
	svc     *Service
	store   *candidate.MemoryStore
	ledger  *credits.Ledger
	prov    *stubProvider
	credits *credits.MemoryStore
}

func newFixture(t *testing.T, prov *stubProvider, lock Lock) fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := candidate.NewMemoryStore()
	creditStore := credits.NewMemoryStore()
	ledger := credits.NewLedger(creditStore, 2, log)
	engine := callops.NewEngine(store, nil, log)
	svc := NewService(store, ledger, prov, engine, lock, "asst-default", "phone-default", log)
	return fixture{svc: svc, store: store, ledger: ledger, prov: prov, credits: creditStore}
}

func (f fixture) seedPending(t *testing.T, name, phone string) candidate.Candidate {
	t.Helper()
	created, err := f.store.CreateBatch(context.Background(), []candidate.New{{Name: name, Phone: phone}})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return created[0]
}

func TestStartCallHappyPath(t *testing.T) {
	ctx := context.Background()
	prov := &stubProvider{}
	f := newFixture(t, prov, nil)
	c := f.seedPending(t, "Asha", "9876543210")

	got, err := f.svc.StartCall(ctx, "ops@example.com", c.ID, "", "")
	if err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if got.Status != candidate.StatusCalling {
		t.Fatalf("status = %q, want calling", got.Status)
	}
	if got.VapiCallID != "call-new" {
		t.Fatalf("vapi_call_id = %q", got.VapiCallID)
	}
	if got.CallStartTime == nil {
		t.Fatal("call_start_time not stamped")
	}

	if len(prov.createdReqs) != 1 {
		t.Fatalf("provider calls = %d", len(prov.createdReqs))
	}
	req := prov.createdReqs[0]
	if req.AssistantID != "asst-default" || req.PhoneNumberID != "phone-default" {
		t.Fatalf("defaults not applied: %+v", req)
	}
	if req.Customer.Number != "+919876543210" {
		t.Fatalf("customer number = %q, want normalized E.164", req.Customer.Number)
	}
	if req.Metadata["candidateId"] != c.ID {
		t.Fatalf("metadata candidateId = %v", req.Metadata["candidateId"])
	}

	uc, err := f.ledger.GetOrInit(ctx, "ops@example.com")
	if err != nil {
		t.Fatalf("GetOrInit: %v", err)
	}
	if uc.Credits != 1 {
		t.Fatalf("credits = %d, want 1 after one dial", uc.Credits)
	}
}

func TestStartCallRequiresEmail(t *testing.T) {
	f := newFixture(t, &stubProvider{}, nil)
	c := f.seedPending(t, "Asha", "9876543210")
	if _, err := f.svc.StartCall(context.Background(), "", c.ID, "", ""); !errors.Is(err, credits.ErrEmailRequired) {
		t.Fatalf("err = %v, want ErrEmailRequired", err)
	}
}

func TestStartCallInsufficientCredits(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubProvider{}, nil)
	c := f.seedPending(t, "Asha", "9876543210")

	if _, err := f.ledger.Consume(ctx, "ops@example.com", 2); err != nil {
		t.Fatalf("drain credits: %v", err)
	}
	_, err := f.svc.StartCall(ctx, "ops@example.com", c.ID, "", "")
	if !errors.Is(err, credits.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	got, _ := f.store.Get(ctx, c.ID)
	if got.Status != candidate.StatusPending {
		t.Fatalf("candidate moved to %q without a credit", got.Status)
	}
}

func TestStartCallMissingCandidateRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubProvider{}, nil)

	_, err := f.svc.StartCall(ctx, "ops@example.com", 999, "", "")
	if !errors.Is(err, candidate.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	uc, _ := f.ledger.GetOrInit(ctx, "ops@example.com")
	if uc.Credits != 2 {
		t.Fatalf("credits = %d, want full refund", uc.Credits)
	}
}

func TestStartCallAlreadyCallingRefunds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubProvider{}, nil)
	c := f.seedPending(t, "Asha", "9876543210")
	status := candidate.StatusCalling
	if _, err := f.store.Update(ctx, c.ID, candidate.Update{Status: &status}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	_, err := f.svc.StartCall(ctx, "ops@example.com", c.ID, "", "")
	if !errors.Is(err, ErrNotPending) {
		t.Fatalf("err = %v, want ErrNotPending", err)
	}
	uc, _ := f.ledger.GetOrInit(ctx, "ops@example.com")
	if uc.Credits != 2 {
		t.Fatalf("credits = %d, want refund on lost claim", uc.Credits)
	}
}

func TestStartCallProviderFailureRevertsAndRefunds(t *testing.T) {
	ctx := context.Background()
	prov := &stubProvider{createErr: errors.New("vapi rejected the call")}
	f := newFixture(t, prov, nil)
	c := f.seedPending(t, "Asha", "9876543210")

	if _, err := f.svc.StartCall(ctx, "ops@example.com", c.ID, "", ""); err == nil {
		t.Fatal("expected provider error")
	}
	got, _ := f.store.Get(ctx, c.ID)
	if got.Status != candidate.StatusPending {
		t.Fatalf("status = %q, want reverted to pending", got.Status)
	}
	uc, _ := f.ledger.GetOrInit(ctx, "ops@example.com")
	if uc.Credits != 2 {
		t.Fatalf("credits = %d, want refund after provider failure", uc.Credits)
	}
}

func TestStartCallLockHeld(t *testing.T) {
	ctx := context.Background()
	lock := &stubLock{held: true}
	f := newFixture(t, &stubProvider{}, lock)
	c := f.seedPending(t, "Asha", "9876543210")

	_, err := f.svc.StartCall(ctx, "ops@example.com", c.ID, "", "")
	if !errors.Is(err, ErrDialInProgress) {
		t.Fatalf("err = %v, want ErrDialInProgress", err)
	}
	uc, _ := f.ledger.GetOrInit(ctx, "ops@example.com")
	if uc.Credits != 2 {
		t.Fatalf("credits = %d, lock rejection must not consume", uc.Credits)
	}
}

func TestStartCallLockReleasedAfterDial(t *testing.T) {
	lock := &stubLock{}
	f := newFixture(t, &stubProvider{}, lock)
	c := f.seedPending(t, "Asha", "9876543210")

	if _, err := f.svc.StartCall(context.Background(), "ops@example.com", c.ID, "", ""); err != nil {
		t.Fatalf("StartCall: %v", err)
	}
	if lock.acquired != 1 || lock.released != 1 {
		t.Fatalf("lock acquired=%d released=%d", lock.acquired, lock.released)
	}
}

func TestAddToQueueValidation(t *testing.T) {
	f := newFixture(t, &stubProvider{}, nil)
	rows := []candidate.New{
		{Name: "Asha", Phone: "9876543210"},
		{Name: "", Phone: "not-a-number"},
	}
	_, err := f.svc.AddToQueue(context.Background(), rows)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("field errors = %d, want 2", len(verr.Fields))
	}
	all, _ := f.store.List(context.Background())
	if len(all) != 0 {
		t.Fatalf("invalid upload persisted %d rows", len(all))
	}
}

func TestAddToQueueNormalizesAndClearQueue(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubProvider{}, nil)

	created, err := f.svc.AddToQueue(ctx, []candidate.New{{Name: "Asha", Phone: "98765 43210"}})
	if err != nil {
		t.Fatalf("AddToQueue: %v", err)
	}
	if created[0].Phone != "+919876543210" {
		t.Fatalf("stored phone = %q, want E.164", created[0].Phone)
	}
	if created[0].Status != candidate.StatusPending {
		t.Fatalf("status = %q", created[0].Status)
	}

	status := candidate.StatusCompleted
	done := f.seedPending(t, "Done", "9876500000")
	if _, err := f.store.Update(ctx, done.ID, candidate.Update{Status: &status}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := f.svc.ClearQueue(ctx); err != nil {
		t.Fatalf("ClearQueue: %v", err)
	}
	all, _ := f.store.List(ctx)
	if len(all) != 1 || all[0].Status != candidate.StatusCompleted {
		t.Fatalf("ClearQueue touched non-pending rows: %+v", all)
	}
}

func TestEndCallManual(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &stubProvider{}, nil)
	c := f.seedPending(t, "Asha", "9876543210")

	got, err := f.svc.EndCall(ctx, c.ID, "", "spoke briefly")
	if err != nil {
		t.Fatalf("EndCall: %v", err)
	}
	if got.Status != candidate.StatusCompleted {
		t.Fatalf("status = %q", got.Status)
	}
	if got.CallResult != "Call ended manually" {
		t.Fatalf("call_result = %q", got.CallResult)
	}
	if got.CallNotes != "spoke briefly" {
		t.Fatalf("call_notes = %q", got.CallNotes)
	}
	if got.CallEndTime == nil {
		t.Fatal("call_end_time not stamped")
	}
}

func TestCheckCallStatusCompletesEndedCall(t *testing.T) {
	ctx := context.Background()
	ended := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	prov := &stubProvider{call: vapi.Call{
		ID: "call-1", Status: "ended", EndedAt: &ended, Summary: "Done",
	}}
	f := newFixture(t, prov, nil)
	c := f.seedPending(t, "Asha", "9876543210")
	status := candidate.StatusCalling
	callID := "call-1"
	if _, err := f.store.Update(ctx, c.ID, candidate.Update{Status: &status, VapiCallID: &callID}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	st, err := f.svc.CheckCallStatus(ctx, c.ID)
	if err != nil {
		t.Fatalf("CheckCallStatus: %v", err)
	}
	if !st.Ended || st.Candidate.Status != candidate.StatusCompleted {
		t.Fatalf("status view = %+v", st)
	}
}

func TestCheckCallStatusNoCallID(t *testing.T) {
	f := newFixture(t, &stubProvider{}, nil)
	c := f.seedPending(t, "Asha", "9876543210")
	if _, err := f.svc.CheckCallStatus(context.Background(), c.ID); !errors.Is(err, ErrNoCallID) {
		t.Fatalf("err = %v, want ErrNoCallID", err)
	}
}
