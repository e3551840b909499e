package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/transfer-service/internal/directory"
	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/repository/memory"
)

const directorySeed = `
tenants:
  - id: tenant-1
    code: ALPHA
    name: Alpha Holdings
    departments:
      - { id: dept-10, code: SALES, name: Sales }
  - id: tenant-2
    code: BETA
    name: Beta Industries
    departments:
      - { id: dept-20, code: ENG, name: Engineering }
    positions:
      - { id: pos-20, code: ENGR, name: Engineer }
    grades:
      - { id: grade-20, code: B2, name: Band 2, level: 2 }
  - id: tenant-3
    code: GAMMA
    name: Gamma Logistics
`

var (
	sourceCaller   = domain.Caller{UserID: "u-src", UserName: "Source Manager", TenantID: "tenant-1", Department: "HR"}
	targetCaller   = domain.Caller{UserID: "u-tgt", UserName: "Target Manager", TenantID: "tenant-2"}
	outsiderCaller = domain.Caller{UserID: "u-out", UserName: "Outsider", TenantID: "tenant-3"}
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) handle(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []events.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	store     *memory.Store
	clock     *stubClock
	transfers *TransferService
	handover  *HandoverService
	events    *recorder
}

func newFixture(t *testing.T, gate bool, loc *time.Location) *fixture {
	t.Helper()

	dir, err := directory.ParseStatic([]byte(directorySeed))
	if err != nil {
		t.Fatalf("parse directory: %v", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	store := memory.NewStore()
	clock := &stubClock{now: time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)}
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	for _, eventType := range []events.EventType{
		events.EventTransferCreated,
		events.EventTransferSubmitted,
		events.EventTransferSourceApproved,
		events.EventTransferTargetApproved,
		events.EventTransferRejected,
		events.EventTransferCancelled,
		events.EventTransferCompleted,
		events.EventHandoverItemAdded,
		events.EventHandoverItemCompleted,
	} {
		dispatcher.Subscribe(eventType, rec.handle)
	}

	return &fixture{
		store: store,
		clock: clock,
		transfers: NewTransferService(TransferDependencies{
			TransferRepo: store.Transfers(),
			Directory:    dir,
			Dispatcher:   dispatcher,
			Clock:        clock,
			Location:     loc,
		}),
		handover: NewHandoverService(HandoverDependencies{
			TransferRepo: store.Transfers(),
			HandoverRepo: store.Handover(),
			Dispatcher:   dispatcher,
			Clock:        clock,
			EnforceGate:  gate,
		}),
		events: rec,
	}
}

func (f *fixture) createDraft(t *testing.T, reason string) *domain.TransferRequest {
	t.Helper()
	dept := "dept-20"
	transfer, err := f.transfers.Create(context.Background(), sourceCaller, TransferCreateInput{
		Type:                  domain.TransferTypeOut,
		EmployeeID:            "emp-1",
		EmployeeName:          "Hanako Tanaka",
		EmployeeNumber:        "E-0001",
		CurrentDepartmentName: "Sales",
		SourceDepartmentID:    "dept-10",
		TargetTenantID:        "tenant-2",
		TargetDepartmentID:    &dept,
		Reason:                reason,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	return transfer
}

// advance drives a fresh draft to status along the happy path or the
// matching terminal edge.
func (f *fixture) advance(t *testing.T, status domain.TransferStatus) *domain.TransferRequest {
	t.Helper()
	ctx := context.Background()
	transfer := f.createDraft(t, "reassignment")

	steps := map[domain.TransferStatus][]func(string) (*domain.TransferRequest, error){
		domain.TransferStatusDraft: nil,
		domain.TransferStatusPendingSource: {
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Submit(ctx, sourceCaller, id) },
		},
		domain.TransferStatusPendingTarget: {
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Submit(ctx, sourceCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.ApproveSource(ctx, sourceCaller, id) },
		},
		domain.TransferStatusApproved: {
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Submit(ctx, sourceCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.ApproveSource(ctx, sourceCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.ApproveTarget(ctx, targetCaller, id) },
		},
		domain.TransferStatusCompleted: {
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Submit(ctx, sourceCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.ApproveSource(ctx, sourceCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.ApproveTarget(ctx, targetCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Complete(ctx, targetCaller, id) },
		},
		domain.TransferStatusRejected: {
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Submit(ctx, sourceCaller, id) },
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Reject(ctx, sourceCaller, id, "capacity") },
		},
		domain.TransferStatusCancelled: {
			func(id string) (*domain.TransferRequest, error) { return f.transfers.Cancel(ctx, sourceCaller, id, "withdrawn") },
		},
	}

	for _, step := range steps[status] {
		next, err := step(transfer.ID)
		if err != nil {
			t.Fatalf("advance to %s: %v", status, err)
		}
		transfer = next
	}
	if transfer.Status != status {
		t.Fatalf("advance: expected %s, got %s", status, transfer.Status)
	}
	return transfer
}
