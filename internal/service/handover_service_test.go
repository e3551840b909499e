package service

import (
	"context"
	"sync"
	"testing"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

func TestHandover_AddAndComplete(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, nil)
	ctx := context.Background()
	transfer := f.advance(t, domain.TransferStatusApproved)

	item, err := f.handover.AddItem(ctx, sourceCaller, transfer.ID, HandoverItemInput{
		Category: "documents",
		Title:    " Transfer contract files ",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if item.Title != "Transfer contract files" || item.IsCompleted {
		t.Fatalf("unexpected item: %+v", item)
	}

	completed, err := f.handover.CompleteItem(ctx, targetCaller, transfer.ID, item.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !completed.IsCompleted || completed.CompletedAt == nil || *completed.CompletedBy != "u-tgt" {
		t.Fatalf("completion not recorded: %+v", completed)
	}

	if _, err := f.handover.CompleteItem(ctx, sourceCaller, transfer.ID, item.ID); !apperrors.IsInvalidState(err) {
		t.Fatalf("expected invalid state on re-completion, got %v", err)
	}

	items, err := f.handover.ListItems(ctx, transfer.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || *items[0].CompletedBy != "u-tgt" {
		t.Fatalf("unexpected items: %+v", items)
	}

	types := f.events.types()
	if types[len(types)-2] != events.EventHandoverItemAdded || types[len(types)-1] != events.EventHandoverItemCompleted {
		t.Fatalf("handover events missing: %v", types)
	}
}

func TestHandover_Errors(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, nil)
	ctx := context.Background()
	transfer := f.advance(t, domain.TransferStatusPendingTarget)

	if _, err := f.handover.AddItem(ctx, sourceCaller, transfer.ID, HandoverItemInput{Title: "  "}); !apperrors.IsValidation(err) {
		t.Errorf("blank title: expected validation error, got %v", err)
	}
	if _, err := f.handover.AddItem(ctx, sourceCaller, "missing", HandoverItemInput{Title: "Keys"}); !apperrors.IsNotFound(err) {
		t.Errorf("unknown transfer: expected not found, got %v", err)
	}
	if _, err := f.handover.AddItem(ctx, outsiderCaller, transfer.ID, HandoverItemInput{Title: "Keys"}); !apperrors.IsForbidden(err) {
		t.Errorf("outsider: expected forbidden, got %v", err)
	}
	if _, err := f.handover.CompleteItem(ctx, sourceCaller, transfer.ID, "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("unknown item: expected not found, got %v", err)
	}
	if _, err := f.handover.CompleteItem(ctx, sourceCaller, "missing", "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("unknown transfer on complete: expected not found, got %v", err)
	}
	if _, err := f.handover.ListItems(ctx, "missing"); !apperrors.IsNotFound(err) {
		t.Errorf("list unknown transfer: expected not found, got %v", err)
	}
}

func TestHandover_GateDisabledAllowsAnyStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, nil)
	ctx := context.Background()
	for _, status := range []domain.TransferStatus{
		domain.TransferStatusDraft,
		domain.TransferStatusPendingSource,
		domain.TransferStatusCancelled,
		domain.TransferStatusRejected,
	} {
		transfer := f.advance(t, status)
		if _, err := f.handover.AddItem(ctx, sourceCaller, transfer.ID, HandoverItemInput{Title: "Keys"}); err != nil {
			t.Errorf("%s: expected add to succeed with the gate off, got %v", status, err)
		}
	}
}

func TestHandover_GateEnforced(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, nil)
	ctx := context.Background()

	cases := map[domain.TransferStatus]bool{
		domain.TransferStatusDraft:         false,
		domain.TransferStatusPendingSource: false,
		domain.TransferStatusPendingTarget: true,
		domain.TransferStatusApproved:      true,
		domain.TransferStatusCompleted:     true,
		domain.TransferStatusRejected:      false,
		domain.TransferStatusCancelled:     false,
	}
	for status, allowed := range cases {
		transfer := f.advance(t, status)
		_, err := f.handover.AddItem(ctx, sourceCaller, transfer.ID, HandoverItemInput{Title: "Keys"})
		switch {
		case allowed && err != nil:
			t.Errorf("%s: expected add to succeed, got %v", status, err)
		case !allowed && !apperrors.IsInvalidState(err):
			t.Errorf("%s: expected invalid state, got %v", status, err)
		}
	}
}

func TestHandover_GateBlocksCompletionAfterCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true, nil)
	ctx := context.Background()
	transfer := f.advance(t, domain.TransferStatusApproved)

	item, err := f.handover.AddItem(ctx, sourceCaller, transfer.ID, HandoverItemInput{Title: "Keys"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := f.transfers.Cancel(ctx, sourceCaller, transfer.ID, "withdrawn"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if _, err := f.handover.CompleteItem(ctx, sourceCaller, transfer.ID, item.ID); !apperrors.IsInvalidState(err) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}

func TestHandover_IndependentItemsCompleteConcurrently(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false, nil)
	ctx := context.Background()
	transfer := f.advance(t, domain.TransferStatusApproved)

	ids := make([]string, 8)
	for i := range ids {
		item, err := f.handover.AddItem(ctx, sourceCaller, transfer.ID, HandoverItemInput{Title: "Task"})
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		ids[i] = item.ID
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.handover.CompleteItem(ctx, targetCaller, transfer.ID, id)
		}(i, id)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("item %d: %v", i, err)
		}
	}
	items, _ := f.handover.ListItems(ctx, transfer.ID)
	for _, item := range items {
		if !item.IsCompleted {
			t.Errorf("item %s not completed", item.ID)
		}
	}
}
