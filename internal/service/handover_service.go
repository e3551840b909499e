package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/repository"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

// HandoverService manages the handover ledger of a transfer.
type HandoverService struct {
	transfers   repository.TransferRepository
	items       repository.HandoverRepository
	dispatcher  events.Dispatcher
	clock       Clock
	logger      *zap.Logger
	gateEnabled bool
}

// HandoverDependencies bundles collaborators for the handover service.
type HandoverDependencies struct {
	TransferRepo repository.TransferRepository
	HandoverRepo repository.HandoverRepository
	Dispatcher   events.Dispatcher
	Clock        Clock
	Logger       *zap.Logger
	// EnforceGate restricts adding and completing items to transfers in
	// PENDING_TARGET, APPROVED or COMPLETED.
	EnforceGate bool
}

// HandoverItemInput describes a new handover item.
type HandoverItemInput struct {
	Category    string
	Title       string
	Description string
}

// NewHandoverService constructs the service.
func NewHandoverService(deps HandoverDependencies) *HandoverService {
	s := &HandoverService{
		transfers:   deps.TransferRepo,
		items:       deps.HandoverRepo,
		dispatcher:  deps.Dispatcher,
		clock:       deps.Clock,
		logger:      deps.Logger,
		gateEnabled: deps.EnforceGate,
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// ListItems returns the items of a transfer in creation order.
func (s *HandoverService) ListItems(ctx context.Context, transferID string) ([]domain.HandoverItem, error) {
	if _, err := s.transfers.GetByID(ctx, transferID); err != nil {
		return nil, translateError(err, "transfer")
	}
	items, err := s.items.ListByTransfer(ctx, transferID)
	if err != nil {
		return nil, translateError(err, "handover item")
	}
	return items, nil
}

// AddItem attaches a new open item to a transfer.
func (s *HandoverService) AddItem(ctx context.Context, caller domain.Caller, transferID string, input HandoverItemInput) (*domain.HandoverItem, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	}

	transfer, err := s.loadActionable(ctx, caller, "addHandoverItem", transferID)
	if err != nil {
		return nil, err
	}

	item := &domain.HandoverItem{
		ID:          uuid.NewString(),
		TransferID:  transfer.ID,
		Category:    strings.TrimSpace(input.Category),
		Title:       title,
		Description: input.Description,
		CreatedAt:   s.clock.Now(),
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, translateError(err, "transfer")
	}

	s.publishEvent(ctx, caller, events.EventHandoverItemAdded, item)
	return item, nil
}

// CompleteItem marks an item completed by the caller. Completion is one-way;
// a second attempt fails with INVALID_STATE.
func (s *HandoverService) CompleteItem(ctx context.Context, caller domain.Caller, transferID, itemID string) (*domain.HandoverItem, error) {
	if _, err := s.loadActionable(ctx, caller, "completeHandoverItem", transferID); err != nil {
		return nil, err
	}

	item, err := s.items.MarkCompleted(ctx, transferID, itemID, caller.UserID, s.clock.Now())
	switch {
	case errors.Is(err, repository.ErrAlreadyCompleted):
		return nil, apperrors.NewInvalidState("handover item is already completed", map[string]any{"itemId": itemID})
	case err != nil:
		return nil, translateError(err, "handover item")
	}

	s.publishEvent(ctx, caller, events.EventHandoverItemCompleted, item)
	return item, nil
}

func (s *HandoverService) loadActionable(ctx context.Context, caller domain.Caller, action, transferID string) (*domain.TransferRequest, error) {
	transfer, err := s.transfers.GetByID(ctx, transferID)
	if err != nil {
		return nil, translateError(err, "transfer")
	}
	if s.gateEnabled && !domain.HandoverActionable(transfer.Status) {
		return nil, apperrors.NewInvalidState(
			fmt.Sprintf("handover items are not actionable while the transfer is %s", transfer.Status),
			map[string]any{"from": transfer.Status},
		)
	}
	if err := domain.AuthorizeParticipant(action, transfer, caller); err != nil {
		return nil, translateError(err, "transfer")
	}
	return transfer, nil
}

func (s *HandoverService) publishEvent(ctx context.Context, caller domain.Caller, eventType events.EventType, item *domain.HandoverItem) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		TransferID: item.TransferID,
		Actor:      events.ActorFromCaller(caller),
		Timestamp:  s.clock.Now(),
		Payload: events.HandoverItemPayload{
			ItemID:   item.ID,
			Category: item.Category,
			Title:    item.Title,
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
