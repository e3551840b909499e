package events

import (
	"time"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTransferCreated        EventType = "transfer_created"
	EventTransferSubmitted      EventType = "transfer_submitted"
	EventTransferSourceApproved EventType = "transfer_source_approved"
	EventTransferTargetApproved EventType = "transfer_target_approved"
	EventTransferRejected       EventType = "transfer_rejected"
	EventTransferCancelled      EventType = "transfer_cancelled"
	EventTransferCompleted      EventType = "transfer_completed"
	EventHandoverItemAdded      EventType = "handover_item_added"
	EventHandoverItemCompleted  EventType = "handover_item_completed"
)

// TransitionEventTypes maps workflow triggers to the event they emit.
var TransitionEventTypes = map[domain.Trigger]EventType{
	domain.TriggerSubmit:        EventTransferSubmitted,
	domain.TriggerApproveSource: EventTransferSourceApproved,
	domain.TriggerApproveTarget: EventTransferTargetApproved,
	domain.TriggerReject:        EventTransferRejected,
	domain.TriggerCancel:        EventTransferCancelled,
	domain.TriggerComplete:      EventTransferCompleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID   string            `json:"user_id"`
	TenantID string            `json:"tenant_id,omitempty"`
	Role     domain.CallerRole `json:"role,omitempty"`
}

// ActorFromCaller converts the caller context.
func ActorFromCaller(caller domain.Caller) Actor {
	return Actor{UserID: caller.UserID, TenantID: caller.TenantID, Role: caller.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TransferID string      `json:"transfer_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TransferCreatedPayload payload.
type TransferCreatedPayload struct {
	RequestNumber  string              `json:"request_number"`
	Type           domain.TransferType `json:"type"`
	EmployeeID     string              `json:"employee_id"`
	SourceTenantID string              `json:"source_tenant_id"`
	TargetTenantID string              `json:"target_tenant_id"`
}

// TransferStatusChangedPayload payload shared by every workflow transition.
type TransferStatusChangedPayload struct {
	RequestNumber  string                `json:"request_number"`
	OldStatus      domain.TransferStatus `json:"old_status"`
	NewStatus      domain.TransferStatus `json:"new_status"`
	SourceTenantID string                `json:"source_tenant_id"`
	TargetTenantID string                `json:"target_tenant_id"`
	Comment        string                `json:"comment,omitempty"`
}

// HandoverItemPayload payload.
type HandoverItemPayload struct {
	ItemID   string `json:"item_id"`
	Category string `json:"category"`
	Title    string `json:"title"`
}
