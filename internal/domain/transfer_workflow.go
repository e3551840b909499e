package domain

import (
	"fmt"
	"strings"
	"time"
)

// Trigger names a workflow command.
type Trigger string

const (
	TriggerSubmit        Trigger = "submit"
	TriggerApproveSource Trigger = "approveSource"
	TriggerApproveTarget Trigger = "approveTarget"
	TriggerReject        Trigger = "reject"
	TriggerComplete      Trigger = "complete"
	TriggerCancel        Trigger = "cancel"
)

// AllTriggers lists every workflow trigger.
var AllTriggers = []Trigger{
	TriggerSubmit,
	TriggerApproveSource,
	TriggerApproveTarget,
	TriggerReject,
	TriggerComplete,
	TriggerCancel,
}

// Source approval must precede target approval; there is no edge from
// PENDING_SOURCE to APPROVED.
var transitions = map[TransferStatus]map[Trigger]TransferStatus{
	TransferStatusDraft: {
		TriggerSubmit: TransferStatusPendingSource,
		TriggerCancel: TransferStatusCancelled,
	},
	TransferStatusPendingSource: {
		TriggerApproveSource: TransferStatusPendingTarget,
		TriggerReject:        TransferStatusRejected,
		TriggerCancel:        TransferStatusCancelled,
	},
	TransferStatusPendingTarget: {
		TriggerApproveTarget: TransferStatusApproved,
		TriggerReject:        TransferStatusRejected,
		TriggerCancel:        TransferStatusCancelled,
	},
	TransferStatusApproved: {
		TriggerComplete: TransferStatusCompleted,
		TriggerCancel:   TransferStatusCancelled,
	},
}

type party int

const (
	partySource party = iota
	partyTarget
	partyEither
	partyEitherOrSystem
)

var triggerParties = map[Trigger]party{
	TriggerSubmit:        partySource,
	TriggerApproveSource: partySource,
	TriggerApproveTarget: partyTarget,
	TriggerReject:        partyEither,
	TriggerCancel:        partyEither,
	TriggerComplete:      partyEitherOrSystem,
}

// IllegalTransitionError reports a (status, trigger) pair outside the transition table.
type IllegalTransitionError struct {
	From    TransferStatus
	Trigger Trigger
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a transfer in status %s", e.Trigger, e.From)
}

// AuthorizationError reports a caller acting for the wrong tenant.
type AuthorizationError struct {
	Action       string
	Required     string
	CallerTenant string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s requires a caller acting for the %s", e.Action, e.Required)
}

// ValidationError reports a missing or malformed field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// NextStatus looks up the transition table.
func NextStatus(from TransferStatus, trigger Trigger) (TransferStatus, error) {
	next, ok := transitions[from][trigger]
	if !ok {
		return "", &IllegalTransitionError{From: from, Trigger: trigger}
	}
	return next, nil
}

// AuthorizeTrigger checks the tenant-scoped guard for trigger. It does not
// look at the status.
func AuthorizeTrigger(trigger Trigger, t *TransferRequest, caller Caller) error {
	rule, ok := triggerParties[trigger]
	if !ok {
		return &IllegalTransitionError{From: t.Status, Trigger: trigger}
	}
	return authorizeParty(string(trigger), rule, t, caller)
}

// AuthorizeDraftEdit guards update and delete: the source tenant or the original requester.
func AuthorizeDraftEdit(action string, t *TransferRequest, caller Caller) error {
	if caller.ActsFor(t.SourceTenantID) || (caller.UserID != "" && caller.UserID == t.RequesterID) {
		return nil
	}
	return &AuthorizationError{Action: action, Required: "source tenant or the requester", CallerTenant: caller.TenantID}
}

// AuthorizeParticipant guards actions open to both parties and system callers.
func AuthorizeParticipant(action string, t *TransferRequest, caller Caller) error {
	return authorizeParty(action, partyEitherOrSystem, t, caller)
}

func authorizeParty(action string, rule party, t *TransferRequest, caller Caller) error {
	source := caller.ActsFor(t.SourceTenantID)
	target := caller.ActsFor(t.TargetTenantID)
	switch rule {
	case partySource:
		if source {
			return nil
		}
		return &AuthorizationError{Action: action, Required: "source tenant", CallerTenant: caller.TenantID}
	case partyTarget:
		if target {
			return nil
		}
		return &AuthorizationError{Action: action, Required: "target tenant", CallerTenant: caller.TenantID}
	case partyEither:
		if source || target {
			return nil
		}
	case partyEitherOrSystem:
		if source || target || caller.IsSystem() {
			return nil
		}
	}
	return &AuthorizationError{Action: action, Required: "source or target tenant", CallerTenant: caller.TenantID}
}

// ValidateSchedule enforces the secondment return-date rules.
func ValidateSchedule(t *TransferRequest) error {
	if t.ReturnDate == nil {
		return nil
	}
	if t.Type != TransferTypeSecondment {
		return &ValidationError{Field: "returnDate", Message: "is only allowed for SECONDMENT"}
	}
	if t.EffectiveDate != nil && !t.ReturnDate.After(*t.EffectiveDate) {
		return &ValidationError{Field: "returnDate", Message: "must be after effectiveDate"}
	}
	return nil
}

// ValidateForSubmit checks the fields a draft needs before entering the approval chain.
func ValidateForSubmit(t *TransferRequest) error {
	if strings.TrimSpace(t.TargetTenantID) == "" {
		return &ValidationError{Field: "targetTenantId", Message: "is required"}
	}
	if strings.TrimSpace(t.Reason) == "" {
		return &ValidationError{Field: "reason", Message: "is required"}
	}
	return ValidateSchedule(t)
}

// Transition runs one workflow command against t: status guard, tenant guard,
// input validation, then mutation. t is left untouched on error.
func Transition(t *TransferRequest, trigger Trigger, caller Caller, reason string, now time.Time) error {
	next, err := NextStatus(t.Status, trigger)
	if err != nil {
		return err
	}
	if err := AuthorizeTrigger(trigger, t, caller); err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	switch trigger {
	case TriggerSubmit:
		if err := ValidateForSubmit(t); err != nil {
			return err
		}
	case TriggerApproveTarget:
		if t.SourceApprovedAt == nil {
			return &IllegalTransitionError{From: t.Status, Trigger: trigger}
		}
	case TriggerReject, TriggerCancel:
		if reason == "" {
			return &ValidationError{Field: "reason", Message: "is required"}
		}
	}

	at := now
	switch trigger {
	case TriggerApproveSource:
		t.SourceApprovedBy = stringPtr(caller.UserID)
		t.SourceApprovedName = stringPtr(caller.DisplayName())
		t.SourceApprovedAt = &at
	case TriggerApproveTarget:
		t.TargetApprovedBy = stringPtr(caller.UserID)
		t.TargetApprovedName = stringPtr(caller.DisplayName())
		t.TargetApprovedAt = &at
	case TriggerReject:
		t.TargetComment = reason
	case TriggerComplete:
		t.CompletedAt = &at
	case TriggerCancel:
		t.CancelledAt = &at
		t.CancelReason = reason
	}

	t.Status = next
	t.UpdatedAt = now
	return nil
}

func stringPtr(v string) *string {
	return &v
}
