package domain

import "time"

// TransferType classifies a transfer request.
type TransferType string

const (
	TransferTypeOut        TransferType = "TRANSFER_OUT"
	TransferTypeIn         TransferType = "TRANSFER_IN"
	TransferTypeSecondment TransferType = "SECONDMENT"
)

// Valid reports whether t is a known transfer type.
func (t TransferType) Valid() bool {
	switch t {
	case TransferTypeOut, TransferTypeIn, TransferTypeSecondment:
		return true
	default:
		return false
	}
}

// TransferStatus enumerates lifecycle states for transfer requests.
type TransferStatus string

const (
	TransferStatusDraft         TransferStatus = "DRAFT"
	TransferStatusPendingSource TransferStatus = "PENDING_SOURCE"
	TransferStatusPendingTarget TransferStatus = "PENDING_TARGET"
	TransferStatusApproved      TransferStatus = "APPROVED"
	TransferStatusRejected      TransferStatus = "REJECTED"
	TransferStatusCancelled     TransferStatus = "CANCELLED"
	TransferStatusCompleted     TransferStatus = "COMPLETED"
)

// AllTransferStatuses lists every status in lifecycle order.
var AllTransferStatuses = []TransferStatus{
	TransferStatusDraft,
	TransferStatusPendingSource,
	TransferStatusPendingTarget,
	TransferStatusApproved,
	TransferStatusRejected,
	TransferStatusCancelled,
	TransferStatusCompleted,
}

// Valid reports whether s is a known status.
func (s TransferStatus) Valid() bool {
	for _, candidate := range AllTransferStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further workflow command may change the aggregate.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusRejected || s == TransferStatusCancelled || s == TransferStatusCompleted
}

// TransferRequest is the aggregate for a cross-tenant personnel move.
//
// Employee, source and target display names are a snapshot taken at creation
// and are never re-synced with the reference directory.
type TransferRequest struct {
	ID            string
	RequestNumber string
	Type          TransferType

	EmployeeID            string
	EmployeeName          string
	EmployeeNumber        string
	CurrentDepartmentName string
	CurrentPositionName   string
	CurrentGradeName      string

	SourceTenantID       string
	SourceTenantName     string
	SourceDepartmentID   string
	SourceDepartmentName string

	TargetTenantID       string
	TargetTenantName     string
	TargetDepartmentID   *string
	TargetDepartmentName string
	TargetPositionID     *string
	TargetPositionName   string
	TargetGradeID        *string
	TargetGradeName      string

	RequestedDate time.Time
	EffectiveDate *time.Time
	ReturnDate    *time.Time

	Reason        string
	Remarks       string
	HandoverNotes string

	Status TransferStatus

	SourceApprovedBy   *string
	SourceApprovedName *string
	SourceApprovedAt   *time.Time
	TargetApprovedBy   *string
	TargetApprovedName *string
	TargetApprovedAt   *time.Time

	CompletedAt   *time.Time
	CancelledAt   *time.Time
	CancelReason  string
	TargetComment string

	RequesterID         string
	RequesterName       string
	RequesterDepartment string

	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// Clone returns a deep copy so callers never share pointer fields.
func (t *TransferRequest) Clone() *TransferRequest {
	if t == nil {
		return nil
	}
	c := *t
	c.TargetDepartmentID = cloneString(t.TargetDepartmentID)
	c.TargetPositionID = cloneString(t.TargetPositionID)
	c.TargetGradeID = cloneString(t.TargetGradeID)
	c.EffectiveDate = cloneTime(t.EffectiveDate)
	c.ReturnDate = cloneTime(t.ReturnDate)
	c.SourceApprovedBy = cloneString(t.SourceApprovedBy)
	c.SourceApprovedName = cloneString(t.SourceApprovedName)
	c.SourceApprovedAt = cloneTime(t.SourceApprovedAt)
	c.TargetApprovedBy = cloneString(t.TargetApprovedBy)
	c.TargetApprovedName = cloneString(t.TargetApprovedName)
	c.TargetApprovedAt = cloneTime(t.TargetApprovedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	c.CancelledAt = cloneTime(t.CancelledAt)
	return &c
}

// TransferSummary is the dashboard read model.
type TransferSummary struct {
	PendingSourceCount int
	PendingTargetCount int
	ApprovedCount      int
	CompletedThisMonth int
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
