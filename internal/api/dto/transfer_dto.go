package dto

import (
	"time"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// CreateTransferRequest payload.
type CreateTransferRequest struct {
	Type                  domain.TransferType `json:"type"`
	EmployeeID            string              `json:"employeeId"`
	EmployeeName          string              `json:"employeeName"`
	EmployeeNumber        string              `json:"employeeNumber"`
	CurrentDepartmentName string              `json:"currentDepartmentName"`
	CurrentPositionName   string              `json:"currentPositionName"`
	CurrentGradeName      string              `json:"currentGradeName"`
	SourceTenantID        string              `json:"sourceTenantId"`
	SourceDepartmentID    string              `json:"sourceDepartmentId"`
	SourceDepartmentName  string              `json:"sourceDepartmentName"`
	TargetTenantID        string              `json:"targetTenantId"`
	TargetDepartmentID    *string             `json:"targetDepartmentId"`
	TargetPositionID      *string             `json:"targetPositionId"`
	TargetGradeID         *string             `json:"targetGradeId"`
	EffectiveDate         *string             `json:"effectiveDate"`
	ReturnDate            *string             `json:"returnDate"`
	Reason                string              `json:"reason"`
	Remarks               string              `json:"remarks"`
	HandoverNotes         string              `json:"handoverItems"`
}

// UpdateTransferRequest patches a draft. Absent fields are left unchanged.
type UpdateTransferRequest struct {
	Type                  *domain.TransferType `json:"type"`
	EmployeeID            *string              `json:"employeeId"`
	EmployeeName          *string              `json:"employeeName"`
	EmployeeNumber        *string              `json:"employeeNumber"`
	CurrentDepartmentName *string              `json:"currentDepartmentName"`
	CurrentPositionName   *string              `json:"currentPositionName"`
	CurrentGradeName      *string              `json:"currentGradeName"`
	SourceDepartmentID    *string              `json:"sourceDepartmentId"`
	SourceDepartmentName  *string              `json:"sourceDepartmentName"`
	TargetTenantID        *string              `json:"targetTenantId"`
	TargetDepartmentID    Nullable[string]     `json:"targetDepartmentId"`
	TargetPositionID      Nullable[string]     `json:"targetPositionId"`
	TargetGradeID         Nullable[string]     `json:"targetGradeId"`
	EffectiveDate         Nullable[string]     `json:"effectiveDate"`
	ReturnDate            Nullable[string]     `json:"returnDate"`
	Reason                *string              `json:"reason"`
	Remarks               *string              `json:"remarks"`
	HandoverNotes         *string              `json:"handoverItems"`
}

// ReasonRequest is the body of reject and cancel.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// TransferResponse is the full transfer representation.
type TransferResponse struct {
	ID                    string                `json:"id"`
	RequestNumber         string                `json:"requestNumber"`
	Type                  domain.TransferType   `json:"type"`
	EmployeeID            string                `json:"employeeId"`
	EmployeeName          string                `json:"employeeName"`
	EmployeeNumber        string                `json:"employeeNumber"`
	CurrentDepartmentName string                `json:"currentDepartmentName"`
	CurrentPositionName   string                `json:"currentPositionName"`
	CurrentGradeName      string                `json:"currentGradeName"`
	SourceTenantID        string                `json:"sourceTenantId"`
	SourceTenantName      string                `json:"sourceTenantName"`
	SourceDepartmentID    string                `json:"sourceDepartmentId"`
	SourceDepartmentName  string                `json:"sourceDepartmentName"`
	TargetTenantID        string                `json:"targetTenantId"`
	TargetTenantName      string                `json:"targetTenantName"`
	TargetDepartmentID    *string               `json:"targetDepartmentId"`
	TargetDepartmentName  string                `json:"targetDepartmentName"`
	TargetPositionID      *string               `json:"targetPositionId"`
	TargetPositionName    string                `json:"targetPositionName"`
	TargetGradeID         *string               `json:"targetGradeId"`
	TargetGradeName       string                `json:"targetGradeName"`
	RequestedDate         string                `json:"requestedDate"`
	EffectiveDate         *string               `json:"effectiveDate"`
	ReturnDate            *string               `json:"returnDate"`
	Reason                string                `json:"reason"`
	Remarks               string                `json:"remarks"`
	HandoverNotes         string                `json:"handoverItems"`
	Status                domain.TransferStatus `json:"status"`
	SourceApprovedBy      *string               `json:"sourceApprovedBy"`
	SourceApprovedName    *string               `json:"sourceApprovedName"`
	SourceApprovedAt      *time.Time            `json:"sourceApprovedAt"`
	TargetApprovedBy      *string               `json:"targetApprovedBy"`
	TargetApprovedName    *string               `json:"targetApprovedName"`
	TargetApprovedAt      *time.Time            `json:"targetApprovedAt"`
	CompletedAt           *time.Time            `json:"completedAt"`
	CancelledAt           *time.Time            `json:"cancelledAt"`
	CancelReason          string                `json:"cancelReason"`
	TargetComment         string                `json:"targetComment"`
	RequesterID           string                `json:"requesterId"`
	RequesterName         string                `json:"requesterName"`
	RequesterDepartment   string                `json:"requesterDepartment"`
	CreatedAt             time.Time             `json:"createdAt"`
	UpdatedAt             time.Time             `json:"updatedAt"`
	Version               int64                 `json:"version"`
}

// TransferPageResponse is one page of transfers.
type TransferPageResponse struct {
	Content       []TransferResponse `json:"content"`
	Page          int                `json:"page"`
	Size          int                `json:"size"`
	TotalElements int                `json:"totalElements"`
	TotalPages    int                `json:"totalPages"`
}

// TransferSummaryResponse is the dashboard payload.
type TransferSummaryResponse struct {
	PendingSourceCount int `json:"pendingSourceCount"`
	PendingTargetCount int `json:"pendingTargetCount"`
	ApprovedCount      int `json:"approvedCount"`
	CompletedThisMonth int `json:"completedThisMonth"`
}

// NewTransferResponse maps the aggregate to its wire form.
func NewTransferResponse(t *domain.TransferRequest) TransferResponse {
	return TransferResponse{
		ID:                    t.ID,
		RequestNumber:         t.RequestNumber,
		Type:                  t.Type,
		EmployeeID:            t.EmployeeID,
		EmployeeName:          t.EmployeeName,
		EmployeeNumber:        t.EmployeeNumber,
		CurrentDepartmentName: t.CurrentDepartmentName,
		CurrentPositionName:   t.CurrentPositionName,
		CurrentGradeName:      t.CurrentGradeName,
		SourceTenantID:        t.SourceTenantID,
		SourceTenantName:      t.SourceTenantName,
		SourceDepartmentID:    t.SourceDepartmentID,
		SourceDepartmentName:  t.SourceDepartmentName,
		TargetTenantID:        t.TargetTenantID,
		TargetTenantName:      t.TargetTenantName,
		TargetDepartmentID:    t.TargetDepartmentID,
		TargetDepartmentName:  t.TargetDepartmentName,
		TargetPositionID:      t.TargetPositionID,
		TargetPositionName:    t.TargetPositionName,
		TargetGradeID:         t.TargetGradeID,
		TargetGradeName:       t.TargetGradeName,
		RequestedDate:         t.RequestedDate.Format(DateLayout),
		EffectiveDate:         FormatDate(t.EffectiveDate),
		ReturnDate:            FormatDate(t.ReturnDate),
		Reason:                t.Reason,
		Remarks:               t.Remarks,
		HandoverNotes:         t.HandoverNotes,
		Status:                t.Status,
		SourceApprovedBy:      t.SourceApprovedBy,
		SourceApprovedName:    t.SourceApprovedName,
		SourceApprovedAt:      t.SourceApprovedAt,
		TargetApprovedBy:      t.TargetApprovedBy,
		TargetApprovedName:    t.TargetApprovedName,
		TargetApprovedAt:      t.TargetApprovedAt,
		CompletedAt:           t.CompletedAt,
		CancelledAt:           t.CancelledAt,
		CancelReason:          t.CancelReason,
		TargetComment:         t.TargetComment,
		RequesterID:           t.RequesterID,
		RequesterName:         t.RequesterName,
		RequesterDepartment:   t.RequesterDepartment,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		Version:               t.Version,
	}
}

// NewTransferSummaryResponse maps the summary read model.
func NewTransferSummaryResponse(s *domain.TransferSummary) TransferSummaryResponse {
	return TransferSummaryResponse{
		PendingSourceCount: s.PendingSourceCount,
		PendingTargetCount: s.PendingTargetCount,
		ApprovedCount:      s.ApprovedCount,
		CompletedThisMonth: s.CompletedThisMonth,
	}
}
