package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/directory"
	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/events"
	"github.com/spec-kit/transfer-service/internal/repository"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// maxConflictRetries bounds reloads after losing an optimistic write.
	maxConflictRetries = 3
)

// TransferService is the command and query surface of the transfer workflow.
type TransferService struct {
	transfers  repository.TransferRepository
	directory  directory.Directory
	tx         Transactor
	dispatcher events.Dispatcher
	clock      Clock
	location   *time.Location
	logger     *zap.Logger
}

// TransferDependencies bundles collaborators for the transfer service.
type TransferDependencies struct {
	TransferRepo repository.TransferRepository
	Directory    directory.Directory
	Transactor   Transactor
	Dispatcher   events.Dispatcher
	Clock        Clock
	Location     *time.Location
	Logger       *zap.Logger
}

// NewTransferService constructs the service.
func NewTransferService(deps TransferDependencies) *TransferService {
	s := &TransferService{
		transfers:  deps.TransferRepo,
		directory:  deps.Directory,
		tx:         deps.Transactor,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		location:   deps.Location,
		logger:     deps.Logger,
	}
	if s.tx == nil {
		s.tx = noopTransactor{}
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.location == nil {
		s.location = time.UTC
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// TransferCreateInput describes a new draft.
type TransferCreateInput struct {
	Type                  domain.TransferType
	EmployeeID            string
	EmployeeName          string
	EmployeeNumber        string
	CurrentDepartmentName string
	CurrentPositionName   string
	CurrentGradeName      string
	SourceTenantID        string
	SourceDepartmentID    string
	SourceDepartmentName  string
	TargetTenantID        string
	TargetDepartmentID    *string
	TargetPositionID      *string
	TargetGradeID         *string
	EffectiveDate         *time.Time
	ReturnDate            *time.Time
	Reason                string
	Remarks               string
	HandoverNotes         string
}

// TransferPatch carries draft edits. Nil pointers leave a field unchanged;
// the *Set flags distinguish clearing a nullable field from leaving it alone.
// Identity, status, source tenant, requester and audit fields have no entry.
type TransferPatch struct {
	Type                  *domain.TransferType
	EmployeeID            *string
	EmployeeName          *string
	EmployeeNumber        *string
	CurrentDepartmentName *string
	CurrentPositionName   *string
	CurrentGradeName      *string
	SourceDepartmentID    *string
	SourceDepartmentName  *string
	TargetTenantID        *string
	TargetDepartmentID    *string
	TargetDepartmentIDSet bool
	TargetPositionID      *string
	TargetPositionIDSet   bool
	TargetGradeID         *string
	TargetGradeIDSet      bool
	EffectiveDate         *time.Time
	EffectiveDateSet      bool
	ReturnDate            *time.Time
	ReturnDateSet         bool
	Reason                *string
	Remarks               *string
	HandoverNotes         *string
}

// TransferListInput describes list filters and a 0-based page.
type TransferListInput struct {
	Keyword string
	Type    domain.TransferType
	Status  domain.TransferStatus
	Page    int
	Size    int
}

// TransferPage is one page of transfers.
type TransferPage struct {
	Content       []domain.TransferRequest
	Page          int
	Size          int
	TotalElements int
	TotalPages    int
}

// Create stores a new DRAFT with the next request number for the current year.
func (s *TransferService) Create(ctx context.Context, caller domain.Caller, input TransferCreateInput) (*domain.TransferRequest, error) {
	if input.Type == "" {
		input.Type = domain.TransferTypeOut
	}
	if !input.Type.Valid() {
		return nil, apperrors.NewValidationError("type is not a known transfer type", map[string]any{"field": "type"})
	}
	targetTenantID := strings.TrimSpace(input.TargetTenantID)
	if targetTenantID == "" {
		return nil, apperrors.NewValidationError("targetTenantId is required", map[string]any{"field": "targetTenantId"})
	}
	sourceTenantID := strings.TrimSpace(input.SourceTenantID)
	if sourceTenantID == "" {
		sourceTenantID = caller.TenantID
	}
	if sourceTenantID == "" {
		return nil, apperrors.NewValidationError("sourceTenantId is required", map[string]any{"field": "sourceTenantId"})
	}
	if !caller.IsSystem() && !caller.ActsFor(sourceTenantID) && !caller.ActsFor(targetTenantID) {
		return nil, apperrors.NewForbidden("create requires a caller acting for the source or target tenant", map[string]any{
			"callerTenant": caller.TenantID,
		})
	}

	now := s.clock.Now()
	transfer := &domain.TransferRequest{
		ID:                    uuid.NewString(),
		Type:                  input.Type,
		EmployeeID:            strings.TrimSpace(input.EmployeeID),
		EmployeeName:          strings.TrimSpace(input.EmployeeName),
		EmployeeNumber:        strings.TrimSpace(input.EmployeeNumber),
		CurrentDepartmentName: input.CurrentDepartmentName,
		CurrentPositionName:   input.CurrentPositionName,
		CurrentGradeName:      input.CurrentGradeName,
		SourceTenantID:        sourceTenantID,
		SourceDepartmentID:    input.SourceDepartmentID,
		SourceDepartmentName:  input.SourceDepartmentName,
		TargetTenantID:        targetTenantID,
		TargetDepartmentID:    trimmedOrNil(input.TargetDepartmentID),
		TargetPositionID:      trimmedOrNil(input.TargetPositionID),
		TargetGradeID:         trimmedOrNil(input.TargetGradeID),
		RequestedDate:         dateOf(now, s.location),
		EffectiveDate:         input.EffectiveDate,
		ReturnDate:            input.ReturnDate,
		Reason:                strings.TrimSpace(input.Reason),
		Remarks:               input.Remarks,
		HandoverNotes:         input.HandoverNotes,
		Status:                domain.TransferStatusDraft,
		RequesterID:           caller.UserID,
		RequesterName:         caller.DisplayName(),
		RequesterDepartment:   caller.Department,
		CreatedAt:             now,
		UpdatedAt:             now,
		Version:               1,
	}

	err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
		if err := s.resolveReferences(ctx, transfer); err != nil {
			return err
		}
		if err := domain.ValidateSchedule(transfer); err != nil {
			return err
		}
		year := now.In(s.location).Year()
		seq, err := s.transfers.NextRequestSequence(ctx, year)
		if err != nil {
			return err
		}
		transfer.RequestNumber = fmt.Sprintf("TRF-%d-%04d", year, seq)
		return s.transfers.Create(ctx, transfer)
	})
	if err != nil {
		return nil, translateError(err, "transfer")
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventTransferCreated,
		TransferID: transfer.ID,
		Actor:      events.ActorFromCaller(caller),
		Payload: events.TransferCreatedPayload{
			RequestNumber:  transfer.RequestNumber,
			Type:           transfer.Type,
			EmployeeID:     transfer.EmployeeID,
			SourceTenantID: transfer.SourceTenantID,
			TargetTenantID: transfer.TargetTenantID,
		},
	})
	return transfer, nil
}

// Get returns a transfer by id.
func (s *TransferService) Get(ctx context.Context, id string) (*domain.TransferRequest, error) {
	transfer, err := s.transfers.GetByID(ctx, id)
	if err != nil {
		return nil, translateError(err, "transfer")
	}
	return transfer, nil
}

// Update patches a DRAFT.
func (s *TransferService) Update(ctx context.Context, caller domain.Caller, id string, patch TransferPatch) (*domain.TransferRequest, error) {
	return s.mutate(ctx, id, func(ctx context.Context, t *domain.TransferRequest) error {
		if t.Status != domain.TransferStatusDraft {
			return apperrors.NewInvalidState(fmt.Sprintf("cannot update a transfer in status %s", t.Status), map[string]any{
				"from": t.Status,
			})
		}
		if err := domain.AuthorizeDraftEdit("update", t, caller); err != nil {
			return err
		}
		if patch.Type != nil && !patch.Type.Valid() {
			return &domain.ValidationError{Field: "type", Message: "is not a known transfer type"}
		}

		targetChanged := applyPatch(t, patch)
		if targetChanged {
			if err := s.resolveReferences(ctx, t); err != nil {
				return err
			}
		}
		if err := domain.ValidateSchedule(t); err != nil {
			return err
		}
		t.UpdatedAt = s.clock.Now()
		return nil
	})
}

// Delete removes a DRAFT. The request number stays consumed.
func (s *TransferService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	for attempt := 0; ; attempt++ {
		err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
			current, err := s.transfers.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if current.Status != domain.TransferStatusDraft {
				return apperrors.NewInvalidState(fmt.Sprintf("cannot delete a transfer in status %s", current.Status), map[string]any{
					"from": current.Status,
				})
			}
			if err := domain.AuthorizeDraftEdit("delete", current, caller); err != nil {
				return err
			}
			return s.transfers.Delete(ctx, id, current.Version)
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			if attempt < maxConflictRetries {
				continue
			}
			return concurrentModification(id)
		}
		return translateError(err, "transfer")
	}
}

// List returns a page of transfers, newest first.
func (s *TransferService) List(ctx context.Context, input TransferListInput) (*TransferPage, error) {
	if input.Type != "" && !input.Type.Valid() {
		return nil, apperrors.NewValidationError("type is not a known transfer type", map[string]any{"field": "type"})
	}
	if input.Status != "" && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("status is not a known transfer status", map[string]any{"field": "status"})
	}
	page := input.Page
	if page < 0 {
		page = 0
	}
	size := input.Size
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	content, total, err := s.transfers.List(ctx, repository.TransferFilter{
		Keyword: input.Keyword,
		Type:    input.Type,
		Status:  input.Status,
		Limit:   size,
		Offset:  page * size,
	})
	if err != nil {
		return nil, translateError(err, "transfer")
	}
	if content == nil {
		content = []domain.TransferRequest{}
	}
	return &TransferPage{
		Content:       content,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
	}, nil
}

// Summary computes dashboard counters. The month boundary follows the
// configured reference timezone.
func (s *TransferService) Summary(ctx context.Context) (*domain.TransferSummary, error) {
	var summary domain.TransferSummary
	err := s.tx.WithinReadOnly(ctx, func(ctx context.Context) error {
		counts, err := s.transfers.CountByStatus(ctx)
		if err != nil {
			return err
		}
		local := s.clock.Now().In(s.location)
		monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, s.location)
		completed, err := s.transfers.CountCompletedBetween(ctx, monthStart, monthStart.AddDate(0, 1, 0))
		if err != nil {
			return err
		}
		summary = domain.TransferSummary{
			PendingSourceCount: counts[domain.TransferStatusPendingSource],
			PendingTargetCount: counts[domain.TransferStatusPendingTarget],
			ApprovedCount:      counts[domain.TransferStatusApproved],
			CompletedThisMonth: completed,
		}
		return nil
	})
	if err != nil {
		return nil, translateError(err, "transfer")
	}
	return &summary, nil
}

// Submit moves a DRAFT into source review.
func (s *TransferService) Submit(ctx context.Context, caller domain.Caller, id string) (*domain.TransferRequest, error) {
	return s.transition(ctx, caller, id, domain.TriggerSubmit, "")
}

// ApproveSource records the source tenant's release.
func (s *TransferService) ApproveSource(ctx context.Context, caller domain.Caller, id string) (*domain.TransferRequest, error) {
	return s.transition(ctx, caller, id, domain.TriggerApproveSource, "")
}

// ApproveTarget records the target tenant's acceptance.
func (s *TransferService) ApproveTarget(ctx context.Context, caller domain.Caller, id string) (*domain.TransferRequest, error) {
	return s.transition(ctx, caller, id, domain.TriggerApproveTarget, "")
}

// Reject ends a pending transfer with the rejecting party's reason.
func (s *TransferService) Reject(ctx context.Context, caller domain.Caller, id, reason string) (*domain.TransferRequest, error) {
	return s.transition(ctx, caller, id, domain.TriggerReject, reason)
}

// Complete marks an APPROVED transfer as having taken effect. The effective
// date is not checked here.
func (s *TransferService) Complete(ctx context.Context, caller domain.Caller, id string) (*domain.TransferRequest, error) {
	return s.transition(ctx, caller, id, domain.TriggerComplete, "")
}

// Cancel withdraws a transfer that has not reached a terminal status.
func (s *TransferService) Cancel(ctx context.Context, caller domain.Caller, id, reason string) (*domain.TransferRequest, error) {
	return s.transition(ctx, caller, id, domain.TriggerCancel, reason)
}

// DueForCompletion lists APPROVED transfers whose effective date is today or
// earlier in the reference timezone.
func (s *TransferService) DueForCompletion(ctx context.Context, limit int) ([]domain.TransferRequest, error) {
	today := dateOf(s.clock.Now(), s.location)
	due, err := s.transfers.ListDueForCompletion(ctx, today, limit)
	if err != nil {
		return nil, translateError(err, "transfer")
	}
	return due, nil
}

func (s *TransferService) transition(ctx context.Context, caller domain.Caller, id string, trigger domain.Trigger, reason string) (*domain.TransferRequest, error) {
	var oldStatus domain.TransferStatus
	updated, err := s.mutate(ctx, id, func(_ context.Context, t *domain.TransferRequest) error {
		oldStatus = t.Status
		return domain.Transition(t, trigger, caller, reason, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.TransitionEventTypes[trigger],
		TransferID: updated.ID,
		Actor:      events.ActorFromCaller(caller),
		Payload: events.TransferStatusChangedPayload{
			RequestNumber:  updated.RequestNumber,
			OldStatus:      oldStatus,
			NewStatus:      updated.Status,
			SourceTenantID: updated.SourceTenantID,
			TargetTenantID: updated.TargetTenantID,
			Comment:        strings.TrimSpace(reason),
		},
	})
	return updated, nil
}

// mutate loads the aggregate under a row lock, applies fn and writes it back
// guarded by the version read. A lost race reloads and re-runs fn, so guards
// are always evaluated against the latest state.
func (s *TransferService) mutate(ctx context.Context, id string, fn func(context.Context, *domain.TransferRequest) error) (*domain.TransferRequest, error) {
	for attempt := 0; ; attempt++ {
		var result *domain.TransferRequest
		err := s.tx.WithinReadWrite(ctx, func(ctx context.Context) error {
			current, err := s.transfers.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			expected := current.Version
			if err := fn(ctx, current); err != nil {
				return err
			}
			if err := s.transfers.Update(ctx, current, expected); err != nil {
				return err
			}
			result = current
			return nil
		})
		if errors.Is(err, repository.ErrVersionConflict) {
			if attempt < maxConflictRetries {
				s.logger.Debug("transfer version conflict, reloading", zap.String("transfer_id", id), zap.Int("attempt", attempt+1))
				continue
			}
			return nil, concurrentModification(id)
		}
		if err != nil {
			return nil, translateError(err, "transfer")
		}
		return result, nil
	}
}

// resolveReferences validates the target side against the directory and
// snapshots display names. Source fields are trusted and only named.
func (s *TransferService) resolveReferences(ctx context.Context, t *domain.TransferRequest) error {
	if t.TargetTenantID == t.SourceTenantID {
		return &domain.ValidationError{Field: "targetTenantId", Message: "must differ from sourceTenantId"}
	}

	target, ok, err := directory.FindTenant(ctx, s.directory, t.TargetTenantID)
	if err != nil {
		return err
	}
	if !ok {
		return &domain.ValidationError{Field: "targetTenantId", Message: "is not a known tenant"}
	}
	t.TargetTenantName = target.Name

	if source, ok, err := directory.FindTenant(ctx, s.directory, t.SourceTenantID); err != nil {
		return err
	} else if ok {
		t.SourceTenantName = source.Name
	}
	if t.SourceDepartmentID != "" {
		if dept, ok, err := directory.FindDepartment(ctx, s.directory, t.SourceTenantID, t.SourceDepartmentID); err != nil {
			return err
		} else if ok {
			t.SourceDepartmentName = dept.Name
		}
	}

	t.TargetDepartmentName = ""
	if t.TargetDepartmentID != nil {
		dept, ok, err := directory.FindDepartment(ctx, s.directory, t.TargetTenantID, *t.TargetDepartmentID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ValidationError{Field: "targetDepartmentId", Message: "does not belong to the target tenant"}
		}
		t.TargetDepartmentName = dept.Name
	}

	t.TargetPositionName = ""
	if t.TargetPositionID != nil {
		pos, ok, err := directory.FindPosition(ctx, s.directory, t.TargetTenantID, *t.TargetPositionID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ValidationError{Field: "targetPositionId", Message: "does not belong to the target tenant"}
		}
		t.TargetPositionName = pos.Name
	}

	t.TargetGradeName = ""
	if t.TargetGradeID != nil {
		grade, ok, err := directory.FindGrade(ctx, s.directory, t.TargetTenantID, *t.TargetGradeID)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.ValidationError{Field: "targetGradeId", Message: "does not belong to the target tenant"}
		}
		t.TargetGradeName = grade.Name
	}
	return nil
}

// applyPatch copies set fields onto t and reports whether any field that
// needs directory resolution changed.
func applyPatch(t *domain.TransferRequest, p TransferPatch) bool {
	resolve := false
	if p.Type != nil {
		t.Type = *p.Type
	}
	if p.EmployeeID != nil {
		t.EmployeeID = strings.TrimSpace(*p.EmployeeID)
	}
	if p.EmployeeName != nil {
		t.EmployeeName = strings.TrimSpace(*p.EmployeeName)
	}
	if p.EmployeeNumber != nil {
		t.EmployeeNumber = strings.TrimSpace(*p.EmployeeNumber)
	}
	if p.CurrentDepartmentName != nil {
		t.CurrentDepartmentName = *p.CurrentDepartmentName
	}
	if p.CurrentPositionName != nil {
		t.CurrentPositionName = *p.CurrentPositionName
	}
	if p.CurrentGradeName != nil {
		t.CurrentGradeName = *p.CurrentGradeName
	}
	if p.SourceDepartmentID != nil {
		t.SourceDepartmentID = *p.SourceDepartmentID
		resolve = true
	}
	if p.SourceDepartmentName != nil {
		t.SourceDepartmentName = *p.SourceDepartmentName
	}
	if p.TargetTenantID != nil {
		t.TargetTenantID = strings.TrimSpace(*p.TargetTenantID)
		resolve = true
	}
	if p.TargetDepartmentIDSet {
		t.TargetDepartmentID = trimmedOrNil(p.TargetDepartmentID)
		resolve = true
	}
	if p.TargetPositionIDSet {
		t.TargetPositionID = trimmedOrNil(p.TargetPositionID)
		resolve = true
	}
	if p.TargetGradeIDSet {
		t.TargetGradeID = trimmedOrNil(p.TargetGradeID)
		resolve = true
	}
	if p.EffectiveDateSet {
		t.EffectiveDate = p.EffectiveDate
	}
	if p.ReturnDateSet {
		t.ReturnDate = p.ReturnDate
	}
	if p.Reason != nil {
		t.Reason = strings.TrimSpace(*p.Reason)
	}
	if p.Remarks != nil {
		t.Remarks = *p.Remarks
	}
	if p.HandoverNotes != nil {
		t.HandoverNotes = *p.HandoverNotes
	}
	return resolve
}

func (s *TransferService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock.Now()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func concurrentModification(id string) error {
	return apperrors.NewInvalidState("transfer was modified concurrently; reload and retry", map[string]any{"id": id})
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
