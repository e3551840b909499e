package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/persistence"
)

// TransferFilter captures list parameters.
type TransferFilter struct {
	Keyword string
	Type    domain.TransferType
	Status  domain.TransferStatus
	Limit   int
	Offset  int
}

// TransferRepository persists transfer requests.
//
// Update and Delete take the version the caller read; a mismatch yields
// ErrVersionConflict and leaves the row untouched.
type TransferRepository interface {
	NextRequestSequence(ctx context.Context, year int) (int, error)
	Create(ctx context.Context, t *domain.TransferRequest) error
	GetByID(ctx context.Context, id string) (*domain.TransferRequest, error)
	GetForUpdate(ctx context.Context, id string) (*domain.TransferRequest, error)
	Update(ctx context.Context, t *domain.TransferRequest, expectedVersion int64) error
	Delete(ctx context.Context, id string, expectedVersion int64) error
	List(ctx context.Context, filter TransferFilter) ([]domain.TransferRequest, int, error)
	CountByStatus(ctx context.Context) (map[domain.TransferStatus]int, error)
	CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error)
	ListDueForCompletion(ctx context.Context, asOf time.Time, limit int) ([]domain.TransferRequest, error)
}

type transferRepository struct {
	pool persistence.Queryer
}

// NewTransferRepository builds the postgres repository.
func NewTransferRepository(pool persistence.Queryer) TransferRepository {
	return &transferRepository{pool: pool}
}

const transferColumns = `id, request_number, type,
    employee_id, employee_name, employee_number, current_department_name, current_position_name, current_grade_name,
    source_tenant_id, source_tenant_name, source_department_id, source_department_name,
    target_tenant_id, target_tenant_name, target_department_id, target_department_name,
    target_position_id, target_position_name, target_grade_id, target_grade_name,
    requested_date, effective_date, return_date,
    reason, remarks, handover_notes, status,
    source_approved_by, source_approved_name, source_approved_at,
    target_approved_by, target_approved_name, target_approved_at,
    completed_at, cancelled_at, cancel_reason, target_comment,
    requester_id, requester_name, requester_department,
    created_at, updated_at, version`

func (r *transferRepository) NextRequestSequence(ctx context.Context, year int) (int, error) {
	const query = `
        INSERT INTO transfer_request_sequences (year, last_value)
        VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET last_value = transfer_request_sequences.last_value + 1
        RETURNING last_value`
	var next int
	exec := persistence.QueryerFromContext(ctx, r.pool)
	if err := exec.QueryRow(ctx, query, year).Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *transferRepository) Create(ctx context.Context, t *domain.TransferRequest) error {
	query := `INSERT INTO transfer_requests (` + transferColumns + `)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,
                $23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39,$40,$41,$42,$43,$44)`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	_, err := exec.Exec(ctx, query, transferArgs(t)...)
	return translatePgError(err)
}

func (r *transferRepository) GetByID(ctx context.Context, id string) (*domain.TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_requests WHERE id=$1`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	return scanTransfer(exec.QueryRow(ctx, query, id))
}

func (r *transferRepository) GetForUpdate(ctx context.Context, id string) (*domain.TransferRequest, error) {
	query := `SELECT ` + transferColumns + ` FROM transfer_requests WHERE id=$1 FOR UPDATE`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	return scanTransfer(exec.QueryRow(ctx, query, id))
}

func (r *transferRepository) Update(ctx context.Context, t *domain.TransferRequest, expectedVersion int64) error {
	const query = `
        UPDATE transfer_requests SET
            type=$1, employee_id=$2, employee_name=$3, employee_number=$4,
            current_department_name=$5, current_position_name=$6, current_grade_name=$7,
            source_department_id=$8, source_department_name=$9,
            target_tenant_id=$10, target_tenant_name=$11,
            target_department_id=$12, target_department_name=$13,
            target_position_id=$14, target_position_name=$15,
            target_grade_id=$16, target_grade_name=$17,
            effective_date=$18, return_date=$19,
            reason=$20, remarks=$21, handover_notes=$22, status=$23,
            source_approved_by=$24, source_approved_name=$25, source_approved_at=$26,
            target_approved_by=$27, target_approved_name=$28, target_approved_at=$29,
            completed_at=$30, cancelled_at=$31, cancel_reason=$32, target_comment=$33,
            updated_at=$34, version=version+1
        WHERE id=$35 AND version=$36`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	cmd, err := exec.Exec(ctx, query,
		string(t.Type), t.EmployeeID, t.EmployeeName, t.EmployeeNumber,
		t.CurrentDepartmentName, t.CurrentPositionName, t.CurrentGradeName,
		t.SourceDepartmentID, t.SourceDepartmentName,
		t.TargetTenantID, t.TargetTenantName,
		t.TargetDepartmentID, t.TargetDepartmentName,
		t.TargetPositionID, t.TargetPositionName,
		t.TargetGradeID, t.TargetGradeName,
		t.EffectiveDate, t.ReturnDate,
		t.Reason, t.Remarks, t.HandoverNotes, string(t.Status),
		t.SourceApprovedBy, t.SourceApprovedName, t.SourceApprovedAt,
		t.TargetApprovedBy, t.TargetApprovedName, t.TargetApprovedAt,
		t.CompletedAt, t.CancelledAt, t.CancelReason, t.TargetComment,
		t.UpdatedAt,
		t.ID, expectedVersion,
	)
	if err != nil {
		return translatePgError(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	t.Version = expectedVersion + 1
	return nil
}

func (r *transferRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	exec := persistence.QueryerFromContext(ctx, r.pool)
	cmd, err := exec.Exec(ctx, `DELETE FROM transfer_requests WHERE id=$1 AND version=$2`, id, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *transferRepository) List(ctx context.Context, filter TransferFilter) ([]domain.TransferRequest, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Type != "" {
		args = append(args, string(filter.Type))
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}
	if keyword := strings.TrimSpace(filter.Keyword); keyword != "" {
		args = append(args, "%"+strings.ToLower(keyword)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(employee_name) LIKE %s OR LOWER(employee_number) LIKE %s OR LOWER(request_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}
	where := strings.Join(clauses, " AND ")

	exec := persistence.QueryerFromContext(ctx, r.pool)

	var total int
	if err := exec.QueryRow(ctx, `SELECT COUNT(*) FROM transfer_requests WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM transfer_requests WHERE %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		transferColumns, where, limit, offset)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transfers, err := scanTransfers(rows)
	if err != nil {
		return nil, 0, err
	}
	return transfers, total, nil
}

func (r *transferRepository) CountByStatus(ctx context.Context) (map[domain.TransferStatus]int, error) {
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT status, COUNT(*) FROM transfer_requests GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.TransferStatus]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[domain.TransferStatus(status)] = count
	}
	return counts, rows.Err()
}

func (r *transferRepository) CountCompletedBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM transfer_requests
        WHERE status='COMPLETED' AND completed_at >= $1 AND completed_at < $2`
	var count int
	exec := persistence.QueryerFromContext(ctx, r.pool)
	if err := exec.QueryRow(ctx, query, from, to).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *transferRepository) ListDueForCompletion(ctx context.Context, asOf time.Time, limit int) ([]domain.TransferRequest, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT ` + transferColumns + ` FROM transfer_requests
        WHERE status='APPROVED' AND effective_date IS NOT NULL AND effective_date <= $1
        ORDER BY effective_date, id LIMIT $2`
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransfers(rows)
}

func transferArgs(t *domain.TransferRequest) []any {
	return []any{
		t.ID, t.RequestNumber, string(t.Type),
		t.EmployeeID, t.EmployeeName, t.EmployeeNumber, t.CurrentDepartmentName, t.CurrentPositionName, t.CurrentGradeName,
		t.SourceTenantID, t.SourceTenantName, t.SourceDepartmentID, t.SourceDepartmentName,
		t.TargetTenantID, t.TargetTenantName, t.TargetDepartmentID, t.TargetDepartmentName,
		t.TargetPositionID, t.TargetPositionName, t.TargetGradeID, t.TargetGradeName,
		t.RequestedDate, t.EffectiveDate, t.ReturnDate,
		t.Reason, t.Remarks, t.HandoverNotes, string(t.Status),
		t.SourceApprovedBy, t.SourceApprovedName, t.SourceApprovedAt,
		t.TargetApprovedBy, t.TargetApprovedName, t.TargetApprovedAt,
		t.CompletedAt, t.CancelledAt, t.CancelReason, t.TargetComment,
		t.RequesterID, t.RequesterName, t.RequesterDepartment,
		t.CreatedAt, t.UpdatedAt, t.Version,
	}
}

func scanTransfer(row pgx.Row) (*domain.TransferRequest, error) {
	var (
		t      domain.TransferRequest
		typ    string
		status string
	)
	if err := row.Scan(
		&t.ID, &t.RequestNumber, &typ,
		&t.EmployeeID, &t.EmployeeName, &t.EmployeeNumber, &t.CurrentDepartmentName, &t.CurrentPositionName, &t.CurrentGradeName,
		&t.SourceTenantID, &t.SourceTenantName, &t.SourceDepartmentID, &t.SourceDepartmentName,
		&t.TargetTenantID, &t.TargetTenantName, &t.TargetDepartmentID, &t.TargetDepartmentName,
		&t.TargetPositionID, &t.TargetPositionName, &t.TargetGradeID, &t.TargetGradeName,
		&t.RequestedDate, &t.EffectiveDate, &t.ReturnDate,
		&t.Reason, &t.Remarks, &t.HandoverNotes, &status,
		&t.SourceApprovedBy, &t.SourceApprovedName, &t.SourceApprovedAt,
		&t.TargetApprovedBy, &t.TargetApprovedName, &t.TargetApprovedAt,
		&t.CompletedAt, &t.CancelledAt, &t.CancelReason, &t.TargetComment,
		&t.RequesterID, &t.RequesterName, &t.RequesterDepartment,
		&t.CreatedAt, &t.UpdatedAt, &t.Version,
	); err != nil {
		return nil, translatePgError(err)
	}
	t.Type = domain.TransferType(typ)
	t.Status = domain.TransferStatus(status)
	return &t, nil
}

func scanTransfers(rows pgx.Rows) ([]domain.TransferRequest, error) {
	var result []domain.TransferRequest
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *t)
	}
	return result, rows.Err()
}
