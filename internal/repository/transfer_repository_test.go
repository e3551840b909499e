package repository

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/spec-kit/transfer-service/internal/domain"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func transferColumnNames() []string {
	parts := strings.Split(transferColumns, ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names
}

func transferRowValues(id, number string, status domain.TransferStatus, createdAt time.Time) []any {
	var (
		noString *string
		noTime   *time.Time
	)
	dept := "dept-20"
	approvedAt := createdAt.Add(time.Hour)
	approvedBy := "u-1"
	approvedName := "Source Manager"
	return []any{
		id, number, string(domain.TransferTypeOut),
		"emp-1", "Hanako Tanaka", "E-0001", "Sales", "Associate", "G3",
		"tenant-1", "Alpha Holdings", "dept-10", "Sales",
		"tenant-2", "Beta Industries", &dept, "Engineering",
		noString, "", noString, "",
		createdAt, noTime, noTime,
		"reassignment", "", "", string(status),
		&approvedBy, &approvedName, &approvedAt,
		noString, noString, noTime,
		noTime, noTime, "", "",
		"u-1", "Source Manager", "HR",
		createdAt, createdAt, int64(3),
	}
}

func TestTransferRepository_NextRequestSequence(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO transfer_request_sequences (year, last_value)")).
		WithArgs(2025).
		WillReturnRows(pgxmock.NewRows([]string{"last_value"}).AddRow(7))

	next, err := repo.NextRequestSequence(context.Background(), 2025)
	if err != nil {
		t.Fatalf("NextRequestSequence returned error: %v", err)
	}
	if next != 7 {
		t.Fatalf("expected 7, got %d", next)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransferRepository_GetByID(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(transferColumnNames()).
		AddRow(transferRowValues("trf-1", "TRF-2025-0001", domain.TransferStatusPendingTarget, created)...)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transfer_requests WHERE id=$1")).
		WithArgs("trf-1").
		WillReturnRows(rows)

	transfer, err := repo.GetByID(context.Background(), "trf-1")
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if transfer.Status != domain.TransferStatusPendingTarget || transfer.Type != domain.TransferTypeOut {
		t.Fatalf("unexpected enums: %s %s", transfer.Status, transfer.Type)
	}
	if transfer.TargetDepartmentID == nil || *transfer.TargetDepartmentID != "dept-20" {
		t.Fatalf("target department not scanned: %+v", transfer.TargetDepartmentID)
	}
	if transfer.TargetPositionID != nil {
		t.Fatalf("expected nil target position")
	}
	if transfer.SourceApprovedAt == nil || transfer.Version != 3 {
		t.Fatalf("audit or version not scanned: %+v", transfer)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransferRepository_GetByID_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transfer_requests WHERE id=$1")).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(transferColumnNames()))

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransferRepository_UpdateVersionCheck(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	args := make([]any, 36)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}

	mock.ExpectExec(regexp.QuoteMeta("WHERE id=$35 AND version=$36")).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta("WHERE id=$35 AND version=$36")).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	transfer := &domain.TransferRequest{ID: "trf-1", Type: domain.TransferTypeOut, Status: domain.TransferStatusPendingSource, Version: 4}
	if err := repo.Update(context.Background(), transfer, 4); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if transfer.Version != 5 {
		t.Fatalf("expected version 5, got %d", transfer.Version)
	}

	if err := repo.Update(context.Background(), transfer, 4); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransferRepository_DeleteVersionCheck(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM transfer_requests WHERE id=$1 AND version=$2")).
		WithArgs("trf-1", int64(2)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "trf-1", 2); !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
}

func TestTransferRepository_ListAppliesFilters(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	where := "WHERE 1=1 AND type=$1 AND status=$2 AND (LOWER(employee_name) LIKE $3 OR LOWER(employee_number) LIKE $3 OR LOWER(request_number) LIKE $3)"
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transfer_requests " + where)).
		WithArgs("TRANSFER_OUT", "PENDING_TARGET", "%tanaka%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(21))
	mock.ExpectQuery(regexp.QuoteMeta(where + " ORDER BY created_at DESC, id DESC LIMIT 10 OFFSET 20")).
		WithArgs("TRANSFER_OUT", "PENDING_TARGET", "%tanaka%").
		WillReturnRows(pgxmock.NewRows(transferColumnNames()).
			AddRow(transferRowValues("trf-21", "TRF-2025-0021", domain.TransferStatusPendingTarget, created)...))

	transfers, total, err := repo.List(context.Background(), TransferFilter{
		Keyword: " Tanaka ",
		Type:    domain.TransferTypeOut,
		Status:  domain.TransferStatusPendingTarget,
		Limit:   10,
		Offset:  20,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 21 || len(transfers) != 1 || transfers[0].ID != "trf-21" {
		t.Fatalf("unexpected page: total=%d len=%d", total, len(transfers))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTransferRepository_CountByStatus(t *testing.T) {
	t.Parallel()

	mock := newMock(t)
	repo := NewTransferRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM transfer_requests GROUP BY status")).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("PENDING_SOURCE", 2).
			AddRow("APPROVED", 5))

	counts, err := repo.CountByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountByStatus returned error: %v", err)
	}
	if counts[domain.TransferStatusPendingSource] != 2 || counts[domain.TransferStatusApproved] != 5 {
		t.Fatalf("unexpected counts: %+v", counts)
	}
	if counts[domain.TransferStatusDraft] != 0 {
		t.Fatalf("missing statuses should count zero")
	}
}
