package repository

import (
	"context"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/persistence"
)

// ReferenceRepository reads tenants and their departments, positions and grades.
type ReferenceRepository struct {
	pool persistence.Queryer
}

// NewReferenceRepository builds the postgres reader.
func NewReferenceRepository(pool persistence.Queryer) *ReferenceRepository {
	return &ReferenceRepository{pool: pool}
}

func (r *ReferenceRepository) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT id, code, name, is_active FROM tenants ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := []domain.Tenant{}
	for rows.Next() {
		var t domain.Tenant
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.IsActive); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (r *ReferenceRepository) ListDepartments(ctx context.Context, tenantID string) ([]domain.Department, error) {
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id, tenant_id, code, name, is_active FROM departments WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := []domain.Department{}
	for rows.Next() {
		var d domain.Department
		if err := rows.Scan(&d.ID, &d.TenantID, &d.Code, &d.Name, &d.IsActive); err != nil {
			return nil, err
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

func (r *ReferenceRepository) ListPositions(ctx context.Context, tenantID string) ([]domain.Position, error) {
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id, tenant_id, code, name FROM positions WHERE tenant_id=$1 ORDER BY code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	positions := []domain.Position{}
	for rows.Next() {
		var p domain.Position
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Code, &p.Name); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (r *ReferenceRepository) ListGrades(ctx context.Context, tenantID string) ([]domain.Grade, error) {
	exec := persistence.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx,
		`SELECT id, tenant_id, code, name, level FROM grades WHERE tenant_id=$1 ORDER BY level, code`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grades := []domain.Grade{}
	for rows.Next() {
		var g domain.Grade
		if err := rows.Scan(&g.ID, &g.TenantID, &g.Code, &g.Name, &g.Level); err != nil {
			return nil, err
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}
