// Package directory exposes the read-only reference data the workflow resolves
// names and validates target placements against.
package directory

import (
	"context"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// Directory lists tenants and their departments, positions and grades.
type Directory interface {
	ListTenants(ctx context.Context) ([]domain.Tenant, error)
	ListDepartments(ctx context.Context, tenantID string) ([]domain.Department, error)
	ListPositions(ctx context.Context, tenantID string) ([]domain.Position, error)
	ListGrades(ctx context.Context, tenantID string) ([]domain.Grade, error)
}

// FindTenant looks a tenant up by id.
func FindTenant(ctx context.Context, dir Directory, id string) (domain.Tenant, bool, error) {
	tenants, err := dir.ListTenants(ctx)
	if err != nil {
		return domain.Tenant{}, false, err
	}
	for _, t := range tenants {
		if t.ID == id {
			return t, true, nil
		}
	}
	return domain.Tenant{}, false, nil
}

// FindDepartment looks a department up within tenantID only.
func FindDepartment(ctx context.Context, dir Directory, tenantID, id string) (domain.Department, bool, error) {
	departments, err := dir.ListDepartments(ctx, tenantID)
	if err != nil {
		return domain.Department{}, false, err
	}
	for _, d := range departments {
		if d.ID == id {
			return d, true, nil
		}
	}
	return domain.Department{}, false, nil
}

// FindPosition looks a position up within tenantID only.
func FindPosition(ctx context.Context, dir Directory, tenantID, id string) (domain.Position, bool, error) {
	positions, err := dir.ListPositions(ctx, tenantID)
	if err != nil {
		return domain.Position{}, false, err
	}
	for _, p := range positions {
		if p.ID == id {
			return p, true, nil
		}
	}
	return domain.Position{}, false, nil
}

// FindGrade looks a grade up within tenantID only.
func FindGrade(ctx context.Context, dir Directory, tenantID, id string) (domain.Grade, bool, error) {
	grades, err := dir.ListGrades(ctx, tenantID)
	if err != nil {
		return domain.Grade{}, false, err
	}
	for _, g := range grades {
		if g.ID == id {
			return g, true, nil
		}
	}
	return domain.Grade{}, false, nil
}
