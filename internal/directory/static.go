package directory

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/spec-kit/transfer-service/internal/domain"
)

type seedFile struct {
	Tenants []seedTenant `yaml:"tenants"`
}

type seedTenant struct {
	ID          string     `yaml:"id"`
	Code        string     `yaml:"code"`
	Name        string     `yaml:"name"`
	Active      *bool      `yaml:"active"`
	Departments []seedUnit `yaml:"departments"`
	Positions   []seedUnit `yaml:"positions"`
	Grades      []seedUnit `yaml:"grades"`
}

type seedUnit struct {
	ID     string `yaml:"id"`
	Code   string `yaml:"code"`
	Name   string `yaml:"name"`
	Active *bool  `yaml:"active"`
	Level  int    `yaml:"level"`
}

// Static is an immutable Directory loaded from a YAML seed.
type Static struct {
	tenants     []domain.Tenant
	departments map[string][]domain.Department
	positions   map[string][]domain.Position
	grades      map[string][]domain.Grade
}

// LoadStatic reads a YAML seed file.
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read directory seed %s: %w", path, err)
	}
	return ParseStatic(data)
}

// ParseStatic builds a Static directory from YAML. Entries without an
// explicit active flag are active.
func ParseStatic(data []byte) (*Static, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse directory seed: %w", err)
	}

	s := &Static{
		departments: make(map[string][]domain.Department),
		positions:   make(map[string][]domain.Position),
		grades:      make(map[string][]domain.Grade),
	}
	seen := make(map[string]bool)
	for _, t := range seed.Tenants {
		if t.ID == "" {
			return nil, fmt.Errorf("parse directory seed: tenant %q has no id", t.Name)
		}
		if seen[t.ID] {
			return nil, fmt.Errorf("parse directory seed: duplicate tenant id %s", t.ID)
		}
		seen[t.ID] = true

		s.tenants = append(s.tenants, domain.Tenant{ID: t.ID, Code: t.Code, Name: t.Name, IsActive: active(t.Active)})
		for _, d := range t.Departments {
			s.departments[t.ID] = append(s.departments[t.ID], domain.Department{
				ID: d.ID, TenantID: t.ID, Code: d.Code, Name: d.Name, IsActive: active(d.Active),
			})
		}
		for _, p := range t.Positions {
			s.positions[t.ID] = append(s.positions[t.ID], domain.Position{ID: p.ID, TenantID: t.ID, Code: p.Code, Name: p.Name})
		}
		for _, g := range t.Grades {
			s.grades[t.ID] = append(s.grades[t.ID], domain.Grade{ID: g.ID, TenantID: t.ID, Code: g.Code, Name: g.Name, Level: g.Level})
		}
	}
	return s, nil
}

func active(flag *bool) bool {
	return flag == nil || *flag
}

func (s *Static) ListTenants(context.Context) ([]domain.Tenant, error) {
	return append([]domain.Tenant{}, s.tenants...), nil
}

func (s *Static) ListDepartments(_ context.Context, tenantID string) ([]domain.Department, error) {
	return append([]domain.Department{}, s.departments[tenantID]...), nil
}

func (s *Static) ListPositions(_ context.Context, tenantID string) ([]domain.Position, error) {
	return append([]domain.Position{}, s.positions[tenantID]...), nil
}

func (s *Static) ListGrades(_ context.Context, tenantID string) ([]domain.Grade, error) {
	return append([]domain.Grade{}, s.grades[tenantID]...), nil
}
