package domain

// Tenant represents an independent organizational unit, such as a subsidiary.
type Tenant struct {
	ID       string
	Code     string
	Name     string
	IsActive bool
}

// Department represents an organizational unit inside a tenant.
type Department struct {
	ID       string
	TenantID string
	Code     string
	Name     string
	IsActive bool
}

// Position is a job position defined by a tenant.
type Position struct {
	ID       string
	TenantID string
	Code     string
	Name     string
}

// Grade is a pay or rank grade defined by a tenant.
type Grade struct {
	ID       string
	TenantID string
	Code     string
	Name     string
	Level    int
}
