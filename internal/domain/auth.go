package domain

// CallerRole differentiates human operators from integration callers.
type CallerRole string

const (
	CallerRoleOperator CallerRole = "OPERATOR"
	CallerRoleSystem   CallerRole = "SYSTEM"
)

// Caller is the already-resolved identity a command runs on behalf of.
type Caller struct {
	UserID     string
	UserName   string
	TenantID   string
	Department string
	Role       CallerRole
}

// IsSystem reports whether the caller is the scheduler or another integration.
func (c Caller) IsSystem() bool {
	return c.Role == CallerRoleSystem
}

// ActsFor reports whether the caller acts on behalf of tenantID.
func (c Caller) ActsFor(tenantID string) bool {
	return tenantID != "" && c.TenantID == tenantID
}

// DisplayName returns the user name, falling back to the id.
func (c Caller) DisplayName() string {
	if c.UserName != "" {
		return c.UserName
	}
	return c.UserID
}

// SystemCaller returns the identity used by background workers.
func SystemCaller(name string) Caller {
	return Caller{UserID: name, UserName: name, Role: CallerRoleSystem}
}
