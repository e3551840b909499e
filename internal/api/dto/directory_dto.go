package dto

import "github.com/spec-kit/transfer-service/internal/domain"

// TenantResponse representation.
type TenantResponse struct {
	ID       string `json:"id"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// DepartmentResponse representation.
type DepartmentResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	IsActive bool   `json:"isActive"`
}

// PositionResponse representation.
type PositionResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Code     string `json:"code"`
	Name     string `json:"name"`
}

// GradeResponse representation.
type GradeResponse struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
}

func NewTenantResponses(items []domain.Tenant) []TenantResponse {
	out := make([]TenantResponse, 0, len(items))
	for _, t := range items {
		out = append(out, TenantResponse{ID: t.ID, Code: t.Code, Name: t.Name, IsActive: t.IsActive})
	}
	return out
}

func NewDepartmentResponses(items []domain.Department) []DepartmentResponse {
	out := make([]DepartmentResponse, 0, len(items))
	for _, d := range items {
		out = append(out, DepartmentResponse{ID: d.ID, TenantID: d.TenantID, Code: d.Code, Name: d.Name, IsActive: d.IsActive})
	}
	return out
}

func NewPositionResponses(items []domain.Position) []PositionResponse {
	out := make([]PositionResponse, 0, len(items))
	for _, p := range items {
		out = append(out, PositionResponse{ID: p.ID, TenantID: p.TenantID, Code: p.Code, Name: p.Name})
	}
	return out
}

func NewGradeResponses(items []domain.Grade) []GradeResponse {
	out := make([]GradeResponse, 0, len(items))
	for _, g := range items {
		out = append(out, GradeResponse{ID: g.ID, TenantID: g.TenantID, Code: g.Code, Name: g.Name, Level: g.Level})
	}
	return out
}
