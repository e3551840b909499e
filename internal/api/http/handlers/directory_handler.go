package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/api/dto"
	"github.com/spec-kit/transfer-service/internal/directory"
)

// DirectoryHandler serves reference data for pickers.
type DirectoryHandler struct {
	directory directory.Directory
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(dir directory.Directory) *DirectoryHandler {
	return &DirectoryHandler{directory: dir}
}

// Tenants GET /api/v1/directory/tenants.
func (h *DirectoryHandler) Tenants(c *fiber.Ctx) error {
	tenants, err := h.directory.ListTenants(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTenantResponses(tenants)})
}

// Departments GET /api/v1/directory/tenants/:id/departments.
func (h *DirectoryHandler) Departments(c *fiber.Ctx) error {
	departments, err := h.directory.ListDepartments(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponses(departments)})
}

// Positions GET /api/v1/directory/tenants/:id/positions.
func (h *DirectoryHandler) Positions(c *fiber.Ctx) error {
	positions, err := h.directory.ListPositions(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPositionResponses(positions)})
}

// Grades GET /api/v1/directory/tenants/:id/grades.
func (h *DirectoryHandler) Grades(c *fiber.Ctx) error {
	grades, err := h.directory.ListGrades(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewGradeResponses(grades)})
}
