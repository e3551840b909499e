package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/api/dto"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/service"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

// HandoverHandler exposes the handover checklist of a transfer.
type HandoverHandler struct {
	service *service.HandoverService
}

// NewHandoverHandler constructs handler.
func NewHandoverHandler(handoverService *service.HandoverService) *HandoverHandler {
	return &HandoverHandler{service: handoverService}
}

// List GET /api/v1/transfers/:id/handover-items.
func (h *HandoverHandler) List(c *fiber.Ctx) error {
	items, err := h.service.ListItems(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.HandoverItemResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewHandoverItemResponse(&items[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Add POST /api/v1/transfers/:id/handover-items.
func (h *HandoverHandler) Add(c *fiber.Ctx) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	var req dto.CreateHandoverItemRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	item, err := h.service.AddItem(c.UserContext(), caller, c.Params("id"), service.HandoverItemInput{
		Category:    req.Category,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewHandoverItemResponse(item)})
}

// Complete POST /api/v1/transfers/:id/handover-items/:itemId/complete.
func (h *HandoverHandler) Complete(c *fiber.Ctx) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	item, err := h.service.CompleteItem(c.UserContext(), caller, c.Params("id"), c.Params("itemId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewHandoverItemResponse(item)})
}
