package handlers

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/api/dto"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/service"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

// TransfersHandler exposes the transfer workflow.
type TransfersHandler struct {
	service *service.TransferService
}

// NewTransfersHandler constructs handler.
func NewTransfersHandler(transferService *service.TransferService) *TransfersHandler {
	return &TransfersHandler{service: transferService}
}

// List GET /api/v1/transfers.
func (h *TransfersHandler) List(c *fiber.Ctx) error {
	page, err := queryInt(c, "page")
	if err != nil {
		return err
	}
	size, err := queryInt(c, "size")
	if err != nil {
		return err
	}

	result, err := h.service.List(c.UserContext(), service.TransferListInput{
		Keyword: strings.TrimSpace(c.Query("keyword")),
		Type:    domain.TransferType(strings.ToUpper(strings.TrimSpace(c.Query("type")))),
		Status:  domain.TransferStatus(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		Page:    page,
		Size:    size,
	})
	if err != nil {
		return err
	}

	content := make([]dto.TransferResponse, 0, len(result.Content))
	for i := range result.Content {
		content = append(content, dto.NewTransferResponse(&result.Content[i]))
	}
	return c.JSON(fiber.Map{"data": dto.TransferPageResponse{
		Content:       content,
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages,
	}})
}

// Summary GET /api/v1/transfers/summary.
func (h *TransfersHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransferSummaryResponse(summary)})
}

// Create POST /api/v1/transfers.
func (h *TransfersHandler) Create(c *fiber.Ctx) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	var req dto.CreateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	effective, err := parseDateField("effectiveDate", req.EffectiveDate)
	if err != nil {
		return err
	}
	ret, err := parseDateField("returnDate", req.ReturnDate)
	if err != nil {
		return err
	}

	transfer, err := h.service.Create(c.UserContext(), caller, service.TransferCreateInput{
		Type:                  domain.TransferType(strings.ToUpper(strings.TrimSpace(string(req.Type)))),
		EmployeeID:            req.EmployeeID,
		EmployeeName:          req.EmployeeName,
		EmployeeNumber:        req.EmployeeNumber,
		CurrentDepartmentName: req.CurrentDepartmentName,
		CurrentPositionName:   req.CurrentPositionName,
		CurrentGradeName:      req.CurrentGradeName,
		SourceTenantID:        req.SourceTenantID,
		SourceDepartmentID:    req.SourceDepartmentID,
		SourceDepartmentName:  req.SourceDepartmentName,
		TargetTenantID:        req.TargetTenantID,
		TargetDepartmentID:    req.TargetDepartmentID,
		TargetPositionID:      req.TargetPositionID,
		TargetGradeID:         req.TargetGradeID,
		EffectiveDate:         effective,
		ReturnDate:            ret,
		Reason:                req.Reason,
		Remarks:               req.Remarks,
		HandoverNotes:         req.HandoverNotes,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTransferResponse(transfer)})
}

// Get GET /api/v1/transfers/:id.
func (h *TransfersHandler) Get(c *fiber.Ctx) error {
	transfer, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransferResponse(transfer)})
}

// Update PUT /api/v1/transfers/:id.
func (h *TransfersHandler) Update(c *fiber.Ctx) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	patch := service.TransferPatch{
		Type:                  req.Type,
		EmployeeID:            req.EmployeeID,
		EmployeeName:          req.EmployeeName,
		EmployeeNumber:        req.EmployeeNumber,
		CurrentDepartmentName: req.CurrentDepartmentName,
		CurrentPositionName:   req.CurrentPositionName,
		CurrentGradeName:      req.CurrentGradeName,
		SourceDepartmentID:    req.SourceDepartmentID,
		SourceDepartmentName:  req.SourceDepartmentName,
		TargetTenantID:        req.TargetTenantID,
		TargetDepartmentID:    req.TargetDepartmentID.Value,
		TargetDepartmentIDSet: req.TargetDepartmentID.Set,
		TargetPositionID:      req.TargetPositionID.Value,
		TargetPositionIDSet:   req.TargetPositionID.Set,
		TargetGradeID:         req.TargetGradeID.Value,
		TargetGradeIDSet:      req.TargetGradeID.Set,
		EffectiveDateSet:      req.EffectiveDate.Set,
		ReturnDateSet:         req.ReturnDate.Set,
		Reason:                req.Reason,
		Remarks:               req.Remarks,
		HandoverNotes:         req.HandoverNotes,
	}
	if patch.EffectiveDate, err = parseDateField("effectiveDate", req.EffectiveDate.Value); err != nil {
		return err
	}
	if patch.ReturnDate, err = parseDateField("returnDate", req.ReturnDate.Value); err != nil {
		return err
	}

	transfer, err := h.service.Update(c.UserContext(), caller, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransferResponse(transfer)})
}

// Delete DELETE /api/v1/transfers/:id.
func (h *TransfersHandler) Delete(c *fiber.Ctx) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.UserContext(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Submit POST /api/v1/transfers/:id/submit.
func (h *TransfersHandler) Submit(c *fiber.Ctx) error {
	return h.command(c, h.service.Submit)
}

// ApproveSource POST /api/v1/transfers/:id/approve-source.
func (h *TransfersHandler) ApproveSource(c *fiber.Ctx) error {
	return h.command(c, h.service.ApproveSource)
}

// ApproveTarget POST /api/v1/transfers/:id/approve-target.
func (h *TransfersHandler) ApproveTarget(c *fiber.Ctx) error {
	return h.command(c, h.service.ApproveTarget)
}

// Complete POST /api/v1/transfers/:id/complete.
func (h *TransfersHandler) Complete(c *fiber.Ctx) error {
	return h.command(c, h.service.Complete)
}

// Reject POST /api/v1/transfers/:id/reject.
func (h *TransfersHandler) Reject(c *fiber.Ctx) error {
	return h.reasonCommand(c, h.service.Reject)
}

// Cancel POST /api/v1/transfers/:id/cancel.
func (h *TransfersHandler) Cancel(c *fiber.Ctx) error {
	return h.reasonCommand(c, h.service.Cancel)
}

type commandFunc func(ctx context.Context, caller domain.Caller, id string) (*domain.TransferRequest, error)

func (h *TransfersHandler) command(c *fiber.Ctx, run commandFunc) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	transfer, err := run(c.UserContext(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransferResponse(transfer)})
}

func (h *TransfersHandler) reasonCommand(c *fiber.Ctx, run func(ctx context.Context, caller domain.Caller, id, reason string) (*domain.TransferRequest, error)) error {
	caller, err := auth.MustCaller(c)
	if err != nil {
		return err
	}
	var req dto.ReasonRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	transfer, err := run(c.UserContext(), caller, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTransferResponse(transfer)})
}

func parseDateField(field string, value *string) (*time.Time, error) {
	parsed, err := dto.ParseDate(value)
	if err != nil {
		return nil, apperrors.NewValidationError(field+" must be formatted as yyyy-mm-dd", map[string]any{"field": field})
	}
	return parsed, nil
}

func queryInt(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError(key+" must be an integer", map[string]any{"field": key})
	}
	return value, nil
}
