package dto

import (
	"time"

	"github.com/spec-kit/transfer-service/internal/domain"
)

// CreateHandoverItemRequest payload.
type CreateHandoverItemRequest struct {
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// HandoverItemResponse representation.
type HandoverItemResponse struct {
	ID          string     `json:"id"`
	TransferID  string     `json:"transferId"`
	Category    string     `json:"category"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	IsCompleted bool       `json:"isCompleted"`
	CompletedAt *time.Time `json:"completedAt"`
	CompletedBy *string    `json:"completedBy"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// NewHandoverItemResponse maps a handover item.
func NewHandoverItemResponse(item *domain.HandoverItem) HandoverItemResponse {
	return HandoverItemResponse{
		ID:          item.ID,
		TransferID:  item.TransferID,
		Category:    item.Category,
		Title:       item.Title,
		Description: item.Description,
		IsCompleted: item.IsCompleted,
		CompletedAt: item.CompletedAt,
		CompletedBy: item.CompletedBy,
		CreatedAt:   item.CreatedAt,
	}
}
