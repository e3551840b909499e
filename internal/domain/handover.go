package domain

import "time"

// HandoverItem is a discrete handover task tracked alongside a transfer.
type HandoverItem struct {
	ID          string
	TransferID  string
	Category    string
	Title       string
	Description string
	IsCompleted bool
	CompletedAt *time.Time
	CompletedBy *string
	CreatedAt   time.Time
}

// Clone returns a deep copy of the item.
func (h *HandoverItem) Clone() *HandoverItem {
	if h == nil {
		return nil
	}
	c := *h
	c.CompletedAt = cloneTime(h.CompletedAt)
	c.CompletedBy = cloneString(h.CompletedBy)
	return &c
}

// HandoverActionable reports whether handover items may be added or completed
// while the parent transfer is in status s, under the enforced gate.
func HandoverActionable(s TransferStatus) bool {
	switch s {
	case TransferStatusPendingTarget, TransferStatusApproved, TransferStatusCompleted:
		return true
	default:
		return false
	}
}
