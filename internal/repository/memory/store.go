// Package memory provides single-process implementations of the repositories.
// Every write runs under one mutex and performs the same version check as the
// postgres UPDATE ... WHERE version = $n.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/repository"
)

// Store holds transfers, handover items and request-number sequences.
type Store struct {
	mu        sync.Mutex
	transfers map[string]*domain.TransferRequest
	items     map[string][]*domain.HandoverItem
	sequences map[int]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		transfers: make(map[string]*domain.TransferRequest),
		items:     make(map[string][]*domain.HandoverItem),
		sequences: make(map[int]int),
	}
}

// Transfers returns the transfer repository view of the store.
func (s *Store) Transfers() repository.TransferRepository {
	return &transferStore{s}
}

// Handover returns the handover repository view of the store.
func (s *Store) Handover() repository.HandoverRepository {
	return &handoverStore{s}
}

type transferStore struct {
	*Store
}

func (s *transferStore) NextRequestSequence(_ context.Context, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequences[year]++
	return s.sequences[year], nil
}

func (s *transferStore) Create(_ context.Context, t *domain.TransferRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.transfers[t.ID]; exists {
		return repository.ErrDuplicate
	}
	for _, existing := range s.transfers {
		if existing.RequestNumber == t.RequestNumber {
			return repository.ErrDuplicate
		}
	}
	s.transfers[t.ID] = t.Clone()
	return nil
}

func (s *transferStore) GetByID(_ context.Context, id string) (*domain.TransferRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.transfers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return t.Clone(), nil
}

// GetForUpdate does not lock; Update's version check detects interleaved writers.
func (s *transferStore) GetForUpdate(ctx context.Context, id string) (*domain.TransferRequest, error) {
	return s.GetByID(ctx, id)
}

func (s *transferStore) Update(_ context.Context, t *domain.TransferRequest, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.transfers[t.ID]
	if !ok || current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	stored := t.Clone()
	stored.Version = expectedVersion + 1
	// Creation-time fields are owned by the store.
	stored.RequestNumber = current.RequestNumber
	stored.RequestedDate = current.RequestedDate
	stored.CreatedAt = current.CreatedAt
	s.transfers[t.ID] = stored
	t.Version = stored.Version
	return nil
}

func (s *transferStore) Delete(_ context.Context, id string, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.transfers[id]
	if !ok || current.Version != expectedVersion {
		return repository.ErrVersionConflict
	}
	delete(s.transfers, id)
	delete(s.items, id)
	return nil
}

func (s *transferStore) List(_ context.Context, filter repository.TransferFilter) ([]domain.TransferRequest, int, error) {
	s.mu.Lock()
	matched := make([]*domain.TransferRequest, 0, len(s.transfers))
	keyword := strings.ToLower(strings.TrimSpace(filter.Keyword))
	for _, t := range s.transfers {
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if keyword != "" && !matchesKeyword(t, keyword) {
			continue
		}
		matched = append(matched, t.Clone())
	}
	s.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := make([]domain.TransferRequest, 0, end-offset)
	for _, t := range matched[offset:end] {
		page = append(page, *t)
	}
	return page, total, nil
}

func matchesKeyword(t *domain.TransferRequest, keyword string) bool {
	return strings.Contains(strings.ToLower(t.EmployeeName), keyword) ||
		strings.Contains(strings.ToLower(t.EmployeeNumber), keyword) ||
		strings.Contains(strings.ToLower(t.RequestNumber), keyword)
}

func (s *transferStore) CountByStatus(_ context.Context) (map[domain.TransferStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.TransferStatus]int)
	for _, t := range s.transfers {
		counts[t.Status]++
	}
	return counts, nil
}

func (s *transferStore) CountCompletedBetween(_ context.Context, from, to time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, t := range s.transfers {
		if t.Status != domain.TransferStatusCompleted || t.CompletedAt == nil {
			continue
		}
		if !t.CompletedAt.Before(from) && t.CompletedAt.Before(to) {
			count++
		}
	}
	return count, nil
}

func (s *transferStore) ListDueForCompletion(_ context.Context, asOf time.Time, limit int) ([]domain.TransferRequest, error) {
	s.mu.Lock()
	due := []domain.TransferRequest{}
	for _, t := range s.transfers {
		if t.Status == domain.TransferStatusApproved && t.EffectiveDate != nil && !t.EffectiveDate.After(asOf) {
			due = append(due, *t.Clone())
		}
	}
	s.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if !due[i].EffectiveDate.Equal(*due[j].EffectiveDate) {
			return due[i].EffectiveDate.Before(*due[j].EffectiveDate)
		}
		return due[i].ID < due[j].ID
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

type handoverStore struct {
	*Store
}

func (s *handoverStore) Create(_ context.Context, item *domain.HandoverItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transfers[item.TransferID]; !ok {
		return repository.ErrNotFound
	}
	s.items[item.TransferID] = append(s.items[item.TransferID], item.Clone())
	return nil
}

func (s *handoverStore) GetByID(_ context.Context, transferID, itemID string) (*domain.HandoverItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.find(transferID, itemID)
	if item == nil {
		return nil, repository.ErrNotFound
	}
	return item.Clone(), nil
}

func (s *handoverStore) ListByTransfer(_ context.Context, transferID string) ([]domain.HandoverItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.HandoverItem, 0, len(s.items[transferID]))
	for _, item := range s.items[transferID] {
		items = append(items, *item.Clone())
	}
	return items, nil
}

func (s *handoverStore) MarkCompleted(_ context.Context, transferID, itemID, actor string, at time.Time) (*domain.HandoverItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := s.find(transferID, itemID)
	if item == nil {
		return nil, repository.ErrNotFound
	}
	if item.IsCompleted {
		return nil, repository.ErrAlreadyCompleted
	}
	completedAt := at
	completedBy := actor
	item.IsCompleted = true
	item.CompletedAt = &completedAt
	item.CompletedBy = &completedBy
	return item.Clone(), nil
}

func (s *handoverStore) find(transferID, itemID string) *domain.HandoverItem {
	for _, item := range s.items[transferID] {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}
