package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/transfer-service/internal/domain"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

// SchedulerName identifies the scheduler as a system caller.
const SchedulerName = "completion-scheduler"

type transferCompleter interface {
	DueForCompletion(ctx context.Context, limit int) ([]domain.TransferRequest, error)
	Complete(ctx context.Context, caller domain.Caller, id string) (*domain.TransferRequest, error)
}

// CompletionScheduler completes APPROVED transfers once their effective date arrives.
type CompletionScheduler struct {
	transfers transferCompleter
	interval  time.Duration
	batchSize int
	logger    *zap.Logger
	caller    domain.Caller
}

// NewCompletionScheduler builds the scheduler. An interval of zero disables Run.
func NewCompletionScheduler(transfers transferCompleter, interval time.Duration, batchSize int, logger *zap.Logger) *CompletionScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	return &CompletionScheduler{
		transfers: transfers,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
		caller:    domain.SystemCaller(SchedulerName),
	}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *CompletionScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info("completion scheduler disabled")
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("completion sweep failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Sweep completes one batch of due transfers and returns how many it completed.
// A transfer that changed state since it was listed is skipped.
func (s *CompletionScheduler) Sweep(ctx context.Context) (int, error) {
	due, err := s.transfers.DueForCompletion(ctx, s.batchSize)
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, transfer := range due {
		if ctx.Err() != nil {
			return completed, ctx.Err()
		}
		_, err := s.transfers.Complete(ctx, s.caller, transfer.ID)
		switch {
		case err == nil:
			completed++
		case apperrors.IsInvalidState(err), apperrors.IsNotFound(err):
			s.logger.Debug("skipping transfer that moved on", zap.String("transfer_id", transfer.ID), zap.Error(err))
		default:
			s.logger.Warn("failed to complete transfer", zap.String("transfer_id", transfer.ID), zap.Error(err))
		}
	}

	if len(due) > 0 {
		s.logger.Info("completion sweep finished", zap.Int("due", len(due)), zap.Int("completed", completed))
	}
	return completed, nil
}
