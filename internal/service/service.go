package service

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/transfer-service/internal/domain"
	"github.com/spec-kit/transfer-service/internal/repository"
	apperrors "github.com/spec-kit/transfer-service/pkg/util/errorutil"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// Transactor runs a unit of work. *persistence.TransactionManager satisfies it.
type Transactor interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactor struct{}

func (noopTransactor) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactor) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// dateOf returns the calendar date of t in loc as midnight UTC, the form
// DATE columns round-trip as.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// translateError maps domain and repository errors onto the API taxonomy.
func translateError(err error, resource string) error {
	if err == nil {
		return nil
	}

	var (
		illegal    *domain.IllegalTransitionError
		authErr    *domain.AuthorizationError
		validation *domain.ValidationError
		domainErr  *apperrors.DomainError
	)
	switch {
	case errors.As(err, &domainErr):
		return err
	case errors.As(err, &illegal):
		return apperrors.NewInvalidState(illegal.Error(), map[string]any{
			"from":    illegal.From,
			"trigger": illegal.Trigger,
		})
	case errors.As(err, &authErr):
		return apperrors.NewForbidden(authErr.Error(), map[string]any{
			"action":       authErr.Action,
			"required":     authErr.Required,
			"callerTenant": authErr.CallerTenant,
		})
	case errors.As(err, &validation):
		return apperrors.NewValidationError(validation.Error(), map[string]any{"field": validation.Field})
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	default:
		return apperrors.NewInternalError(err)
	}
}
