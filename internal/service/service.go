// Package service holds the business operations behind the HTTP handlers:
// the session lifecycle, the dashboards and the CRUD flows that need
// authorization, validation or derived values. Services speak apperr; the
// repository sentinels never leave this package.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/authz"
	"github.com/iliyamo/conductor/internal/model"
	"github.com/iliyamo/conductor/internal/queue"
	"github.com/iliyamo/conductor/internal/repository"
)

// Clock returns the current time. Services take one so tests can pin "today".
type Clock func() time.Time

func (c Clock) orDefault() Clock {
	if c == nil {
		return time.Now
	}
	return c
}

func (c Clock) today() model.Date { return model.NewDate(c()) }

// storeErr maps repository sentinels to client-facing errors.
func storeErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFoundf(resource)
	case errors.Is(err, repository.ErrEmailExists):
		return apperr.Invalid("Email has already been taken")
	case errors.Is(err, repository.ErrConflict):
		return apperr.Invalid(resource + " references a record that does not exist")
	}
	return err
}

func invalid(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return apperr.Invalid(errs...)
}

// ownerScope returns the user id a listing is limited to: the requested one
// for callers allowed to list everything, otherwise the caller's own id.
func ownerScope(actor authz.Actor, kind authz.Kind, requested uint64) uint64 {
	if authz.Allowed(actor, authz.Resource{Kind: kind}, authz.ListAll) {
		return requested
	}
	return actor.ID
}

// publish sends ev without failing the caller.
func publish(ctx context.Context, p queue.Publisher, log *zap.Logger, ev queue.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn("publish event failed", zap.String("type", ev.Type), zap.Error(err))
	}
}
