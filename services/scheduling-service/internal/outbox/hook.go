package outbox

import (
	"context"
	"time"

	"github.com/clinicops/clinic-portal/libs/db"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/lifecycle"
)

// Hook records published lifecycle events in the outbox table.
type Hook struct {
	db   db.DBTX
	repo *Repository
	now  func() time.Time
}

func NewHook(conn db.DBTX, repo *Repository) *Hook {
	return &Hook{db: conn, repo: repo, now: time.Now}
}

func (h *Hook) Name() string { return "outbox" }

func (h *Hook) Handle(ctx context.Context, ev lifecycle.Event) error {
	evt, ok, err := FromLifecycle(ev, h.now())
	if err != nil || !ok {
		return err
	}
	return h.repo.Insert(ctx, h.db, evt)
}

var _ lifecycle.Hook = (*Hook)(nil)
