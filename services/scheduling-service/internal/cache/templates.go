// Package cache keeps availability templates in Redis, cache-aside.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/availability"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/model"
	"github.com/clinicops/clinic-portal/services/scheduling-service/internal/timerules"
	"github.com/redis/go-redis/v9"
)

const defaultTTL = 5 * time.Minute

type cachedTemplate struct {
	ID        int64           `json:"id"`
	DayOfWeek time.Weekday    `json:"day_of_week"`
	Start     timerules.Clock `json:"start"`
	End       timerules.Clock `json:"end"`
	IsActive  bool            `json:"is_active"`
}

// TemplateCache serves availability templates from Redis and falls back to
// the wrapped source on a miss. Redis errors degrade to the source.
type TemplateCache struct {
	rdb    redis.Cmdable
	source availability.TemplateSource
	ttl    time.Duration
	prefix string
	logger *slog.Logger
}

func NewTemplateCache(rdb redis.Cmdable, source availability.TemplateSource, ttl time.Duration, logger *slog.Logger) *TemplateCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateCache{rdb: rdb, source: source, ttl: ttl, prefix: "availability:templates", logger: logger}
}

func (c *TemplateCache) key(professionalID int64) string {
	return c.prefix + ":" + strconv.FormatInt(professionalID, 10)
}

func (c *TemplateCache) FindByProfessionalID(ctx context.Context, professionalID int64) ([]model.AvailabilityTemplate, error) {
	raw, err := c.rdb.Get(ctx, c.key(professionalID)).Bytes()
	switch {
	case err == nil:
		out, derr := decode(professionalID, raw)
		if derr == nil {
			return out, nil
		}
		c.logger.WarnContext(ctx, "discarding unreadable template cache entry", "professional_id", professionalID, "err", derr)
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "template cache read failed", "professional_id", professionalID, "err", err)
	}

	templates, err := c.source.FindByProfessionalID(ctx, professionalID)
	if err != nil {
		return nil, err
	}
	if raw, err := encode(templates); err == nil {
		if err := c.rdb.Set(ctx, c.key(professionalID), raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "template cache write failed", "professional_id", professionalID, "err", err)
		}
	}
	return templates, nil
}

// Invalidate drops the cached templates of a professional.
func (c *TemplateCache) Invalidate(ctx context.Context, professionalID int64) error {
	return c.rdb.Del(ctx, c.key(professionalID)).Err()
}

func encode(templates []model.AvailabilityTemplate) ([]byte, error) {
	out := make([]cachedTemplate, 0, len(templates))
	for _, t := range templates {
		out = append(out, cachedTemplate{ID: t.ID, DayOfWeek: t.DayOfWeek, Start: t.Start, End: t.End, IsActive: t.IsActive})
	}
	return json.Marshal(out)
}

func decode(professionalID int64, raw []byte) ([]model.AvailabilityTemplate, error) {
	var in []cachedTemplate
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	out := make([]model.AvailabilityTemplate, 0, len(in))
	for _, t := range in {
		out = append(out, model.AvailabilityTemplate{
			ID:             t.ID,
			ProfessionalID: professionalID,
			DayOfWeek:      t.DayOfWeek,
			Start:          t.Start,
			End:            t.End,
			IsActive:       t.IsActive,
		})
	}
	return out, nil
}

var _ availability.TemplateSource = (*TemplateCache)(nil)
