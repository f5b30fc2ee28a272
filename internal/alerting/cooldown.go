package alerting

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"glucose-dashboard/internal/glucose"
)

// CooldownNotifier suppresses repeat notifications of the same classification
// within the cooldown period. A change of classification always passes.
type CooldownNotifier struct {
	next     Notifier
	cooldown time.Duration
	now      func() time.Time
	logger   zerolog.Logger

	mu       sync.Mutex
	lastSent map[glucose.RiskLevel]time.Time
}

// NewCooldownNotifier wraps next. A non-positive cooldown disables suppression.
func NewCooldownNotifier(next Notifier, cooldown time.Duration, logger zerolog.Logger) *CooldownNotifier {
	return &CooldownNotifier{
		next:     next,
		cooldown: cooldown,
		now:      time.Now,
		logger:   logger.With().Str("component", "alert_cooldown").Logger(),
		lastSent: make(map[glucose.RiskLevel]time.Time),
	}
}

// Notify forwards the notification unless one of the same level was sent
// within the cooldown.
func (c *CooldownNotifier) Notify(ctx context.Context, note Notification) error {
	level := note.Entry.Classification
	now := c.now()

	c.mu.Lock()
	if last, ok := c.lastSent[level]; ok && c.cooldown > 0 && now.Sub(last) < c.cooldown {
		c.mu.Unlock()
		c.logger.Debug().Str("classification", level.String()).Dur("since_last", now.Sub(last)).Msg("alert suppressed by cooldown")
		return nil
	}
	c.mu.Unlock()

	if err := c.next.Notify(ctx, note); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastSent[level] = now
	c.mu.Unlock()
	return nil
}

var _ Notifier = (*CooldownNotifier)(nil)
