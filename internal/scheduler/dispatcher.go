// ABOUTME: Scheduled-message dispatcher that delivers due items into character chats
// ABOUTME: Runs on a cron spec; each delivery appends the message and deletes the item in one transaction

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/2389/chatvault/internal/dedupe"
	"github.com/2389/chatvault/internal/store"
)

// DefaultSpec ticks once a minute.
const DefaultSpec = "* * * * *"

// specParser accepts standard 5-field cron expressions and descriptors such as @every 30s.
var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Store is what the dispatcher reads from and writes to.
type Store interface {
	store.Accessor
	store.Updater
}

// errItemGone means the item was removed after it was found due.
var errItemGone = errors.New("scheduled item no longer exists")

// Result summarizes one dispatch run.
type Result struct {
	Delivered int
	Skipped   int
	Failed    int
}

// Dispatcher delivers scheduled messages once they are due.
type Dispatcher struct {
	store  Store
	claims *dedupe.Cache
	logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// New creates a dispatcher. claims must outlive the dispatcher; the caller
// closes it.
func New(s Store, claims *dedupe.Cache) *Dispatcher {
	return &Dispatcher{
		store:  s,
		claims: claims,
		logger: slog.Default().With("component", "scheduler"),
	}
}

// ValidateSpec reports whether spec is a usable schedule.
func ValidateSpec(spec string) error {
	if _, err := specParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// RunOnce delivers every item due at now across all characters. Items that
// fail stay scheduled for the next run; the first failure is returned after
// the remaining items have been attempted.
func (d *Dispatcher) RunOnce(ctx context.Context, now time.Time) (Result, error) {
	var res Result

	chars, err := d.store.Characters().GetAll(ctx)
	if err != nil {
		return res, fmt.Errorf("listing characters: %w", err)
	}

	var firstErr error
	for _, c := range chars {
		due, err := d.store.Scheduled().GetDue(ctx, c.ID, now)
		if err != nil {
			return res, fmt.Errorf("collecting due items for %s: %w", c.ID, err)
		}

		for _, item := range due {
			if !d.claims.Claim(item.ID) {
				res.Skipped++
				continue
			}

			err := d.deliver(ctx, item, now)
			if errors.Is(err, errItemGone) {
				res.Skipped++
				d.logger.Debug("scheduled item removed before delivery", "item", item.ID, "char", item.CharID)
				continue
			}
			if err != nil {
				d.claims.Release(item.ID)
				res.Failed++
				d.logger.Error("delivery failed", "item", item.ID, "char", item.CharID, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}

			res.Delivered++
			d.logger.Info("scheduled message delivered", "item", item.ID, "char", item.CharID, "due_at", item.DueAt)
		}
	}

	if res.Delivered > 0 || res.Failed > 0 {
		d.logger.Debug("dispatch run finished", "delivered", res.Delivered, "skipped", res.Skipped, "failed", res.Failed)
	}
	return res, firstErr
}

// deliver appends the item to its character's chat and removes it from the
// schedule. It returns errItemGone when the item was deleted in the meantime.
func (d *Dispatcher) deliver(ctx context.Context, item store.ScheduledMessage, now time.Time) error {
	return d.store.Update(ctx, func(tx *store.Tx) error {
		if _, err := tx.Scheduled().Get(ctx, item.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errItemGone
			}
			return fmt.Errorf("loading item: %w", err)
		}
		msg := &store.Message{
			CharID:    item.CharID,
			Role:      store.RoleAssistant,
			Type:      store.ContentText,
			Content:   item.Content,
			Timestamp: now.UnixMilli(),
		}
		if err := tx.Messages().Append(ctx, msg); err != nil {
			return fmt.Errorf("appending message: %w", err)
		}
		if err := tx.Scheduled().Delete(ctx, item.ID); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}
		return nil
	})
}

// Start runs RunOnce on spec until Stop is called. Ticks that would overlap a
// run still in progress are skipped.
func (d *Dispatcher) Start(ctx context.Context, spec string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return errors.New("dispatcher already started")
	}

	c := cron.New(
		cron.WithParser(specParser),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		if _, err := d.RunOnce(ctx, time.Now()); err != nil {
			d.logger.Warn("dispatch run incomplete", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	c.Start()
	d.cron = c
	d.logger.Info("dispatcher started", "spec", spec)
	return nil
}

// Stop halts the schedule and waits for a running dispatch to finish or ctx
// to expire.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()

	if c == nil {
		return
	}

	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
	d.logger.Info("dispatcher stopped")
}
