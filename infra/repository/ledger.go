// Package repository persists the checkout attempt ledger with GORM.
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/storefront/pkg/checkout"
	"github.com/amirasaad/storefront/pkg/eventbus"
	"github.com/amirasaad/storefront/pkg/result"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger records checkout transitions and the quotes they created.
type Ledger struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewLedger(db *gorm.DB, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{db: db, logger: logger.With("component", "ledger")}
}

// Migrate creates or updates the ledger tables.
func (l *Ledger) Migrate(ctx context.Context) error {
	return l.db.WithContext(ctx).AutoMigrate(&AttemptRecord{}, &QuoteRecord{}, &TransitionRecord{})
}

// Subscribe registers the ledger for checkout transitions on bus.
func (l *Ledger) Subscribe(bus eventbus.Bus) {
	bus.Register(checkout.EventTransition, l.Handle)
}

// Handle is the event handler for checkout.EventTransition.
func (l *Ledger) Handle(ctx context.Context, ev eventbus.Event) error {
	te, ok := checkout.AsTransition(ev)
	if !ok {
		return fmt.Errorf("unexpected event %T", ev)
	}
	if err := l.Record(ctx, te); err != nil {
		l.logger.Error("Failed to record checkout transition", "attempt_id", te.AttemptID, "error", err)
		return err
	}
	return nil
}

// Record stores one transition and updates the attempt and quote rows.
func (l *Ledger) Record(ctx context.Context, ev checkout.TransitionEvent) error {
	return WrapError(func() error {
		return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			attempt := AttemptRecord{
				ID:        ev.AttemptID,
				State:     string(ev.To),
				QuoteID:   ev.QuoteID,
				OrderID:   ev.OrderID,
				Currency:  ev.Currency,
				ErrorKind: string(ev.ErrorKind),
				Message:   ev.Message,
				CreatedAt: ev.At,
				UpdatedAt: ev.At,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"state", "quote_id", "order_id", "currency", "error_kind", "message", "updated_at",
				}),
			}).Create(&attempt).Error; err != nil {
				return err
			}

			if ev.SupersededQuoteID != 0 {
				if err := markSuperseded(tx, ev); err != nil {
					return err
				}
			}

			if ev.QuoteID != 0 {
				if err := l.upsertQuote(tx, ev); err != nil {
					return err
				}
			}

			return tx.Create(&TransitionRecord{
				AttemptID: ev.AttemptID,
				From:      string(ev.From),
				To:        string(ev.To),
				QuoteID:   ev.QuoteID,
				OrderID:   ev.OrderID,
				ErrorKind: string(ev.ErrorKind),
				Message:   ev.Message,
				At:        ev.At,
			}).Error
		})
	})
}

// markSuperseded moves a replaced quote forward to superseded, or to deleted
// once the platform copy is gone. It never moves a quote backwards.
func markSuperseded(tx *gorm.DB, ev checkout.TransitionEvent) error {
	if ev.QuoteID != 0 {
		if err := tx.Model(&QuoteRecord{}).
			Where("quote_id = ?", ev.SupersededQuoteID).
			Updates(map[string]any{"superseded_by": ev.QuoteID, "updated_at": ev.At}).Error; err != nil {
			return err
		}
	}
	status, from := QuoteSuperseded, []string{QuoteOpen}
	if ev.SupersededDeleted {
		status, from = QuoteDeleted, []string{QuoteOpen, QuoteSuperseded}
	}
	return tx.Model(&QuoteRecord{}).
		Where("quote_id = ? AND status IN ?", ev.SupersededQuoteID, from).
		Updates(map[string]any{"status": status, "updated_at": ev.At}).Error
}

func (l *Ledger) upsertQuote(tx *gorm.DB, ev checkout.TransitionEvent) error {
	q := QuoteRecord{
		QuoteID:   ev.QuoteID,
		AttemptID: ev.AttemptID,
		Status:    QuoteOpen,
		Currency:  ev.Currency,
		CreatedAt: ev.At,
		UpdatedAt: ev.At,
	}
	updates := []string{"updated_at"}
	if ev.To == checkout.StateSuccess {
		q.Status = QuoteFinalized
		q.OrderID = ev.OrderID
		updates = append(updates, "status", "order_id")
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "quote_id"}},
		DoUpdates: clause.AssignmentColumns(updates),
	}).Create(&q).Error
}

// Attempt loads the latest state of an attempt.
func (l *Ledger) Attempt(ctx context.Context, id string) (AttemptRecord, error) {
	var rec AttemptRecord
	err := WrapError(func() error {
		return l.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	})
	return rec, err
}

// Transitions returns the history of an attempt in order.
func (l *Ledger) Transitions(ctx context.Context, attemptID string) ([]TransitionRecord, error) {
	var recs []TransitionRecord
	err := WrapError(func() error {
		return l.db.WithContext(ctx).Where("attempt_id = ?", attemptID).Order("id").Find(&recs).Error
	})
	return recs, err
}

// ListOpenQuotes returns quotes that were neither finalized nor deleted, oldest
// first. Superseded quotes whose platform delete failed are among them.
func (l *Ledger) ListOpenQuotes(ctx context.Context) ([]QuoteRecord, error) {
	var recs []QuoteRecord
	err := WrapError(func() error {
		return l.db.WithContext(ctx).
			Where("status IN ?", []string{QuoteOpen, QuoteSuperseded}).
			Order("created_at").
			Find(&recs).Error
	})
	return recs, err
}

// QuoteDeleter removes quotes on the platform. checkout.Gateway satisfies it.
type QuoteDeleter interface {
	DeleteQuote(ctx context.Context, quoteID int64) result.Result[bool]
}

// SweepSuperseded retries the platform delete of every superseded quote still
// open and returns how many were deleted. A superseded quote that turns out to
// be completed was paid after it was replaced and is flagged for manual
// reconciliation.
func (l *Ledger) SweepSuperseded(ctx context.Context, deleter QuoteDeleter) (int, error) {
	open, err := l.ListOpenQuotes(ctx)
	if err != nil {
		return 0, err
	}
	var deleted int
	for _, q := range open {
		if q.Status != QuoteSuperseded {
			continue
		}
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		res := deleter.DeleteQuote(ctx, q.QuoteID)
		if res.Failed() {
			l.logger.Warn("Failed to delete superseded quote", "quote_id", q.QuoteID, "error", res.Message())
			continue
		}
		status := QuoteDeleted
		if res.Data {
			deleted++
		} else {
			status = QuoteSupersededPaid
			l.logger.Error("Superseded quote was paid, reconcile manually",
				"quote_id", q.QuoteID, "attempt_id", q.AttemptID, "superseded_by", q.SupersededBy)
		}
		if err := l.setQuoteStatus(ctx, q.QuoteID, status); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// RunSweeper calls SweepSuperseded every interval until ctx is done.
func (l *Ledger) RunSweeper(ctx context.Context, deleter QuoteDeleter, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.SweepSuperseded(ctx, deleter)
			if err != nil && ctx.Err() == nil {
				l.logger.Warn("Superseded quote sweep failed", "error", err)
				continue
			}
			if n > 0 {
				l.logger.Info("Superseded quotes deleted", "count", n)
			}
		}
	}
}

func (l *Ledger) setQuoteStatus(ctx context.Context, quoteID int64, status string) error {
	return WrapError(func() error {
		return l.db.WithContext(ctx).Model(&QuoteRecord{}).
			Where("quote_id = ?", quoteID).
			Updates(map[string]any{"status": status, "updated_at": time.Now()}).Error
	})
}
