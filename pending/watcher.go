package pending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/omni/tokenbridge-transfers/config"
	"github.com/omni/tokenbridge-transfers/entity"
	"github.com/omni/tokenbridge-transfers/logging"
	"github.com/omni/tokenbridge-transfers/reconcile"
)

const sweepBatchSize = 500

// EvidenceSource reports what happened on chain to a transfer so far, tracker.Tracker implements it.
type EvidenceSource interface {
	Evidence(ctx context.Context, tx *entity.Transaction) ([]reconcile.Evidence, error)
}

// Watcher periodically moves unresolved records towards their terminal status.
type Watcher struct {
	logger   logging.Logger
	store    *Store
	evidence EvidenceSource
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
}

func NewWatcher(logger logging.Logger, store *Store, evidence EvidenceSource, cfg *config.WatcherConfig) *Watcher {
	return &Watcher{
		logger:   logger,
		store:    store,
		evidence: evidence,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		now:      time.Now,
	}
}

func (w *Watcher) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	for {
		timeoutCtx, cancel := context.WithTimeout(ctx, w.timeout)
		start := time.Now()
		updated, err := w.Sweep(timeoutCtx)
		cancel()
		SweepDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			w.logger.WithError(err).Error("failed to sweep pending transactions")
		} else if updated > 0 {
			w.logger.WithFields(logrus.Fields{
				"updated":  updated,
				"duration": time.Since(start),
			}).Info("updated pending transactions")
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			ticker.Stop()
			return
		}
	}
}

// Sweep reconciles every unresolved record once and returns the number of records
// that changed. A record that fails is logged and skipped.
func (w *Watcher) Sweep(ctx context.Context) (int, error) {
	records, err := w.store.FindPending(ctx, sweepBatchSize)
	if err != nil {
		return 0, err
	}

	counts := make(map[entity.TransferStatus]int, len(entity.AllStatuses))
	updated := 0
	for _, tx := range records {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}
		next, err := w.Reconcile(ctx, tx)
		if err != nil {
			ReconcileErrors.Inc()
			w.logger.WithError(err).WithField("tx_id", tx.TxID).Error("can't reconcile transaction")
		}
		if next != nil {
			updated++
			tx = next
		}
		if !tx.Status.IsTerminal() {
			counts[tx.Status]++
		}
	}

	for _, status := range entity.AllStatuses {
		PendingRecords.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
	return updated, nil
}

// Reconcile applies the current evidence to the record and persists the result.
// It returns the stored record when anything changed, nil otherwise. Evidence
// gathered before a tracking error is still applied.
func (w *Watcher) Reconcile(ctx context.Context, tx *entity.Transaction) (*entity.Transaction, error) {
	evidence, trackErr := w.evidence.Evidence(ctx, tx)
	if trackErr != nil {
		trackErr = fmt.Errorf("can't gather evidence: %w", trackErr)
	}

	now := w.now().UTC()
	cur := tx
	var transitionErr error
	for _, ev := range evidence {
		next, err := reconcile.Transition(cur, ev, now)
		if err != nil {
			transitionErr = err
			break
		}
		cur = next
	}

	patch := entity.NewPatch(tx, cur)
	if patch == nil {
		return nil, errors.Join(trackErr, transitionErr)
	}
	stored, err := w.store.UpdateByKey(ctx, tx.TxID, patch)
	if err != nil {
		return nil, errors.Join(trackErr, transitionErr, err)
	}
	if patch.Status != nil {
		Transitions.WithLabelValues(string(*patch.Status)).Inc()
		w.logger.WithFields(logrus.Fields{
			"tx_id": tx.TxID,
			"from":  tx.Status,
			"to":    stored.Status,
		}).Info("transaction status changed")
	}
	return stored, errors.Join(trackErr, transitionErr)
}
