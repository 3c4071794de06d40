// Package sweeper implements the background reconciliation loop that audits
// SCANNING records against bucket contents and repairs records whose scanner
// verdict was lost.
package sweeper

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sethvargo/go-retry"

	"github.com/scanvault/scanvault/internal/logging"
	"github.com/scanvault/scanvault/internal/server/config"
	"github.com/scanvault/scanvault/internal/server/models"
	"github.com/scanvault/scanvault/internal/server/repositories/repomanager"
	"github.com/scanvault/scanvault/internal/server/storage"
)

var (
	sweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanvault_sweep_runs_total",
		Help: "Total reconciliation sweep runs.",
	})

	// outcome is "clean" or "threat_detected".
	sweepResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scanvault_sweep_resolved_total",
		Help: "Records repaired to a terminal status by the sweep.",
	}, []string{"outcome"})

	sweepStuckTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scanvault_sweep_stuck_total",
		Help: "Records observed still in quarantine past the scan timeout.",
	})

	sweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanvault_sweep_duration_seconds",
		Help:    "Duration of a reconciliation sweep in seconds.",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// Summary reports what a single sweep run did.
type Summary struct {
	Examined       int
	ResolvedClean  int
	ResolvedThreat int
	Stuck          int
	Errors         int
}

// Sweeper periodically audits SCANNING records against the object store.
// Bucket membership is the ground truth: a record whose object already sits
// in the permanent bucket is repaired to CLEAN, and a record whose object is
// in neither bucket past the scan timeout is repaired to THREAT_DETECTED.
type Sweeper struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	config      *config.Config
	logger      logging.Logger

	mu        sync.Mutex
	inProcess bool
	cancel    context.CancelFunc
}

// New constructs a Sweeper; call Start to begin the loop.
func New(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, cfg *config.Config, l logging.Logger) *Sweeper {
	return &Sweeper{
		db:          db,
		repomanager: m,
		store:       store,
		config:      cfg,
		logger:      l.With("component", "sweeper"),
	}
}

// Start launches the background loop. The loop stops when ctx is cancelled
// or Stop is called.
func (s *Sweeper) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	go s.run(runCtx)

	s.logger.Info(ctx, "sweep loop started", "interval", s.config.SweepInterval.String())
}

// Stop halts the background loop. A run already in flight finishes.
func (s *Sweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep. Safe to call concurrently with the loop:
// if a sweep is already in flight the call is skipped and reports skipped=true.
func (s *Sweeper) RunOnce(ctx context.Context) (Summary, bool) {
	s.mu.Lock()
	if s.inProcess {
		s.mu.Unlock()
		s.logger.Warn(ctx, "sweep already in flight, skipping")
		return Summary{}, true
	}
	s.inProcess = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inProcess = false
		s.mu.Unlock()
	}()

	started := time.Now()
	summary := s.sweep(ctx)

	sweepRunsTotal.Inc()
	sweepDurationSeconds.Observe(time.Since(started).Seconds())

	s.logger.Info(ctx, "sweep finished",
		"examined", summary.Examined,
		"clean", summary.ResolvedClean,
		"threat_detected", summary.ResolvedThreat,
		"stuck", summary.Stuck,
		"errors", summary.Errors,
		"duration", time.Since(started).String(),
	)

	return summary, false
}

func (s *Sweeper) sweep(ctx context.Context) Summary {
	var summary Summary

	repo := s.repomanager.Files(s.db)

	// The grace period keeps the sweep away from uploads whose presigned URL
	// may still be exercised; within it, absence from both buckets is normal.
	cutoff := time.Now().Add(-s.config.UploadGracePeriod)

	selectCtx, cancel := context.WithTimeout(ctx, s.config.SweepCallTimeout)
	records, err := repo.SelectScanningBefore(selectCtx, cutoff)
	cancel()
	if err != nil {
		s.logger.Error(ctx, "selecting records for sweep", "error", err)
		summary.Errors++
		return summary
	}

	timeoutCutoff := time.Now().Add(-s.config.ScanTimeout)

	for _, file := range records {
		if ctx.Err() != nil {
			return summary
		}
		summary.Examined++
		// Each record gets a bounded window for its store and db calls so
		// one wedged backend call cannot hold the single-flight latch and
		// stall every later tick.
		recordCtx, cancel := context.WithTimeout(ctx, s.config.SweepCallTimeout)
		err := s.sweepOne(recordCtx, file, timeoutCutoff, &summary)
		cancel()
		if err != nil {
			// A record the sweep cannot resolve this round stays SCANNING
			// and is retried on the next tick.
			s.logger.Error(ctx, "sweeping record", "key", file.StorageKey, "error", err)
			summary.Errors++
		}
	}

	return summary
}

func (s *Sweeper) sweepOne(ctx context.Context, file *models.File, timeoutCutoff time.Time, summary *Summary) error {
	// The permanent bucket is checked first: an object the scanner already
	// relocated must resolve CLEAN even if it briefly appears in both
	// buckets mid-move.
	inPermanent, err := s.exists(ctx, storage.AreaPermanent, file.StorageKey)
	if err != nil {
		return err
	}
	if inPermanent {
		return s.resolve(ctx, file, models.StatusClean, summary)
	}

	inQuarantine, err := s.exists(ctx, storage.AreaQuarantine, file.StorageKey)
	if err != nil {
		return err
	}
	if inQuarantine {
		// Still awaiting its verdict. Past the scan timeout that means the
		// scanner is wedged; surface it without guessing a verdict.
		if file.CreatedAt.Before(timeoutCutoff) {
			summary.Stuck++
			sweepStuckTotal.Inc()
			s.logger.Warn(ctx, "record stuck in quarantine past scan timeout",
				"key", file.StorageKey, "created_at", file.CreatedAt)
		}
		return nil
	}

	// Absent from both buckets. Before the scan timeout this can be an
	// abandoned upload still inside its URL window or a scanner mid-move;
	// leave it for a later sweep. After the timeout the object is not
	// coming back: either the scanner deleted a threat and the verdict was
	// lost, or nothing was ever uploaded.
	if file.CreatedAt.Before(timeoutCutoff) {
		return s.resolve(ctx, file, models.StatusThreatDetected, summary)
	}
	return nil
}

// resolve applies status via the SCANNING-only compare-and-set. A miss means
// a verdict or another sweep got there first; that record needs nothing more.
func (s *Sweeper) resolve(ctx context.Context, file *models.File, status models.FileStatus, summary *Summary) error {
	changed, err := s.repomanager.Files(s.db).UpdateStatusFromScanning(ctx, file.StorageKey, status)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	switch status {
	case models.StatusClean:
		summary.ResolvedClean++
		sweepResolvedTotal.WithLabelValues("clean").Inc()
	case models.StatusThreatDetected:
		summary.ResolvedThreat++
		sweepResolvedTotal.WithLabelValues("threat_detected").Inc()
	}

	s.logger.Info(ctx, "record repaired", "key", file.StorageKey, "status", string(status))
	return nil
}

// exists wraps the object-store check with a short fibonacci backoff so one
// transient storage hiccup does not skip a whole record for a full interval.
func (s *Sweeper) exists(ctx context.Context, area storage.Area, key string) (bool, error) {
	var found bool
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var innerErr error
		found, innerErr = s.store.Exists(ctx, area, key)
		if innerErr != nil {
			return retry.RetryableError(innerErr)
		}
		return nil
	})
	return found, err
}
