package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marginalia-labs/marginalia-cli/internal/core/domain"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driven"
	"github.com/marginalia-labs/marginalia-cli/internal/core/ports/driving"
	"github.com/marginalia-labs/marginalia-cli/internal/logger"
)

// Ensure Poller implements the interface.
var _ driving.Poller = (*Poller)(nil)

// Poller repeatedly runs reconciliation passes for a set of record kinds,
// persisting each kind's cursor after every pass so restarts resume
// instead of re-pulling everything. Kinds are processed sequentially
// within an iteration, which keeps at most one pass in flight per kind.
//
// Failed iterations stretch the sleep by the backoff factor up to the
// configured cap; the next success resets it to the baseline. Stop
// interrupts a pending sleep but lets a running pass finish, so no batch
// is left half-resolved.
type Poller struct {
	engine    driving.SyncEngine
	cursors   driven.CursorStore
	snapshots driven.SnapshotSource
	history   driven.PassHistory // optional
	kinds     []domain.Kind
	config    domain.PollerConfig

	onPass  func(domain.Report)
	onError func(error)

	mu                  sync.Mutex
	running             bool
	stopCh              chan struct{}
	wakeCh              chan struct{}
	wg                  sync.WaitGroup
	passCount           int
	consecutiveFailures int
	interval            time.Duration
	lastError           string
}

// NewPoller creates a poller. history may be nil; every other dependency
// is required. kinds must be non-empty.
func NewPoller(
	engine driving.SyncEngine,
	cursors driven.CursorStore,
	snapshots driven.SnapshotSource,
	history driven.PassHistory,
	kinds []domain.Kind,
	config domain.PollerConfig,
) *Poller {
	if config.Interval <= 0 {
		config.Interval = domain.DefaultPollInterval
	}
	if config.BackoffFactor < 1 {
		config.BackoffFactor = domain.DefaultBackoffFactor
	}
	if config.MaxInterval < config.Interval {
		config.MaxInterval = domain.DefaultMaxInterval
	}
	return &Poller{
		engine:    engine,
		cursors:   cursors,
		snapshots: snapshots,
		history:   history,
		kinds:     kinds,
		config:    config,
		interval:  config.Interval,
	}
}

// OnPass registers a callback invoked with each pass report.
// Must be called before Start.
func (p *Poller) OnPass(fn func(domain.Report)) { p.onPass = fn }

// OnError registers a callback invoked with each pass failure.
// Must be called before Start.
func (p *Poller) OnError(fn func(error)) { p.onError = fn }

// Start launches the poll loop in a goroutine. The loop runs one iteration
// immediately, then sleeps between iterations. Cancelling ctx stops the
// loop the hard way (a pass in progress observes the cancellation); Stop
// is the cooperative path.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return domain.ErrPassInFlight
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.wakeCh = make(chan struct{}, 1)
	p.interval = p.config.Interval
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(ctx)
	return nil
}

// Stop interrupts a pending sleep and waits for the loop to exit. A pass
// already underway finishes first.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// TriggerNow requests an immediate iteration, skipping the current sleep.
func (p *Poller) TriggerNow() {
	p.mu.Lock()
	wake := p.wakeCh
	running := p.running
	p.mu.Unlock()
	if running && wake != nil {
		select {
		case wake <- struct{}{}:
		default:
		}
	}
}

// Status reports the poller's current state.
func (p *Poller) Status() driving.PollerStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return driving.PollerStatus{
		Running:             p.running,
		PassCount:           p.passCount,
		ConsecutiveFailures: p.consecutiveFailures,
		NextInterval:        p.interval,
		LastError:           p.lastError,
	}
}

func (p *Poller) run(ctx context.Context) {
	defer p.wg.Done()

	for {
		p.iterate(ctx)

		p.mu.Lock()
		sleep := p.interval
		stop := p.stopCh
		wake := p.wakeCh
		failures := p.consecutiveFailures
		p.mu.Unlock()

		if p.config.MaxConsecutiveFailures > 0 && failures >= p.config.MaxConsecutiveFailures {
			logger.Error("poller: stopping after %d consecutive failures", failures)
			p.markStopped()
			return
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			p.markStopped()
			return
		case <-stop:
			timer.Stop()
			return
		case <-wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// markStopped clears running for exits that bypass Stop.
func (p *Poller) markStopped() {
	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// iterate runs one pass per kind and adjusts the backoff interval.
func (p *Poller) iterate(ctx context.Context) {
	failed := false

	for _, kind := range p.kinds {
		if err := p.runPass(ctx, kind); err != nil {
			failed = true
			p.mu.Lock()
			p.lastError = err.Error()
			p.mu.Unlock()
			if p.onError != nil {
				p.onError(err)
			}
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.passCount++
	if failed {
		p.consecutiveFailures++
		next := time.Duration(float64(p.interval) * p.config.BackoffFactor)
		if next > p.config.MaxInterval {
			next = p.config.MaxInterval
		}
		p.interval = next
		logger.Warn("poller: iteration failed, next attempt in %s", p.interval)
	} else {
		p.consecutiveFailures = 0
		p.interval = p.config.Interval
		p.lastError = ""
	}
}

// runPass executes one pass for a kind: load cursor, snapshot, reconcile,
// persist the returned cursor, record history.
func (p *Poller) runPass(ctx context.Context, kind domain.Kind) error {
	cursor, err := p.cursors.Load(ctx, kind)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		cursor = domain.NewCursor()
	case errors.Is(err, domain.ErrInvalidCursor):
		// Corrupt persisted state: start fresh rather than wedge.
		logger.Warn("poller: invalid cursor for %s, starting from the beginning", kind)
		cursor = domain.NewCursor()
	case err != nil:
		return fmt.Errorf("load cursor for %s: %w", kind, err)
	}

	snapshot, err := p.snapshots.Snapshot(ctx, kind)
	if err != nil {
		return fmt.Errorf("snapshot %s: %w", kind, err)
	}

	started := time.Now()
	report := p.engine.RunOnce(ctx, kind, snapshot, cursor)

	// The report's cursor is the previous one on a pull failure, so
	// saving unconditionally never claims false progress.
	if saveErr := p.cursors.Save(ctx, kind, report.Cursor); saveErr != nil {
		logger.Error("poller: save cursor for %s: %v", kind, saveErr)
	}
	p.recordHistory(ctx, kind, started, report)

	if p.onPass != nil {
		p.onPass(report)
	}
	if report.Outcome == domain.OutcomeFailed {
		if report.Err != nil {
			return fmt.Errorf("pass %s: %w", kind, report.Err)
		}
		return fmt.Errorf("pass %s: all %d pushes failed", kind, len(report.Results))
	}
	return nil
}

func (p *Poller) recordHistory(ctx context.Context, kind domain.Kind, started time.Time, report domain.Report) {
	if p.history == nil {
		return
	}
	record := driven.PassRecord{
		Kind:      kind,
		Outcome:   report.Outcome,
		Stage:     report.Stage,
		StartedAt: started,
		EndedAt:   time.Now(),
		Pulled:    report.Pulled,
		Created:   report.Created(),
		Updated:   report.Updated(),
		Skipped:   report.Skipped(),
		Failed:    report.Failed(),
	}
	if report.Err != nil {
		record.Error = report.Err.Error()
	}
	if err := p.history.RecordPass(ctx, record); err != nil {
		logger.Error("poller: record pass history: %v", err)
	}
}
