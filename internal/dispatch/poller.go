package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/metrics"
	"github.com/Akhil0736/luna-instagram-ai/internal/store"
)

// Poller refreshes in-flight dispatch records from the automation backend on
// a fixed schedule. The backend never completes tasks synchronously, so
// records sit in_progress until a sweep observes a terminal state. Executions
// drop out of the sweep once every record is terminal.
type Poller struct {
	cron     *cron.Cron
	backend  automation.Backend
	store    store.Store
	logger   *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	tracked map[string]struct{}
}

// NewPoller schedules a sweep every interval.
func NewPoller(backend automation.Backend, st store.Store, interval time.Duration, logger *slog.Logger) (*Poller, error) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Poller{
		cron:     cron.New(),
		backend:  backend,
		store:    st,
		logger:   logger,
		interval: interval,
		tracked:  make(map[string]struct{}),
	}

	if _, err := p.cron.AddFunc(fmt.Sprintf("@every %s", interval), p.Sweep); err != nil {
		return nil, fmt.Errorf("failed to schedule dispatch poller: %w", err)
	}
	return p, nil
}

// Track adds an execution to the sweep set.
func (p *Poller) Track(executionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracked[executionID] = struct{}{}
}

// Tracked reports how many executions are still being swept.
func (p *Poller) Tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tracked)
}

// Start begins background sweeping.
func (p *Poller) Start() {
	p.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (p *Poller) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// Sweep refreshes every tracked execution once. Exported so tests and the
// status path can force a refresh without waiting out the schedule.
func (p *Poller) Sweep() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.tracked))
	for id := range p.tracked {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	if len(ids) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	for _, id := range ids {
		if done := p.refresh(ctx, id); done {
			p.mu.Lock()
			delete(p.tracked, id)
			p.mu.Unlock()
		}
	}
}

// refresh polls the backend for each non-terminal record of one execution
// and reports whether the execution has finished.
func (p *Poller) refresh(ctx context.Context, executionID string) bool {
	status, err := loadStatus(ctx, p.store, executionID)
	if err != nil {
		// A vanished record will never finish; stop sweeping it.
		p.logger.Warn("poller dropped execution", "execution_id", executionID, "error", err)
		return true
	}

	changed := false
	for i := range status.Records {
		record := &status.Records[i]
		if record.State.Terminal() || record.Handle == "" {
			continue
		}

		state, err := p.backend.Status(ctx, record.Handle)
		if err != nil {
			// Transient; the next sweep retries.
			p.logger.Debug("task status poll failed",
				"execution_id", executionID,
				"task_id", record.TaskID,
				"error", err)
			continue
		}
		if !state.Terminal() {
			continue
		}

		record.State = state
		record.UpdatedAt = time.Now().UTC()
		if state == automation.StateFailed && record.LastError == "" {
			record.LastError = "automation backend reported failure"
		}
		metrics.TasksDispatched.WithLabelValues(record.Category.String(), state.String()).Inc()
		changed = true
	}

	if changed {
		if err := saveStatus(ctx, p.store, status); err != nil {
			p.logger.Error("dispatch status persist failed",
				"execution_id", executionID,
				"error", err)
			return false
		}
	}

	if status.Done() {
		p.logger.Info("execution complete",
			"execution_id", executionID,
			"user_id", status.UserID,
			"tasks", len(status.Records))
		return true
	}
	return false
}
