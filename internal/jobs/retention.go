package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/lukasbauer/speakable/internal/eventlog"
)

// ScriptPurger deletes scripts created before a cutoff and returns their IDs.
type ScriptPurger interface {
	DeleteScriptsOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

// Alerter is told about sweeps that removed scripts or failed.
type Alerter interface {
	NotifySweepFailed(ctx context.Context, err error)
	NotifyScriptsExpired(ctx context.Context, count int, cutoff time.Time)
}

// RetentionJob removes prepared scripts once they are older than the
// retention window. It runs on a configurable interval (default: 1 hour).
type RetentionJob struct {
	store     ScriptPurger
	events    *eventlog.Logger
	alerts    Alerter
	logger    *log.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewRetentionJob creates a new retention job. alerts may be nil.
func NewRetentionJob(s ScriptPurger, events *eventlog.Logger, alerts Alerter, logger *log.Logger, retention, interval time.Duration) *RetentionJob {
	if retention == 0 {
		retention = 24 * time.Hour
	}
	if interval == 0 {
		interval = 1 * time.Hour
	}
	return &RetentionJob{
		store:     s,
		events:    events,
		alerts:    alerts,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the background job.
func (j *RetentionJob) Start() {
	j.wg.Add(1)
	go j.run()
	j.logger.Printf("RetentionJob: started (retention=%v, interval=%v)", j.retention, j.interval)
}

// Stop gracefully stops the background job.
func (j *RetentionJob) Stop() {
	close(j.stopCh)
	j.wg.Wait()
	j.logger.Println("RetentionJob: stopped")
}

func (j *RetentionJob) run() {
	defer j.wg.Done()

	// Run immediately on start
	j.sweep(context.Background())

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.sweep(context.Background())
		case <-j.stopCh:
			return
		}
	}
}

// sweep deletes expired scripts once and returns how many were removed.
func (j *RetentionJob) sweep(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cutoff := j.now().Add(-j.retention)
	ids, err := j.store.DeleteScriptsOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Printf("RetentionJob: failed to delete expired scripts: %v", err)
		if j.alerts != nil {
			j.alerts.NotifySweepFailed(ctx, err)
		}
		return 0
	}
	for _, id := range ids {
		j.events.LogAsync(id, eventlog.EventScriptExpired, map[string]any{
			"cutoff": cutoff.UTC().Format(time.RFC3339),
		})
	}
	if len(ids) > 0 {
		j.logger.Printf("RetentionJob: deleted %d expired scripts", len(ids))
		if j.alerts != nil {
			j.alerts.NotifyScriptsExpired(ctx, len(ids), cutoff)
		}
	}
	return len(ids)
}
