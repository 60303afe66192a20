package service

import (
	"context"
	"log"
	"time"
)

// PruneTarget is one collection the pruner sweeps: the function removes
// records older than the given number of days and reports how many went.
type PruneTarget struct {
	Name  string
	Prune func(ctx context.Context, days int) (int, error)
}

// RetentionPruner periodically removes records older than a configurable
// retention period from its targets. It runs as a background goroutine and
// is safe to stop via its context or the Stop method.
//
// A retention of 0 disables pruning entirely.
type RetentionPruner struct {
	targets   []PruneTarget
	retention int // days
	interval  time.Duration
	logger    *log.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// PrunerConfig holds the parameters for NewRetentionPruner.
type PrunerConfig struct {
	// RetentionDays is how many days of history to keep.
	// 0 means keep everything (pruner will not start).
	RetentionDays int

	// IntervalHours is how often the pruner runs. Defaults to 6.
	IntervalHours int
}

// NewRetentionPruner creates a pruner but does not start it.
// Call Start to begin the background loop.
func NewRetentionPruner(targets []PruneTarget, cfg PrunerConfig, logger *log.Logger) *RetentionPruner {
	interval := time.Duration(cfg.IntervalHours) * time.Hour
	if interval <= 0 {
		interval = 6 * time.Hour
	}

	return &RetentionPruner{
		targets:   targets,
		retention: cfg.RetentionDays,
		interval:  interval,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the background pruning loop. It runs an immediate prune on
// startup, then repeats on the configured interval. The loop exits when ctx
// is cancelled or Stop is called.
func (p *RetentionPruner) Start(ctx context.Context) {
	if p.retention <= 0 {
		p.logger.Printf("retention pruner disabled (retention=0)")
		close(p.done)
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)

	go p.loop(ctx)

	p.logger.Printf("retention pruner started (retention=%dd, interval=%dh)",
		p.retention, int(p.interval.Hours()))
}

// Stop signals the pruner to exit and waits for it to finish.
func (p *RetentionPruner) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	<-p.done
}

func (p *RetentionPruner) loop(ctx context.Context) {
	defer close(p.done)

	// Run immediately on startup to clean up any backlog.
	p.prune(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.prune(ctx)
		}
	}
}

func (p *RetentionPruner) prune(ctx context.Context) {
	for _, t := range p.targets {
		removed, err := t.Prune(ctx, p.retention)
		if err != nil {
			p.logger.Printf("%s prune error: %v", t.Name, err)
			continue
		}
		if removed > 0 {
			p.logger.Printf("%s prune: removed %d records older than %dd", t.Name, removed, p.retention)
		}
	}
}
