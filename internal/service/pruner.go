package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// Pruner is the part of a history store the pruner needs.
type Pruner interface {
	DeleteOlderThan(ctx context.Context, age time.Duration) (int64, error)
}

// PrunerConfig holds configuration for the history pruner.
type PrunerConfig struct {
	// Retention is how long refresh records are kept.
	// Default: 30 days
	Retention time.Duration

	// Interval is how often pruning runs.
	// Default: 1 hour
	Interval time.Duration

	// InitialDelay is waited after Start before the first run.
	InitialDelay time.Duration
}

// HistoryPruner periodically deletes old refresh records.
type HistoryPruner struct {
	repo      Pruner
	config    PrunerConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
	wg        sync.WaitGroup
}

// NewHistoryPruner creates a pruner over repo.
func NewHistoryPruner(repo Pruner, config PrunerConfig) *HistoryPruner {
	if config.Retention == 0 {
		config.Retention = 30 * 24 * time.Hour
	}
	if config.Interval == 0 {
		config.Interval = time.Hour
	}

	return &HistoryPruner{
		repo:   repo,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the pruning loop.
func (p *HistoryPruner) Start() {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return
	}
	p.isRunning = true
	p.ticker = time.NewTicker(p.config.Interval)
	p.mu.Unlock()

	log.Printf("[HistoryPruner] Started - Interval: %v, Retention: %v",
		p.config.Interval, p.config.Retention)

	p.wg.Add(1)
	go p.run()
}

func (p *HistoryPruner) run() {
	defer p.wg.Done()

	if p.config.InitialDelay > 0 {
		select {
		case <-time.After(p.config.InitialDelay):
		case <-p.stopCh:
			log.Printf("[HistoryPruner] Stopped")
			return
		}
	}
	p.prune()

	for {
		select {
		case <-p.ticker.C:
			p.prune()
		case <-p.stopCh:
			log.Printf("[HistoryPruner] Stopped")
			return
		}
	}
}

func (p *HistoryPruner) prune() {
	if _, err := p.RunNow(context.Background()); err != nil {
		log.Printf("[HistoryPruner] Error during pruning: %v", err)
	}
}

// Stop stops the pruning loop and waits for a running prune to finish.
func (p *HistoryPruner) Stop() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		if p.ticker != nil {
			p.ticker.Stop()
		}
		close(p.stopCh)
		p.isRunning = false
		p.mu.Unlock()

		p.wg.Wait()
	})
}

// RunNow prunes immediately and returns the number of deleted records.
func (p *HistoryPruner) RunNow(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	deleted, err := p.repo.DeleteOlderThan(ctx, p.config.Retention)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		log.Printf("[HistoryPruner] Deleted %d records older than %v", deleted, p.config.Retention)
	}
	return deleted, nil
}
