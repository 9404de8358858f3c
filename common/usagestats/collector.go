package usagestats

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Flusher persists a batch. *Client implements it.
type Flusher interface {
	FlushBatch(ctx context.Context, batch *Batch) error
}

// Collector accumulates calls in memory and flushes them periodically.
// Safe for concurrent use.
type Collector struct {
	flusher       Flusher
	flushInterval time.Duration
	logger        *slog.Logger

	mu      sync.Mutex
	batches map[string]*Batch

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCollector starts a background loop flushing every flushInterval.
func NewCollector(flusher Flusher, flushInterval time.Duration, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := &Collector{
		flusher:       flusher,
		flushInterval: flushInterval,
		logger:        logger,
		batches:       make(map[string]*Batch),
		ctx:           ctx,
		cancel:        cancel,
	}

	c.wg.Add(1)
	go c.flushLoop()

	return c
}

// RecordCall counts one upstream call for tenant. Calls of tenantless
// routes pass Tenantless and are kept apart from every real tenant.
func (c *Collector) RecordCall(tenant, route string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch, ok := c.batches[tenant]
	if !ok {
		batch = NewBatch(tenant)
		c.batches[tenant] = batch
	}
	batch.Add(route, status, time.Now())
}

func (c *Collector) flushLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			c.flush()
			return
		case <-ticker.C:
			c.flush()
		}
	}
}

func (c *Collector) flush() {
	c.mu.Lock()
	batches := c.batches
	c.batches = make(map[string]*Batch)
	c.mu.Unlock()

	if len(batches) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	flushed := 0
	var calls int64

	for _, batch := range batches {
		if err := c.flusher.FlushBatch(ctx, batch); err != nil {
			c.logger.Error("failed to flush usage stats batch",
				"tenant", batch.Tenant,
				"calls", batch.Calls,
				"error", err,
			)
			// merged back for the next tick
			c.mu.Lock()
			if existing, ok := c.batches[batch.Tenant]; ok {
				existing.Merge(batch)
			} else {
				c.batches[batch.Tenant] = batch
			}
			c.mu.Unlock()
			continue
		}
		flushed++
		calls += batch.Calls
	}

	if flushed > 0 {
		c.logger.Debug("flushed usage stats", "tenants", flushed, "calls", calls)
	}
}

// FlushNow forces an immediate flush.
func (c *Collector) FlushNow() {
	c.flush()
}

// Stop stops the loop after a final flush.
func (c *Collector) Stop() {
	c.cancel()
	c.wg.Wait()
}

// Pending returns unflushed call counts per tenant.
func (c *Collector) Pending() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := make(map[string]int64, len(c.batches))
	for tenant, batch := range c.batches {
		pending[tenant] = batch.Calls
	}
	return pending
}
