// Package worker provides an asynchronous worker pool for persisting
// finished translation records through a journal.Sink.
//
// The pool decouples journaling from the relay's HTTP hot path so that the
// client-relay-upstream interaction stays transparent.
package worker

import (
	"context"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/keepgogogo/polyglot/relay/journal"
)

var (
	defaultNumWorkers   uint = 3
	defaultJobQueueSize uint = 256
)

// Job is a unit of work for the worker pool to execute against.
type Job struct {
	Record *journal.Record
}

// Config is the configuration options for the worker pool.
type Config struct {
	// Sink is the journal backend for persisting records.
	Sink journal.Sink

	// NumWorkers is the number of background workers in the pool.
	NumWorkers uint

	// QueueSize is the capacity of the buffered job channel (defaults to 256).
	QueueSize uint

	// Logger is the provided zap logger
	Logger *zap.Logger
}

// Pool processes journal jobs asynchronously via a worker pool.
type Pool struct {
	config *Config
	queue  chan Job
	wg     sync.WaitGroup
	logger *zap.Logger
}

// NewPool creates a new Pool and starts its worker goroutines.
func NewPool(c *Config) (*Pool, error) {
	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}

	if c.QueueSize == 0 {
		c.QueueSize = defaultJobQueueSize
	}

	if c.NumWorkers > uint(math.MaxInt) {
		return nil, fmt.Errorf("NumWorkers %d exceeds max int", c.NumWorkers)
	}

	wp := &Pool{
		config: c,
		queue:  make(chan Job, c.QueueSize),
		logger: c.Logger,
	}

	wp.wg.Add(int(c.NumWorkers))
	for i := range c.NumWorkers {
		go wp.worker(i)
	}

	return wp, nil
}

// Enqueue submits a job for processing by the worker pool.
// Returns true if enqueued, false if the queue is full, resulting in the job
// being dropped.
func (p *Pool) Enqueue(job Job) bool {
	select {
	case p.queue <- job:
		p.logger.Debug("journal job queued",
			zap.String("id", job.Record.ID),
			zap.String("model", job.Record.Model),
		)
		return true
	default:
		p.logger.Error("journal job not queued, queue full, job dropped",
			zap.String("id", job.Record.ID),
			zap.String("model", job.Record.Model),
		)
		return false
	}
}

// Close signals workers to stop and waits for in-flight jobs to drain.
// Call this during graceful shutdown after the relay HTTP server has stopped.
func (p *Pool) Close() {
	close(p.queue)
	p.wg.Wait()
}

// worker continuously pulls jobs off the queue until it is closed.
func (p *Pool) worker(id uint) {
	defer p.wg.Done()

	for job := range p.queue {
		if job.Record == nil {
			continue
		}

		if err := p.config.Sink.Append(context.Background(), job.Record); err != nil {
			p.logger.Error("failed to append journal record",
				zap.Uint("worker", id),
				zap.String("id", job.Record.ID),
				zap.Error(err),
			)
			continue
		}

		p.logger.Debug("journal record persisted",
			zap.Uint("worker", id),
			zap.String("id", job.Record.ID),
		)
	}
}
