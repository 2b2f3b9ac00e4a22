package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/feed-service/internal/observability"
)

const removeTimeout = 10 * time.Second

// ImageRemover deletes a stored image by reference.
type ImageRemover interface {
	Remove(ctx context.Context, ref string) error
}

// ImageCleaner removes replaced or orphaned images in the background. Failures
// are logged and never reach the request that scheduled the removal.
type ImageCleaner struct {
	store   ImageRemover
	queue   chan string
	logger  *zap.Logger
	metrics *observability.Metrics

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewImageCleaner builds a cleaner with a buffered queue of queueSize refs.
func NewImageCleaner(store ImageRemover, queueSize int, logger *zap.Logger, metrics *observability.Metrics) *ImageCleaner {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &ImageCleaner{
		store:   store,
		queue:   make(chan string, queueSize),
		logger:  logger,
		metrics: metrics,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the drain goroutine.
func (c *ImageCleaner) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

// Schedule queues ref for removal without blocking. It reports false when the
// ref was dropped because the queue is full or the cleaner has stopped.
func (c *ImageCleaner) Schedule(ref string) bool {
	if ref == "" {
		return false
	}
	select {
	case <-c.stop:
		c.logger.Warn("image cleaner stopped; dropping removal", zap.String("image", ref))
		return false
	default:
	}
	select {
	case c.queue <- ref:
		return true
	default:
		c.logger.Warn("image cleanup queue full; dropping removal", zap.String("image", ref))
		return false
	}
}

// Stop drains what is already queued and waits for the worker, or gives up
// when ctx ends.
func (c *ImageCleaner) Stop(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stop) })
	c.Start()
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *ImageCleaner) run() {
	defer close(c.done)
	for {
		select {
		case ref := <-c.queue:
			c.remove(ref)
		case <-c.stop:
			for {
				select {
				case ref := <-c.queue:
					c.remove(ref)
				default:
					return
				}
			}
		}
	}
}

func (c *ImageCleaner) remove(ref string) {
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	err := c.store.Remove(ctx, ref)
	c.metrics.RecordImageCleanup(err)
	if err != nil {
		c.logger.Error("image cleanup failed", zap.String("image", ref), zap.Error(err))
		return
	}
	c.logger.Debug("image removed", zap.String("image", ref))
}
