package record

import (
	"context"
	"log"
	"sync"
	"time"
)

// Saver is the persistence half of the store, abstracted for tests.
type Saver interface {
	Save(ctx context.Context, r *Record) error
}

// Dispatcher saves records fire-and-forget: the caller's popup closes
// immediately while the write happens in the background, with the outcome
// logged rather than surfaced.
type Dispatcher struct {
	saver   Saver
	logger  *log.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher wraps a saver. A nil logger discards outcomes.
func NewDispatcher(saver Saver, logger *log.Logger) *Dispatcher {
	return &Dispatcher{saver: saver, logger: logger, timeout: 10 * time.Second}
}

// Dispatch queues a save and returns immediately.
func (d *Dispatcher) Dispatch(r *Record) {
	r.Finalize()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.saver.Save(ctx, r); err != nil {
			if d.logger != nil {
				d.logger.Printf("record save failed for %s: %v", r.ID, err)
			}
			return
		}
		if d.logger != nil {
			d.logger.Printf("record saved: %s (%s)", r.ID, r.Type)
		}
	}()
}

// Wait blocks until all queued saves finish. Called on shutdown so a save
// racing program exit is not dropped.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
