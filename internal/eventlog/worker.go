package eventlog

import (
	"context"
	"log/slog"
	"sync"
)

// Worker drains a buffered event channel into a Sink on its own goroutine.
// Log never blocks: when the buffer is full the event is dropped with a
// warning rather than stalling a request.
type Worker struct {
	eventCh chan Event
	sink    Sink
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWorker creates a worker writing to sink with the given buffer size.
func NewWorker(sink Sink, bufferSize int) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan Event, bufferSize),
		sink:    sink,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the drain goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				slog.Info("draining audit events before shutdown", "remaining", len(w.eventCh))
				for len(w.eventCh) > 0 {
					event := <-w.eventCh
					if err := w.sink.WriteEvent(context.Background(), event); err != nil {
						slog.Error("failed to write audit event during shutdown", "error", err, "type", event.Type)
					}
				}
				return
			case event := <-w.eventCh:
				if err := w.sink.WriteEvent(w.ctx, event); err != nil {
					slog.Error("failed to write audit event", "error", err, "type", event.Type)
				}
			}
		}
	}()
}

// Log enqueues an event without blocking.
func (w *Worker) Log(event Event) {
	select {
	case w.eventCh <- event:
	default:
		slog.Warn("audit event buffer full, dropping event", "type", event.Type)
	}
}

// Shutdown stops the worker after draining buffered events.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
	close(w.eventCh)
}
