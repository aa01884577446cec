package notify

import (
	"context"
	"log/slog"
	"time"
)

// Dispatcher drains enqueued messages on a background goroutine. Enqueue
// never blocks the caller; a full queue drops the message and logs it.
type Dispatcher struct {
	mailer Mailer
	logger *slog.Logger

	queue  chan Message
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue capacity.
// If capacity is 0 or negative, defaults to 128.
func NewDispatcher(mailer Mailer, logger *slog.Logger, capacity int) *Dispatcher {
	if capacity <= 0 {
		capacity = 128
	}
	return &Dispatcher{
		mailer: mailer,
		logger: logger,
		queue:  make(chan Message, capacity),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (d *Dispatcher) Start() {
	go d.run()
	d.logger.Info("notify dispatcher started", "capacity", cap(d.queue))
}

// Stop drains remaining queued messages, then shuts the worker down.
// Blocks until any in-flight send has finished.
func (d *Dispatcher) Stop() {
	close(d.stopCh)
	<-d.doneCh
	d.logger.Info("notify dispatcher stopped")
}

// Enqueue queues a message for delivery. Only call after the surrounding
// transaction has committed.
func (d *Dispatcher) Enqueue(msg Message) {
	select {
	case d.queue <- msg:
	default:
		d.logger.Error("notify queue full, dropping message",
			"kind", msg.Kind, "to", msg.To)
	}
}

func (d *Dispatcher) run() {
	defer close(d.doneCh)

	for {
		select {
		case msg := <-d.queue:
			d.deliver(msg)
		case <-d.stopCh:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case msg := <-d.queue:
					d.deliver(msg)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := d.mailer.Send(ctx, msg); err != nil {
		d.logger.Error("mail delivery failed",
			"kind", msg.Kind, "to", msg.To, "err", err)
		return
	}
	d.logger.Debug("mail delivered", "kind", msg.Kind, "to", msg.To)
}
