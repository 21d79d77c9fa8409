package events

import (
	"fmt"
	"sync"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

// Dispatcher fans events out to every registered handler. A failing or
// panicking handler is logged and does not affect the others.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[uint64]Handler
	nextID   uint64
	logger   logger.Logger
}

func NewDispatcher(logger logger.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[uint64]Handler),
		logger:   logger,
	}
}

// Subscribe registers h and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (d *Dispatcher) Subscribe(h Handler) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.handlers[id] = h
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.handlers, id)
			d.mu.Unlock()
		})
	}
}

// Dispatch delivers e to a snapshot of the current handlers and returns
// once all of them have run.
func (d *Dispatcher) Dispatch(e Event) {
	d.mu.RLock()
	handlers := make([]Handler, 0, len(d.handlers))
	for _, h := range d.handlers {
		handlers = append(handlers, h)
	}
	d.mu.RUnlock()

	d.logger.Debug("event_dispatched", string(e.Type), "", map[string]interface{}{
		"order_id":    e.OrderID,
		"subscribers": len(handlers),
	})

	for _, h := range handlers {
		if err := d.deliver(h, e); err != nil {
			d.logger.Error("event_handler_failed", "Event handler failed", "", map[string]interface{}{
				"event":    string(e.Type),
				"order_id": e.OrderID,
			}, err)
		}
	}
}

func (d *Dispatcher) deliver(h Handler, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", domain.ErrHandler, r)
		}
	}()
	if err := h(e); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrHandler, err)
	}
	return nil
}

func (d *Dispatcher) SubscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}
