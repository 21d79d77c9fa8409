package events

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/YelzhanWeb/kitchen-display/internal/adapter/logger"
	"github.com/YelzhanWeb/kitchen-display/internal/domain"
)

func sampleEvent() Event {
	return Canceled(domain.Order{ID: "o-1", Status: domain.StatusCanceled}, time.Unix(0, 0))
}

func TestDispatchIsolatesFailingHandlers(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	var got []string
	d.Subscribe(func(e Event) error { got = append(got, "first"); return nil })
	d.Subscribe(func(e Event) error { return errors.New("second failed") })
	d.Subscribe(func(e Event) error { got = append(got, "third"); return nil })

	d.Dispatch(sampleEvent())

	if len(got) != 2 {
		t.Fatalf("delivered to %v, want first and third", got)
	}
}

func TestDispatchRecoversPanics(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	delivered := 0
	d.Subscribe(func(e Event) error { delivered++; return nil })
	d.Subscribe(func(e Event) error { panic("kaboom") })
	d.Subscribe(func(e Event) error { delivered++; return nil })

	d.Dispatch(sampleEvent())

	if delivered != 2 {
		t.Fatalf("delivered = %d, want 2", delivered)
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	calls := 0
	unsubA := d.Subscribe(func(e Event) error { calls++; return nil })
	d.Subscribe(func(e Event) error { return nil })

	unsubA()
	unsubA()

	if n := d.SubscriberCount(); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	d.Dispatch(sampleEvent())
	if calls != 0 {
		t.Fatalf("removed handler still called %d times", calls)
	}
}

func TestDispatchConcurrentSubscribe(t *testing.T) {
	d := NewDispatcher(logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unsub := d.Subscribe(func(e Event) error { return nil })
			unsub()
		}()
		go func() {
			defer wg.Done()
			d.Dispatch(sampleEvent())
		}()
	}
	wg.Wait()

	if n := d.SubscriberCount(); n != 0 {
		t.Fatalf("subscribers = %d, want 0", n)
	}
}

func TestStatusChangedCarriesBothStatuses(t *testing.T) {
	e := StatusChanged(domain.Order{ID: "o-1", Status: domain.StatusReady}, domain.StatusInProgress, time.Unix(0, 0))
	if e.PreviousStatus != domain.StatusInProgress || e.NewStatus != domain.StatusReady {
		t.Fatalf("event = %+v", e)
	}
}
