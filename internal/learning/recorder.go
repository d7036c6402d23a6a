package learning

import (
	"log"
	"sync"
	"time"

	"github.com/khanglvm/voice-hub/internal/storage"
)

const (
	// eventQueueSize is the buffer for pending writes. When full, events
	// are dropped rather than blocking dispatch.
	eventQueueSize = 1000

	// batchFlushSize triggers an immediate flush.
	batchFlushSize = 10

	// flushInterval is how often pending events are flushed regardless of
	// batch size.
	flushInterval = 50 * time.Millisecond
)

// event is one pending persistence write: a usage increment, a learned
// preference, or a clear.
type event struct {
	usage      *storage.UsageEvent
	prefPhrase string
	prefCmd    string
	clear      bool
}

// recorder write-through persists learning events in the background so
// dispatch never waits on the database.
type recorder struct {
	store    storage.Store
	events   chan event
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func newRecorder(store storage.Store) *recorder {
	r := &recorder{
		store:    store,
		events:   make(chan event, eventQueueSize),
		stopChan: make(chan struct{}),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

func (r *recorder) recordUsage(e storage.UsageEvent) {
	r.enqueue(event{usage: &e})
}

func (r *recorder) recordPreference(phrase, commandID string) {
	r.enqueue(event{prefPhrase: phrase, prefCmd: commandID})
}

func (r *recorder) clear() {
	r.enqueue(event{clear: true})
}

func (r *recorder) enqueue(e event) {
	select {
	case r.events <- e:
	default:
		log.Printf("Warning: learning queue full, dropping event")
	}
}

// stop flushes remaining events and shuts the recorder down.
func (r *recorder) stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
	})
}

// run batches and flushes events until stopped.
func (r *recorder) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	batch := make([]event, 0, batchFlushSize)

	for {
		select {
		case e := <-r.events:
			batch = append(batch, e)
			if len(batch) >= batchFlushSize {
				r.flush(batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}

		case <-r.stopChan:
			// Drain whatever is still queued, then exit.
			for {
				select {
				case e := <-r.events:
					batch = append(batch, e)
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

func (r *recorder) flush(batch []event) {
	for _, e := range batch {
		switch {
		case e.clear:
			if err := r.store.Clear(); err != nil {
				log.Printf("Warning: failed to clear learning storage: %v", err)
			}
		case e.usage != nil:
			if err := r.store.RecordUsage(*e.usage); err != nil {
				log.Printf("Warning: failed to persist usage: %v", err)
			}
		default:
			if err := r.store.SavePreference(e.prefPhrase, e.prefCmd); err != nil {
				log.Printf("Warning: failed to persist preference: %v", err)
			}
		}
	}
}
