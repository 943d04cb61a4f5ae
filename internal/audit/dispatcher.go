package audit

import (
	"sync"

	"go.uber.org/zap"
)

const queueSize = 100

type Event struct {
	UserID   *uint
	Action   string
	Entity   string
	EntityID *uint
	Metadata any
}

type Dispatcher struct {
	store *Store
	log   *zap.Logger
	queue chan Event

	closeOnce sync.Once
	done      chan struct{}
}

// NewDispatcher sobe o worker que grava os eventos em ordem de chegada.
func NewDispatcher(store *Store, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}

	d := &Dispatcher{
		store: store,
		log:   log,
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}

	go d.worker()
	return d
}

func (d *Dispatcher) worker() {
	defer close(d.done)

	for ev := range d.queue {
		if err := d.store.Write(ev); err != nil {
			d.log.Error("audit write failed",
				zap.String("action", ev.Action),
				zap.String("entity", ev.Entity),
				zap.Error(err),
			)
		}
	}
}

// Dispatch nunca bloqueia a requisição: fila cheia descarta o evento.
// Não chamar depois de Close.
func (d *Dispatcher) Dispatch(ev Event) {
	if d == nil {
		return
	}

	select {
	case d.queue <- ev:
	default:
		d.log.Warn("audit queue full, dropping event",
			zap.String("action", ev.Action),
			zap.String("entity", ev.Entity),
		)
	}
}

// Close drena a fila e espera o worker terminar.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	<-d.done
}
