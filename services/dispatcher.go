package services

import (
	"log"
	"sync"
)

type job struct {
	name string
	run  func() error
}

// Dispatcher runs fire-and-forget side effects (mostly email) off the
// request path. Job failures are logged and dropped; they are never visible
// to the request that scheduled them.
type Dispatcher struct {
	queue chan job
	wg    sync.WaitGroup
	once  sync.Once
}

var Jobs *Dispatcher

func InitializeDispatcher() *Dispatcher {
	Jobs = NewDispatcher(2, 64)
	return Jobs
}

func NewDispatcher(workers, depth int) *Dispatcher {
	d := &Dispatcher{queue: make(chan job, depth)}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		if err := j.run(); err != nil {
			log.Printf("%s: %v", j.name, err)
		}
	}
}

// Enqueue schedules fn without blocking. A full queue drops the job with a
// log line rather than stalling the caller.
func (d *Dispatcher) Enqueue(name string, fn func() error) {
	select {
	case d.queue <- job{name: name, run: fn}:
	default:
		log.Printf("%s: dropped, job queue full", name)
	}
}

// Stop drains outstanding jobs and waits for the workers to exit.
func (d *Dispatcher) Stop() {
	d.once.Do(func() { close(d.queue) })
	d.wg.Wait()
}
