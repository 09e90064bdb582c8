// go-twinnet - Peer-to-peer twincode pairing network
// Copyright (c) 2026 The go-twinnet Authors. All rights reserved.

package twinnet

import (
	"sync"

	"github.com/google/uuid"
)

// dispatcher serializes all processing targeting the same inbound twincode.
// Invocations and connection offers for one twincode run strictly in arrival
// order on a single lazily spawned worker, while unrelated twincodes proceed
// independently. This is what makes a queued pair::bind visible to a data
// admission decision enqueued right behind it.
type dispatcher struct {
	queues map[uuid.UUID][]func() // Pending tasks per inbound twincode
	busy   map[uuid.UUID]bool     // Whether a worker is draining the twincode

	wg   sync.WaitGroup // Tracks outstanding tasks for teardown
	lock sync.Mutex
}

// newDispatcher creates an idle task dispatcher.
func newDispatcher() *dispatcher {
	return &dispatcher{
		queues: make(map[uuid.UUID][]func()),
		busy:   make(map[uuid.UUID]bool),
	}
}

// enqueue appends a task to a twincode's serial queue, spawning a worker for
// it if none is draining the queue already.
func (d *dispatcher) enqueue(id uuid.UUID, task func()) {
	d.lock.Lock()
	defer d.lock.Unlock()

	d.wg.Add(1)
	d.queues[id] = append(d.queues[id], task)
	if !d.busy[id] {
		d.busy[id] = true
		go d.drain(id)
	}
}

// drain runs a twincode's pending tasks in order until the queue empties,
// then retires the worker.
func (d *dispatcher) drain(id uuid.UUID) {
	for {
		d.lock.Lock()
		queue := d.queues[id]
		if len(queue) == 0 {
			d.busy[id] = false
			delete(d.queues, id)
			d.lock.Unlock()
			return
		}
		task := queue[0]
		d.queues[id] = queue[1:]
		d.lock.Unlock()

		task()
		d.wg.Done()
	}
}

// wait blocks until every task enqueued so far has finished processing.
func (d *dispatcher) wait() {
	d.wg.Wait()
}
