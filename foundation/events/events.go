// Package events fans out ledger events to registered receivers such as
// websocket connections.
package events

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownReceiver is returned when releasing an id that was never
// acquired or was already released.
var ErrUnknownReceiver = errors.New("unknown receiver")

// messageBuffer is the number of events a receiver can fall behind before
// events are dropped for it. A websocket write can take a while.
const messageBuffer = 100

// Events maintains a mapping of unique id and channels so goroutines
// can register and receive events.
type Events struct {
	mu        sync.RWMutex
	receivers map[string]chan string
}

// New constructs an events value for registering and receiving events.
func New() *Events {
	return &Events{
		receivers: make(map[string]chan string),
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive events. Acquiring the same id twice returns the same channel.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.receivers[id]; exists {
		return ch
	}

	ch := make(chan string, messageBuffer)
	evt.receivers[id] = ch

	return ch
}

// Release closes and removes the channel that was provided by
// the call to Acquire.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.receivers[id]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownReceiver, id)
	}

	delete(evt.receivers, id)
	close(ch)

	return nil
}

// Send delivers the event to every registered receiver. Send never blocks;
// a receiver with a full buffer misses the event.
func (evt *Events) Send(s string) int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	var sent int
	for _, ch := range evt.receivers {
		select {
		case ch <- s:
			sent++
		default:
		}
	}

	return sent
}

// Count returns the number of registered receivers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.receivers)
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.receivers {
		delete(evt.receivers, id)
		close(ch)
	}
}
