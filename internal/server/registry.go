package server

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hanbinChen97/find-the-company/internal/model"
)

// registry holds every run started through the API, live or finished.
type registry struct {
	mu   sync.Mutex
	runs map[string]*run
}

func newRegistry() *registry {
	return &registry{runs: make(map[string]*run)}
}

func (r *registry) create() *run {
	ctx, cancel := context.WithCancel(context.Background())
	rn := &run{
		id:     uuid.New().String(),
		ctx:    ctx,
		cancel: cancel,
		subs:   make(map[chan model.Snapshot]struct{}),
		snapshot: model.Snapshot{
			Progress: model.ProgressState{Phase: model.PhaseValidating},
		},
	}
	r.mu.Lock()
	r.runs[rn.id] = rn
	r.mu.Unlock()
	return rn
}

func (r *registry) get(id string) (*run, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rn, ok := r.runs[id]
	return rn, ok
}

// run mirrors one scheduler batch: the latest snapshot plus the fan-out to
// SSE subscribers. The scheduler stays the only writer of run state; this
// type just relays it.
type run struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	snapshot model.Snapshot
	done     bool
	subs     map[chan model.Snapshot]struct{}
}

// consume drains the scheduler's snapshot stream, keeping the latest state
// and relaying each snapshot to subscribers. Runs until the stream closes.
func (r *run) consume(snapshots <-chan model.Snapshot) {
	for snap := range snapshots {
		r.mu.Lock()
		r.snapshot = snap
		for sub := range r.subs {
			// Drop over a slow subscriber rather than stall the relay;
			// the next snapshot supersedes this one anyway.
			select {
			case sub <- snap:
			default:
			}
		}
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.done = true
	for sub := range r.subs {
		close(sub)
	}
	r.subs = make(map[chan model.Snapshot]struct{})
	r.mu.Unlock()
	r.cancel()
}

// latest returns the most recent snapshot.
func (r *run) latest() model.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot
}

// subscribe registers an SSE observer. The returned snapshot is the state
// at subscription time; when done is true the run already finished and no
// further snapshots will arrive.
func (r *run) subscribe() (snap model.Snapshot, done bool, sub chan model.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return r.snapshot, true, nil
	}
	sub = make(chan model.Snapshot, 16)
	r.subs[sub] = struct{}{}
	return r.snapshot, false, sub
}

func (r *run) unsubscribe(sub chan model.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[sub]; ok {
		delete(r.subs, sub)
	}
}
