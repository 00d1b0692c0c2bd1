package scheduler

import (
	"sync"
)

// GroupRegistry tracks the active execution run per concurrency group.
// At most one run holds a group at a time; a newer run for the same group
// supersedes the holder by requesting cancellation and waiting for its
// in-flight jobs to reach terminal states. Scoped and injectable, so the
// single-flighting discipline never lives in ambient global state.
type GroupRegistry struct {
	mu     sync.Mutex
	active map[string]*activeRun
}

type activeRun struct {
	cancel func()
	done   chan struct{}
}

// NewGroupRegistry creates an empty registry.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{active: make(map[string]*activeRun)}
}

// Claim takes the group lock for a new run, superseding any current holder.
// It signals cancellation to the holder's jobs, blocks until the holder
// releases (all its jobs terminal), then installs the new run. The returned
// release function must be called when the claiming run is sealed.
func (r *GroupRegistry) Claim(group string, cancel func()) (release func()) {
	for {
		r.mu.Lock()
		prior, held := r.active[group]
		if !held {
			run := &activeRun{cancel: cancel, done: make(chan struct{})}
			r.active[group] = run
			r.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					r.mu.Lock()
					if r.active[group] == run {
						delete(r.active, group)
					}
					r.mu.Unlock()
					close(run.done)
				})
			}
		}
		r.mu.Unlock()

		// Cooperative supersession: ask the holder to stop, then wait
		// for it to finish cleanly before claiming.
		prior.cancel()
		<-prior.done
	}
}

// Active reports whether a run currently holds the group.
func (r *GroupRegistry) Active(group string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.active[group]
	return held
}
