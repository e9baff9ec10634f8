package relation

import (
	"fmt"
	"time"

	"github.com/faciam-dev/gcrb/pkg/metrics"
)

// path identifies one observable slot of session state. Rules declare the
// paths they read; setters and rule bodies mark the paths they write.
type path string

const (
	pathFieldName path = "field.field"
	pathFieldType path = "field.type"
	pathAutoFill  path = "auto_fill"
)

func relPath(i int, leaf string) path {
	return path(fmt.Sprintf("relations.%d.%s", i, leaf))
}

// rule is one recompute step. Rules registered by a strategy run in
// registration order, which doubles as the topological order of the
// dependency graph. Debounced rules are the ones that probe the catalog.
type rule struct {
	name      string
	deps      []path
	debounced bool
	// creationOnly rules (auto-naming, proposal/seed derivation) are skipped
	// entirely when editing an already-stored field.
	creationOnly bool
	run          func(*Session)
}

func (r *rule) dependsOn(dirty map[path]struct{}) bool {
	for _, d := range r.deps {
		if _, ok := dirty[d]; ok {
			return true
		}
	}
	return false
}

// maxPasses bounds a recompute cascade. The rule graph is a small DAG, so
// anything beyond a handful of passes indicates a feedback loop.
const maxPasses = 10

// touch marks a state path as changed since the last recompute pass.
func (s *Session) touch(p path) {
	s.dirty[p] = struct{}{}
}

// recompute drains the dirty set, running affected rules in order.
// Debounced rules are scheduled instead of run; rule bodies may touch
// further paths, which are handled in subsequent passes. Callers hold s.mu.
func (s *Session) recompute() {
	for pass := 0; pass < maxPasses && len(s.dirty) > 0; pass++ {
		metrics.RecomputePasses.WithLabelValues(string(s.category)).Inc()
		dirty := s.dirty
		s.dirty = map[path]struct{}{}
		for i := range s.rules {
			r := &s.rules[i]
			if !r.dependsOn(dirty) {
				continue
			}
			if r.debounced && s.opts.Debounce != DebounceDisabled {
				s.schedule(r)
				continue
			}
			s.runRule(r)
		}
	}
	if len(s.dirty) > 0 {
		s.log.Warn("recompute did not settle", "category", s.category, "pending", len(s.dirty))
		s.dirty = map[path]struct{}{}
	}
}

func (s *Session) runRule(r *rule) {
	metrics.RuleRuns.WithLabelValues(r.name).Inc()
	s.log.Debug("run rule", "rule", r.name)
	r.run(s)
}

// schedule arms (or re-arms) the debounce timer for r. Bursts of triggers
// inside the window collapse into a single run.
func (s *Session) schedule(r *rule) {
	if _, ok := s.pendingRules[r.name]; ok {
		metrics.DebounceCoalesced.Inc()
	}
	s.pendingRules[r.name] = struct{}{}
	if t, ok := s.timers[r.name]; ok {
		t.Reset(s.opts.Debounce)
		return
	}
	name := r.name
	s.timers[name] = time.AfterFunc(s.opts.Debounce, func() {
		s.fire(name)
	})
}

// fire runs a debounced rule when its timer elapses. A session closed (or
// flushed) in the meantime makes this a no-op.
func (s *Session) fire(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, ok := s.pendingRules[name]; !ok {
		return
	}
	delete(s.pendingRules, name)
	for i := range s.rules {
		if s.rules[i].name == name {
			s.runRule(&s.rules[i])
			break
		}
	}
	s.recompute()
	s.flushLocked()
}

// Flush runs every pending debounced rule immediately. One-shot callers and
// tests use it to observe a settled state without waiting out the window.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.flushLocked()
}

func (s *Session) flushLocked() {
	for pass := 0; pass < maxPasses && len(s.pendingRules) > 0; pass++ {
		for i := range s.rules {
			r := &s.rules[i]
			if _, ok := s.pendingRules[r.name]; !ok {
				continue
			}
			delete(s.pendingRules, r.name)
			if t, ok := s.timers[r.name]; ok {
				t.Stop()
				delete(s.timers, r.name)
			}
			s.runRule(r)
			s.recompute()
		}
	}
}

// stopTimers cancels all pending debounced work. Callers hold s.mu.
func (s *Session) stopTimers() {
	for name, t := range s.timers {
		t.Stop()
		delete(s.timers, name)
	}
	s.pendingRules = map[string]struct{}{}
}
