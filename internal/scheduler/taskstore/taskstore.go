// Package taskstore is the indexed collection of ScheduledTasks described
// in spec §4.1: insertion rejects id collisions, mutation and removal are
// query-driven and atomic, and reads never observe a partially-applied
// mutation. It implements types.Store.
package taskstore

import (
	"fmt"
	"sync"

	"github.com/gammadia/jobcore/internal/scheduler/types"
)

// Store holds every ScheduledTask known to the scheduler. All operations
// are serialized by a single RWMutex: readers (Fetch, GetById) take the
// read lock, writers (Add, Mutate, Remove) take the write lock. This gives
// SchedulerCore's callers (in particular the reconciliation engine and the
// CLI's `top` dashboard) a consistent snapshot without needing to enter the
// scheduler's single-writer loop for a pure read (§9.5).
type Store struct {
	mu sync.RWMutex

	byId     map[int64]*types.ScheduledTask
	byJob    map[types.JobKey]map[int64]struct{}
	byStatus map[types.Status]map[int64]struct{}
}

var _ types.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		byId:     make(map[int64]*types.ScheduledTask),
		byJob:    make(map[types.JobKey]map[int64]struct{}),
		byStatus: make(map[types.Status]map[int64]struct{}),
	}
}

// Add inserts new tasks. It rejects the entire batch if any id already
// exists in the store (§4.1: "rejects id collisions").
func (s *Store) Add(tasks []*types.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tasks {
		if _, exists := s.byId[t.Id]; exists {
			return fmt.Errorf("taskstore: task id %d already exists", t.Id)
		}
	}
	for _, t := range tasks {
		s.insertLocked(t)
	}
	return nil
}

func (s *Store) insertLocked(t *types.ScheduledTask) {
	s.byId[t.Id] = t
	s.indexLocked(t)
}

func (s *Store) indexLocked(t *types.ScheduledTask) {
	if s.byJob[t.JobKey] == nil {
		s.byJob[t.JobKey] = make(map[int64]struct{})
	}
	s.byJob[t.JobKey][t.Id] = struct{}{}

	if s.byStatus[t.Status] == nil {
		s.byStatus[t.Status] = make(map[int64]struct{})
	}
	s.byStatus[t.Status][t.Id] = struct{}{}
}

func (s *Store) unindexLocked(t *types.ScheduledTask) {
	delete(s.byJob[t.JobKey], t.Id)
	if len(s.byJob[t.JobKey]) == 0 {
		delete(s.byJob, t.JobKey)
	}
	delete(s.byStatus[t.Status], t.Id)
	if len(s.byStatus[t.Status]) == 0 {
		delete(s.byStatus, t.Status)
	}
}

// candidateIdsLocked narrows the id set to scan using whichever index the
// query can exploit, falling back to a full scan. The final membership
// check is always Query.Matches, so this is purely an optimization: it
// must never be allowed to under-select.
func (s *Store) candidateIdsLocked(q types.Query) map[int64]struct{} {
	if q.JobKey != nil {
		return s.byJob[*q.JobKey]
	}
	if len(q.Statuses) == 1 {
		for status := range q.Statuses {
			return s.byStatus[status]
		}
	}
	all := make(map[int64]struct{}, len(s.byId))
	for id := range s.byId {
		all[id] = struct{}{}
	}
	return all
}

// Fetch returns a snapshot of every task matching q, in ascending id order.
func (s *Store) Fetch(q types.Query) []*types.ScheduledTask {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchLocked(q)
}

func (s *Store) fetchLocked(q types.Query) []*types.ScheduledTask {
	candidates := s.candidateIdsLocked(q)
	result := make([]*types.ScheduledTask, 0, len(candidates))
	for id := range candidates {
		t := s.byId[id]
		if t != nil && q.Matches(t) {
			result = append(result, t)
		}
	}
	sortById(result)
	return result
}

// GetById returns the task with the given id, or false if it does not exist.
func (s *Store) GetById(id int64) (*types.ScheduledTask, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.byId[id]
	return t, ok
}

// Mutate finds every task matching q and replaces it with mutate(task). A
// nil return from mutate leaves that task unmodified. Mutate returns the
// post-mutation values of every task that was matched (whether or not
// mutate changed it), matching §4.1's "applies a mutation; returns the
// updated set."
func (s *Store) Mutate(q types.Query, mutate func(*types.ScheduledTask) *types.ScheduledTask) []*types.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.fetchLocked(q)
	result := make([]*types.ScheduledTask, len(matched))
	for i, old := range matched {
		updated := mutate(old)
		if updated == nil {
			result[i] = old
			continue
		}
		s.unindexLocked(old)
		s.byId[updated.Id] = updated
		s.indexLocked(updated)
		result[i] = updated
	}
	return result
}

// Remove deletes every task matching q and returns the removed values.
func (s *Store) Remove(q types.Query) []*types.ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.fetchLocked(q)
	for _, t := range matched {
		s.unindexLocked(t)
		delete(s.byId, t.Id)
	}
	return matched
}

func sortById(tasks []*types.ScheduledTask) {
	// insertion sort: task batches are small (per-job, per-status) and this
	// keeps the package dependency-free of sort's interface boilerplate.
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j-1].Id > tasks[j].Id; j-- {
			tasks[j-1], tasks[j] = tasks[j], tasks[j-1]
		}
	}
}
