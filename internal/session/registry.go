// Package session keeps track of live stream sessions by opaque identifier.
//
// A Registry maps ids to session values. The map itself is guarded by one
// mutex that is only held for lookups, inserts and deletes; every entry has
// its own mutex that is held while a caller works on that entry. Work on one
// session is therefore totally ordered, while different sessions never wait
// on each other's I/O.
package session

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Error definitions
var (
	// ErrNotFound is returned for ids that were never issued or have been removed.
	ErrNotFound = errors.New("session not found")
	// ErrDuplicateID is returned when inserting under an id that is already live.
	ErrDuplicateID = errors.New("session id already registered")
)

type entry[T any] struct {
	mu   sync.Mutex
	val  T
	dead bool
}

// Registry is a concurrency-safe map from session id to session value.
type Registry[T any] struct {
	prefix string

	mu      sync.Mutex
	entries map[string]*entry[T]

	idMu   sync.Mutex
	lastID uint64
}

// NewRegistry creates an empty registry whose ids look like "<prefix>-<n>".
func NewRegistry[T any](prefix string) *Registry[T] {
	return &Registry[T]{
		prefix:  prefix,
		entries: make(map[string]*entry[T]),
	}
}

// Allocate returns a fresh id. Ids are never reused within a process.
func (r *Registry[T]) Allocate() string {
	r.idMu.Lock()
	r.lastID++
	n := r.lastID
	r.idMu.Unlock()
	return r.prefix + "-" + strconv.FormatUint(n, 10)
}

// Insert registers v under id.
func (r *Registry[T]) Insert(id string, v T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	r.entries[id] = &entry[T]{val: v}
	return nil
}

// With runs fn on the session registered under id while holding that
// session's lock. It returns ErrNotFound if id is unknown or is removed
// before fn gets to run.
func (r *Registry[T]) With(id string, fn func(T) error) error {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.dead {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fn(e.val)
}

// Apply is With for callbacks that produce a value.
func Apply[T, R any](r *Registry[T], id string, fn func(T) (R, error)) (R, error) {
	var result R
	err := r.With(id, func(v T) error {
		var err error
		result, err = fn(v)
		return err
	})
	return result, err
}

// Remove unregisters id and hands its session to the caller. It waits for
// any call already running on the session to finish, and afterwards no
// further call can reach it. The second return value is false if id was not
// registered.
func (r *Registry[T]) Remove(id string) (T, bool) {
	r.mu.Lock()
	e, ok := r.entries[id]
	if ok {
		delete(r.entries, id)
	}
	r.mu.Unlock()

	if !ok {
		var zero T
		return zero, false
	}
	return e.retire(), true
}

// Len returns the number of live sessions.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Drain removes every session and returns them ordered by id.
func (r *Registry[T]) Drain() []T {
	r.mu.Lock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	drained := make([]*entry[T], 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })
	for _, id := range ids {
		drained = append(drained, r.entries[id])
		delete(r.entries, id)
	}
	r.mu.Unlock()

	values := make([]T, 0, len(drained))
	for _, e := range drained {
		values = append(values, e.retire())
	}
	return values
}

func (e *entry[T]) retire() T {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dead = true
	return e.val
}

// lessID orders "<prefix>-<n>" ids numerically by n.
func lessID(a, b string) bool {
	na, errA := strconv.ParseUint(a[strings.LastIndexByte(a, '-')+1:], 10, 64)
	nb, errB := strconv.ParseUint(b[strings.LastIndexByte(b, '-')+1:], 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return na < nb
}
