package interp

import (
	"log/slog"

	"github.com/edwingeng/deque"
)

// envID indexes an environment in the arena.
type envID int

const noParent envID = -1

type env struct {
	vars     map[string]Value
	parent   envID
	captured bool // a function closes over it; never released
}

// arena owns every environment of one interpreter. Released environments go
// on a free list and are reused by later calls.
type arena struct {
	envs   []env
	free   deque.Deque // of envID
	logger *slog.Logger
}

func newArena(logger *slog.Logger) *arena {
	return &arena{free: deque.NewDeque(), logger: logger}
}

func (a *arena) alloc(parent envID) envID {
	if !a.free.Empty() {
		id := a.free.PopFront().(envID)
		a.envs[id].parent = parent
		return id
	}
	a.envs = append(a.envs, env{vars: make(map[string]Value), parent: parent})
	id := envID(len(a.envs) - 1)
	a.logger.Debug("allocate environment", slog.Int("env", int(id)), slog.Int("arena-size", len(a.envs)))
	return id
}

// release returns id to the free list unless a closure still refers to it.
func (a *arena) release(id envID) {
	e := &a.envs[id]
	if e.captured {
		return
	}
	clear(e.vars)
	e.parent = noParent
	a.free.PushBack(id)
}

// capture pins id and its ancestors for the lifetime of the arena.
func (a *arena) capture(id envID) {
	for id != noParent && !a.envs[id].captured {
		a.envs[id].captured = true
		id = a.envs[id].parent
	}
}

// lookup searches id and then its ancestors.
func (a *arena) lookup(id envID, name string) (Value, bool) {
	for id != noParent {
		if v, ok := a.envs[id].vars[name]; ok {
			return v, true
		}
		id = a.envs[id].parent
	}
	return nil, false
}

func (a *arena) define(id envID, name string, v Value) {
	a.envs[id].vars[name] = v
}

// assign replaces an existing binding in id only; parents are not searched.
func (a *arena) assign(id envID, name string, v Value) bool {
	vars := a.envs[id].vars
	if _, ok := vars[name]; !ok {
		return false
	}
	vars[name] = v
	return true
}

// live returns the number of environments not on the free list.
func (a *arena) live() int {
	return len(a.envs) - a.free.Len()
}
