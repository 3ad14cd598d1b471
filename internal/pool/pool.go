// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package pool provides frame-scoped object pools.
//
// Pool is an arena: cells are handed out with Get and reclaimed all at once
// with Done at a frame boundary. Callers must not retain a cell past Done
// unless they detach it. SparsePool is a free-list pool for objects with
// independent lifetimes.
//
// Neither pool is safe for concurrent use.
package pool

// DefaultMaxObjects is the initial soft capacity of a Pool.
const DefaultMaxObjects = 100

// Pool recycles *T cells between frames.
type Pool[T any] struct {
	builder func() *T
	objects []*T
	index   int

	maxObjects       int
	totalAllocations int
}

// New creates a pool that builds new cells with builder.
// If maxObjects <= 0, DefaultMaxObjects is used.
func New[T any](builder func() *T, maxObjects int) *Pool[T] {
	if builder == nil {
		builder = func() *T { return new(T) }
	}
	if maxObjects <= 0 {
		maxObjects = DefaultMaxObjects
	}
	return &Pool[T]{
		builder:    builder,
		objects:    make([]*T, 0, maxObjects),
		maxObjects: maxObjects,
	}
}

// Get returns the next free cell, building it on first use.
// The soft capacity doubles whenever the cursor reaches it.
func (p *Pool[T]) Get() *T {
	if p.index == p.maxObjects {
		p.maxObjects *= 2
		slogger().Debug("pool expanding", "max", p.maxObjects)
	}
	if p.index < len(p.objects) {
		obj := p.objects[p.index]
		p.index++
		return obj
	}
	p.totalAllocations++
	obj := p.builder()
	p.objects = append(p.objects, obj)
	p.index++
	return obj
}

// Done reclaims every cell handed out since the last Done.
//
// Objects passed to Done are detached: their slot is refilled with a fresh
// cell and the objects are returned to the caller, free of the pool.
func (p *Pool[T]) Done(detach ...*T) []*T {
	p.index = 0
	for _, obj := range detach {
		for i, cell := range p.objects {
			if cell == obj {
				p.objects[i] = p.builder()
				p.totalAllocations++
				break
			}
		}
	}
	return detach
}

// Borrow hands one cell to fn and takes it back when fn returns.
// fn must not retain the cell.
func (p *Pool[T]) Borrow(fn func(*T)) {
	obj := p.Get()
	fn(obj)
	p.index--
}

// Using runs fn against the pool and then calls Done with whatever fn
// returns, so the returned cells survive the reclaim.
func (p *Pool[T]) Using(fn func(*Pool[T]) []*T) []*T {
	return p.Done(fn(p)...)
}

// Index returns the number of cells currently handed out.
func (p *Pool[T]) Index() int { return p.index }

// MaxObjects returns the current soft capacity.
func (p *Pool[T]) MaxObjects() int { return p.maxObjects }

// TotalAllocations returns how many cells the builder has produced.
func (p *Pool[T]) TotalAllocations() int { return p.totalAllocations }
