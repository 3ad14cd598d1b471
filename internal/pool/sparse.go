// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package pool

// SparsePool hands out objects individually and takes them back through a
// free list. Unlike Pool, objects are returned one at a time.
type SparsePool[T any] struct {
	builder func() *T
	objects []*T
	free    []int
	index   map[*T]int
}

// NewSparse creates a sparse pool backed by builder.
func NewSparse[T any](builder func() *T) *SparsePool[T] {
	if builder == nil {
		builder = func() *T { return new(T) }
	}
	return &SparsePool[T]{
		builder: builder,
		index:   make(map[*T]int),
	}
}

// Get returns a free object, building a new one when the free list is empty.
func (p *SparsePool[T]) Get() *T {
	if n := len(p.free); n > 0 {
		id := p.free[n-1]
		p.free = p.free[:n-1]
		return p.objects[id]
	}
	obj := p.builder()
	p.index[obj] = len(p.objects)
	p.objects = append(p.objects, obj)
	return obj
}

// Return puts obj back on the free list. Objects that did not come from
// this pool, or are already free, are ignored.
func (p *SparsePool[T]) Return(obj *T) {
	id, ok := p.index[obj]
	if !ok {
		return
	}
	for _, f := range p.free {
		if f == id {
			return
		}
	}
	p.free = append(p.free, id)
}

// Len returns the number of objects the pool has built.
func (p *SparsePool[T]) Len() int { return len(p.objects) }

// Free returns the number of objects waiting on the free list.
func (p *SparsePool[T]) Free() int { return len(p.free) }
