// Package pool provides object pooling for parse-path allocations:
// token streams reused across parses, byte buffers for usage rendering,
// and scratch string slices for candidate collection.
package pool

import (
	"math/bits"
	"sync"
)

// Pool is a typed wrapper around sync.Pool with an optional reset hook.
// Reset runs when an object is returned, so pooled objects do not pin
// whatever they referenced while in use.
type Pool[T any] struct {
	inner sync.Pool
	reset func(*T)
}

// NewPool creates a pool that manufactures objects with factory.
func NewPool[T any](factory func() *T) *Pool[T] {
	p := &Pool[T]{}
	p.inner.New = func() any { return factory() }
	return p
}

// NewPoolWithReset creates a pool whose objects are reset on return.
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get returns a recycled object, or a fresh one when the pool is empty.
func (p *Pool[T]) Get() *T {
	return p.inner.Get().(*T)
}

// Put makes obj available for reuse. Retention is bounded by the
// runtime; sync.Pool sheds idle objects at GC.
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	if p.reset != nil {
		p.reset(obj)
	}
	p.inner.Put(obj)
}

// Byte buffers are pooled in power-of-two capacity classes from 64 to
// 4096 bytes. Requests outside that range fall through to plain make.
const (
	minShift   = 6
	maxShift   = 12
	classCount = maxShift - minShift + 1
)

// BufferPool hands out byte slices from capacity-class buckets.
type BufferPool struct {
	classes [classCount]*Pool[[]byte]
}

// NewBufferPool creates a buffer pool covering every capacity class.
func NewBufferPool() *BufferPool {
	bp := &BufferPool{}
	for i := range bp.classes {
		size := 1 << (minShift + i)
		bp.classes[i] = NewPoolWithReset(
			func() *[]byte {
				buf := make([]byte, 0, size)
				return &buf
			},
			func(buf *[]byte) {
				*buf = (*buf)[:0]
			},
		)
	}
	return bp
}

// Get returns an empty buffer with capacity of at least minCap.
func (bp *BufferPool) Get(minCap int) *[]byte {
	if idx := classFor(minCap); idx >= 0 {
		return bp.classes[idx].Get()
	}
	buf := make([]byte, 0, minCap)
	return &buf
}

// Put recycles buf into the largest class its backing array still
// satisfies. Buffers outside the pooled range are left to the GC.
func (bp *BufferPool) Put(buf *[]byte) {
	if buf == nil {
		return
	}
	c := cap(*buf)
	if c < 1<<minShift || c > 1<<maxShift {
		return
	}
	bp.classes[bits.Len(uint(c))-1-minShift].Put(buf)
}

// classFor maps a capacity request to its class index, or -1 when the
// request exceeds the largest class.
func classFor(minCap int) int {
	if minCap <= 1<<minShift {
		return 0
	}
	idx := bits.Len(uint(minCap-1)) - minShift
	if idx >= classCount {
		return -1
	}
	return idx
}

// StringSlicePool recycles scratch string slices. Returned slices are
// cleared so pooled scratch space does not keep strings alive.
type StringSlicePool struct {
	*Pool[[]string]
}

// NewStringSlicePool creates a pool of string slices with the given
// starting capacity.
func NewStringSlicePool(defaultCap int) *StringSlicePool {
	return &StringSlicePool{
		Pool: NewPoolWithReset(
			func() *[]string {
				s := make([]string, 0, defaultCap)
				return &s
			},
			func(s *[]string) {
				clear(*s)
				*s = (*s)[:0]
			},
		),
	}
}

// Shared pools for the render and log paths.
var (
	globalBuffers = NewBufferPool()
	globalScratch = NewStringSlicePool(32)
)

// GetBuffer returns an empty scratch buffer with capacity of at least
// minCap.
func GetBuffer(minCap int) *[]byte {
	return globalBuffers.Get(minCap)
}

// PutBuffer recycles a buffer obtained from GetBuffer.
func PutBuffer(buf *[]byte) {
	globalBuffers.Put(buf)
}

// GetStringSlice returns an empty scratch string slice.
func GetStringSlice() *[]string {
	return globalScratch.Get()
}

// PutStringSlice recycles a slice obtained from GetStringSlice.
func PutStringSlice(s *[]string) {
	globalScratch.Put(s)
}
