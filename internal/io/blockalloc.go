package io

import "sync"

// BlockAllocator hands out and reclaims fixed-size frame buffers for the
// protocol engine's receive path. Alloc returning nil means "out of
// memory right now", which the engine maps onto an EBUSY wire response
// rather than ever blocking.
type BlockAllocator interface {
	Alloc() []byte
	Free(buf []byte)
	BlockSize() int
}

// heapAllocator is a sync.Pool-backed fixed-block allocator: the default,
// generalised from a package-level global into a constructor-scoped type
// so a program can run with zero package-level state if it wants to.
type heapAllocator struct {
	size int
	pool sync.Pool
}

// NewHeapAllocator builds a BlockAllocator that serves buffers of
// blockSize bytes from a process-local pool.
func NewHeapAllocator(blockSize int) BlockAllocator {
	a := &heapAllocator{size: blockSize}
	a.pool.New = func() any {
		return make([]byte, blockSize)
	}
	return a
}

func (a *heapAllocator) Alloc() []byte {
	buf := a.pool.Get().([]byte)
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (a *heapAllocator) Free(buf []byte) {
	if cap(buf) != a.size {
		return
	}
	a.pool.Put(buf[:a.size])
}

func (a *heapAllocator) BlockSize() int { return a.size }

// FailingAllocator is a test double whose Alloc always reports exhaustion,
// exercising the protocol engine's EBUSY fallback path.
type FailingAllocator struct {
	size int
}

// NewFailingAllocator builds an allocator that never succeeds.
func NewFailingAllocator(blockSize int) *FailingAllocator {
	return &FailingAllocator{size: blockSize}
}

func (a *FailingAllocator) Alloc() []byte   { return nil }
func (a *FailingAllocator) Free(buf []byte) {}
func (a *FailingAllocator) BlockSize() int  { return a.size }

// UndersizedAllocator always returns a buffer smaller than requested,
// exercising the ERXOVERFLOW fallback path.
type UndersizedAllocator struct {
	size int
}

// NewUndersizedAllocator builds an allocator that hands out buffers one
// byte shorter than blockSize.
func NewUndersizedAllocator(blockSize int) *UndersizedAllocator {
	return &UndersizedAllocator{size: blockSize}
}

func (a *UndersizedAllocator) Alloc() []byte {
	if a.size <= 1 {
		return nil
	}
	return make([]byte, a.size-1)
}
func (a *UndersizedAllocator) Free(buf []byte) {}
func (a *UndersizedAllocator) BlockSize() int  { return a.size }
