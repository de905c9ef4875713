package emu

import "github.com/sarchlab/xtsim/mem"

const (
	// prefetchQueueSize is the byte capacity of the 8088 prefetch queue.
	prefetchQueueSize = 4

	// busCyclesPerFetch is the bus cycles needed to prefetch one byte.
	busCyclesPerFetch uint64 = 4
)

// PrefetchStats holds prefetch queue activity counters.
type PrefetchStats struct {
	// BytesFetched counts bytes loaded into the queue.
	BytesFetched uint64

	// BytesServed counts instruction bytes that were already queued when
	// the decoder needed them.
	BytesServed uint64

	// BytesMissed counts instruction bytes the queue did not hold,
	// forcing a demand fetch.
	BytesMissed uint64

	// Flushes counts queue invalidations from taken branches, interrupt
	// transfers, and code writes.
	Flushes uint64
}

// PrefetchQueue models the bus interface unit's four-byte instruction
// lookahead. The queue tracks which code addresses are buffered and how
// far the current fetch has progressed; it does not duplicate memory
// contents, and the decoder always reads instruction bytes through the
// bus. The model is observational: base instruction costs already assume
// steady-state prefetch overlap, so the queue contributes statistics, not
// extra cycles.
type PrefetchQueue struct {
	start     uint32 // physical address of the first queued byte
	count     int    // fill length, 0..prefetchQueueSize
	fillCarry uint64 // cycles spent toward the next byte

	// resync is set by Flush: the fetch stream restarts at the next
	// consumed address, where bytes refilled since the flush belong.
	resync bool

	stats PrefetchStats
}

// NewPrefetchQueue returns an empty queue.
func NewPrefetchQueue() *PrefetchQueue {
	return &PrefetchQueue{}
}

// Reset empties the queue and clears its statistics.
func (q *PrefetchQueue) Reset() {
	q.start = 0
	q.count = 0
	q.fillCarry = 0
	q.resync = true
	q.stats = PrefetchStats{}
}

// Len returns the current fill length.
func (q *PrefetchQueue) Len() int {
	return q.count
}

// Stats returns the activity counters.
func (q *PrefetchQueue) Stats() PrefetchStats {
	return q.stats
}

// Flush empties the queue and restarts fill-cycle accounting. Taken
// branches flush because the hardware cannot fetch past a jump it has
// not executed yet.
func (q *PrefetchQueue) Flush() {
	q.count = 0
	q.fillCarry = 0
	q.resync = true
	q.stats.Flushes++
}

// InvalidateAddr flushes the queue if the written address falls inside
// the queued byte span. Stale prefetched bytes must not survive a code
// write.
func (q *PrefetchQueue) InvalidateAddr(addr uint32) {
	if q.count == 0 {
		return
	}
	off := (addr - q.start) & mem.AddressMask
	if off < uint32(q.count) {
		q.Flush()
	}
}

// Consume accounts for an instruction fetch of n bytes at the given
// physical address. Queued bytes serve the front of the fetch; the
// remainder counts as demand-fetch misses. The first fetch after a flush
// realigns the stream; a later fetch that does not line up with the
// queued span flushes first, since the buffered bytes belong to an
// abandoned code path.
func (q *PrefetchQueue) Consume(addr uint32, n int) {
	if q.resync {
		q.start = addr
		q.resync = false
	} else if q.count > 0 && addr != q.start {
		q.Flush()
		q.start = addr
		q.resync = false
	}

	served := n
	if served > q.count {
		served = q.count
	}
	q.stats.BytesServed += uint64(served)
	q.stats.BytesMissed += uint64(n - served)

	q.count -= served
	q.start = (addr + uint32(n)) & mem.AddressMask
}

// Refill advances the fill by the cycles the execution unit just spent.
// The bus interface unit loads one byte per busCyclesPerFetch cycles
// until the queue is full; cycle remainders carry into the next refill,
// and progress toward a byte is dropped once the queue fills.
func (q *PrefetchQueue) Refill(cycles uint64) {
	if q.count >= prefetchQueueSize {
		q.fillCarry = 0
		return
	}
	q.fillCarry += cycles
	for q.fillCarry >= busCyclesPerFetch && q.count < prefetchQueueSize {
		q.fillCarry -= busCyclesPerFetch
		q.count++
		q.stats.BytesFetched++
	}
	if q.count >= prefetchQueueSize {
		q.fillCarry = 0
	}
}
