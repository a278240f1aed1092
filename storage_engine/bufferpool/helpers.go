package bufferpool

import (
	"HeronDB/storage_engine/page"

	"github.com/dgraph-io/ristretto/v2"
)

/*
This file holds helper functions for the bufferpool
*/

// ristrettoCache builds the victim cache. Sized to hold roughly one pool's
// worth of evicted pages; admission counters at 10x keys per ristretto docs.
func ristrettoCache(capacity int) (*ristretto.Cache[int64, []byte], error) {
	if capacity < 1 {
		capacity = 1
	}
	return ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters: int64(capacity) * 10,
		MaxCost:     int64(capacity) * page.PageSize,
		BufferItems: 64,
	})
}

// GetStats returns current buffer pool statistics
func (bp *BufferPool) GetStats() BufferPoolStats {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	stats := BufferPoolStats{
		TotalPages: len(bp.pages),
		Capacity:   bp.capacity,
	}

	for _, pg := range bp.pages {
		pg.RLock()
		if pg.PinCount > 0 {
			stats.PinnedPages++
		}
		if pg.IsDirty {
			stats.DirtyPages++
		}
		pg.RUnlock()
	}

	return stats
}

// PinnedPageCount reports how many frames currently hold at least one pin.
func (bp *BufferPool) PinnedPageCount() int {
	return bp.GetStats().PinnedPages
}

// Size returns the current number of pages in the buffer pool
func (bp *BufferPool) Size() int {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	return len(bp.pages)
}

// Capacity returns the maximum capacity of the buffer pool
func (bp *BufferPool) Capacity() int {
	return bp.capacity
}
