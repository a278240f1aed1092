package bufferpool

import (
	diskmanager "HeronDB/storage_engine/disk_manager"
	"HeronDB/storage_engine/page"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
)

// ############################################# BUFFER POOL #############################################

// BufferPool manages cached pages in memory with LRU eviction
// Works with both heap file pages and B+ tree index pages
//
// Frames are keyed by a global page ID: fileID<<32 | pageNo. Evicted clean
// frames are parked in a ristretto victim cache so a re-fetch shortly after
// eviction can skip the disk read.
type BufferPool struct {
	pages       map[int64]*page.Page // globalPageID -> frame
	capacity    int
	diskManager *diskmanager.DiskManager
	accessOrder []int64 // LRU tracking: most recently used at end
	victim      *ristretto.Cache[int64, []byte]
	mu          sync.Mutex
}

// BufferPoolStats returns buffer pool statistics
type BufferPoolStats struct {
	TotalPages  int
	PinnedPages int
	DirtyPages  int
	Capacity    int
}

func globalPageID(fileID uint32, pageNo int64) int64 {
	return int64(fileID)<<32 | pageNo
}
