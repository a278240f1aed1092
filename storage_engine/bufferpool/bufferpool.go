package bufferpool

import (
	diskmanager "HeronDB/storage_engine/disk_manager"
	"HeronDB/storage_engine/page"
	"HeronDB/types"
	"fmt"
)

/*
This file is the main file of the bufferpool
The buffer pool works on LRU based caching mechanism
and holds access to disk manager for flushing the pages in the cache onto the disk
similarly if page not found in the cache, disk manager loads the page from the disk and adds in the cache for future access

Pin discipline is the contract the index engine is built against:
  - FetchPage / NewPage return the frame with its pin count incremented
  - UnpinPage releases one pin and records the dirty bit; it fails on an
    unpinned page so leaks and double-unpins surface immediately
  - FlushFile refuses to run while any of the file's pages are pinned
*/

// NewBufferPool creates a new buffer pool with the given capacity
func NewBufferPool(capacity int, diskManager *diskmanager.DiskManager) *BufferPool {
	// Victim cache sized to hold as many evicted pages as the pool itself.
	victim, _ := ristrettoCache(capacity)
	return &BufferPool{
		pages:       make(map[int64]*page.Page, capacity),
		capacity:    capacity,
		diskManager: diskManager,
		accessOrder: make([]int64, 0, capacity),
		victim:      victim,
	}
}

// FetchPage retrieves a page from the buffer pool, loading from the victim
// cache or disk if necessary. Returns the page with pin count incremented.
func (bp *BufferPool) FetchPage(fileID uint32, pageNo int64) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	gid := globalPageID(fileID, pageNo)

	// Check if page is in buffer pool
	if pg, exists := bp.pages[gid]; exists {
		bp.updateAccessOrder(gid)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	if bp.diskManager == nil {
		return nil, fmt.Errorf("disk manager not set")
	}

	// Victim cache hit: rebuild the frame without touching disk. The entry
	// is removed so later mutations of the live frame can never be shadowed
	// by a stale copy.
	var pg *page.Page
	if bp.victim != nil {
		if data, ok := bp.victim.Get(gid); ok && len(data) == page.PageSize {
			bp.victim.Del(gid)
			pg = diskmanager.NewPage(fileID, pageNo, types.PageTypeUnknown)
			copy(pg.Data, data)
		}
	}

	if pg == nil {
		loaded, err := bp.diskManager.ReadPage(fileID, pageNo)
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d from disk: %w", pageNo, err)
		}
		pg = loaded
	}

	// Add to buffer pool (may trigger eviction)
	if err := bp.addPage(pg); err != nil {
		return nil, fmt.Errorf("failed to add page to buffer pool: %w", err)
	}

	// Pin the page
	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	return pg, nil
}

// NewPage asks the DiskManager for the next available page number for the
// given file, constructs a blank Page struct entirely in RAM, marks it dirty
// so the BufferPool will eventually flush it, and pins it for the caller.
func (bp *BufferPool) NewPage(fileID uint32, pageType types.PageType) (*page.Page, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return nil, fmt.Errorf("disk manager not set")
	}

	pageNo, err := bp.diskManager.AllocatePage(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate page: %w", err)
	}

	pg := diskmanager.NewPage(fileID, pageNo, pageType)
	pg.IsDirty = true // New pages are dirty by default

	pg.Lock()
	pg.PinCount++
	pg.Unlock()

	if err := bp.addPage(pg); err != nil {
		pg.Lock()
		pg.PinCount--
		pg.Unlock()
		return nil, fmt.Errorf("failed to add new page to buffer pool: %w", err)
	}

	return pg, nil
}

// UnpinPage decrements the pin count for a page and records the dirty bit.
func (bp *BufferPool) UnpinPage(fileID uint32, pageNo int64, isDirty bool) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	gid := globalPageID(fileID, pageNo)
	pg, exists := bp.pages[gid]
	if !exists {
		return fmt.Errorf("page %d of file %d not in buffer pool", pageNo, fileID)
	}

	pg.Lock()
	defer pg.Unlock()

	if pg.PinCount <= 0 {
		return fmt.Errorf("page %d of file %d is not pinned", pageNo, fileID)
	}
	pg.PinCount--

	if isDirty {
		pg.IsDirty = true
	}

	return nil
}

// FlushFile writes all of one file's dirty pages to disk and discards its
// frames. Every page of the file must be unpinned first.
func (bp *BufferPool) FlushFile(fileID uint32) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return fmt.Errorf("disk manager not set")
	}

	// Refuse while anything is still pinned so a leaked pin cannot be
	// silently dropped along with its frame.
	for gid, pg := range bp.pages {
		if pg.FileID != fileID {
			continue
		}
		pg.RLock()
		pinned := pg.PinCount > 0
		pg.RUnlock()
		if pinned {
			return fmt.Errorf("cannot flush file %d: page %d still pinned", fileID, gid&0xFFFFFFFF)
		}
	}

	for gid, pg := range bp.pages {
		if pg.FileID != fileID {
			continue
		}
		pg.Lock()
		if pg.IsDirty {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page %d: %w", pg.PageNo, err)
			}
			pg.IsDirty = false
		}
		pg.Unlock()

		delete(bp.pages, gid)
		bp.removeFromAccessOrder(gid)
	}

	return bp.diskManager.SyncFile(fileID)
}

// FlushAllPages writes all dirty pages to disk without discarding frames.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.diskManager == nil {
		return fmt.Errorf("disk manager not set")
	}

	for pageID, pg := range bp.pages {
		pg.Lock()
		if pg.IsDirty {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to flush page %d: %w", pageID, err)
			}
			pg.IsDirty = false
		}
		pg.Unlock()
	}

	return nil
}

// addPage adds a page to the buffer pool, evicting if necessary
// Assumes lock is already held
func (bp *BufferPool) addPage(pg *page.Page) error {
	gid := globalPageID(pg.FileID, pg.PageNo)

	// If page already in pool, just update access order
	if _, exists := bp.pages[gid]; exists {
		bp.updateAccessOrder(gid)
		return nil
	}

	// If at capacity, evict LRU page
	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLRU(); err != nil {
			return fmt.Errorf("failed to evict page: %w", err)
		}
	}

	bp.pages[gid] = pg
	bp.updateAccessOrder(gid)

	return nil
}

// evictLRU evicts the least recently used unpinned page
// Assumes lock is already held
func (bp *BufferPool) evictLRU() error {
	for i := 0; i < len(bp.accessOrder); i++ {
		gid := bp.accessOrder[i]
		pg, exists := bp.pages[gid]

		if !exists {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			i--
			continue
		}

		pg.Lock()
		// Skip pinned pages
		if pg.PinCount > 0 {
			pg.Unlock()
			continue
		}

		if pg.IsDirty && bp.diskManager != nil {
			if err := bp.diskManager.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("failed to write page %d during eviction: %w", gid, err)
			}
			pg.IsDirty = false
		}

		// Park the now-clean bytes in the victim cache before dropping the frame.
		if bp.victim != nil {
			data := make([]byte, len(pg.Data))
			copy(data, pg.Data)
			bp.victim.Set(gid, data, int64(len(data)))
		}
		pg.Unlock()

		delete(bp.pages, gid)
		bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
		return nil
	}

	return fmt.Errorf("all pages are pinned, cannot evict")
}

// updateAccessOrder moves a page to the end of access order (most recently used)
// Assumes lock is already held
func (bp *BufferPool) updateAccessOrder(gid int64) {
	bp.removeFromAccessOrder(gid)
	bp.accessOrder = append(bp.accessOrder, gid)
}

// removeFromAccessOrder drops a page from the access order if present.
// Assumes lock is already held
func (bp *BufferPool) removeFromAccessOrder(gid int64) {
	for i, id := range bp.accessOrder {
		if id == gid {
			bp.accessOrder = append(bp.accessOrder[:i], bp.accessOrder[i+1:]...)
			break
		}
	}
}
