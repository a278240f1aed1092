package diskmanager

import (
	"HeronDB/storage_engine/page"
	"HeronDB/types"
	"fmt"
	"os"
)

/*
This is main file for disk manager
It owns:
File descriptors (os.File)
Reading/writing raw bytes at specific offsets (ReadAt, WriteAt)
Page allocation (tracking NextPageNo per file)

A paged file is a plain sequence of PageSize blocks, numbered from 0. An
index file keeps its metadata page at page 0 and its nodes from page 1; a
heap file stores records in every page, page 0 included. The buffer pool sits on top: on a cache miss it asks the disk manager
to load the page, on eviction/flush it hands dirty frames back down.
*/

func NewDiskManager() *DiskManager {
	return &DiskManager{
		files:      make(map[uint32]*FileDescriptor),
		nextFileID: 1,
	}
}

func NewPage(fileID uint32, pageNo int64, pageType types.PageType) *page.Page {
	return &page.Page{
		FileID:   fileID,
		PageNo:   pageNo,
		Data:     make([]byte, page.PageSize),
		IsDirty:  false,
		PinCount: 0,
		PageType: pageType,
	}
}

// OpenFile opens an existing paged file. It does NOT create: a missing file
// reports ErrFileNotFound so the caller can decide to build a fresh one.
func (dm *DiskManager) OpenFile(filePath string) (uint32, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	// Already open — return existing.
	for id, fd := range dm.files {
		if fd.FilePath == filePath {
			return id, nil
		}
	}

	file, err := os.OpenFile(filePath, os.O_RDWR, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, filePath)
		}
		return 0, fmt.Errorf("failed to open file %s: %w", filePath, err)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	numPages := stat.Size() / int64(page.PageSize)

	fileID := dm.nextFileID
	dm.nextFileID++

	dm.files[fileID] = &FileDescriptor{
		FileID:     fileID,
		FilePath:   filePath,
		File:       file,
		NextPageNo: numPages,
	}

	return fileID, nil
}

// CreateFile creates a new empty paged file. Fails if the file already exists.
func (dm *DiskManager) CreateFile(filePath string) (uint32, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}

	fileID := dm.nextFileID
	dm.nextFileID++

	dm.files[fileID] = &FileDescriptor{
		FileID:     fileID,
		FilePath:   filePath,
		File:       file,
		NextPageNo: 0,
	}

	return fileID, nil
}

// FirstPageNo returns the metadata page's number. Page 0 by layout.
func (dm *DiskManager) FirstPageNo(fileID uint32) int64 {
	return 0
}

// ReadPage reads one page from disk into a fresh frame.
func (dm *DiskManager) ReadPage(fileID uint32, pageNo int64) (*page.Page, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()

	if fd.File == nil {
		return nil, fmt.Errorf("file %d is closed", fileID)
	}

	if pageNo < 0 || pageNo >= fd.NextPageNo {
		return nil, fmt.Errorf("page %d out of range for file %d (have %d pages)", pageNo, fileID, fd.NextPageNo)
	}

	pg := NewPage(fileID, pageNo, types.PageTypeUnknown)
	offset := pageNo * int64(page.PageSize)
	n, err := fd.File.ReadAt(pg.Data, offset)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("failed to read page %d from file %d: %w", pageNo, fileID, err)
	}

	// Pad with zeros if partial read
	for i := n; i < page.PageSize; i++ {
		pg.Data[i] = 0
	}

	return pg, nil
}

// WritePage writes a page to disk
func (dm *DiskManager) WritePage(pg *page.Page) error {
	dm.mu.RLock()
	fd, exists := dm.files[pg.FileID]
	dm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("file %d not found", pg.FileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return fmt.Errorf("file %d is closed", pg.FileID)
	}

	if len(pg.Data) != page.PageSize {
		return fmt.Errorf("page data size %d does not match page size %d", len(pg.Data), page.PageSize)
	}

	offset := pg.PageNo * int64(page.PageSize)
	if _, err := fd.File.WriteAt(pg.Data, offset); err != nil {
		return fmt.Errorf("failed to write page %d to file %d: %w", pg.PageNo, pg.FileID, err)
	}

	if pg.PageNo >= fd.NextPageNo {
		fd.NextPageNo = pg.PageNo + 1
	}

	pg.IsDirty = false
	return nil
}

// AllocatePage reserves the next available page number for a file and updates
// internal counters. It does NOT write anything to disk — that is the
// BufferPool's responsibility when it later flushes the dirty page.
func (dm *DiskManager) AllocatePage(fileID uint32) (int64, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()

	if !exists {
		return 0, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return 0, fmt.Errorf("file %d is closed", fileID)
	}

	pageNo := fd.NextPageNo
	fd.NextPageNo++

	return pageNo, nil
}

// NumPages returns how many pages the file currently spans.
func (dm *DiskManager) NumPages(fileID uint32) (int64, error) {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()

	if !exists {
		return 0, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return fd.NextPageNo, nil
}

// SyncFile flushes one file's OS buffers to disk.
func (dm *DiskManager) SyncFile(fileID uint32) error {
	dm.mu.RLock()
	fd, exists := dm.files[fileID]
	dm.mu.RUnlock()

	if !exists {
		return fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return nil
	}
	if err := fd.File.Sync(); err != nil {
		return fmt.Errorf("failed to sync file %d: %w", fileID, err)
	}
	return nil
}

// CloseFile syncs and closes a specific file
func (dm *DiskManager) CloseFile(fileID uint32) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()

	if fd.File == nil {
		return nil // Already closed
	}

	if err := fd.File.Sync(); err != nil {
		return fmt.Errorf("failed to sync before close: %w", err)
	}

	if err := fd.File.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	fd.File = nil
	delete(dm.files, fileID)

	return nil
}

// CloseAll closes all open files
func (dm *DiskManager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var lastErr error
	for fileID, fd := range dm.files {
		fd.mu.Lock()
		if fd.File != nil {
			if err := fd.File.Sync(); err != nil {
				lastErr = err
			}
			if err := fd.File.Close(); err != nil {
				lastErr = err
			}
			fd.File = nil
		}
		fd.mu.Unlock()
		delete(dm.files, fileID)
	}

	return lastErr
}

// GetFileDescriptor returns the file descriptor for a given file ID
func (dm *DiskManager) GetFileDescriptor(fileID uint32) (*FileDescriptor, error) {
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	fd, exists := dm.files[fileID]
	if !exists {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	return fd, nil
}
