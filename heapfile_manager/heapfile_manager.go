package heapfile

import (
	diskmanager "HeronDB/storage_engine/disk_manager"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

/*
HeapFileManager owns the base relations: one slotted-page heap file per
relation, opened lazily by name. The index build path streams a relation
through a FileScan (see filescan.go) to extract keys.
*/

func NewHeapFileManager(baseDir string, dm *diskmanager.DiskManager) (*HeapFileManager, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", baseDir, err)
		}
	}
	return &HeapFileManager{
		baseDir: baseDir,
		dm:      dm,
		files:   make(map[string]*HeapFile),
	}, nil
}

// OpenRelation opens the named relation's heap file, creating it when absent.
func (hfm *HeapFileManager) OpenRelation(relName string) (*HeapFile, error) {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	if hf, ok := hfm.files[relName]; ok {
		return hf, nil
	}

	filePath := filepath.Join(hfm.baseDir, relName+".tbl")
	fileID, err := hfm.dm.OpenFile(filePath)
	if errors.Is(err, diskmanager.ErrFileNotFound) {
		fileID, err = hfm.dm.CreateFile(filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open relation %s: %w", relName, err)
	}

	hf := &HeapFile{
		relName:  relName,
		fileID:   fileID,
		dm:       hfm.dm,
		filePath: filePath,
	}
	hfm.files[relName] = hf
	return hf, nil
}

// CloseAll closes every open heap file.
func (hfm *HeapFileManager) CloseAll() error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	var lastErr error
	for name, hf := range hfm.files {
		if err := hfm.dm.CloseFile(hf.fileID); err != nil {
			lastErr = err
		}
		delete(hfm.files, name)
	}
	return lastErr
}
