package heapfile

import (
	"HeronDB/storage_engine/page"
	"HeronDB/types"
	"fmt"
)

// readPage loads a heap page from disk and verifies its checksum.
func (hf *HeapFile) readPage(pageNo uint32) ([]byte, error) {
	pg, err := hf.dm.ReadPage(hf.fileID, int64(pageNo))
	if err != nil {
		return nil, err
	}
	if !verifyPage(pg.Data) {
		return nil, fmt.Errorf("heap page %d of relation %s failed checksum verification", pageNo, hf.relName)
	}
	return pg.Data, nil
}

// writePage seals the page with a fresh checksum and writes it to disk.
func (hf *HeapFile) writePage(pageNo uint32, data []byte) error {
	sealPage(data)
	pg := &page.Page{
		FileID:   hf.fileID,
		PageNo:   int64(pageNo),
		Data:     data,
		PageType: types.PageTypeHeapData,
	}
	return hf.dm.WritePage(pg)
}

// numPages reports how many pages the heap file currently spans.
func (hf *HeapFile) numPages() (int64, error) {
	return hf.dm.NumPages(hf.fileID)
}
