package heapfile

import (
	"HeronDB/types"
	"fmt"
)

// initializePage allocates and writes a new empty page with header and empty
// slot directory, returning its page number.
func (hf *HeapFile) initializePage() (uint32, error) {
	pageNo, err := hf.dm.AllocatePage(hf.fileID)
	if err != nil {
		return 0, err
	}

	page := make([]byte, PageSize)
	header := PageHeader{
		FileID:     hf.fileID,
		PageNo:     uint32(pageNo),
		FreePtr:    PageHeaderSize, // data area starts right after the header
		NumRecords: 0,
		FreeSpace:  PageSize - PageHeaderSize,
		IsPageFull: 0,
		SlotCount:  0,
	}
	writePageHeader(page, &header)

	if err := hf.writePage(uint32(pageNo), page); err != nil {
		return 0, err
	}
	return uint32(pageNo), nil
}

// findSuitablePage finds a page with enough space for the required record size
func (hf *HeapFile) findSuitablePage(requiredSpace uint16) (uint32, error) {
	numPages, err := hf.numPages()
	if err != nil {
		return 0, err
	}

	for pageNo := uint32(0); int64(pageNo) < numPages; pageNo++ {
		page, err := hf.readPage(pageNo)
		if err != nil {
			return 0, err
		}

		header := readPageHeader(page)
		if header.IsPageFull != 0 {
			continue
		}

		availableSpace := calculateFreeSpace(header)
		if availableSpace >= requiredSpace+SlotSize {
			return pageNo, nil
		}
	}

	// No page with room, append a fresh one
	return hf.initializePage()
}

// InsertRecord appends one record to the heap file and returns its locator.
func (hf *HeapFile) InsertRecord(record []byte) (types.RecordID, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	recordLen := uint16(len(record))
	maxRecordSize := uint16(PageSize - PageHeaderSize - SlotSize)
	if recordLen == 0 {
		return types.InvalidRecordID, fmt.Errorf("empty record")
	}
	if recordLen > maxRecordSize {
		return types.InvalidRecordID, fmt.Errorf("record too large: %d bytes (max: %d)", recordLen, maxRecordSize)
	}

	pageNo, err := hf.findSuitablePage(recordLen)
	if err != nil {
		return types.InvalidRecordID, err
	}

	page, err := hf.readPage(pageNo)
	if err != nil {
		return types.InvalidRecordID, err
	}

	header := readPageHeader(page)

	// Write record data at freePtr
	recordOffset := header.FreePtr
	copy(page[recordOffset:recordOffset+recordLen], record)

	// Add slot entry (this updates SlotCount in the page)
	slotIndex := addSlot(page, recordOffset, recordLen)

	// Re-read header to get updated SlotCount
	header = readPageHeader(page)
	header.FreePtr += recordLen
	header.NumRecords++
	header.FreeSpace = calculateFreeSpace(header)

	// Mark page as full if no space left for another record of this size
	if header.FreeSpace < recordLen+SlotSize {
		header.IsPageFull = 1
	}

	writePageHeader(page, header)

	if err := hf.writePage(pageNo, page); err != nil {
		return types.InvalidRecordID, err
	}

	return types.RecordID{PageNo: pageNo, SlotNo: slotIndex}, nil
}

// GetRecord retrieves a record from the heap file using its locator.
func (hf *HeapFile) GetRecord(rid types.RecordID) ([]byte, error) {
	hf.mu.RLock()
	defer hf.mu.RUnlock()

	if !rid.Valid() {
		return nil, fmt.Errorf("invalid record id")
	}

	page, err := hf.readPage(rid.PageNo)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", rid.PageNo, err)
	}

	slot := readSlot(page, rid.SlotNo)
	if slot == nil || slot.Offset == 0 || slot.Length == 0 {
		return nil, fmt.Errorf("invalid slot at index %d", rid.SlotNo)
	}

	record := getRecordData(page, slot)
	if record == nil {
		return nil, fmt.Errorf("failed to read record data from slot %d", rid.SlotNo)
	}

	out := make([]byte, len(record))
	copy(out, record)
	return out, nil
}

// RelationName returns the name this heap file was opened under.
func (hf *HeapFile) RelationName() string {
	return hf.relName
}
