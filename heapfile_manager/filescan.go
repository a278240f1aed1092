package heapfile

import (
	"HeronDB/types"
)

// FileScan walks a heap file front to back, yielding every live record with
// its locator. The page count is captured at construction, so records
// inserted mid-scan on a fresh page are not visited.
type FileScan struct {
	hf       *HeapFile
	numPages int64
	pageNo   uint32
	slotNo   uint16
	pageData []byte
}

// NewFileScan starts a scan over every record of the heap file.
func (hf *HeapFile) NewFileScan() (*FileScan, error) {
	numPages, err := hf.numPages()
	if err != nil {
		return nil, err
	}
	return &FileScan{hf: hf, numPages: numPages}, nil
}

// Next yields the next record and its locator. Returns types.ErrEndOfFile
// once every page has been visited.
func (fs *FileScan) Next() (types.RecordID, []byte, error) {
	for {
		if int64(fs.pageNo) >= fs.numPages {
			return types.InvalidRecordID, nil, types.ErrEndOfFile
		}

		if fs.pageData == nil {
			page, err := fs.hf.readPage(fs.pageNo)
			if err != nil {
				return types.InvalidRecordID, nil, err
			}
			fs.pageData = page
		}

		header := readPageHeader(fs.pageData)
		for fs.slotNo < header.SlotCount {
			idx := fs.slotNo
			fs.slotNo++

			slot := readSlot(fs.pageData, idx)
			if slot == nil || slot.Offset == 0 || slot.Length == 0 {
				continue
			}
			rid := types.RecordID{PageNo: fs.pageNo, SlotNo: idx}
			return rid, getRecordData(fs.pageData, slot), nil
		}

		fs.pageNo++
		fs.slotNo = 0
		fs.pageData = nil
	}
}
