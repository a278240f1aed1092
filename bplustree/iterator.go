package bplus

import (
	"fmt"

	"HeronDB/types"
)

// StartScan opens a range scan bounded below by (lowVal, lowOp) and above by
// (highVal, highOp). Low bounds must use GT or GTE, high bounds LT or LTE.
// An already-running scan is ended first. On success exactly one leaf page is
// pinned until EndScan is called, also after ScanNext has exhausted the range.
func (idx *BTreeIndex) StartScan(lowVal int32, lowOp Operator, highVal int32, highOp Operator) error {
	if (lowOp != GT && lowOp != GTE) || (highOp != LT && highOp != LTE) {
		return ErrBadOpcodes
	}
	if lowVal > highVal {
		return ErrBadScanRange
	}

	if idx.scanExecuting {
		if err := idx.EndScan(); err != nil {
			return err
		}
	}

	leafPageNo, err := idx.descendToLeaf(lowVal, chooseChildScan)
	if err != nil {
		return err
	}

	pg, err := idx.bufMgr.FetchPage(idx.fileID, leafPageNo)
	if err != nil {
		return fmt.Errorf("failed to fetch leaf page %d: %w", leafPageNo, err)
	}
	leaf := decodeLeaf(pg.Data)

	// Walk right along the sibling chain until an entry satisfies the low
	// bound. Equal keys may spill onto the next leaf, so the search cannot
	// stop at the first leaf the descent lands on.
	for {
		for i, k := range leaf.keys {
			if satisfiesLow(k, lowVal, lowOp) {
				idx.scanExecuting = true
				idx.lowValInt = lowVal
				idx.lowOp = lowOp
				idx.highValInt = highVal
				idx.highOp = highOp
				idx.currentPageNo = leafPageNo
				idx.currentLeaf = leaf
				idx.nextEntry = i
				return nil
			}
		}

		next := leaf.rightSibPageNo
		if next == InvalidPageNo {
			if err := idx.bufMgr.UnpinPage(idx.fileID, leafPageNo, false); err != nil {
				return err
			}
			return ErrNoSuchKeyFound
		}

		// Pin the sibling before releasing the current leaf.
		nextPg, err := idx.bufMgr.FetchPage(idx.fileID, next)
		if err != nil {
			idx.bufMgr.UnpinPage(idx.fileID, leafPageNo, false)
			return fmt.Errorf("failed to fetch leaf page %d: %w", next, err)
		}
		if err := idx.bufMgr.UnpinPage(idx.fileID, leafPageNo, false); err != nil {
			idx.bufMgr.UnpinPage(idx.fileID, next, false)
			return err
		}
		leafPageNo = next
		leaf = decodeLeaf(nextPg.Data)
	}
}

// ScanNext yields the record id of the next entry in the range. Returns
// ErrIndexScanCompleted once the range is exhausted; the scan must still be
// closed with EndScan.
func (idx *BTreeIndex) ScanNext() (types.RecordID, error) {
	if !idx.scanExecuting {
		return types.InvalidRecordID, ErrScanNotInitialized
	}
	if idx.nextEntry == doneEntry || idx.nextEntry >= len(idx.currentLeaf.keys) {
		return types.InvalidRecordID, ErrIndexScanCompleted
	}

	key := idx.currentLeaf.keys[idx.nextEntry]
	if !satisfiesHigh(key, idx.highValInt, idx.highOp) {
		return types.InvalidRecordID, ErrIndexScanCompleted
	}
	rid := idx.currentLeaf.rids[idx.nextEntry]

	if idx.nextEntry+1 < len(idx.currentLeaf.keys) {
		idx.nextEntry++
		return rid, nil
	}

	next := idx.currentLeaf.rightSibPageNo
	if next == InvalidPageNo {
		idx.nextEntry = doneEntry
		return rid, nil
	}

	nextPg, err := idx.bufMgr.FetchPage(idx.fileID, next)
	if err != nil {
		return types.InvalidRecordID, fmt.Errorf("failed to fetch leaf page %d: %w", next, err)
	}
	if err := idx.bufMgr.UnpinPage(idx.fileID, idx.currentPageNo, false); err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, next, false)
		return types.InvalidRecordID, err
	}
	idx.currentPageNo = next
	idx.currentLeaf = decodeLeaf(nextPg.Data)
	idx.nextEntry = 0
	return rid, nil
}

// EndScan closes the running scan and releases its pinned leaf.
func (idx *BTreeIndex) EndScan() error {
	if !idx.scanExecuting {
		return ErrScanNotInitialized
	}

	err := idx.bufMgr.UnpinPage(idx.fileID, idx.currentPageNo, false)

	idx.scanExecuting = false
	idx.lowValInt, idx.highValInt = 0, 0
	idx.lowOp, idx.highOp = 0, 0
	idx.currentPageNo = InvalidPageNo
	idx.currentLeaf = nil
	idx.nextEntry = 0
	return err
}

func satisfiesLow(key, low int32, op Operator) bool {
	if op == GT {
		return key > low
	}
	return key >= low
}

func satisfiesHigh(key, high int32, op Operator) bool {
	if op == LT {
		return key < high
	}
	return key <= high
}
