package bplus

import (
	"fmt"

	"HeronDB/storage_engine/page"
	"HeronDB/types"
)

// newNodePage allocates a fresh node page through the buffer pool. The page
// comes back pinned and dirty.
func (idx *BTreeIndex) newNodePage() (*page.Page, error) {
	pg, err := idx.bufMgr.NewPage(idx.fileID, types.PageTypeBPlusNode)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate node page: %w", err)
	}
	return pg, nil
}

// splitLeaf divides an overfull leaf across the old page and a new right
// sibling. The first key of the right leaf is copied up as the separator; it
// stays in the leaf, unlike a non-leaf split. leaf holds LeafCapacity+1
// entries on entry; pg is the pinned page it was decoded from.
func (idx *BTreeIndex) splitLeaf(pg *page.Page, leaf *leafNode) (*promotion, error) {
	mid := (len(leaf.keys)) / 2 // 341 entries: left keeps 170, right takes 171

	rightPg, err := idx.newNodePage()
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, pg.PageNo, false)
		return nil, err
	}
	right := &leafNode{
		keys:           append([]int32(nil), leaf.keys[mid:]...),
		rids:           append([]types.RecordID(nil), leaf.rids[mid:]...),
		rightSibPageNo: leaf.rightSibPageNo,
	}
	left := &leafNode{
		keys:           leaf.keys[:mid],
		rids:           leaf.rids[:mid],
		rightSibPageNo: rightPg.PageNo,
	}

	encodeLeaf(rightPg.Data, right)
	if err := idx.bufMgr.UnpinPage(idx.fileID, rightPg.PageNo, true); err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, pg.PageNo, false)
		return nil, err
	}

	encodeLeaf(pg.Data, left)
	if err := idx.bufMgr.UnpinPage(idx.fileID, pg.PageNo, true); err != nil {
		return nil, err
	}

	return &promotion{midKey: right.keys[0], rightPageNo: rightPg.PageNo}, nil
}
