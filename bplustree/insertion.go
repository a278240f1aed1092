package bplus

import (
	"fmt"

	"HeronDB/types"
)

// InsertEntry adds one (key, record id) pair to the index. Duplicate keys are
// accepted; within a run of equal keys, entries keep insertion order.
func (idx *BTreeIndex) InsertEntry(key int32, rid types.RecordID) error {
	prom, err := idx.insertNonLeaf(idx.rootPageNo, key, rid)
	if err != nil {
		return err
	}
	if prom != nil {
		return idx.growRoot(prom)
	}
	return nil
}

// insertNonLeaf carries the insert down through one non-leaf node. The node's
// page stays pinned across the recursive call, so the path from the root to
// the touched leaf is pinned while the leaf is being modified.
func (idx *BTreeIndex) insertNonLeaf(pageNo int64, key int32, rid types.RecordID) (*promotion, error) {
	pg, err := idx.bufMgr.FetchPage(idx.fileID, pageNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node page %d: %w", pageNo, err)
	}
	node := decodeNonLeaf(pg.Data)

	slot := chooseChild(node, key)
	childPageNo := node.children[slot]

	var prom *promotion
	if node.childrenAreLeaves {
		prom, err = idx.insertLeaf(childPageNo, key, rid)
	} else {
		prom, err = idx.insertNonLeaf(childPageNo, key, rid)
	}
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, pageNo, false)
		return nil, err
	}
	if prom == nil {
		if err := idx.bufMgr.UnpinPage(idx.fileID, pageNo, false); err != nil {
			return nil, err
		}
		return nil, nil
	}

	// The child split: adopt its separator and new right sibling.
	node.keys = append(node.keys, 0)
	copy(node.keys[slot+1:], node.keys[slot:])
	node.keys[slot] = prom.midKey
	node.children = append(node.children, 0)
	copy(node.children[slot+2:], node.children[slot+1:])
	node.children[slot+1] = prom.rightPageNo

	if len(node.children) <= NonLeafCapacity+1 {
		encodeNonLeaf(pg.Data, node)
		if err := idx.bufMgr.UnpinPage(idx.fileID, pageNo, true); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return idx.splitNonLeaf(pg, node)
}

// insertLeaf places the entry into its leaf, splitting when the leaf is full.
func (idx *BTreeIndex) insertLeaf(pageNo int64, key int32, rid types.RecordID) (*promotion, error) {
	pg, err := idx.bufMgr.FetchPage(idx.fileID, pageNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaf page %d: %w", pageNo, err)
	}
	leaf := decodeLeaf(pg.Data)

	pos := len(leaf.keys)
	for i, k := range leaf.keys {
		if k > key {
			pos = i
			break
		}
	}
	leaf.keys = append(leaf.keys, 0)
	copy(leaf.keys[pos+1:], leaf.keys[pos:])
	leaf.keys[pos] = key
	leaf.rids = append(leaf.rids, types.RecordID{})
	copy(leaf.rids[pos+1:], leaf.rids[pos:])
	leaf.rids[pos] = rid

	if len(leaf.keys) <= LeafCapacity {
		encodeLeaf(pg.Data, leaf)
		if err := idx.bufMgr.UnpinPage(idx.fileID, pageNo, true); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return idx.splitLeaf(pg, leaf)
}

// growRoot installs a new root above the old one after a root split. The
// root is always a non-leaf node.
func (idx *BTreeIndex) growRoot(prom *promotion) error {
	oldRootPageNo := idx.rootPageNo

	newPg, err := idx.newNodePage()
	if err != nil {
		return err
	}
	newRoot := &nonLeafNode{
		childrenAreLeaves: false,
		keys:              []int32{prom.midKey},
		children:          []int64{oldRootPageNo, prom.rightPageNo},
	}
	encodeNonLeaf(newPg.Data, newRoot)
	newRootPageNo := newPg.PageNo
	if err := idx.bufMgr.UnpinPage(idx.fileID, newRootPageNo, true); err != nil {
		return err
	}

	idx.rootPageNo = newRootPageNo
	if idx.rootSync == RootSyncOnSplit {
		return idx.writeMetaRoot()
	}
	return nil
}

// writeMetaRoot rewrites the metadata page with the current root page number.
func (idx *BTreeIndex) writeMetaRoot() error {
	pg, err := idx.bufMgr.FetchPage(idx.fileID, idx.headerPageNo)
	if err != nil {
		return fmt.Errorf("failed to fetch metadata page: %w", err)
	}
	meta, err := decodeMeta(pg.Data)
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, false)
		return err
	}
	meta.rootPageNo = idx.rootPageNo
	encodeMeta(pg.Data, meta)
	return idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, true)
}
