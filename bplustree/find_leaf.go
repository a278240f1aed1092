package bplus

import "fmt"

// chooseChild picks the child an insert descends into for key: the slot of
// the first separator strictly greater than key. Equal keys descend right,
// so runs of duplicates keep insertion order.
func chooseChild(n *nonLeafNode, key int32) int {
	for i, k := range n.keys {
		if k > key {
			return i
		}
	}
	return len(n.keys)
}

// chooseChildScan picks the leftmost child that can still hold key.
// Separators are copied up from leaves, so entries equal to a separator may
// sit in the child left of it; a scan must land there and walk right.
func chooseChildScan(n *nonLeafNode, key int32) int {
	for i, k := range n.keys {
		if k >= key {
			return i
		}
	}
	return len(n.keys)
}

// descendToLeaf walks from the root to a leaf, steering with choose at each
// non-leaf node. Every page on the path is unpinned clean before moving on,
// so the caller arrives holding no pins.
func (idx *BTreeIndex) descendToLeaf(key int32, choose func(*nonLeafNode, int32) int) (int64, error) {
	pageNo := idx.rootPageNo
	for {
		pg, err := idx.bufMgr.FetchPage(idx.fileID, pageNo)
		if err != nil {
			return InvalidPageNo, fmt.Errorf("failed to fetch node page %d: %w", pageNo, err)
		}
		node := decodeNonLeaf(pg.Data)
		if err := idx.bufMgr.UnpinPage(idx.fileID, pageNo, false); err != nil {
			return InvalidPageNo, err
		}

		child := node.children[choose(node, key)]
		if node.childrenAreLeaves {
			return child, nil
		}
		pageNo = child
	}
}
