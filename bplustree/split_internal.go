package bplus

import (
	"HeronDB/storage_engine/page"
)

// splitNonLeaf divides an overfull non-leaf node. The middle key is pushed up
// to the parent and appears in neither half. node holds NonLeafCapacity+1
// keys and NonLeafCapacity+2 children on entry; pg is the pinned page it was
// decoded from.
func (idx *BTreeIndex) splitNonLeaf(pg *page.Page, node *nonLeafNode) (*promotion, error) {
	mid := len(node.keys) / 2 // 341 keys: left keeps 170, separator is keys[170]
	sep := node.keys[mid]

	rightPg, err := idx.newNodePage()
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, pg.PageNo, false)
		return nil, err
	}
	right := &nonLeafNode{
		childrenAreLeaves: node.childrenAreLeaves,
		keys:              append([]int32(nil), node.keys[mid+1:]...),
		children:          append([]int64(nil), node.children[mid+1:]...),
	}
	left := &nonLeafNode{
		childrenAreLeaves: node.childrenAreLeaves,
		keys:              node.keys[:mid],
		children:          node.children[:mid+1],
	}

	encodeNonLeaf(rightPg.Data, right)
	if err := idx.bufMgr.UnpinPage(idx.fileID, rightPg.PageNo, true); err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, pg.PageNo, false)
		return nil, err
	}

	encodeNonLeaf(pg.Data, left)
	if err := idx.bufMgr.UnpinPage(idx.fileID, pg.PageNo, true); err != nil {
		return nil, err
	}

	return &promotion{midKey: sep, rightPageNo: rightPg.PageNo}, nil
}
