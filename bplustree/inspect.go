package bplus

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
)

// TreeStats summarizes the shape of the tree.
type TreeStats struct {
	Height       int // levels of non-leaf nodes above the leaves
	NonLeafNodes int
	LeafNodes    int
	Entries      int
	MinKey       int32
	MaxKey       int32
}

// Stats walks the whole tree and returns its shape. All pages visited are
// unpinned clean before returning.
func (idx *BTreeIndex) Stats() (*TreeStats, error) {
	st := &TreeStats{}
	firstLeaf, err := idx.descendLeftSpine(idx.rootPageNo, st, 1)
	if err != nil {
		return nil, err
	}

	worklist := []int64{idx.rootPageNo}
	for len(worklist) > 0 {
		pageNo := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		node, err := idx.readNonLeaf(pageNo)
		if err != nil {
			return nil, err
		}
		st.NonLeafNodes++
		if !node.childrenAreLeaves {
			worklist = append(worklist, node.children...)
		}
	}

	// Follow the sibling chain for entry counts and key extremes.
	pageNo := firstLeaf
	first := true
	for pageNo != InvalidPageNo {
		leaf, err := idx.readLeaf(pageNo)
		if err != nil {
			return nil, err
		}
		st.LeafNodes++
		st.Entries += len(leaf.keys)
		if len(leaf.keys) > 0 {
			if first {
				st.MinKey = leaf.keys[0]
				first = false
			}
			st.MaxKey = leaf.keys[len(leaf.keys)-1]
		}
		pageNo = leaf.rightSibPageNo
	}
	return st, nil
}

// descendLeftSpine records the tree height and returns the page number of
// the leftmost leaf.
func (idx *BTreeIndex) descendLeftSpine(pageNo int64, st *TreeStats, depth int) (int64, error) {
	node, err := idx.readNonLeaf(pageNo)
	if err != nil {
		return InvalidPageNo, err
	}
	if depth > st.Height {
		st.Height = depth
	}
	if node.childrenAreLeaves {
		return node.children[0], nil
	}
	return idx.descendLeftSpine(node.children[0], st, depth+1)
}

// Validate walks the whole tree and checks its structural invariants: sorted
// keys, separator bounds, child counts, uniform leaf depth, and a sibling
// chain that visits every leaf left to right in sorted order.
func (idx *BTreeIndex) Validate() error {
	leaves, _, err := idx.validateNode(idx.rootPageNo, nil, nil)
	if err != nil {
		return err
	}

	// Sibling chain from the leftmost leaf must visit exactly the leaves the
	// descent found, in the same order.
	pageNo := leaves[0]
	var prevLast *int32
	i := 0
	for ; pageNo != InvalidPageNo; i++ {
		if i >= len(leaves) {
			return fmt.Errorf("sibling chain longer than tree: page %d unreachable from root", pageNo)
		}
		if pageNo != leaves[i] {
			return fmt.Errorf("sibling chain order mismatch at position %d: chain %d, tree %d", i, pageNo, leaves[i])
		}
		leaf, err := idx.readLeaf(pageNo)
		if err != nil {
			return err
		}
		if len(leaf.keys) > 0 {
			if prevLast != nil && leaf.keys[0] < *prevLast {
				return fmt.Errorf("leaf %d starts below the previous leaf's last key", pageNo)
			}
			last := leaf.keys[len(leaf.keys)-1]
			prevLast = &last
		}
		pageNo = leaf.rightSibPageNo
	}
	if i != len(leaves) {
		return fmt.Errorf("sibling chain ends after %d of %d leaves", i, len(leaves))
	}
	return nil
}

// validateNode checks one non-leaf node and its subtree. lower/upper are the
// exclusive-ish bounds inherited from ancestor separators (nil = unbounded).
// Returns the leaf page numbers of the subtree in left-to-right order and
// the subtree's leaf depth.
func (idx *BTreeIndex) validateNode(pageNo int64, lower, upper *int32) ([]int64, int, error) {
	node, err := idx.readNonLeaf(pageNo)
	if err != nil {
		return nil, 0, err
	}
	if len(node.children) != len(node.keys)+1 {
		return nil, 0, fmt.Errorf("node %d has %d keys but %d children", pageNo, len(node.keys), len(node.children))
	}
	for i := 1; i < len(node.keys); i++ {
		if node.keys[i-1] > node.keys[i] {
			return nil, 0, fmt.Errorf("node %d keys out of order at %d", pageNo, i)
		}
	}
	for _, k := range node.keys {
		if lower != nil && k < *lower {
			return nil, 0, fmt.Errorf("node %d key %d below ancestor separator %d", pageNo, k, *lower)
		}
		if upper != nil && k > *upper {
			return nil, 0, fmt.Errorf("node %d key %d above ancestor separator %d", pageNo, k, *upper)
		}
	}

	var leaves []int64
	depth := -1
	for i, child := range node.children {
		childLower, childUpper := lower, upper
		if i > 0 {
			childLower = &node.keys[i-1]
		}
		if i < len(node.keys) {
			childUpper = &node.keys[i]
		}

		if node.childrenAreLeaves {
			leaf, err := idx.readLeaf(child)
			if err != nil {
				return nil, 0, err
			}
			if err := checkLeafKeys(child, leaf, childLower, childUpper); err != nil {
				return nil, 0, err
			}
			leaves = append(leaves, child)
			if depth == -1 {
				depth = 1
			} else if depth != 1 {
				return nil, 0, fmt.Errorf("node %d mixes leaf and non-leaf children", pageNo)
			}
			continue
		}

		subLeaves, subDepth, err := idx.validateNode(child, childLower, childUpper)
		if err != nil {
			return nil, 0, err
		}
		if depth == -1 {
			depth = subDepth + 1
		} else if depth != subDepth+1 {
			return nil, 0, fmt.Errorf("node %d has children at uneven depths", pageNo)
		}
		leaves = append(leaves, subLeaves...)
	}
	return leaves, depth, nil
}

func checkLeafKeys(pageNo int64, leaf *leafNode, lower, upper *int32) error {
	for i := 1; i < len(leaf.keys); i++ {
		if leaf.keys[i-1] > leaf.keys[i] {
			return fmt.Errorf("leaf %d keys out of order at %d", pageNo, i)
		}
	}
	// Separators are copied up from leaves, so boundary keys may equal the
	// separator on either side when a duplicate run spans a split.
	for _, k := range leaf.keys {
		if lower != nil && k < *lower {
			return fmt.Errorf("leaf %d key %d below its separator %d", pageNo, k, *lower)
		}
		if upper != nil && k > *upper {
			return fmt.Errorf("leaf %d key %d above its separator %d", pageNo, k, *upper)
		}
	}
	return nil
}

// readLeaf fetches, decodes, and unpins one leaf page.
func (idx *BTreeIndex) readLeaf(pageNo int64) (*leafNode, error) {
	pg, err := idx.bufMgr.FetchPage(idx.fileID, pageNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaf page %d: %w", pageNo, err)
	}
	leaf := decodeLeaf(pg.Data)
	if err := idx.bufMgr.UnpinPage(idx.fileID, pageNo, false); err != nil {
		return nil, err
	}
	return leaf, nil
}

// readNonLeaf fetches, decodes, and unpins one non-leaf page.
func (idx *BTreeIndex) readNonLeaf(pageNo int64) (*nonLeafNode, error) {
	pg, err := idx.bufMgr.FetchPage(idx.fileID, pageNo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch node page %d: %w", pageNo, err)
	}
	node := decodeNonLeaf(pg.Data)
	if err := idx.bufMgr.UnpinPage(idx.fileID, pageNo, false); err != nil {
		return nil, err
	}
	return node, nil
}

// InspectIndexFile reads a closed index file directly from disk and returns
// a human-readable report of its metadata and shape.
func InspectIndexFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open index file: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat index file: %w", err)
	}

	readPage := func(pageNo int64) ([]byte, error) {
		data := make([]byte, PageSize)
		if _, err := f.ReadAt(data, pageNo*PageSize); err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", pageNo, err)
		}
		return data, nil
	}

	metaData, err := readPage(0)
	if err != nil {
		return "", err
	}
	meta, err := decodeMeta(metaData)
	if err != nil {
		return "", err
	}

	// Descend the leftmost spine for the height and the first leaf; the
	// worklist below then counts every non-leaf node.
	height := 0
	var firstLeaf int64
	for pageNo := meta.rootPageNo; ; {
		data, err := readPage(pageNo)
		if err != nil {
			return "", err
		}
		node := decodeNonLeaf(data)
		height++
		if node.childrenAreLeaves {
			firstLeaf = node.children[0]
			break
		}
		pageNo = node.children[0]
	}

	nonLeafNodes := 0
	worklist := []int64{meta.rootPageNo}
	for len(worklist) > 0 {
		pageNo := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]

		data, err := readPage(pageNo)
		if err != nil {
			return "", err
		}
		node := decodeNonLeaf(data)
		nonLeafNodes++
		if !node.childrenAreLeaves {
			worklist = append(worklist, node.children...)
		}
	}

	leafNodes, entries := 0, 0
	for p := firstLeaf; p != InvalidPageNo; {
		data, err := readPage(p)
		if err != nil {
			return "", err
		}
		leaf := decodeLeaf(data)
		leafNodes++
		entries += len(leaf.keys)
		p = leaf.rightSibPageNo
	}

	var b strings.Builder
	fmt.Fprintf(&b, "index file:    %s (%s)\n", path, humanize.Bytes(uint64(fi.Size())))
	fmt.Fprintf(&b, "relation:      %s, attribute offset %d\n", meta.relationName, meta.attrByteOffset)
	fmt.Fprintf(&b, "root page:     %d\n", meta.rootPageNo)
	fmt.Fprintf(&b, "height:        %d non-leaf level(s)\n", height)
	fmt.Fprintf(&b, "nodes:         %s non-leaf, %s leaf\n",
		humanize.Comma(int64(nonLeafNodes)), humanize.Comma(int64(leafNodes)))
	fmt.Fprintf(&b, "entries:       %s\n", humanize.Comma(int64(entries)))
	if leafNodes > 0 {
		occupancy := float64(entries) / float64(leafNodes*LeafCapacity) * 100
		fmt.Fprintf(&b, "leaf fill:     %.1f%%\n", occupancy)
	}
	return b.String(), nil
}
