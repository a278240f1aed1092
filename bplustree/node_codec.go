package bplus

import (
	"encoding/binary"
	"fmt"

	"HeronDB/types"

	"github.com/cespare/xxhash/v2"
)

/*
Page layouts (all little-endian):

Leaf page
  [0:8)   right sibling page number (InvalidPageNo terminates the chain)
  entry i at 8+i*12:
    [+0:+4)  key (int32)
    [+4:+8)  rid page number (uint32)
    [+8:+10) rid slot number (uint16)
    [+10:+12) reserved
  unused entries carry types.InvalidRecordID as a sentinel

Non-leaf page
  [0]        childrenAreLeaves flag
  [1:8)      reserved
  [8:1368)   keys (340 x int32)
  [1368:4096) children (341 x int64); 0 marks the end of the live prefix

Metadata page (page 0)
  [0:64)   relation name, NUL padded
  [64:68)  attribute byte offset (int32)
  [68:72)  attribute type (int32)
  [72:80)  root page number (int64)
  [80:88)  xxhash64 over [0:80)
*/

const (
	leafEntrySize = keySize + ridSize

	nonLeafKeysOff     = nonLeafHeaderSize
	nonLeafChildrenOff = nonLeafHeaderSize + NonLeafCapacity*keySize

	metaRootOff     = relNameSize + 4 + 4
	metaChecksumOff = metaRootOff + 8
)

func encodeLeaf(data []byte, n *leafNode) {
	for i := range data {
		data[i] = 0
	}
	binary.LittleEndian.PutUint64(data[0:8], uint64(n.rightSibPageNo))
	off := leafHeaderSize
	for i := range n.keys {
		binary.LittleEndian.PutUint32(data[off:], uint32(n.keys[i]))
		binary.LittleEndian.PutUint32(data[off+4:], n.rids[i].PageNo)
		binary.LittleEndian.PutUint16(data[off+8:], n.rids[i].SlotNo)
		off += leafEntrySize
	}
	for i := len(n.keys); i < LeafCapacity; i++ {
		binary.LittleEndian.PutUint32(data[off+4:], types.InvalidRecordID.PageNo)
		binary.LittleEndian.PutUint16(data[off+8:], types.InvalidRecordID.SlotNo)
		off += leafEntrySize
	}
}

func decodeLeaf(data []byte) *leafNode {
	n := &leafNode{
		rightSibPageNo: int64(binary.LittleEndian.Uint64(data[0:8])),
	}
	off := leafHeaderSize
	for i := 0; i < LeafCapacity; i++ {
		rid := types.RecordID{
			PageNo: binary.LittleEndian.Uint32(data[off+4:]),
			SlotNo: binary.LittleEndian.Uint16(data[off+8:]),
		}
		if !rid.Valid() {
			break
		}
		n.keys = append(n.keys, int32(binary.LittleEndian.Uint32(data[off:])))
		n.rids = append(n.rids, rid)
		off += leafEntrySize
	}
	return n
}

func encodeNonLeaf(data []byte, n *nonLeafNode) {
	for i := range data {
		data[i] = 0
	}
	if n.childrenAreLeaves {
		data[0] = 1
	}
	for i, k := range n.keys {
		binary.LittleEndian.PutUint32(data[nonLeafKeysOff+i*keySize:], uint32(k))
	}
	for i, c := range n.children {
		binary.LittleEndian.PutUint64(data[nonLeafChildrenOff+i*pageNoSize:], uint64(c))
	}
}

func decodeNonLeaf(data []byte) *nonLeafNode {
	n := &nonLeafNode{childrenAreLeaves: data[0] == 1}
	for i := 0; i <= NonLeafCapacity; i++ {
		c := int64(binary.LittleEndian.Uint64(data[nonLeafChildrenOff+i*pageNoSize:]))
		if c == InvalidPageNo {
			break
		}
		n.children = append(n.children, c)
	}
	for i := 0; i < len(n.children)-1; i++ {
		n.keys = append(n.keys, int32(binary.LittleEndian.Uint32(data[nonLeafKeysOff+i*keySize:])))
	}
	return n
}

func encodeMeta(data []byte, m *metaInfo) {
	for i := range data {
		data[i] = 0
	}
	copy(data[0:relNameSize], m.relationName)
	binary.LittleEndian.PutUint32(data[relNameSize:], uint32(m.attrByteOffset))
	binary.LittleEndian.PutUint32(data[relNameSize+4:], uint32(m.attrType))
	binary.LittleEndian.PutUint64(data[metaRootOff:], uint64(m.rootPageNo))
	sum := xxhash.Sum64(data[:metaChecksumOff])
	binary.LittleEndian.PutUint64(data[metaChecksumOff:], sum)
}

func decodeMeta(data []byte) (*metaInfo, error) {
	want := binary.LittleEndian.Uint64(data[metaChecksumOff:])
	if got := xxhash.Sum64(data[:metaChecksumOff]); got != want {
		return nil, fmt.Errorf("metadata checksum mismatch: %w", ErrBadIndexInfo)
	}
	name := data[0:relNameSize]
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}
	return &metaInfo{
		relationName:   string(name[:end]),
		attrByteOffset: int32(binary.LittleEndian.Uint32(data[relNameSize:])),
		attrType:       types.AttrType(binary.LittleEndian.Uint32(data[relNameSize+4:])),
		rootPageNo:     int64(binary.LittleEndian.Uint64(data[metaRootOff:])),
	}, nil
}
