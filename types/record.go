package types

import (
	"errors"
	"fmt"
)

// RecordID locates one record inside a heap file: the page it lives on and
// its index in that page's slot directory. Index leaves store these verbatim
// and only ever compare them for equality.
type RecordID struct {
	PageNo uint32
	SlotNo uint16
}

// InvalidRecordID marks an empty leaf slot. All bits set so it can never
// collide with a real locator.
var InvalidRecordID = RecordID{PageNo: ^uint32(0), SlotNo: ^uint16(0)}

func (r RecordID) Valid() bool {
	return r != InvalidRecordID
}

func (r RecordID) String() string {
	if !r.Valid() {
		return "rid(invalid)"
	}
	return fmt.Sprintf("rid(%d.%d)", r.PageNo, r.SlotNo)
}

// AttrType tags the indexed column's type on the metadata page.
// Only 4-byte integers are supported.
type AttrType int32

const (
	AttrInteger AttrType = iota
)

// ErrEndOfFile is returned by relation scanners when no records remain.
var ErrEndOfFile = errors.New("end of file")
