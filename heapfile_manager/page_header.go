package heapfile

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// writePageHeader serializes the page header to the first 32 bytes of the page
func writePageHeader(page []byte, header *PageHeader) {
	binary.LittleEndian.PutUint32(page[0:4], header.FileID)
	binary.LittleEndian.PutUint32(page[4:8], header.PageNo)
	binary.LittleEndian.PutUint16(page[8:10], header.FreePtr)
	binary.LittleEndian.PutUint16(page[10:12], header.NumRecords)
	binary.LittleEndian.PutUint16(page[12:14], header.FreeSpace)
	binary.LittleEndian.PutUint16(page[14:16], header.IsPageFull)
	binary.LittleEndian.PutUint16(page[16:18], header.SlotCount)
	binary.LittleEndian.PutUint64(page[18:26], header.Checksum)
	// bytes 26-31 are reserved for future use
}

// readPageHeader deserializes the page header from the first 32 bytes of the page
func readPageHeader(page []byte) *PageHeader {
	return &PageHeader{
		FileID:     binary.LittleEndian.Uint32(page[0:4]),
		PageNo:     binary.LittleEndian.Uint32(page[4:8]),
		FreePtr:    binary.LittleEndian.Uint16(page[8:10]),
		NumRecords: binary.LittleEndian.Uint16(page[10:12]),
		FreeSpace:  binary.LittleEndian.Uint16(page[12:14]),
		IsPageFull: binary.LittleEndian.Uint16(page[14:16]),
		SlotCount:  binary.LittleEndian.Uint16(page[16:18]),
		Checksum:   binary.LittleEndian.Uint64(page[18:26]),
	}
}

// pageBodyChecksum hashes everything past the header: record data plus the
// slot directory. The header itself is excluded so the checksum field does
// not feed its own hash.
func pageBodyChecksum(page []byte) uint64 {
	return xxhash.Sum64(page[PageHeaderSize:])
}

// sealPage recomputes and stores the body checksum. Call after any mutation,
// right before the page goes back to disk.
func sealPage(page []byte) {
	header := readPageHeader(page)
	header.Checksum = pageBodyChecksum(page)
	writePageHeader(page, header)
}

// verifyPage checks the stored body checksum.
func verifyPage(page []byte) bool {
	header := readPageHeader(page)
	return header.Checksum == pageBodyChecksum(page)
}
