package heapfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	diskmanager "HeronDB/storage_engine/disk_manager"
	"HeronDB/types"
)

func newTestRelation(t *testing.T, name string) *HeapFile {
	t.Helper()

	dm := diskmanager.NewDiskManager()
	t.Cleanup(func() { dm.CloseAll() })

	hfm, err := NewHeapFileManager(t.TempDir(), dm)
	if err != nil {
		t.Fatalf("Failed to create heap file manager: %v", err)
	}

	hf, err := hfm.OpenRelation(name)
	if err != nil {
		t.Fatalf("Failed to open relation: %v", err)
	}
	return hf
}

// makeRecord builds a fixed-width record with an int32 key at offset 0 and
// a little filler after it, the shape the index build path consumes.
func makeRecord(key int32) []byte {
	record := make([]byte, 16)
	binary.LittleEndian.PutUint32(record[0:4], uint32(key))
	copy(record[4:], []byte("filler data"))
	return record
}

func TestInsertAndGetRecord(t *testing.T) {
	hf := newTestRelation(t, "employees")

	rid, err := hf.InsertRecord(makeRecord(42))
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}
	if !rid.Valid() {
		t.Fatal("Insert returned invalid record id")
	}

	got, err := hf.GetRecord(rid)
	if err != nil {
		t.Fatalf("Failed to get record: %v", err)
	}
	if !bytes.Equal(got, makeRecord(42)) {
		t.Errorf("Record data mismatch: got %v", got)
	}
}

func TestInsertRejectsBadRecords(t *testing.T) {
	hf := newTestRelation(t, "bad_records")

	if _, err := hf.InsertRecord(nil); err == nil {
		t.Error("Expected error for empty record")
	}
	huge := make([]byte, PageSize)
	if _, err := hf.InsertRecord(huge); err == nil {
		t.Error("Expected error for oversized record")
	}
}

func TestFileScanVisitsEveryRecord(t *testing.T) {
	hf := newTestRelation(t, "scan_me")

	// Enough records to spill onto multiple pages.
	const n = 600
	inserted := make(map[types.RecordID]int32, n)
	for i := 0; i < n; i++ {
		rid, err := hf.InsertRecord(makeRecord(int32(i)))
		if err != nil {
			t.Fatalf("Failed to insert record %d: %v", i, err)
		}
		inserted[rid] = int32(i)
	}

	numPages, err := hf.numPages()
	if err != nil {
		t.Fatalf("Failed to count pages: %v", err)
	}
	if numPages < 2 {
		t.Fatalf("Expected records to span multiple pages, got %d", numPages)
	}

	scan, err := hf.NewFileScan()
	if err != nil {
		t.Fatalf("Failed to start scan: %v", err)
	}

	seen := 0
	for {
		rid, record, err := scan.Next()
		if errors.Is(err, types.ErrEndOfFile) {
			break
		}
		if err != nil {
			t.Fatalf("Scan failed after %d records: %v", seen, err)
		}
		want, ok := inserted[rid]
		if !ok {
			t.Fatalf("Scan yielded unknown rid %v", rid)
		}
		got := int32(binary.LittleEndian.Uint32(record[0:4]))
		if got != want {
			t.Errorf("Key mismatch at %v: got %d, want %d", rid, got, want)
		}
		seen++
	}
	if seen != n {
		t.Errorf("Scan visited %d records, want %d", seen, n)
	}
}

func TestChecksumDetectsCorruption(t *testing.T) {
	hf := newTestRelation(t, "corrupt_me")

	rid, err := hf.InsertRecord(makeRecord(7))
	if err != nil {
		t.Fatalf("Failed to insert record: %v", err)
	}

	// Flip a byte in the record area behind the checksum's back.
	pg, err := hf.dm.ReadPage(hf.fileID, int64(rid.PageNo))
	if err != nil {
		t.Fatalf("Failed to read raw page: %v", err)
	}
	pg.Data[PageHeaderSize] ^= 0xFF
	if err := hf.dm.WritePage(pg); err != nil {
		t.Fatalf("Failed to write corrupted page: %v", err)
	}

	if _, err := hf.GetRecord(rid); err == nil {
		t.Error("Expected checksum failure reading corrupted page")
	}
}

func TestOpenRelationIsIdempotent(t *testing.T) {
	dm := diskmanager.NewDiskManager()
	defer dm.CloseAll()

	hfm, err := NewHeapFileManager(t.TempDir(), dm)
	if err != nil {
		t.Fatalf("Failed to create heap file manager: %v", err)
	}

	a, err := hfm.OpenRelation("dup")
	if err != nil {
		t.Fatalf("First open failed: %v", err)
	}
	b, err := hfm.OpenRelation("dup")
	if err != nil {
		t.Fatalf("Second open failed: %v", err)
	}
	if a != b {
		t.Error("Expected the same HeapFile for repeated opens")
	}
}
