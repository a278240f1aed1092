package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"

	bplus "HeronDB/bplustree"
	heapfile "HeronDB/heapfile_manager"
	"HeronDB/storage_engine/bufferpool"
	diskmanager "HeronDB/storage_engine/disk_manager"
	"HeronDB/types"
)

const (
	baseDir    = "databases/demo"
	attrOffset = 0
	poolSize   = 128
)

// Demo: seed a relation with random-keyed records, build a secondary index
// over the key attribute, and run a couple of range scans against it.
func main() {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	dm := diskmanager.NewDiskManager()
	defer dm.CloseAll()
	bufMgr := bufferpool.NewBufferPool(poolSize, dm)

	hfm, err := heapfile.NewHeapFileManager(baseDir, dm)
	if err != nil {
		log.Fatalf("heap file manager: %v", err)
	}
	defer hfm.CloseAll()

	hf, err := hfm.OpenRelation("employees")
	if err != nil {
		log.Fatalf("open relation: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	const n = 5000
	for i := 0; i < n; i++ {
		record := make([]byte, 16)
		binary.LittleEndian.PutUint32(record[attrOffset:], uint32(rng.Int31n(100000)))
		if _, err := hf.InsertRecord(record); err != nil {
			log.Fatalf("insert record %d: %v", i, err)
		}
	}
	fmt.Printf("seeded %d records into %s\n", n, hf.RelationName())

	scan, err := hf.NewFileScan()
	if err != nil {
		log.Fatalf("file scan: %v", err)
	}
	idx, indexName, err := bplus.NewBTreeIndex(bufMgr, dm, scan, bplus.Config{
		RelationName:   "employees",
		AttrByteOffset: attrOffset,
		AttrType:       types.AttrInteger,
		Dir:            baseDir,
	})
	if err != nil {
		log.Fatalf("build index: %v", err)
	}
	defer idx.Close()
	fmt.Printf("built index %s\n", indexName)

	st, err := idx.Stats()
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	fmt.Printf("tree: height %d, %d leaves, %d entries, keys [%d, %d]\n",
		st.Height, st.LeafNodes, st.Entries, st.MinKey, st.MaxKey)

	for _, r := range []struct {
		low, high int32
	}{
		{1000, 1100},
		{50000, 50200},
	} {
		count, err := rangeCount(idx, r.low, r.high)
		if err != nil {
			log.Fatalf("scan [%d, %d]: %v", r.low, r.high, err)
		}
		fmt.Printf("scan [%d, %d]: %d matching entries\n", r.low, r.high, count)
	}
}

func rangeCount(idx *bplus.BTreeIndex, low, high int32) (int, error) {
	err := idx.StartScan(low, bplus.GTE, high, bplus.LTE)
	if errors.Is(err, bplus.ErrNoSuchKeyFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer idx.EndScan()

	count := 0
	for {
		if _, err := idx.ScanNext(); err != nil {
			if errors.Is(err, bplus.ErrIndexScanCompleted) {
				return count, nil
			}
			return count, err
		}
		count++
	}
}
