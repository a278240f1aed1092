// Seed program: fills a relation with sample records and builds its index.
// Run: go run ./cmd/seed [num-records]
// Then inspect: go run ./cmd/inspect_idx databases/demo/employees.0
package main

import (
	"encoding/binary"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"

	bplus "HeronDB/bplustree"
	heapfile "HeronDB/heapfile_manager"
	"HeronDB/storage_engine/bufferpool"
	diskmanager "HeronDB/storage_engine/disk_manager"
	"HeronDB/types"

	"github.com/dustin/go-humanize"
)

const (
	baseDir    = "databases/demo"
	relation   = "employees"
	attrOffset = 0
)

func main() {
	n := 10000
	if len(os.Args) > 1 {
		parsed, err := strconv.Atoi(os.Args[1])
		if err != nil || parsed <= 0 {
			log.Fatalf("bad record count %q", os.Args[1])
		}
		n = parsed
	}

	if err := os.MkdirAll(baseDir, 0755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	dm := diskmanager.NewDiskManager()
	defer dm.CloseAll()
	bufMgr := bufferpool.NewBufferPool(128, dm)

	hfm, err := heapfile.NewHeapFileManager(baseDir, dm)
	if err != nil {
		log.Fatalf("heap file manager: %v", err)
	}
	defer hfm.CloseAll()

	hf, err := hfm.OpenRelation(relation)
	if err != nil {
		log.Fatalf("open relation: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < n; i++ {
		record := make([]byte, 32)
		binary.LittleEndian.PutUint32(record[attrOffset:], uint32(rng.Int31()))
		if _, err := hf.InsertRecord(record); err != nil {
			log.Fatalf("insert record %d: %v", i, err)
		}
	}
	fmt.Printf("seeded %s records into %s\n", humanize.Comma(int64(n)), relation)

	scan, err := hf.NewFileScan()
	if err != nil {
		log.Fatalf("file scan: %v", err)
	}
	idx, indexName, err := bplus.NewBTreeIndex(bufMgr, dm, scan, bplus.Config{
		RelationName:   relation,
		AttrByteOffset: attrOffset,
		AttrType:       types.AttrInteger,
		Dir:            baseDir,
	})
	if err != nil {
		log.Fatalf("build index: %v", err)
	}
	if err := idx.Close(); err != nil {
		log.Fatalf("close index: %v", err)
	}
	fmt.Printf("built and closed index %s\n", indexName)
}
