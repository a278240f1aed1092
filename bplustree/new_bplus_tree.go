package bplus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"

	"HeronDB/storage_engine/bufferpool"
	diskmanager "HeronDB/storage_engine/disk_manager"
	"HeronDB/types"
)

// NewBTreeIndex opens the index for (relation, attribute offset), creating
// and bulk-loading it from scanner when the file does not exist yet. On an
// open of an existing file the scanner is ignored and the stored metadata
// must match cfg, otherwise ErrBadIndexInfo. Returns the handle and the
// index file name.
func NewBTreeIndex(bufMgr *bufferpool.BufferPool, dm *diskmanager.DiskManager, scanner RecordScanner, cfg Config) (*BTreeIndex, string, error) {
	if cfg.AttrType != types.AttrInteger {
		return nil, "", fmt.Errorf("unsupported attribute type %d: %w", cfg.AttrType, ErrBadIndexInfo)
	}
	if len(cfg.RelationName) > relNameSize {
		return nil, "", fmt.Errorf("relation name %q too long: %w", cfg.RelationName, ErrBadIndexInfo)
	}

	indexName := fmt.Sprintf("%s.%d", cfg.RelationName, cfg.AttrByteOffset)
	indexPath := filepath.Join(cfg.Dir, indexName)

	idx := &BTreeIndex{
		indexName:      indexName,
		bufMgr:         bufMgr,
		dm:             dm,
		attrByteOffset: int32(cfg.AttrByteOffset),
		attrType:       cfg.AttrType,
		rootSync:       cfg.RootSync,
		currentPageNo:  InvalidPageNo,
	}

	fileID, err := dm.OpenFile(indexPath)
	switch {
	case err == nil:
		idx.fileID = fileID
		idx.headerPageNo = dm.FirstPageNo(fileID)
		if err := idx.adoptMeta(cfg); err != nil {
			dm.CloseFile(fileID)
			return nil, "", err
		}
	case errors.Is(err, diskmanager.ErrFileNotFound):
		fileID, err = dm.CreateFile(indexPath)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create index file %s: %w", indexPath, err)
		}
		idx.fileID = fileID
		if err := idx.initialize(cfg, scanner); err != nil {
			dm.CloseFile(fileID)
			return nil, "", err
		}
	default:
		return nil, "", fmt.Errorf("failed to open index file %s: %w", indexPath, err)
	}

	return idx, indexName, nil
}

// adoptMeta reads the metadata page of an existing index file and checks it
// against the open parameters.
func (idx *BTreeIndex) adoptMeta(cfg Config) error {
	pg, err := idx.bufMgr.FetchPage(idx.fileID, idx.headerPageNo)
	if err != nil {
		return fmt.Errorf("failed to fetch metadata page: %w", err)
	}
	meta, err := decodeMeta(pg.Data)
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, false)
		return err
	}
	if err := idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, false); err != nil {
		return err
	}

	if meta.relationName != cfg.RelationName ||
		meta.attrByteOffset != int32(cfg.AttrByteOffset) ||
		meta.attrType != cfg.AttrType {
		return fmt.Errorf("index %s opened with mismatched parameters: %w", idx.indexName, ErrBadIndexInfo)
	}

	idx.rootPageNo = meta.rootPageNo
	return nil
}

// initialize lays out a fresh index file (metadata page, one empty leaf, the
// root above it) and streams the relation's records into it. A nil scanner
// leaves the index empty.
func (idx *BTreeIndex) initialize(cfg Config, scanner RecordScanner) error {
	metaPg, err := idx.bufMgr.NewPage(idx.fileID, types.PageTypeMetadata)
	if err != nil {
		return fmt.Errorf("failed to allocate metadata page: %w", err)
	}
	idx.headerPageNo = metaPg.PageNo

	leafPg, err := idx.newNodePage()
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, true)
		return err
	}
	encodeLeaf(leafPg.Data, &leafNode{rightSibPageNo: InvalidPageNo})
	leafPageNo := leafPg.PageNo
	if err := idx.bufMgr.UnpinPage(idx.fileID, leafPageNo, true); err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, true)
		return err
	}

	rootPg, err := idx.newNodePage()
	if err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, true)
		return err
	}
	encodeNonLeaf(rootPg.Data, &nonLeafNode{
		childrenAreLeaves: true,
		children:          []int64{leafPageNo},
	})
	idx.rootPageNo = rootPg.PageNo
	if err := idx.bufMgr.UnpinPage(idx.fileID, idx.rootPageNo, true); err != nil {
		idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, true)
		return err
	}

	encodeMeta(metaPg.Data, &metaInfo{
		relationName:   cfg.RelationName,
		attrByteOffset: int32(cfg.AttrByteOffset),
		attrType:       cfg.AttrType,
		rootPageNo:     idx.rootPageNo,
	})
	if err := idx.bufMgr.UnpinPage(idx.fileID, idx.headerPageNo, true); err != nil {
		return err
	}

	if scanner == nil {
		return nil
	}
	return idx.buildFromScan(scanner)
}

// buildFromScan inserts one entry per record of the base relation.
func (idx *BTreeIndex) buildFromScan(scanner RecordScanner) error {
	for {
		rid, record, err := scanner.Next()
		if errors.Is(err, types.ErrEndOfFile) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to scan base relation: %w", err)
		}

		if len(record) < int(idx.attrByteOffset)+keySize {
			return fmt.Errorf("record %v too short for attribute at offset %d", rid, idx.attrByteOffset)
		}
		key := int32(binary.LittleEndian.Uint32(record[idx.attrByteOffset:]))
		if err := idx.InsertEntry(key, rid); err != nil {
			return err
		}
	}
}

// Close shuts the index down: any running scan is ended, a moved root is
// written back to the metadata page, and the file's pages are flushed and
// the file closed.
func (idx *BTreeIndex) Close() error {
	var lastErr error

	if idx.scanExecuting {
		if err := idx.EndScan(); err != nil {
			lastErr = err
		}
	}

	if err := idx.writeMetaRoot(); err != nil {
		lastErr = err
	}
	if err := idx.bufMgr.FlushFile(idx.fileID); err != nil {
		lastErr = err
	}
	if err := idx.dm.CloseFile(idx.fileID); err != nil {
		lastErr = err
	}
	return lastErr
}

// IndexName returns the file name of the index.
func (idx *BTreeIndex) IndexName() string {
	return idx.indexName
}
