package diskmanager

import (
	"errors"
	"os"
	"sync"
)

// ############################################# DISK MANAGER #############################################

// ErrFileNotFound is returned by OpenFile when the named file does not exist.
// The index lifecycle uses it to switch from the reopen path to the create path.
var ErrFileNotFound = errors.New("file not found")

// DiskManager manages all disk I/O operations and file handles
type DiskManager struct {
	files      map[uint32]*FileDescriptor // fileID -> file descriptor
	nextFileID uint32
	mu         sync.RWMutex
}

// FileDescriptor represents an open file managed by the disk manager
type FileDescriptor struct {
	FileID     uint32
	FilePath   string
	File       *os.File
	NextPageNo int64 // next page number within this file
	mu         sync.RWMutex
}
