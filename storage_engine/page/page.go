package page

import (
	"HeronDB/types"
	"sync"
)

const (
	PageSize = 4096
)

/*
This contains a page struct
this can be moved to seperate entites of index file manager and heap file manager
but a central package allows more clear way, since both of the pages are ultimately be send to bufferpool

the package is to use common struct variables, the actual format of writing the data is different in both the page type
for heap page: the layout lives in /HeronDB/heapfile_manager
for index page: the layout lives in /HeronDB/bplustree/node_codec.go
*/

type Page struct {
	FileID   uint32
	PageNo   int64 // page number inside its file; offset = PageNo * PageSize
	Data     []byte
	IsDirty  bool
	PinCount int32
	PageType types.PageType
	mu       sync.RWMutex
}

func (p *Page) Lock() {
	p.mu.Lock()
}

func (p *Page) Unlock() {
	p.mu.Unlock()
}

func (p *Page) RLock() {
	p.mu.RLock()
}

func (p *Page) RUnlock() {
	p.mu.RUnlock()
}
