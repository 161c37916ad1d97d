package index

import "sync/atomic"

// Gate publishes the store once startup loading has finished.
type Gate struct {
	store atomic.Pointer[Store]
}

func NewGate() *Gate {
	return &Gate{}
}

// Set publishes the store. Later calls are ignored and report false.
func (g *Gate) Set(store *Store) bool {
	return g.store.CompareAndSwap(nil, store)
}

func (g *Gate) Store() (*Store, bool) {
	s := g.store.Load()
	return s, s != nil
}

func (g *Gate) Ready() bool {
	return g.store.Load() != nil
}
