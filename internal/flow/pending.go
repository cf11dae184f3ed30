package flow

import "sync"

// PendingTxIndex maps internal transaction ids to their on-chain hashes.
// Entries are write-once: the first recorded hash for a tx id wins. The index
// is never pruned; it is bounded by session length and discarded with the
// adapter instance.
type PendingTxIndex struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewPendingTxIndex creates an empty index.
func NewPendingTxIndex() *PendingTxIndex {
	return &PendingTxIndex{m: make(map[string]string)}
}

// Record stores the on-chain hash for a tx id unless one is already known.
func (i *PendingTxIndex) Record(txID, txHash string) {
	if txID == "" || txHash == "" {
		return
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if _, exists := i.m[txID]; !exists {
		i.m[txID] = txHash
	}
}

// Lookup returns the on-chain hash recorded for a tx id, if any.
func (i *PendingTxIndex) Lookup(txID string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	hash, ok := i.m[txID]
	return hash, ok
}
